package handler

import (
	"context"
	"errors"

	"github.com/MikhailRaia/pyth/internal/proto"
	"github.com/MikhailRaia/pyth/internal/service"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

type LinkGRPCServer struct {
	proto.UnimplementedLinkServiceServer
	linkService LinkService
}

func NewLinkGRPCServer(linkService LinkService) *LinkGRPCServer {
	return &LinkGRPCServer{
		linkService: linkService,
	}
}

func (s *LinkGRPCServer) Make(ctx context.Context, req *proto.MakeRequest) (*proto.LinkResponse, error) {
	l, err := s.linkService.Make(ctx, req.Link, req.Target, req.Password)
	if err != nil {
		return nil, grpcError(err)
	}

	return &proto.LinkResponse{
		Link:     l.Link,
		ShortUrl: s.linkService.ShortURL(l.Link),
		Target:   l.Target,
	}, nil
}

func (s *LinkGRPCServer) Decode(ctx context.Context, req *proto.DecodeRequest) (*proto.LinkResponse, error) {
	target, err := s.linkService.Decode(ctx, req.Link)
	if err != nil {
		return nil, grpcError(err)
	}

	return &proto.LinkResponse{
		Link:     req.Link,
		ShortUrl: s.linkService.ShortURL(req.Link),
		Target:   target,
	}, nil
}

func (s *LinkGRPCServer) ChangeLink(ctx context.Context, req *proto.ChangeLinkRequest) (*proto.LinkResponse, error) {
	newLink, err := s.linkService.ChangeLink(ctx, req.Link, req.Password, req.NewLink)
	if err != nil {
		return nil, grpcError(err)
	}

	return &proto.LinkResponse{
		Link:     newLink,
		ShortUrl: s.linkService.ShortURL(newLink),
	}, nil
}

func (s *LinkGRPCServer) ChangeTarget(ctx context.Context, req *proto.ChangeTargetRequest) (*proto.LinkResponse, error) {
	target, err := s.linkService.ChangeTarget(ctx, req.Link, req.Password, req.NewTarget)
	if err != nil {
		return nil, grpcError(err)
	}

	return &proto.LinkResponse{
		Link:     req.Link,
		ShortUrl: s.linkService.ShortURL(req.Link),
		Target:   target,
	}, nil
}

func (s *LinkGRPCServer) Delete(ctx context.Context, req *proto.CredentialsRequest) (*emptypb.Empty, error) {
	if err := s.linkService.Delete(ctx, req.Link, req.Password); err != nil {
		return nil, grpcError(err)
	}

	return &emptypb.Empty{}, nil
}

func (s *LinkGRPCServer) OpenSession(ctx context.Context, req *proto.CredentialsRequest) (*proto.SessionResponse, error) {
	token, err := s.linkService.OpenSession(ctx, req.Link, req.Password)
	if err != nil {
		return nil, grpcError(err)
	}

	return &proto.SessionResponse{Token: token}, nil
}

func grpcError(err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrWrongPassword):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrTaken):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, service.ErrSessionsDisabled):
		return status.Error(codes.Unimplemented, err.Error())
	default:
		log.Error().Err(err).Msg("RPC failed")
		return status.Error(codes.Internal, "internal error")
	}
}
