// Package proto holds the pyth.LinkService RPC contract. Messages travel
// as JSON through the codec in codec.go.
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

const serviceName = "pyth.LinkService"

type MakeRequest struct {
	Link     string `json:"link,omitempty"`
	Target   string `json:"target"`
	Password string `json:"password"`
}

type LinkResponse struct {
	Link     string `json:"link"`
	ShortUrl string `json:"short_url"`
	Target   string `json:"target,omitempty"`
}

type DecodeRequest struct {
	Link string `json:"link"`
}

type ChangeLinkRequest struct {
	Link     string `json:"link"`
	Password string `json:"password,omitempty"`
	NewLink  string `json:"new_link,omitempty"`
}

type ChangeTargetRequest struct {
	Link      string `json:"link"`
	Password  string `json:"password,omitempty"`
	NewTarget string `json:"new_target"`
}

type CredentialsRequest struct {
	Link     string `json:"link"`
	Password string `json:"password,omitempty"`
}

type SessionResponse struct {
	Token string `json:"token"`
}

// LinkServiceServer is the server API for LinkService service.
type LinkServiceServer interface {
	Make(context.Context, *MakeRequest) (*LinkResponse, error)
	Decode(context.Context, *DecodeRequest) (*LinkResponse, error)
	ChangeLink(context.Context, *ChangeLinkRequest) (*LinkResponse, error)
	ChangeTarget(context.Context, *ChangeTargetRequest) (*LinkResponse, error)
	Delete(context.Context, *CredentialsRequest) (*emptypb.Empty, error)
	OpenSession(context.Context, *CredentialsRequest) (*SessionResponse, error)
}

// UnimplementedLinkServiceServer can be embedded to have forward compatible implementations.
type UnimplementedLinkServiceServer struct{}

func (UnimplementedLinkServiceServer) Make(context.Context, *MakeRequest) (*LinkResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Make not implemented")
}
func (UnimplementedLinkServiceServer) Decode(context.Context, *DecodeRequest) (*LinkResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Decode not implemented")
}
func (UnimplementedLinkServiceServer) ChangeLink(context.Context, *ChangeLinkRequest) (*LinkResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ChangeLink not implemented")
}
func (UnimplementedLinkServiceServer) ChangeTarget(context.Context, *ChangeTargetRequest) (*LinkResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ChangeTarget not implemented")
}
func (UnimplementedLinkServiceServer) Delete(context.Context, *CredentialsRequest) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Delete not implemented")
}
func (UnimplementedLinkServiceServer) OpenSession(context.Context, *CredentialsRequest) (*SessionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method OpenSession not implemented")
}

func RegisterLinkServiceServer(s grpc.ServiceRegistrar, srv LinkServiceServer) {
	s.RegisterService(&linkServiceDesc, srv)
}

// unaryHandler adapts a typed method to grpc's handler signature.
func unaryHandler[Req any, Resp any](method string, call func(LinkServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(LinkServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + serviceName + "/" + method,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(LinkServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var linkServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*LinkServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("Make", LinkServiceServer.Make),
		unaryHandler("Decode", LinkServiceServer.Decode),
		unaryHandler("ChangeLink", LinkServiceServer.ChangeLink),
		unaryHandler("ChangeTarget", LinkServiceServer.ChangeTarget),
		unaryHandler("Delete", LinkServiceServer.Delete),
		unaryHandler("OpenSession", LinkServiceServer.OpenSession),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pyth.proto",
}

// LinkServiceClient is the client API for LinkService service.
type LinkServiceClient interface {
	Make(ctx context.Context, in *MakeRequest, opts ...grpc.CallOption) (*LinkResponse, error)
	Decode(ctx context.Context, in *DecodeRequest, opts ...grpc.CallOption) (*LinkResponse, error)
	ChangeLink(ctx context.Context, in *ChangeLinkRequest, opts ...grpc.CallOption) (*LinkResponse, error)
	ChangeTarget(ctx context.Context, in *ChangeTargetRequest, opts ...grpc.CallOption) (*LinkResponse, error)
	Delete(ctx context.Context, in *CredentialsRequest, opts ...grpc.CallOption) (*emptypb.Empty, error)
	OpenSession(ctx context.Context, in *CredentialsRequest, opts ...grpc.CallOption) (*SessionResponse, error)
}

type linkServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewLinkServiceClient returns a client that encodes messages with the JSON codec.
func NewLinkServiceClient(cc grpc.ClientConnInterface) LinkServiceClient {
	return &linkServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
	if err := cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *linkServiceClient) Make(ctx context.Context, in *MakeRequest, opts ...grpc.CallOption) (*LinkResponse, error) {
	return invoke[LinkResponse](ctx, c.cc, "Make", in, opts)
}

func (c *linkServiceClient) Decode(ctx context.Context, in *DecodeRequest, opts ...grpc.CallOption) (*LinkResponse, error) {
	return invoke[LinkResponse](ctx, c.cc, "Decode", in, opts)
}

func (c *linkServiceClient) ChangeLink(ctx context.Context, in *ChangeLinkRequest, opts ...grpc.CallOption) (*LinkResponse, error) {
	return invoke[LinkResponse](ctx, c.cc, "ChangeLink", in, opts)
}

func (c *linkServiceClient) ChangeTarget(ctx context.Context, in *ChangeTargetRequest, opts ...grpc.CallOption) (*LinkResponse, error) {
	return invoke[LinkResponse](ctx, c.cc, "ChangeTarget", in, opts)
}

func (c *linkServiceClient) Delete(ctx context.Context, in *CredentialsRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, "Delete", in, opts)
}

func (c *linkServiceClient) OpenSession(ctx context.Context, in *CredentialsRequest, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[SessionResponse](ctx, c.cc, "OpenSession", in, opts)
}
