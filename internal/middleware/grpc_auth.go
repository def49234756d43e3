package middleware

import (
	"context"

	"github.com/MikhailRaia/pyth/internal/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCSessionMiddleware struct {
	validator SessionValidator
}

func NewGRPCSessionMiddleware(validator SessionValidator) *GRPCSessionMiddleware {
	return &GRPCSessionMiddleware{
		validator: validator,
	}
}

// UnaryInterceptor reads a session from the "authorization" metadata.
// Both a raw token and "Bearer <token>" are accepted.
func (m *GRPCSessionMiddleware) UnaryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return handler(ctx, req)
	}

	values := md.Get("authorization")
	if len(values) == 0 || values[0] == "" {
		return handler(ctx, req)
	}

	token, ok := bearerToken(values[0])
	if !ok {
		token = values[0]
	}

	claims, err := m.validator.ValidateToken(token)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, err.Error())
	}

	return handler(auth.WithSession(ctx, auth.SessionOf(claims)), req)
}
