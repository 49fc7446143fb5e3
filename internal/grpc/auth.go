package grpc

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const serviceTokenHeader = "x-service-token"

// callerCheck admits sibling services that present the shared token.
type callerCheck struct {
	token []byte
}

func (c callerCheck) admit(ctx context.Context) error {
	presented, ok := presentedToken(ctx)
	switch {
	case !ok:
		return status.Error(codes.Unauthenticated, "principal query: service token missing")
	case subtle.ConstantTimeCompare([]byte(presented), c.token) != 1:
		return status.Error(codes.PermissionDenied, "principal query: service token rejected")
	default:
		return nil
	}
}

// NewServiceAuthUnaryInterceptor rejects every call that does not carry
// the shared service token.
func NewServiceAuthUnaryInterceptor(serviceToken string) (grpc.UnaryServerInterceptor, error) {
	if serviceToken == "" {
		return nil, errors.New("principal query service needs SERVICE_AUTH_TOKEN")
	}
	check := callerCheck{token: []byte(serviceToken)}
	return func(ctx context.Context, req interface{}, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if err := check.admit(ctx); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}, nil
}

// NewServer returns a gRPC server with the principal query service
// registered behind the service token check.
func NewServer(srv PrincipalQueryServer, serviceToken string) (*grpc.Server, error) {
	interceptor, err := NewServiceAuthUnaryInterceptor(serviceToken)
	if err != nil {
		return nil, err
	}
	server := grpc.NewServer(grpc.UnaryInterceptor(interceptor))
	RegisterPrincipalQueryServer(server, srv)
	return server, nil
}

func presentedToken(ctx context.Context) (string, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", false
	}
	for _, value := range md.Get(serviceTokenHeader) {
		if token := strings.TrimSpace(value); token != "" {
			return token, true
		}
	}
	return "", false
}
