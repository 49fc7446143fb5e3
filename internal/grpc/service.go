package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The principal query service uses well-known protobuf types on the wire,
// so it needs no generated stubs. The request of both methods is the
// principal id.
const (
	ServiceName        = "ecole.principal.v1.PrincipalQueryService"
	GetPrincipalMethod = "/" + ServiceName + "/GetPrincipal"
	ExistsMethod       = "/" + ServiceName + "/Exists"
)

type PrincipalQueryServer interface {
	GetPrincipal(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	Exists(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
}

func RegisterPrincipalQueryServer(s grpc.ServiceRegistrar, srv PrincipalQueryServer) {
	s.RegisterService(&principalQueryServiceDesc, srv)
}

var principalQueryServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PrincipalQueryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetPrincipal", Handler: getPrincipalHandler},
		{MethodName: "Exists", Handler: existsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ecole/principal/v1/principal.proto",
}

func getPrincipalHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PrincipalQueryServer).GetPrincipal(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetPrincipalMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PrincipalQueryServer).GetPrincipal(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func existsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PrincipalQueryServer).Exists(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ExistsMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PrincipalQueryServer).Exists(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}
