package grpc

import (
	"context"

	pb "github.com/dmitrijs2005/infosec/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// AuthServiceServer is the server side of the AuthService contract.
type AuthServiceServer interface {
	Signup(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RefreshToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CheckUsername(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CheckEmail(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Me(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(AuthServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(AuthServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: pb.FullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(AuthServiceServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

// ServiceDesc registers AuthService on a grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: pb.ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(pb.MethodSignup, AuthServiceServer.Signup),
		unary(pb.MethodLogin, AuthServiceServer.Login),
		unary(pb.MethodRefreshToken, AuthServiceServer.RefreshToken),
		unary(pb.MethodCheckUsername, AuthServiceServer.CheckUsername),
		unary(pb.MethodCheckEmail, AuthServiceServer.CheckEmail),
		unary(pb.MethodMe, AuthServiceServer.Me),
		unary(pb.MethodPing, AuthServiceServer.Ping),
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
