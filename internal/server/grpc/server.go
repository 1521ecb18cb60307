// Package grpc exposes the authentication core as a gRPC AuthService.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/infosec/internal/logging"
	"github.com/dmitrijs2005/infosec/internal/server/models"
	"github.com/dmitrijs2005/infosec/internal/server/services"
	"google.golang.org/grpc"
)

// Authenticator is the subset of services.AuthService used by the transport.
type Authenticator interface {
	Signup(ctx context.Context, req services.SignupRequest) (*services.AuthResponse, error)
	Login(ctx context.Context, req services.LoginRequest) (*services.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*services.AuthResponse, error)
	CheckUsernameAvailable(ctx context.Context, username string) (bool, error)
	CheckEmailAvailable(ctx context.Context, email string) (bool, error)
	Authenticate(ctx context.Context, accessToken string) (*models.Principal, error)
}

type GRPCServer struct {
	address string
	auth    Authenticator
	logger  logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, as Authenticator) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		auth:    as,
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve runs the server on an existing listener until ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	RegisterAuthServiceServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
