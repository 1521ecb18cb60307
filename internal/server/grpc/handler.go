package grpc

import (
	"context"

	pb "github.com/dmitrijs2005/infosec/internal/proto"
	"github.com/dmitrijs2005/infosec/internal/server/auth"
	"github.com/dmitrijs2005/infosec/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) authResponse(ctx context.Context, r *services.AuthResponse) (*structpb.Struct, error) {
	out, err := pb.NewMessage(map[string]any{
		pb.FieldAccessToken:  r.AccessToken,
		pb.FieldRefreshToken: r.RefreshToken,
		pb.FieldTokenType:    r.TokenType,
		pb.FieldID:           r.ID,
		pb.FieldUsername:     r.Username,
		pb.FieldEmail:        r.Email,
		pb.FieldRoles:        pb.StringList(r.Roles),
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return out, nil
}

// Signup never forwards roles: public registrations get the default role.
func (s *GRPCServer) Signup(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	username := pb.String(req, pb.FieldUsername)
	s.logger.Info(ctx, "Signup request", "username", username)

	result, err := s.auth.Signup(ctx, services.SignupRequest{
		Username:  username,
		Email:     pb.String(req, pb.FieldEmail),
		Password:  pb.String(req, pb.FieldPassword),
		Name:      pb.String(req, pb.FieldName),
		Phone:     pb.String(req, pb.FieldPhone),
		BirthDate: pb.String(req, pb.FieldBirthDate),
		Gender:    pb.String(req, pb.FieldGender),
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Registered", "username", result.Username, "id", result.ID)
	return s.authResponse(ctx, result)
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	result, err := s.auth.Login(ctx, services.LoginRequest{
		UsernameOrEmail: pb.String(req, pb.FieldUsernameOrEmail),
		Password:        pb.String(req, pb.FieldPassword),
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return s.authResponse(ctx, result)
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	token := pb.String(req, pb.FieldRefreshToken)
	if token == "" {
		return nil, status.Error(codes.InvalidArgument, "refresh token required")
	}

	result, err := s.auth.Refresh(ctx, token)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return s.authResponse(ctx, result)
}

func (s *GRPCServer) available(ctx context.Context, ok bool, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return pb.NewMessage(map[string]any{pb.FieldAvailable: ok})
}

func (s *GRPCServer) CheckUsername(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ok, err := s.auth.CheckUsernameAvailable(ctx, pb.String(req, pb.FieldUsername))
	return s.available(ctx, ok, err)
}

func (s *GRPCServer) CheckEmail(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ok, err := s.auth.CheckEmailAvailable(ctx, pb.String(req, pb.FieldEmail))
	return s.available(ctx, ok, err)
}

// Me returns the principal resolved by the access token interceptor.
func (s *GRPCServer) Me(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	p, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	return pb.NewMessage(map[string]any{
		pb.FieldID:       p.ID,
		pb.FieldUsername: p.Username,
		pb.FieldEmail:    p.Email,
		pb.FieldRoles:    pb.StringList(p.Roles.Strings()),
	})
}

func (s *GRPCServer) Ping(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return pb.NewMessage(map[string]any{pb.FieldStatus: "OK"})
}
