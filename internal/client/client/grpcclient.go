package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/infosec/internal/common"
	pb "github.com/dmitrijs2005/infosec/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Session describes the identity the client is logged in as.
type Session struct {
	ID        string
	Username  string
	Email     string
	Roles     []string
	TokenType string
}

// SignupRequest carries the optional profile fields alongside credentials.
type SignupRequest struct {
	Username  string
	Email     string
	Password  string
	Name      string
	Phone     string
	BirthDate string
	Gender    string
}

// invoker is satisfied by *grpc.ClientConn.
type invoker interface {
	Invoke(ctx context.Context, method string, args, reply any, opts ...grpc.CallOption) error
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      invoker

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

func (s *GRPCClient) setTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken, s.refreshToken = access, refresh
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	accessToken, refreshToken := s.tokens()

	err := invoker(withAccessToken(ctx, accessToken), method, req, reply, cc, opts...)
	if err == nil || method == pb.FullMethod(pb.MethodRefreshToken) {
		return err
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}
	if refreshToken == "" {
		return err
	}

	if _, rerr := s.refresh(ctx, refreshToken); rerr != nil {
		return err
	}

	// tokens refreshed, retrying with the new access token
	accessToken, _ = s.tokens()
	return invoker(withAccessToken(ctx, accessToken), method, req, reply, cc, opts...)
}

func NewAuthClient(endpointURL string) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	err := c.InitGRPCClient()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {

	conn, err := grpc.NewClient(s.endpointURL, grpc.WithTransportCredentials(insecure.NewCredentials()), grpc.WithUnaryInterceptor(s.accessTokenInterceptor))
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = conn
	return nil
}

func (s *GRPCClient) call(ctx context.Context, method string, fields map[string]any) (*structpb.Struct, error) {
	in, err := pb.NewMessage(fields)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := s.client.Invoke(ctx, pb.FullMethod(method), in, out); err != nil {
		return nil, s.mapError(err)
	}
	return out, nil
}

func toSession(m *structpb.Struct) *Session {
	return &Session{
		ID:        pb.String(m, pb.FieldID),
		Username:  pb.String(m, pb.FieldUsername),
		Email:     pb.String(m, pb.FieldEmail),
		Roles:     pb.Strings(m, pb.FieldRoles),
		TokenType: pb.String(m, pb.FieldTokenType),
	}
}

// authenticate stores the token pair of a successful auth response.
func (s *GRPCClient) authenticate(out *structpb.Struct) *Session {
	s.setTokens(pb.String(out, pb.FieldAccessToken), pb.String(out, pb.FieldRefreshToken))
	return toSession(out)
}

func (s *GRPCClient) Signup(ctx context.Context, req SignupRequest) (*Session, error) {

	out, err := s.call(ctx, pb.MethodSignup, map[string]any{
		pb.FieldUsername:  req.Username,
		pb.FieldEmail:     req.Email,
		pb.FieldPassword:  req.Password,
		pb.FieldName:      req.Name,
		pb.FieldPhone:     req.Phone,
		pb.FieldBirthDate: req.BirthDate,
		pb.FieldGender:    req.Gender,
	})
	if err != nil {
		return nil, err
	}

	return s.authenticate(out), nil
}

func (s *GRPCClient) Login(ctx context.Context, usernameOrEmail, password string) (*Session, error) {

	out, err := s.call(ctx, pb.MethodLogin, map[string]any{
		pb.FieldUsernameOrEmail: usernameOrEmail,
		pb.FieldPassword:        password,
	})
	if err != nil {
		return nil, err
	}

	return s.authenticate(out), nil
}

// Refresh rotates the stored token pair.
func (s *GRPCClient) Refresh(ctx context.Context) (*Session, error) {
	_, refreshToken := s.tokens()
	if refreshToken == "" {
		return nil, ErrNotLoggedIn
	}
	return s.refresh(ctx, refreshToken)
}

func (s *GRPCClient) refresh(ctx context.Context, refreshToken string) (*Session, error) {
	out, err := s.call(ctx, pb.MethodRefreshToken, map[string]any{pb.FieldRefreshToken: refreshToken})
	if err != nil {
		return nil, err
	}
	return s.authenticate(out), nil
}

func (s *GRPCClient) CheckUsername(ctx context.Context, username string) (bool, error) {
	out, err := s.call(ctx, pb.MethodCheckUsername, map[string]any{pb.FieldUsername: username})
	if err != nil {
		return false, err
	}
	return pb.Bool(out, pb.FieldAvailable), nil
}

func (s *GRPCClient) CheckEmail(ctx context.Context, email string) (bool, error) {
	out, err := s.call(ctx, pb.MethodCheckEmail, map[string]any{pb.FieldEmail: email})
	if err != nil {
		return false, err
	}
	return pb.Bool(out, pb.FieldAvailable), nil
}

// Me asks the server who the current access token belongs to.
func (s *GRPCClient) Me(ctx context.Context) (*Session, error) {
	if access, _ := s.tokens(); access == "" {
		return nil, ErrNotLoggedIn
	}
	out, err := s.call(ctx, pb.MethodMe, nil)
	if err != nil {
		return nil, err
	}
	return toSession(out), nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {

	out, err := s.call(ctx, pb.MethodPing, nil)
	if err != nil {
		return err
	}

	if pb.String(out, pb.FieldStatus) != "OK" {
		return ErrUnavailable
	}

	return nil
}

// Logout forgets the stored tokens. Issued tokens stay valid on the server
// until they expire.
func (s *GRPCClient) Logout() {
	s.setTokens("", "")
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.PermissionDenied:
		return ErrForbidden
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %s", ErrAlreadyExists, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidInput, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
