package client

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/infosec/internal/common"
	pb "github.com/dmitrijs2005/infosec/internal/proto"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

/*************
 * Fake invoker
 *************/

type fakeInvoker struct {
	// inputs captured, by method name
	requests map[string]*structpb.Struct

	// outputs preset, by method name
	replies map[string]map[string]any
	errs    map[string]error
}

func newFake() *fakeInvoker {
	return &fakeInvoker{
		requests: map[string]*structpb.Struct{},
		replies:  map[string]map[string]any{},
		errs:     map[string]error{},
	}
}

func (f *fakeInvoker) Invoke(ctx context.Context, method string, args, reply any, opts ...grpc.CallOption) error {
	f.requests[method] = args.(*structpb.Struct)
	if err := f.errs[method]; err != nil {
		return err
	}
	out, err := pb.NewMessage(f.replies[method])
	if err != nil {
		return err
	}
	proto.Merge(reply.(*structpb.Struct), out)
	return nil
}

func (f *fakeInvoker) req(method string) *structpb.Struct {
	return f.requests[pb.FullMethod(method)]
}

func authReply(access, refresh string) map[string]any {
	return map[string]any{
		pb.FieldAccessToken:  access,
		pb.FieldRefreshToken: refresh,
		pb.FieldTokenType:    "Bearer",
		pb.FieldID:           "id-1",
		pb.FieldUsername:     "neo",
		pb.FieldEmail:        "neo@x.io",
		pb.FieldRoles:        []any{"ROLE_USER"},
	}
}

/*************
 * accessTokenInterceptor tests
 *************/

func expiredErr() error {
	return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
}

func TestInterceptor_RefreshesTokenOnExpiredAndRetries(t *testing.T) {
	f := newFake()
	f.replies[pb.FullMethod(pb.MethodRefreshToken)] = authReply("A2", "R2")
	c := &GRPCClient{
		client:       f,
		accessToken:  "A1",
		refreshToken: "R1",
	}

	callCount := 0
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		callCount++
		md, _ := metadata.FromOutgoingContext(ctx)
		toks := md.Get(common.AccessTokenHeaderName)
		require.Len(t, toks, 1)

		if callCount == 1 {
			require.Equal(t, "A1", toks[0])
			return expiredErr()
		}
		require.Equal(t, "A2", toks[0])
		return nil
	}

	err := c.accessTokenInterceptor(context.Background(), pb.FullMethod(pb.MethodMe), nil, nil, nil, invoker)
	require.NoError(t, err)
	require.Equal(t, 2, callCount)
	require.Equal(t, "A2", c.accessToken)
	require.Equal(t, "R2", c.refreshToken)
	require.Equal(t, "R1", pb.String(f.req(pb.MethodRefreshToken), pb.FieldRefreshToken))
}

func TestInterceptor_NoRefreshIfNoRefreshToken(t *testing.T) {
	f := newFake()
	c := &GRPCClient{
		client:      f,
		accessToken: "A1",
	}

	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return expiredErr()
	}

	err := c.accessTokenInterceptor(context.Background(), pb.FullMethod(pb.MethodMe), nil, nil, nil, invoker)
	require.Error(t, err)
	require.Nil(t, f.req(pb.MethodRefreshToken))
}

func TestInterceptor_NoRefreshForRefreshCall(t *testing.T) {
	f := newFake()
	c := &GRPCClient{client: f, accessToken: "A1", refreshToken: "R1"}

	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return expiredErr()
	}

	err := c.accessTokenInterceptor(context.Background(), pb.FullMethod(pb.MethodRefreshToken), nil, nil, nil, invoker)
	require.Error(t, err)
	require.Nil(t, f.req(pb.MethodRefreshToken))
}

func TestInterceptor_RefreshFails_ReturnsOriginalError(t *testing.T) {
	f := newFake()
	f.errs[pb.FullMethod(pb.MethodRefreshToken)] = expiredErr()
	c := &GRPCClient{client: f, accessToken: "A1", refreshToken: "R1"}

	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return expiredErr()
	}

	err := c.accessTokenInterceptor(context.Background(), pb.FullMethod(pb.MethodMe), nil, nil, nil, invoker)
	require.Equal(t, codes.Unauthenticated, status.Code(err))
	require.Equal(t, "A1", c.accessToken)
}

func TestInterceptor_IgnoresOtherErrors(t *testing.T) {
	c := &GRPCClient{accessToken: "X"}
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Internal, "boom")
	}
	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.Error(t, err)
}

func TestInterceptor_UnauthenticatedButDifferentMessage_NoRefresh(t *testing.T) {
	f := newFake()
	c := &GRPCClient{client: f, accessToken: "X", refreshToken: "R"}
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Unauthenticated, "invalid token")
	}
	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.Error(t, err)
	require.Nil(t, f.req(pb.MethodRefreshToken))
}

func TestInterceptor_NoTokenNoHeader(t *testing.T) {
	c := &GRPCClient{}
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		require.Empty(t, md.Get(common.AccessTokenHeaderName))
		return nil
	}
	require.NoError(t, c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker))
}

/*************
 * mapError tests
 *************/

func TestMapError(t *testing.T) {
	c := &GRPCClient{}

	require.ErrorIs(t, c.mapError(status.Error(codes.Unauthenticated, "x")), ErrUnauthorized)
	require.ErrorIs(t, c.mapError(status.Error(codes.PermissionDenied, "x")), ErrForbidden)
	require.ErrorIs(t, c.mapError(status.Error(codes.AlreadyExists, "x")), ErrAlreadyExists)
	require.ErrorIs(t, c.mapError(status.Error(codes.InvalidArgument, "x")), ErrInvalidInput)
	require.Equal(t, ErrUnavailable, c.mapError(status.Error(codes.Unavailable, "x")))
	require.Equal(t, ErrUnavailable, c.mapError(status.Error(codes.DeadlineExceeded, "x")))
	require.EqualError(t, c.mapError(status.Error(codes.AlreadyExists, "username already exists")),
		"already exists: username already exists")
	e := errors.New("plain")
	require.ErrorContains(t, c.mapError(e), "rpc error:")
	require.NoError(t, c.mapError(nil))
}

/*************
 * Ping tests
 *************/

func TestPing_OK(t *testing.T) {
	f := newFake()
	f.replies[pb.FullMethod(pb.MethodPing)] = map[string]any{pb.FieldStatus: "OK"}
	c := &GRPCClient{client: f}
	require.NoError(t, c.Ping(context.Background()))
}

func TestPing_NotOK_ReturnsUnavailable(t *testing.T) {
	f := newFake()
	f.replies[pb.FullMethod(pb.MethodPing)] = map[string]any{pb.FieldStatus: "NOT_OK"}
	c := &GRPCClient{client: f}
	require.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)
}

func TestPing_MapsRPCError(t *testing.T) {
	f := newFake()
	f.errs[pb.FullMethod(pb.MethodPing)] = status.Error(codes.Unavailable, "down")
	c := &GRPCClient{client: f}
	require.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)
}

/*************
 * Signup / Login / Refresh / Me tests
 *************/

func TestSignup_SetsTokens(t *testing.T) {
	f := newFake()
	f.replies[pb.FullMethod(pb.MethodSignup)] = authReply("A", "R")
	c := &GRPCClient{client: f}

	s, err := c.Signup(context.Background(), SignupRequest{Username: "neo", Email: "neo@x.io", Password: "matrix01", Name: "Neo"})
	require.NoError(t, err)
	require.Equal(t, &Session{ID: "id-1", Username: "neo", Email: "neo@x.io", Roles: []string{"ROLE_USER"}, TokenType: "Bearer"}, s)
	require.Equal(t, "A", c.accessToken)
	require.Equal(t, "R", c.refreshToken)

	req := f.req(pb.MethodSignup)
	require.Equal(t, "neo", pb.String(req, pb.FieldUsername))
	require.Equal(t, "matrix01", pb.String(req, pb.FieldPassword))
	require.Equal(t, "Neo", pb.String(req, pb.FieldName))
}

func TestSignup_Conflict(t *testing.T) {
	f := newFake()
	f.errs[pb.FullMethod(pb.MethodSignup)] = status.Error(codes.AlreadyExists, "email already exists")
	c := &GRPCClient{client: f}

	_, err := c.Signup(context.Background(), SignupRequest{Username: "neo"})
	require.ErrorIs(t, err, ErrAlreadyExists)
	require.ErrorContains(t, err, "email already exists")
	require.Empty(t, c.accessToken)
}

func TestLogin_SetsTokens(t *testing.T) {
	f := newFake()
	f.replies[pb.FullMethod(pb.MethodLogin)] = authReply("A", "R")
	c := &GRPCClient{client: f}

	s, err := c.Login(context.Background(), "neo@x.io", "matrix01")
	require.NoError(t, err)
	require.Equal(t, "id-1", s.ID)
	require.Equal(t, "A", c.accessToken)
	require.Equal(t, "R", c.refreshToken)
	require.Equal(t, "neo@x.io", pb.String(f.req(pb.MethodLogin), pb.FieldUsernameOrEmail))
}

func TestLogin_MapsError(t *testing.T) {
	f := newFake()
	f.errs[pb.FullMethod(pb.MethodLogin)] = status.Error(codes.Unauthenticated, "invalid credentials")
	c := &GRPCClient{client: f}

	_, err := c.Login(context.Background(), "neo", "bad")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestRefresh(t *testing.T) {
	f := newFake()
	f.replies[pb.FullMethod(pb.MethodRefreshToken)] = authReply("A2", "R2")
	c := &GRPCClient{client: f}

	_, err := c.Refresh(context.Background())
	require.ErrorIs(t, err, ErrNotLoggedIn)

	c.setTokens("A1", "R1")
	_, err = c.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, "R1", pb.String(f.req(pb.MethodRefreshToken), pb.FieldRefreshToken))
	require.Equal(t, "A2", c.accessToken)
}

func TestMe(t *testing.T) {
	f := newFake()
	f.replies[pb.FullMethod(pb.MethodMe)] = authReply("", "")
	c := &GRPCClient{client: f}

	_, err := c.Me(context.Background())
	require.ErrorIs(t, err, ErrNotLoggedIn)

	c.setTokens("A", "R")
	s, err := c.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, "neo", s.Username)
	require.Equal(t, "A", c.accessToken, "Me must not touch tokens")

	c.Logout()
	require.Empty(t, c.accessToken)
	require.Empty(t, c.refreshToken)
}

func TestCheckAvailability(t *testing.T) {
	f := newFake()
	f.replies[pb.FullMethod(pb.MethodCheckUsername)] = map[string]any{pb.FieldAvailable: false}
	f.replies[pb.FullMethod(pb.MethodCheckEmail)] = map[string]any{pb.FieldAvailable: true}
	c := &GRPCClient{client: f}

	ok, err := c.CheckUsername(context.Background(), "neo")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, "neo", pb.String(f.req(pb.MethodCheckUsername), pb.FieldUsername))

	ok, err = c.CheckEmail(context.Background(), "trinity@x.io")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestClose_NoConn(t *testing.T) {
	require.NoError(t, (&GRPCClient{}).Close())
}
