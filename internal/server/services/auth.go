package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/infosec/internal/common"
	"github.com/dmitrijs2005/infosec/internal/dbx"
	"github.com/dmitrijs2005/infosec/internal/logging"
	"github.com/dmitrijs2005/infosec/internal/server/auth"
	"github.com/dmitrijs2005/infosec/internal/server/models"
	"github.com/dmitrijs2005/infosec/internal/server/repositories/repomanager"
)

// AuthResponse is returned by every flow that issues a token pair.
type AuthResponse struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ID           string
	Username     string
	Email        string
	Roles        []string
}

type AuthService struct {
	tr          dbx.Transactor
	repomanager repomanager.RepositoryManager
	resolver    *PrincipalResolver
	signer      *auth.TokenSigner
	hasher      auth.PasswordHasher
	log         logging.Logger
	now         func() time.Time
	// dummyDigest is verified against when no identity matches a login.
	dummyDigest string
}

const dummyPassword = "infosec-login-timing-equalizer"

func NewAuthService(tr dbx.Transactor, m repomanager.RepositoryManager, signer *auth.TokenSigner,
	hasher auth.PasswordHasher, log logging.Logger) *AuthService {
	s := &AuthService{
		tr:          tr,
		repomanager: m,
		resolver:    NewPrincipalResolver(tr, m),
		signer:      signer,
		hasher:      hasher,
		log:         log.With("module", "auth_service"),
		now:         time.Now,
	}

	digest, err := hasher.Hash(dummyPassword)
	if err != nil {
		s.log.Warn(context.Background(), "dummy digest init failed", "error", err)
	}
	s.dummyDigest = digest

	return s
}

// Resolver exposes the service's PrincipalResolver.
func (s *AuthService) Resolver() *PrincipalResolver {
	return s.resolver
}

// Signup registers a new identity and logs it in. Username and email
// conflicts are reported separately.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	roles, err := models.ParseRoleSet(req.Roles)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	identity := &models.Identity{
		Username:              req.Username,
		Email:                 req.Email,
		PasswordHash:          digest,
		Name:                  req.Name,
		Phone:                 req.Phone,
		BirthDate:             req.BirthDate,
		Gender:                req.Gender,
		Roles:                 roles,
		Enabled:               true,
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
	}

	var saved *models.Identity
	err = s.tr.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Identities(tx)

		taken, err := repo.ExistsByUsername(ctx, identity.Username)
		if err != nil {
			return err
		}
		if taken {
			return common.ErrUsernameTaken
		}

		taken, err = repo.ExistsByEmail(ctx, identity.Email)
		if err != nil {
			return err
		}
		if taken {
			return common.ErrEmailTaken
		}

		saved, err = repo.Save(ctx, identity)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			s.log.Info(ctx, "signup rejected", "username", req.Username, "reason", err.Error())
			return nil, err
		}
		return nil, fmt.Errorf("error creating identity: %w", err)
	}

	s.log.Info(ctx, "identity created", "identity_id", saved.ID, "username", saved.Username)

	p, err := s.resolver.Resolve(ctx, saved.ID)
	if err != nil {
		return nil, err
	}
	return s.issue(p)
}

// Login authenticates by username or email. An unknown identity and a wrong
// password both yield common.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	repo := s.repomanager.Identities(s.tr.Conn())

	identity, err := repo.FindByUsernameOrEmail(ctx, req.UsernameOrEmail)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(req.Password, s.dummyDigest)
			s.log.Info(ctx, "login failed", "reason", "unknown identity", "login", req.UsernameOrEmail)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error loading identity: %w", err)
	}

	if !s.hasher.Verify(req.Password, identity.PasswordHash) {
		s.log.Info(ctx, "login failed", "reason", "password mismatch", "identity_id", identity.ID)
		return nil, common.ErrInvalidCredentials
	}

	if !identity.Active() {
		s.log.Info(ctx, "login failed", "reason", "account inactive", "identity_id", identity.ID)
		return nil, common.ErrAccountDisabled
	}

	if err := repo.UpdateLastLogin(ctx, identity.ID, s.now()); err != nil {
		s.log.Warn(ctx, "last login update failed", "identity_id", identity.ID, "error", err)
	}

	return s.issue(models.NewPrincipal(identity))
}

// Refresh exchanges a valid refresh token for a new pair built from the
// identity's current state. The presented token stays valid until it
// expires.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.signer.ValidateType(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	p, err := s.resolver.ResolveClaims(ctx, claims)
	if err != nil {
		s.log.Info(ctx, "refresh rejected", "identity_id", claims.Subject, "reason", err.Error())
		return nil, err
	}
	return s.issue(p)
}

// Authenticate validates an access token and resolves its principal.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.Principal, error) {
	claims, err := s.signer.ValidateType(accessToken, auth.TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	return s.resolver.ResolveClaims(ctx, claims)
}

func (s *AuthService) CheckUsernameAvailable(ctx context.Context, username string) (bool, error) {
	if username == "" {
		return false, fmt.Errorf("%w: username: cannot be blank", common.ErrValidation)
	}
	taken, err := s.repomanager.Identities(s.tr.Conn()).ExistsByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

func (s *AuthService) CheckEmailAvailable(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, fmt.Errorf("%w: email: cannot be blank", common.ErrValidation)
	}
	taken, err := s.repomanager.Identities(s.tr.Conn()).ExistsByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

// RevokeTokens invalidates every token issued to the identity so far and
// returns the new token version.
func (s *AuthService) RevokeTokens(ctx context.Context, identityID string) (int64, error) {
	version, err := s.repomanager.Identities(s.tr.Conn()).IncrementTokenVersion(ctx, identityID)
	if err != nil {
		return 0, err
	}
	s.log.Info(ctx, "tokens revoked", "identity_id", identityID, "token_version", version)
	return version, nil
}

func (s *AuthService) issue(p *models.Principal) (*AuthResponse, error) {
	access, err := s.signer.Generate(p, auth.TokenTypeAccess)
	if err != nil {
		return nil, fmt.Errorf("error generating access token: %w", err)
	}
	refresh, err := s.signer.Generate(p, auth.TokenTypeRefresh)
	if err != nil {
		return nil, fmt.Errorf("error generating refresh token: %w", err)
	}
	return &AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    common.TokenTypeBearer,
		ID:           p.ID,
		Username:     p.Username,
		Email:        p.Email,
		Roles:        p.Roles.Strings(),
	}, nil
}
