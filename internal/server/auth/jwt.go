// Package auth mints and verifies signed session tokens, hashes passwords
// and carries the resolved principal through request contexts.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/infosec/internal/common"
	"github.com/dmitrijs2005/infosec/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// TokenType discriminates access tokens from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the identity claims embedded in every token. The subject is the
// identity id; roles are a snapshot taken at issuance.
type Claims struct {
	jwt.RegisteredClaims
	Roles   []string  `json:"roles"`
	Type    TokenType `json:"token_type"`
	Version int64     `json:"ver"`
}

// TokenSigner signs HS256 tokens with a process-wide secret.
type TokenSigner struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenSigner fails unless 0 < accessTTL < refreshTTL and the secret is set.
func NewTokenSigner(secret []byte, issuer string, accessTTL, refreshTTL time.Duration) (*TokenSigner, error) {
	if len(secret) == 0 {
		return nil, errors.New("empty signing secret")
	}
	if accessTTL <= 0 || accessTTL >= refreshTTL {
		return nil, fmt.Errorf("access ttl %s must be positive and shorter than refresh ttl %s", accessTTL, refreshTTL)
	}
	return &TokenSigner{
		secret:     secret,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// WithClock replaces the signer's time source for both issuing and checking.
func (s *TokenSigner) WithClock(now func() time.Time) *TokenSigner {
	s.now = now
	return s
}

func (s *TokenSigner) ttl(typ TokenType) (time.Duration, error) {
	switch typ {
	case TokenTypeAccess:
		return s.accessTTL, nil
	case TokenTypeRefresh:
		return s.refreshTTL, nil
	default:
		return 0, fmt.Errorf("unknown token type %q", typ)
	}
}

// Generate mints a token of the given type for p.
func (s *TokenSigner) Generate(p *models.Principal, typ TokenType) (string, error) {
	ttl, err := s.ttl(typ)
	if err != nil {
		return "", err
	}

	jti, err := common.MakeRandHexString(16)
	if err != nil {
		return "", err
	}

	// NumericDate has whole-second precision; expiry rounds up so a token
	// never lives shorter than its ttl.
	now := s.now()
	expiresAt := now.Add(ttl)
	if t := expiresAt.Truncate(time.Second); !t.Equal(expiresAt) {
		expiresAt = t.Add(time.Second)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.issuer,
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now.Truncate(time.Second)),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Roles:   p.Roles.Strings(),
		Type:    typ,
		Version: p.TokenVersion,
	})

	return token.SignedString(s.secret)
}

// Validate checks signature, issuer and expiry. Expired tokens yield
// common.ErrTokenExpired; anything else common.ErrInvalidToken. Both match
// common.ErrInvalidToken.
func (s *TokenSigner) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	if _, err := s.ttl(claims.Type); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	return claims, nil
}

// ValidateType is Validate plus a token type check.
func (s *TokenSigner) ValidateType(tokenString string, typ TokenType) (*Claims, error) {
	claims, err := s.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != typ {
		return nil, common.ErrWrongTokenType
	}
	return claims, nil
}

// ExtractSubject returns the identity id of a valid token.
func (s *TokenSigner) ExtractSubject(tokenString string) (string, error) {
	claims, err := s.Validate(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
