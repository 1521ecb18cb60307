package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/infosec/internal/common"
	"github.com/dmitrijs2005/infosec/internal/dbx"
	"github.com/dmitrijs2005/infosec/internal/server/auth"
	"github.com/dmitrijs2005/infosec/internal/server/models"
	"github.com/dmitrijs2005/infosec/internal/server/repositories/identities"
	"github.com/dmitrijs2005/infosec/internal/server/repositories/repomanager"
)

// PrincipalResolver turns identity lookups into principals. Every call hits
// the store; nothing is cached.
type PrincipalResolver struct {
	tr          dbx.Transactor
	repomanager repomanager.RepositoryManager
}

func NewPrincipalResolver(tr dbx.Transactor, m repomanager.RepositoryManager) *PrincipalResolver {
	return &PrincipalResolver{tr: tr, repomanager: m}
}

func (r *PrincipalResolver) repo() identities.Repository {
	return r.repomanager.Identities(r.tr.Conn())
}

// Resolve loads the identity with the given id. A missing or inactive
// identity is an authentication failure: the error matches
// common.ErrorUnauthorized and, respectively, common.ErrorNotFound or
// common.ErrAccountDisabled.
func (r *PrincipalResolver) Resolve(ctx context.Context, id string) (*models.Principal, error) {
	identity, err := r.repo().FindByID(ctx, id)
	return toPrincipal(identity, err)
}

// ResolveByUsernameOrEmail is Resolve keyed by username or email.
func (r *PrincipalResolver) ResolveByUsernameOrEmail(ctx context.Context, value string) (*models.Principal, error) {
	identity, err := r.repo().FindByUsernameOrEmail(ctx, value)
	return toPrincipal(identity, err)
}

// ResolveClaims resolves the token subject and rejects tokens minted before
// the identity's last revocation.
func (r *PrincipalResolver) ResolveClaims(ctx context.Context, claims *auth.Claims) (*models.Principal, error) {
	p, err := r.Resolve(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if p.TokenVersion != claims.Version {
		return nil, fmt.Errorf("%w: revoked", common.ErrInvalidToken)
	}
	return p, nil
}

func toPrincipal(identity *models.Identity, err error) (*models.Principal, error) {
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("error loading identity: %w", err)
	}
	if !identity.Active() {
		return nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, common.ErrAccountDisabled)
	}
	return models.NewPrincipal(identity), nil
}
