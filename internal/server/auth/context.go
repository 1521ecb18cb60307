package auth

import (
	"context"

	"github.com/dmitrijs2005/infosec/internal/server/models"
)

type ctxKey string

const principalKey ctxKey = "principal"

// WithPrincipal stores the principal resolved for the current request.
func WithPrincipal(ctx context.Context, p *models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the request's principal, if any.
func PrincipalFromContext(ctx context.Context) (*models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*models.Principal)
	return p, ok && p != nil
}
