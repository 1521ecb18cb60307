// Package identities declares the credential store contract and its
// PostgreSQL and in-memory implementations.
package identities

import (
	"context"
	"time"

	"github.com/dmitrijs2005/infosec/internal/server/models"
)

// Repository looks up and persists identity records.
//
// Finders return common.ErrorNotFound when nothing matches. Save is an
// atomic insert-if-absent: a duplicate username or email yields
// common.ErrUsernameTaken or common.ErrEmailTaken and stores nothing.
type Repository interface {
	FindByID(ctx context.Context, id string) (*models.Identity, error)
	FindByUsername(ctx context.Context, username string) (*models.Identity, error)
	FindByEmail(ctx context.Context, email string) (*models.Identity, error)
	// FindByUsernameOrEmail prefers a username match over an email match.
	FindByUsernameOrEmail(ctx context.Context, value string) (*models.Identity, error)

	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Save inserts identity and returns it with ID and timestamps set.
	Save(ctx context.Context, identity *models.Identity) (*models.Identity, error)

	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	IncrementTokenVersion(ctx context.Context, id string) (int64, error)
}
