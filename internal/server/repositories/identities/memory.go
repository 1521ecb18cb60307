package identities

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/infosec/internal/common"
	"github.com/dmitrijs2005/infosec/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository is a process-local Repository. Every method holds the
// lock for its whole duration, so Save is atomic on its own.
type MemoryRepository struct {
	mu         sync.RWMutex
	byID       map[string]*models.Identity
	byUsername map[string]string
	byEmail    map[string]string
	now        func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:       make(map[string]*models.Identity),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
		now:        time.Now,
	}
}

// clone copies identity so callers never alias stored records.
func clone(identity *models.Identity) *models.Identity {
	c := *identity
	c.Roles = append(models.RoleSet(nil), identity.Roles...)
	if identity.LastLoginAt != nil {
		t := *identity.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*models.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	identity, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(identity), nil
}

func (r *MemoryRepository) findByIndex(index map[string]string, key string) (*models.Identity, error) {
	id, ok := index[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *MemoryRepository) FindByUsername(ctx context.Context, username string) (*models.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findByIndex(r.byUsername, username)
}

func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) (*models.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findByIndex(r.byEmail, email)
}

func (r *MemoryRepository) FindByUsernameOrEmail(ctx context.Context, value string) (*models.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if identity, err := r.findByIndex(r.byUsername, value); err == nil {
		return identity, nil
	}
	return r.findByIndex(r.byEmail, value)
}

func (r *MemoryRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUsername[username]
	return ok, nil
}

func (r *MemoryRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byEmail[email]
	return ok, nil
}

func (r *MemoryRepository) Save(ctx context.Context, identity *models.Identity) (*models.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUsername[identity.Username]; ok {
		return nil, common.ErrUsernameTaken
	}
	if _, ok := r.byEmail[identity.Email]; ok {
		return nil, common.ErrEmailTaken
	}

	now := r.now()
	stored := clone(identity)
	stored.ID = uuid.NewString()
	stored.Roles = models.NewRoleSet(identity.Roles...)
	stored.TokenVersion = 0
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.byID[stored.ID] = stored
	r.byUsername[stored.Username] = stored.ID
	r.byEmail[stored.Email] = stored.ID

	return clone(stored), nil
}

func (r *MemoryRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	identity.LastLoginAt = &at
	identity.UpdatedAt = at
	return nil
}

func (r *MemoryRepository) IncrementTokenVersion(ctx context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.byID[id]
	if !ok {
		return 0, common.ErrorNotFound
	}
	identity.TokenVersion++
	identity.UpdatedAt = r.now()
	return identity.TokenVersion, nil
}

// Update replaces the stored record with the same ID. Profile, role and
// status edits live outside the auth core; this is their entry point for
// the in-memory store.
func (r *MemoryRepository) Update(ctx context.Context, identity *models.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[identity.ID]
	if !ok {
		return common.ErrorNotFound
	}
	if identity.Username != current.Username || identity.Email != current.Email {
		return common.ErrValidation
	}
	updated := clone(identity)
	updated.Roles = models.NewRoleSet(identity.Roles...)
	updated.UpdatedAt = r.now()
	r.byID[identity.ID] = updated
	return nil
}

// Count returns the number of stored identities.
func (r *MemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
