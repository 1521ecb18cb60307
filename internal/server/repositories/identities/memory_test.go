package identities

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/infosec/internal/common"
	"github.com/dmitrijs2005/infosec/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Repository = (*MemoryRepository)(nil)
var _ Repository = (*PostgresRepository)(nil)

func TestMemoryRepository_SaveAndFind(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	saved, err := repo.Save(ctx, newIdentity())
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)
	assert.Equal(t, models.RoleSet{models.RoleUser}, saved.Roles)

	for name, find := range map[string]func() (*models.Identity, error){
		"id":                func() (*models.Identity, error) { return repo.FindByID(ctx, saved.ID) },
		"username":          func() (*models.Identity, error) { return repo.FindByUsername(ctx, "neo") },
		"email":             func() (*models.Identity, error) { return repo.FindByEmail(ctx, "neo@x.io") },
		"either (username)": func() (*models.Identity, error) { return repo.FindByUsernameOrEmail(ctx, "neo") },
		"either (email)":    func() (*models.Identity, error) { return repo.FindByUsernameOrEmail(ctx, "neo@x.io") },
	} {
		got, err := find()
		require.NoError(t, err, name)
		assert.Equal(t, saved.ID, got.ID, name)
	}

	_, err = repo.FindByUsernameOrEmail(ctx, "trinity")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	ok, err := repo.ExistsByUsername(ctx, "neo")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.ExistsByEmail(ctx, "other@x.io")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryRepository_SaveConflicts(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	_, err := repo.Save(ctx, newIdentity())
	require.NoError(t, err)

	dupUser := newIdentity()
	dupUser.Email = "other@x.io"
	_, err = repo.Save(ctx, dupUser)
	assert.ErrorIs(t, err, common.ErrUsernameTaken)

	dupEmail := newIdentity()
	dupEmail.Username = "other"
	_, err = repo.Save(ctx, dupEmail)
	assert.ErrorIs(t, err, common.ErrEmailTaken)

	assert.Equal(t, 1, repo.Count())
}

func TestMemoryRepository_ConcurrentSaveIsAtomic(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	const n = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			identity := newIdentity()
			identity.Email = fmt.Sprintf("neo%d@x.io", i)
			_, err := repo.Save(ctx, identity)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, common.ErrUsernameTaken):
				conflicts++
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, conflicts)
	assert.Equal(t, 1, repo.Count())
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	saved, err := repo.Save(ctx, newIdentity())
	require.NoError(t, err)
	saved.Roles[0] = models.RoleAdmin
	saved.Enabled = false

	got, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSet{models.RoleUser}, got.Roles)
	assert.True(t, got.Enabled)
}

func TestMemoryRepository_Mutations(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	saved, err := repo.Save(ctx, newIdentity())
	require.NoError(t, err)

	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin(ctx, saved.ID, at))
	assert.ErrorIs(t, repo.UpdateLastLogin(ctx, "ghost", at), common.ErrorNotFound)

	v, err := repo.IncrementTokenVersion(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
	_, err = repo.IncrementTokenVersion(ctx, "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	got, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginAt)
	assert.Equal(t, at, *got.LastLoginAt)

	got.Roles = models.RoleSet{models.RoleAdmin}
	got.Enabled = false
	require.NoError(t, repo.Update(ctx, got))

	after, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSet{models.RoleAdmin}, after.Roles)
	assert.False(t, after.Active())

	got.Username = "renamed"
	assert.ErrorIs(t, repo.Update(ctx, got), common.ErrValidation)
	assert.ErrorIs(t, repo.Update(ctx, &models.Identity{ID: "ghost"}), common.ErrorNotFound)
}
