package users

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	a, err := repo.Create(ctx, &User{Name: "A", Email: "a@b.com", PasswordHash: "h1"})
	require.NoError(t, err)
	b, err := repo.Create(ctx, &User{Name: "B", Email: "b@b.com", PasswordHash: "h2"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)

	got, err := repo.GetByEmail(ctx, "b@b.com")
	require.NoError(t, err)
	assert.Equal(t, b, got)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []User{*a, *b}, list)

	a.Email = "a2@b.com"
	_, err = repo.Update(ctx, a)
	require.NoError(t, err)
	exists, err := repo.ExistsByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.False(t, exists, "old email is released")

	_, err = repo.Create(ctx, &User{Name: "C", Email: "a@b.com", PasswordHash: "h3"})
	assert.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, b.ID))
	_, err = repo.GetByID(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, b.ID), ErrNotFound)
}

func TestMemoryRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	created, err := repo.Create(ctx, &User{Name: "A", Email: "a@b.com", PasswordHash: "h"})
	require.NoError(t, err)
	created.Name = "changed outside"

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Name)
}

func TestMemoryRepositoryDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	a, err := repo.Create(ctx, &User{Name: "A", Email: "a@b.com", PasswordHash: "h"})
	require.NoError(t, err)
	b, err := repo.Create(ctx, &User{Name: "B", Email: "b@b.com", PasswordHash: "h"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &User{Name: "A2", Email: "a@b.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	_, err = repo.Create(ctx, &User{Name: "A3", Email: "A@B.COM", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicateEmail, "uniqueness ignores case")

	b.Email = "a@b.com"
	_, err = repo.Update(ctx, b)
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	_, err = repo.Update(ctx, a)
	assert.NoError(t, err, "keeping one's own email is not a conflict")

	_, err = repo.Update(ctx, &User{ID: 99, Email: "z@b.com"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepositoryConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	const workers = 50
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Create(ctx, &User{Name: fmt.Sprintf("U%d", i), Email: "race@b.com", PasswordHash: "h"})
			if err == nil {
				successes.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
