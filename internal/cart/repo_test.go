package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

func newRepo(t *testing.T) *Repository {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:cart_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Cart{}))
	return NewRepository(conn)
}

func TestReplaceIsLastWriteWins(t *testing.T) {
	t.Parallel()
	repo := newRepo(t)
	ctx := context.Background()
	user := uuid.New()
	first := types.CartLines{{ProductID: uuid.New(), Quantity: 1}}
	second := types.CartLines{{ProductID: uuid.New(), Quantity: 4}}

	require.NoError(t, repo.Replace(ctx, user, first))
	require.NoError(t, repo.Replace(ctx, user, second))

	got, err := repo.Get(ctx, user)
	require.NoError(t, err)
	require.Equal(t, second, got)
}

func TestClearIsIdempotent(t *testing.T) {
	t.Parallel()
	repo := newRepo(t)
	ctx := context.Background()
	user := uuid.New()

	cleared, err := repo.Clear(ctx, user)
	require.NoError(t, err)
	require.False(t, cleared, "missing cart")

	require.NoError(t, repo.Replace(ctx, user, types.CartLines{{ProductID: uuid.New(), Quantity: 2}}))
	cleared, err = repo.Clear(ctx, user)
	require.NoError(t, err)
	require.True(t, cleared)

	cleared, err = repo.Clear(ctx, user)
	require.NoError(t, err)
	require.False(t, cleared, "already empty")

	got, err := repo.Get(ctx, user)
	require.NoError(t, err)
	require.Empty(t, got)
}
