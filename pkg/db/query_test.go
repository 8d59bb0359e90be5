package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstAndExists(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, conn.Create(&[]stockRow{{ID: 1, Quantity: 4}, {ID: 2, Quantity: 0}}).Error)

	row, err := First[stockRow](ctx, conn, "quantity > ?", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, row.ID)

	_, err = First[stockRow](ctx, conn, "id = ?", 99)
	assert.True(t, IsNotFound(err))

	found, err := Exists[stockRow](ctx, conn, "quantity = ?", 0)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = Exists[stockRow](ctx, conn, "quantity < ?", 0)
	require.NoError(t, err)
	assert.False(t, found)

	assert.Same(t, conn, Pick(nil, conn))
}
