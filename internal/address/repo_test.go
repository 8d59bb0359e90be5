package address

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

func TestFindForUserScopesToOwner(t *testing.T) {
	t.Parallel()
	conn, err := gorm.Open(sqlite.Open("file:address_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Address{}))

	owner := uuid.New()
	addr := models.Address{ID: uuid.New(), UserID: owner, Name: "Home", Line1: "1 MG Road", City: "Pune", State: "MH", PostalCode: "411001", Country: "IN"}
	require.NoError(t, conn.Create(&addr).Error)

	repo := NewRepository(conn)
	found, err := repo.FindForUser(context.Background(), addr.ID, owner)
	require.NoError(t, err)
	require.Equal(t, "Pune", found.City)

	_, err = repo.WithTx(conn).FindForUser(context.Background(), addr.ID, uuid.New())
	require.True(t, db.IsNotFound(err))
}
