package db

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type stockRow struct {
	ID       int
	Quantity int
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:dbclient_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&stockRow{}))
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	conn := newTestDB(t)
	client := NewFromConn(conn)

	ctx := context.Background()
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&stockRow{Quantity: 3}).Error
	}))

	var count int64
	require.NoError(t, conn.Model(&stockRow{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&stockRow{Quantity: 9}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)

	require.NoError(t, conn.Model(&stockRow{}).Count(&count).Error)
	require.EqualValues(t, 1, count, "rollback should leave the first row only")
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	conn := newTestDB(t)
	client := NewFromConn(conn)

	require.Panics(t, func() {
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			if err := tx.Create(&stockRow{Quantity: 1}).Error; err != nil {
				return err
			}
			panic("kaboom")
		})
	})

	var count int64
	require.NoError(t, conn.Model(&stockRow{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestPing(t *testing.T) {
	client := NewFromConn(newTestDB(t))
	require.NoError(t, client.Ping(context.Background()))
}

func TestDialectorForRejectsUnknownDriver(t *testing.T) {
	_, err := dialectorFor(config.DBConfig{Driver: "oracle", DSN: "x"})
	require.Error(t, err)

	d, err := dialectorFor(config.DBConfig{Driver: "sqlite", DSN: "file::memory:"})
	require.NoError(t, err)
	require.Equal(t, "sqlite", d.Name())
}

func TestIsUniqueViolation(t *testing.T) {
	pgxErr := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "orders_checkout_store_key"})
	require.True(t, IsUniqueViolation(pgxErr, ""))
	require.True(t, IsUniqueViolation(pgxErr, "orders_checkout_store_key"))
	require.False(t, IsUniqueViolation(pgxErr, "other_key"))

	pqErr := &pq.Error{Code: "23505", Constraint: "outbox_events_pkey"}
	require.True(t, IsUniqueViolation(pqErr, "outbox_events_pkey"))

	require.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: orders.id"), ""))
	require.False(t, IsUniqueViolation(nil, ""))
	require.True(t, IsNotFound(fmt.Errorf("load: %w", gorm.ErrRecordNotFound)))
}

func TestNewOpensSQLiteAndLogsFailedQueries(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})
	client, err := New(context.Background(), config.DBConfig{
		Driver: "sqlite",
		DSN:    "file:dbnew_" + uuid.NewString() + "?mode=memory&cache=shared",
	}, logg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.Error(t, client.DB().Exec("SELECT * FROM missing_table").Error)
	require.Contains(t, buf.String(), "db.query_failed")
	require.Contains(t, buf.String(), "missing_table")
}

func TestQueryLoggerSkipsNotFoundAndFlagsSlow(t *testing.T) {
	var buf bytes.Buffer
	q := newQueryLogger(logger.New(logger.Options{ServiceName: "test", Output: &buf}), time.Millisecond)
	stmt := func() (string, int64) { return "SELECT 1", 1 }

	q.Trace(context.Background(), time.Now(), stmt, gorm.ErrRecordNotFound)
	require.Empty(t, buf.String())

	q.Trace(context.Background(), time.Now().Add(-time.Second), stmt, nil)
	require.Contains(t, buf.String(), "db.query_slow")
}

func TestNewRequiresDSN(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{Driver: "sqlite"}, nil)
	require.Error(t, err)
}
