package migrate_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestProductsMigrationGuardsStock(t *testing.T) {
	content := readMigration(t, "create_products")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS products",
		"CHECK (quantity >= 0)",
		"FOREIGN KEY (store_id) REFERENCES stores(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS products",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "create_orders")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CONSTRAINT orders_checkout_store_key UNIQUE (checkout_id, store_id)",
		"'DELIVERY_INITIATED'",
		"refund_status text NOT NULL DEFAULT 'NONE'",
		"status_history jsonb NOT NULL",
		"CREATE TABLE IF NOT EXISTS order_items",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS orders",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestEmbeddedMigrationsMatchDisk(t *testing.T) {
	embedded, err := migrate.Migrations.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(embedded) != len(onDisk) {
		t.Fatalf("embedded %d migrations, disk has %d", len(embedded), len(onDisk))
	}
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Refund Ref!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_refund_ref.sql") {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("created migration should validate: %v", err)
	}
}

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	if err := migrate.ValidateFS(migrate.Migrations, "migrations"); err != nil {
		t.Fatalf("embedded migrations invalid: %v", err)
	}
}

func TestCreateThenValidate(t *testing.T) {
	dir := t.TempDir()
	file, err := migrate.CreateSQLMigration(dir, "Add Order Notes!")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasSuffix(file, "_add_order_notes.sql") {
		t.Fatalf("unexpected filename %s", file)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("validate: %v", err)
	}

	if _, err := migrate.CreateSQLMigration(dir, "!!!"); err == nil {
		t.Fatalf("expected error for unusable name")
	}
}

func TestValidateDirReportsEveryProblem(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("20260101000000_a.sql", "-- +goose Up\n-- +goose Down\n")
	write("20260101000000_b.sql", "-- +goose Up\n-- +goose Down\n")
	write("bad-name.sql", "")
	write("20260101000001_c.sql", "-- +goose Down\n-- +goose Up\n")

	err := migrate.ValidateDir(dir)
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	for _, want := range []string{"already used", "bad-name.sql", "precedes"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}

func TestSourceDefaultsToEmbeddedSet(t *testing.T) {
	embedded, err := migrate.Source("")
	if err != nil {
		t.Fatalf("embedded source: %v", err)
	}
	files, err := fs.Glob(embedded, "*.sql")
	if err != nil || len(files) == 0 {
		t.Fatalf("expected embedded sql files at the source root, got %v (%v)", files, err)
	}

	disk, err := migrate.Source("migrations")
	if err != nil {
		t.Fatalf("disk source: %v", err)
	}
	onDisk, _ := fs.Glob(disk, "*.sql")
	if len(onDisk) != len(files) {
		t.Fatalf("disk has %d files, embedded %d", len(onDisk), len(files))
	}
}
