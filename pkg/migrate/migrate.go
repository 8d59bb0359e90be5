package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const DefaultDir = "pkg/migrate/migrations"

// Migrations ships the SQL files inside the binaries so containers do not need
// the source tree.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// Source picks where migration files are read from: the embedded set, or a
// directory on disk when dir is non-empty.
func Source(dir string) (fs.FS, error) {
	if dir != "" {
		return os.DirFS(dir), nil
	}
	return fs.Sub(Migrations, "migrations")
}

// Runner applies goose migrations through a Provider, which keeps no package
// level state and is safe to build per command.
type Runner struct {
	provider *goose.Provider
	logg     *logger.Logger
}

func NewRunner(db *sql.DB, migrations fs.FS, logg *logger.Logger) (*Runner, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return &Runner{provider: provider, logg: logg}, nil
}

// Run executes up, down or status.
func (r *Runner) Run(ctx context.Context, command string) error {
	switch command {
	case "up":
		results, err := r.provider.Up(ctx)
		r.logResults(ctx, results...)
		if err != nil {
			return fmt.Errorf("goose up: %w", err)
		}
		if len(results) == 0 {
			r.logg.Info(ctx, "migrate.up_to_date")
		}
		return nil
	case "down":
		result, err := r.provider.Down(ctx)
		if result != nil {
			r.logResults(ctx, result)
		}
		if err != nil {
			return fmt.Errorf("goose down: %w", err)
		}
		return nil
	case "status":
		statuses, err := r.provider.Status(ctx)
		if err != nil {
			return fmt.Errorf("goose status: %w", err)
		}
		for _, st := range statuses {
			fields := map[string]any{"version": st.Source.Version, "file": st.Source.Path, "state": string(st.State)}
			if !st.AppliedAt.IsZero() {
				fields["applied_at"] = st.AppliedAt
			}
			r.logg.Info(r.logg.WithFields(ctx, fields), "migrate.status")
		}
		return nil
	default:
		return fmt.Errorf("unsupported migrate command %q", command)
	}
}

// MigrateTo moves the schema up or down to version (YYYYMMDDHHMMSS).
func (r *Runner) MigrateTo(ctx context.Context, version string) error {
	target, err := strconv.ParseInt(version, 10, 64)
	if err != nil || target < 0 {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS)", version)
	}
	current, err := r.provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	var results []*goose.MigrationResult
	switch {
	case current == target:
		return nil
	case current < target:
		results, err = r.provider.UpTo(ctx, target)
	default:
		results, err = r.provider.DownTo(ctx, target)
	}
	r.logResults(ctx, results...)
	if err != nil {
		return fmt.Errorf("migrate %d -> %d: %w", current, target, err)
	}
	return nil
}

func (r *Runner) logResults(ctx context.Context, results ...*goose.MigrationResult) {
	for _, res := range results {
		if res == nil || res.Source == nil {
			continue
		}
		fields := map[string]any{
			"version":   res.Source.Version,
			"file":      res.Source.Path,
			"direction": res.Direction,
			"took":      res.Duration.String(),
		}
		if res.Error != nil {
			r.logg.Error(r.logg.WithFields(ctx, fields), "migrate.failed", res.Error)
			continue
		}
		r.logg.Info(r.logg.WithFields(ctx, fields), "migrate.applied")
	}
}
