package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/joho/godotenv"
)

type options struct {
	cmd      string
	dir      string
	embedded bool
	name     string
	version  string
}

func main() {
	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "up | down | status | version | create | validate")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "migrations directory on disk")
	flag.BoolVar(&opts.embedded, "embedded", false, "apply the migrations compiled into the binary")
	flag.StringVar(&opts.name, "name", "", "name of the new migration (create)")
	flag.StringVar(&opts.version, "version", "", "target version YYYYMMDDHHMMSS (version)")
	flag.Parse()

	if err := run(context.Background(), opts); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			return errors.New("-name is required for create")
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			return err
		}
		fmt.Println("created", path)
		return nil
	case "validate":
		if err := migrate.ValidateDir(opts.dir); err != nil {
			return err
		}
		fmt.Println("migrations ok")
		return nil
	case "version":
		if opts.version == "" {
			return errors.New("-version is required for version")
		}
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "storefront-migrate",
		Level:       cfg.App.LogLevel,
		Console:     cfg.App.ConsoleLogs(),
	})
	ctx = logg.WithFields(ctx, map[string]any{"cmd": opts.cmd, "embedded": opts.embedded})

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer client.Close()
	sqlDB, err := client.DB().DB()
	if err != nil {
		return err
	}

	source := opts.dir
	if opts.embedded {
		source = ""
	}
	migrations, err := migrate.Source(source)
	if err != nil {
		return err
	}
	runner, err := migrate.NewRunner(sqlDB, migrations, logg)
	if err != nil {
		return err
	}

	if opts.cmd == "version" {
		err = runner.MigrateTo(ctx, opts.version)
	} else {
		err = runner.Run(ctx, opts.cmd)
	}
	if err != nil {
		logg.Error(ctx, "migrate.command_failed", err)
	}
	return err
}
