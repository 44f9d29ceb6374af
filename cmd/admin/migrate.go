package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/digishe/digishe/internal/config"
	"github.com/digishe/digishe/internal/infra"
)

type migrateCmd struct {
	dir string
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply pending SQL migrations" }
func (*migrateCmd) Usage() string {
	return `admin migrate [-dir <migrations_dir>]

  Applies every migration file not yet recorded in schema_migrations.
`
}

func (m *migrateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&m.dir, "dir", "", "Directory holding *.sql migrations (defaults to MIGRATIONS_DIR).")
}

func (m *migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL must be set")
		return subcommands.ExitFailure
	}
	dir := m.dir
	if dir == "" {
		dir = cfg.MigrationsDir
	}
	applied, err := infra.RunMigrations(ctx, cfg.DatabaseURL, dir)
	for _, file := range applied {
		fmt.Println("applied", file)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if len(applied) == 0 {
		fmt.Println("nothing to apply")
	}
	return subcommands.ExitSuccess
}
