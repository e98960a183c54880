package main

import (
	"context"
	"fmt"
	"os"

	"github.com/avdheuvel/homebid/internal"
	"github.com/avdheuvel/homebid/internal/db"
	"github.com/avdheuvel/homebid/internal/migrate"
	"github.com/avdheuvel/homebid/migrations"
)

const helpText = `Usage: dbmigrate [sqlite_file]

The sqlite file may also be provided via the DB_FILE environment variable.`

func main() {
	cfg, err := configFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read configuration: %v\n", err)
		os.Exit(1)
	}

	switch len(os.Args) {
	case 1:
		// use the configured db file.
	case 2:
		cfg.dbFile = os.Args[1]
	default:
		fmt.Fprintln(os.Stderr, helpText)
		os.Exit(1)
	}

	sqlDB, err := db.OpenSQLite(cfg.dbFile, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
	defer cancel()

	applied, err := migrate.Up(ctx, sqlDB, migrations.FS, internal.BuildRevision, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		os.Exit(1)
	}

	for _, a := range applied {
		fmt.Printf("%d: %s\n", a.Sequence, a.Filename)
	}
}
