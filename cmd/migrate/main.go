package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	"ms-landing/internal/config"
	"ms-landing/internal/database/migrations"
	"ms-landing/internal/logger"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

const usage = `usage: migrate [-dsn DSN] <command>

commands:
  up           apply all pending migrations
  down         roll back every migration
  to VERSION   migrate up or down to VERSION
  version      print the applied version
`

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	dsn := flag.String("dsn", cfg.Database.DSN, "PostgreSQL connection string")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	log := logger.New("migrate", "")
	defer log.Close()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	sqldb, err := sql.Open("postgres", *dsn)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
	}
	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
	}

	runner := migrations.NewRunner(bun.NewDB(sqldb, pgdialect.New()), log)
	defer runner.Close()

	if err := run(runner, flag.Args()); err != nil {
		runner.Close()
		log.Fatal("MIGRATE", err.Error())
	}
}

func run(runner *migrations.Runner, args []string) error {
	switch args[0] {
	case "up":
		return runner.MigrateUp()
	case "down":
		return runner.MigrateDown()
	case "to":
		if len(args) < 2 {
			return fmt.Errorf("to requires a version")
		}
		var version uint
		if _, err := fmt.Sscanf(args[1], "%d", &version); err != nil {
			return fmt.Errorf("invalid version %q", args[1])
		}
		return runner.MigrateTo(version)
	case "version":
		version, dirty, err := runner.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version %d (dirty: %t)\n", version, dirty)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}
