package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ms-landing/internal/config"
	"ms-landing/internal/database/migrations"
	"ms-landing/internal/logger"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	maxRetries = 5
	retryDelay = 2 * time.Second
)

// Open connects to the configured database and brings its schema up to date
// when AutoMigrate is set.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*bun.DB, error) {
	switch cfg.Driver {
	case "sqlite":
		return openSQLite(ctx, cfg, log)
	case "postgres":
		return openPostgres(cfg, log)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openPostgres(cfg config.DatabaseConfig, log *logger.Logger) (*bun.DB, error) {
	var sqldb *sql.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.DSN)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(retryDelay)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		sqldb.Close()
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL after %d attempts: %w", maxRetries, err)
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)
	log.Info("DATABASE", "✅ PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	if cfg.AutoMigrate {
		if err := migratePostgres(cfg.DSN, log); err != nil {
			bunDB.Close()
			return nil, err
		}
	}
	return bunDB, nil
}

// migratePostgres runs on its own pool: closing the migrator closes the
// database it was given.
func migratePostgres(dsn string, log *logger.Logger) error {
	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open PostgreSQL for migrations: %w", err)
	}

	runner := migrations.NewRunner(bun.NewDB(sqldb, pgdialect.New()), log)
	defer func() {
		if err := runner.Close(); err != nil {
			log.Warn("MIGRATE", err.Error())
		}
		sqldb.Close()
	}()

	return runner.MigrateUp()
}

func openSQLite(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite %s: %w", cfg.DSN, err)
	}
	// SQLite allows a single writer.
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	if err := bunDB.PingContext(ctx); err != nil {
		bunDB.Close()
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}
	log.Info("DATABASE", fmt.Sprintf("✅ SQLite database ready at %s", cfg.DSN))

	if cfg.AutoMigrate {
		if err := migrations.CreateTables(ctx, bunDB); err != nil {
			bunDB.Close()
			return nil, err
		}
		log.LogDatabase("CREATE", "purchases,comentarios", "tables ensured")
	}
	return bunDB, nil
}
