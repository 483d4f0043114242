package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/stapelberg/postgrestest"
	"github.com/uptrace/bun/dialect/pgdialect"
)

// SetupEphemeralPostgresDatabase starts a throwaway PostgreSQL server and opens
// the job history in a fresh database on it. Close stops the server.
func SetupEphemeralPostgresDatabase() (*BunDB, error) {
	Logger.Info("Starting ephemeral PostgreSQL server...")

	ctx := context.Background()

	pgt, err := postgrestest.Start(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start ephemeral postgres: %w", err)
	}

	dsn, err := pgt.CreateDatabase(ctx)
	if err != nil {
		pgt.Cleanup()
		return nil, fmt.Errorf("failed to create pdf2png database: %w", err)
	}
	Logger.Info("Created ephemeral database", "dsn", dsn)

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		pgt.Cleanup()
		return nil, fmt.Errorf("failed to open pdf2png database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		pgt.Cleanup()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	result, err := newBunDB(sqlDB, pgdialect.New(), "ephemeral", false)
	if err != nil {
		pgt.Cleanup()
		return nil, err
	}
	result.server = pgt
	return result, nil
}
