package duckdb

import (
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/manthysbr/modelpilot/internal/core/ports"
)

// Repository is the in-process DuckDB telemetry mirror. An empty path opens
// an in-memory database that lives as long as the process.
type Repository struct {
	db *sql.DB
}

// Ensure Repository implements the telemetry port
var _ ports.TelemetryRepository = (*Repository)(nil)

func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *Repository) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS usage_records (
			resource_id VARCHAR NOT NULL,
			ts          TIMESTAMP NOT NULL,
			tokens_used BIGINT,
			cost        DOUBLE,
			latency_ms  DOUBLE,
			quality     DOUBLE,
			task        VARCHAR,
			success     BOOLEAN,
			error       VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS switch_records (
			id          VARCHAR PRIMARY KEY,
			from_id     VARCHAR NOT NULL,
			to_id       VARCHAR NOT NULL,
			reason      VARCHAR,
			ts          TIMESTAMP NOT NULL,
			snapshot    VARCHAR,
			actor       VARCHAR,
			context     VARCHAR
		)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
