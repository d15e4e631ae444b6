package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"biotriage/domain/triage"
	"biotriage/internal/errors"
	"biotriage/ports"
)

// resultRepository implements the ResultArchivePort interface
type resultRepository struct {
	db *sqlx.DB
}

// NewResultRepository connects to the archive database and ensures the
// analyses table exists.
func NewResultRepository(databaseURL string) (ports.ResultArchivePort, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to archive database", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return &resultRepository{db: db}, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		organism TEXT NOT NULL DEFAULT '',
		tissue TEXT NOT NULL DEFAULT '',
		assay TEXT NOT NULL DEFAULT '',
		phenotype TEXT NOT NULL DEFAULT '',
		program_count INT NOT NULL DEFAULT 0,
		warnings TEXT[] NOT NULL DEFAULT '{}',
		result JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	if _, err := db.Exec(schema); err != nil {
		return errors.DatabaseError("failed to ensure analyses schema", err)
	}
	return nil
}

// SaveResult archives a completed triage result. The full result goes into a
// JSONB column; a few context fields are denormalized for querying.
func (r *resultRepository) SaveResult(ctx context.Context, result *triage.Result) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	query := `INSERT INTO analyses (
		id, organism, tissue, assay, phenotype, program_count, warnings, result, created_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9
	) ON CONFLICT (id) DO UPDATE SET
		program_count = EXCLUDED.program_count,
		warnings = EXCLUDED.warnings,
		result = EXCLUDED.result`

	warnings := result.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	_, err = r.db.ExecContext(ctx, query,
		string(result.AnalysisID), result.Context.Organism, result.Context.Tissue,
		string(result.Context.Assay), result.Context.Phenotype,
		len(result.Programs), pq.Array(warnings), resultJSON, result.CreatedAt,
	)
	if err != nil {
		return errors.DatabaseError("failed to archive analysis", err)
	}
	return nil
}
