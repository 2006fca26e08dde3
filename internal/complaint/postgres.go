package complaint

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists complaints in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS complaints (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			issue_type TEXT NOT NULL,
			location TEXT NOT NULL,
			description TEXT NOT NULL,
			phone TEXT NOT NULL,
			"timestamp" TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_complaints_issue_type_ts ON complaints (issue_type, "timestamp");`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, record Record) error {
	ts, err := record.Time()
	if err != nil {
		return fmt.Errorf("parse timestamp: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO complaints (id, name, issue_type, location, description, phone, "timestamp")
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.NewString(),
		record.Name,
		record.IssueType,
		record.Location,
		record.Description,
		record.Phone,
		ts,
	)
	if err != nil {
		return fmt.Errorf("insert complaint: %w", err)
	}
	return nil
}

func (s *PostgresStore) Name() string { return "postgres" }

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
