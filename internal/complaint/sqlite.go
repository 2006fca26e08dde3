package complaint

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLiteStore persists complaints to a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS complaints (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		issue_type TEXT NOT NULL,
		location TEXT NOT NULL,
		description TEXT NOT NULL,
		phone TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, record Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO complaints (id, name, issue_type, location, description, phone, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		record.Name,
		record.IssueType,
		record.Location,
		record.Description,
		record.Phone,
		record.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert complaint: %w", err)
	}
	return nil
}

// List returns stored complaints oldest first.
func (s *SQLiteStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, issue_type, location, description, phone, timestamp FROM complaints ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query complaints: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Name, &r.IssueType, &r.Location, &r.Description, &r.Phone, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan complaint row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate complaint rows: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Name() string { return "sqlite" }

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
