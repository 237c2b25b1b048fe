package state

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/arkavo-labs/accord/pkg/directory"
)

// SQLiteStore persists component state in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) a SQLite-backed store at the given path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("state: open %s: %w", path, err)
	}
	return NewSQLiteStore(db)
}

// NewSQLiteStore wraps an existing database handle.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS component_state (
		address    TEXT PRIMARY KEY,
		payload    BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

func (s *SQLiteStore) Save(ctx context.Context, addr directory.Address, payload []byte, at uint64) error {
	query := `
	INSERT INTO component_state (address, payload, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(address) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, query, string(addr), payload, int64(at)); err != nil {
		return fmt.Errorf("state: save %s: %w", addr, err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, addr directory.Address) ([]byte, uint64, error) {
	var payload []byte
	var at int64
	row := s.db.QueryRowContext(ctx,
		`SELECT payload, updated_at FROM component_state WHERE address = ?`, string(addr))
	if err := row.Scan(&payload, &at); err != nil {
		if err == sql.ErrNoRows {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("state: load %s: %w", addr, err)
	}
	return payload, uint64(at), nil
}

func (s *SQLiteStore) Addresses(ctx context.Context) ([]directory.Address, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT address FROM component_state ORDER BY address`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []directory.Address
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, err
		}
		out = append(out, directory.Address(addr))
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
