// Package sqlite persists profiles in a local SQLite database, taking
// over the role the original's browser storage played.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/harvestmkt/marketcore/internal/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
    address   TEXT PRIMARY KEY,
    role      TEXT NOT NULL,
    name      TEXT NOT NULL DEFAULT '',
    location  TEXT NOT NULL DEFAULT '',
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

type Store struct {
	db *sql.DB
}

var _ session.Store = (*Store)(nil)

// Open opens (creating if needed) the profile database at path. Use
// ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open profile db: %w", err)
	}

	// Single writer suits SQLite; reads share the same connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, address string) (session.Profile, error) {
	var p session.Profile
	var role string
	err := s.db.QueryRowContext(ctx,
		`SELECT address, role, name, location FROM profiles WHERE address = ?`,
		address,
	).Scan(&p.Address, &role, &p.Name, &p.Location)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Profile{}, session.ErrNotFound
	}
	if err != nil {
		return session.Profile{}, err
	}

	r, err := session.ParseRole(role)
	if err != nil {
		return session.Profile{}, fmt.Errorf("profile %s: %w", address, err)
	}
	p.Role = r
	return p, nil
}

func (s *Store) Put(ctx context.Context, p session.Profile) error {
	if p.Address == "" {
		return fmt.Errorf("profile address required")
	}
	if _, err := session.ParseRole(string(p.Role)); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO profiles (address, role, name, location, updated_at)
VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(address) DO UPDATE SET
    role = excluded.role,
    name = excluded.name,
    location = excluded.location,
    updated_at = CURRENT_TIMESTAMP`,
		p.Address, string(p.Role), p.Name, p.Location)
	return err
}
