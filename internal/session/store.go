// Package session persists small UI state between runs in a SQLite file.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS session (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

const (
	keyLastVault = "last_vault_path"
	keyLastFile  = "last_file_path"
	keyTheme     = "theme"
)

// Data is the persisted session. Nil fields are unset.
type Data struct {
	LastVaultPath *string `json:"last_vault_path"`
	LastFilePath  *string `json:"last_file_path"`
	Theme         *string `json:"theme"`
}

func (d Data) fields() map[string]*string {
	return map[string]*string{
		keyLastVault: d.LastVaultPath,
		keyLastFile:  d.LastFilePath,
		keyTheme:     d.Theme,
	}
}

// Store wraps a sql.DB holding the session table.
type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the session database at path. Missing parent
// directories are created.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("session: mkdir: %w", err)
	}
	conn, err := sql.Open(DriverName, dsn(path))
	if err != nil {
		return nil, fmt.Errorf("session: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("session: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("session: apply schema: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Load returns the stored session. A fresh store yields all-nil fields.
func (s *Store) Load(ctx context.Context) (Data, error) {
	var d Data
	for key, dst := range map[string]**string{
		keyLastVault: &d.LastVaultPath,
		keyLastFile:  &d.LastFilePath,
		keyTheme:     &d.Theme,
	} {
		var v string
		err := s.conn.QueryRowContext(ctx, `SELECT value FROM session WHERE key = ?`, key).Scan(&v)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return Data{}, fmt.Errorf("session: load %s: %w", key, err)
		}
		*dst = &v
	}
	return d, nil
}

// Save updates the fields of d that are set and leaves the others alone.
func (s *Store) Save(ctx context.Context, d Data) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("session: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	for key, v := range d.fields() {
		if v == nil {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO session (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, key, *v)
		if err != nil {
			return fmt.Errorf("session: save %s: %w", key, err)
		}
	}
	return tx.Commit()
}
