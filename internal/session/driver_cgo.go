//go:build !purego

package session

import (
	_ "github.com/mattn/go-sqlite3"
)

// DriverName is the SQLite driver to use.
const DriverName = "sqlite3"

func dsn(path string) string {
	return path + "?_journal_mode=WAL&_busy_timeout=5000"
}
