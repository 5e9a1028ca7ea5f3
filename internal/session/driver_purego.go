//go:build purego

package session

// This file is compiled with the purego tag and needs no C compiler:
//   CGO_ENABLED=0 go build -tags "purego" ./...

import (
	_ "modernc.org/sqlite"
)

// DriverName is the SQLite driver to use.
const DriverName = "sqlite"

func dsn(path string) string {
	return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}
