package sqlite

import (
	"context"
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"
)

// DriverName is the database/sql name modernc.org/sqlite registers under.
const DriverName = "sqlite"

// DSN turns a file path into a DSN with a busy timeout and foreign keys on.
// Values that already carry a query string are returned unchanged.
func DSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

// Connect opens a single-connection SQLite handle. SQLite allows one writer
// at a time, so the pool is pinned to one connection.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
