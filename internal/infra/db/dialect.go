// Package db is the SQL implementation of the profile store. One code path
// serves MySQL, PostgreSQL and SQLite; the dialect only changes placeholders
// and the upsert clause.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/bryanwahyu/giterra/internal/infra/db/mysql"
	"github.com/bryanwahyu/giterra/internal/infra/db/postgres"
	"github.com/bryanwahyu/giterra/internal/infra/db/sqlite"
)

type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ParseDialect accepts the driver names used in configuration.
func ParseDialect(s string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(s)); d {
	case MySQL, Postgres, SQLite:
		return d, nil
	case "postgresql":
		return Postgres, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", s)
	}
}

// Open connects with the driver of d and verifies the connection.
func Open(ctx context.Context, d Dialect, dsn string) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch d {
	case MySQL:
		db, err = mysql.Connect(ctx, dsn)
	case Postgres:
		db, err = postgres.Connect(ctx, dsn)
	case SQLite:
		db, err = sqlite.Connect(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", d)
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", d, err)
	}
	return db, nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (d Dialect) rebind(q string) string {
	if d != Postgres {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// upsert builds an INSERT that updates the given columns when the key
// columns already exist.
func (d Dialect) upsert(table string, cols, key, update []string) string {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), marks)

	sets := make([]string, 0, len(update))
	if d == MySQL {
		for _, c := range update {
			sets = append(sets, fmt.Sprintf("%s = VALUES(%s)", c, c))
		}
		return q + " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	}
	for _, c := range update {
		sets = append(sets, fmt.Sprintf("%s = excluded.%s", c, c))
	}
	return fmt.Sprintf("%s ON CONFLICT (%s) DO UPDATE SET %s", q, strings.Join(key, ", "), strings.Join(sets, ", "))
}
