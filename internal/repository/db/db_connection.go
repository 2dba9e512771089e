package db

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL flavour of the backing store.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// Rebind rewrites '?' placeholders into the dialect's bind syntax.
func (d Dialect) Rebind(q string) string {
	if d != Postgres {
		return q
	}
	var (
		b strings.Builder
		n int
	)
	b.Grow(len(q) + 8)
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

// Open connects to the store and ensures tables exist. For SQLite dsn is a file path.
func Open(d Dialect, dsn string) (*sql.DB, error) {
	switch d {
	case SQLite:
		return openSQLite(dsn)
	case Postgres:
		return openPostgres(dsn)
	default:
		return nil, fmt.Errorf("unsupported dialect %q", d)
	}
}

func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open(string(SQLite), path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// Conservative pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is not great with many writers
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", strings.TrimSuffix(pragma, ";"), err)
		}
	}

	return finishOpen(db, SQLite, "sqlite")
}

func openPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open(string(Postgres), dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return finishOpen(db, Postgres, "postgres")
}

func finishOpen(db *sql.DB, d Dialect, name string) (*sql.DB, error) {
	// Fail fast if the DB cannot be reached
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", name, err)
	}
	if err := ensureSchema(db, d); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sql.DB, d Dialect) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		// In case of panic, rollback to avoid leaving an open transaction
		_ = tx.Rollback()
	}()

	for i, stmt := range schemaFor(d) {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
