// Package sqlstore implements the repository interfaces on a relational
// database, either SQLite (the default, embedded) or PostgreSQL.
//
// WHY TWO ENGINES?
// SQLite lives inside the binary as a single file: no server to run, and
// ":memory:" gives every test a fresh database. PostgreSQL is what a real
// deployment points DATABASE_URL at. The schema and every query are written
// once against the common subset; sqlx rebinds '?' placeholders to '$n' for
// Postgres.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// modernc.org/sqlite is a pure Go translation of SQLite. No CGo, no C
// compiler, and cross-compilation keeps working.
//
// SQLX OVERVIEW:
// sqlx wraps database/sql without hiding it. The additions used here:
//   - db.GetContext / db.SelectContext scan rows straight into structs via
//     `db:"..."` tags
//   - db.Rebind converts '?' to the driver's bind style
//   - db.BeginTxx returns a *sqlx.Tx with the same helpers
package sqlstore

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	// BLANK IMPORTS:
	// Each driver's init() registers itself with database/sql: modernc as
	// "sqlite", pgx's stdlib adapter as "pgx".
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFiles embed.FS

// Dialect identifies the SQL engine behind a Store.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

func init() {
	// sqlx does not know modernc's driver name; its placeholder style is '?'.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Store wraps a sqlx connection pool and implements UserRepository,
// ExerciseRepository and FavoriteRepository.
type Store struct {
	db      *sqlx.DB
	dialect Dialect
}

// DialectFor picks the engine from a DSN: postgres:// and postgresql:// URLs
// select Postgres, anything else is a SQLite path.
func DialectFor(dsn string) Dialect {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return Postgres
	}
	return SQLite
}

// Open connects to dsn, applies engine settings and runs pending migrations.
//
// dsn examples:
//   - "data/primal.db"                           → SQLite file
//   - ":memory:"                                 → SQLite in memory (tests)
//   - "postgres://user:pw@host:5432/primal"      → PostgreSQL via pgx
func Open(ctx context.Context, dsn string) (*Store, error) {
	dialect := DialectFor(dsn)

	driver := "sqlite"
	if dialect == Postgres {
		driver = "pgx"
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: opening database: %w", err)
	}

	if dialect == SQLite {
		// One connection: ":memory:" databases are per connection, and the
		// PRAGMAs below are per connection too.
		db.SetMaxOpenConns(1)
	}

	// Ping forces a real connection so a bad DSN fails here and not on the
	// first request.
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: pinging database: %w", err)
	}

	if dialect == SQLite {
		// WAL lets readers proceed during a write. Foreign keys are off by
		// default in SQLite and the favorites cascade depends on them.
		for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				db.Close()
				return nil, fmt.Errorf("sqlstore: %s: %w", pragma, err)
			}
		}
	}

	s := New(db, dialect)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing pool. Open is the usual entry point; New exists for
// callers that build the *sqlx.DB themselves (sqlmock in tests).
func New(db *sqlx.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable. Used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Dialect reports the engine behind the store.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// Migrate applies every embedded migration for the store's dialect that has
// not run yet. goose records applied versions in goose_db_version.
func (s *Store) Migrate(ctx context.Context) error {
	dir, gooseDialect := "migrations/sqlite", "sqlite3"
	if s.dialect == Postgres {
		dir, gooseDialect = "migrations/postgres", "pgx"
	}

	sub, err := fs.Sub(migrationFiles, dir)
	if err != nil {
		return fmt.Errorf("sqlstore: locating migrations: %w", err)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(sub)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("sqlstore: goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db.DB, "."); err != nil {
		return fmt.Errorf("sqlstore: running migrations: %w", err)
	}
	return nil
}

// rebind converts a '?' query to the store's placeholder style.
func (s *Store) rebind(query string) string {
	return s.db.Rebind(query)
}
