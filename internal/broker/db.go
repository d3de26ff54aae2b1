// Package broker implements the Job Broker (C4): SQL-backed persistence for
// the jobs and job_results tables (spec §6), behind the sqlx-based dialect
// switch the teacher's sqlite-only storage layer never needed.
package broker

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Dialect is the SQL backend a DB instance talks to.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// DB wraps a *sqlx.DB with the dialect it was opened against, so the
// repository can pick placeholder syntax (sqlx.Rebind handles that) and
// dialect-specific SQL fragments (e.g. upsert syntax).
type DB struct {
	*sqlx.DB
	Dialect Dialect
}

// dialectOf infers the dialect from the connection string's scheme: anything
// starting with "postgres://" or "postgresql://" is postgres, everything else
// (a bare file path, "file:path", "sqlite://path") is sqlite — mirroring the
// teacher's environment-driven config resolution in common.SQLiteConfig.
func dialectOf(dsn string) Dialect {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return DialectPostgres
	}
	return DialectSQLite
}

// Open connects to dsn, inferring the dialect, and applies every pending
// migration before returning.
func Open(ctx context.Context, dsn string) (*DB, error) {
	dialect := dialectOf(dsn)

	driverName := "sqlite"
	connStr := strings.TrimPrefix(dsn, "sqlite://")
	if dialect == DialectPostgres {
		driverName = "postgres"
		connStr = dsn
	}

	sdb, err := sqlx.Open(driverName, connStr)
	if err != nil {
		return nil, fmt.Errorf("broker: open %s: %w", driverName, err)
	}
	if dialect == DialectSQLite {
		sdb.SetMaxOpenConns(1)
		if _, err := sdb.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			sdb.Close()
			return nil, fmt.Errorf("broker: enable foreign keys: %w", err)
		}
	}
	if err := sdb.PingContext(ctx); err != nil {
		sdb.Close()
		return nil, fmt.Errorf("broker: ping %s: %w", driverName, err)
	}

	db := &DB{DB: sdb, Dialect: dialect}
	if err := db.migrate(); err != nil {
		sdb.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) migrate() error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("broker: load migrations: %w", err)
	}

	var m *migrate.Migrate

	switch db.Dialect {
	case DialectPostgres:
		driver, derr := postgres.WithInstance(db.DB.DB, &postgres.Config{})
		if derr != nil {
			return fmt.Errorf("broker: postgres migrate driver: %w", derr)
		}
		m, err = migrate.NewWithInstance("iofs", src, "postgres", driver)
	default:
		driver, derr := sqlite.WithInstance(db.DB.DB, &sqlite.Config{})
		if derr != nil {
			return fmt.Errorf("broker: sqlite migrate driver: %w", derr)
		}
		m, err = migrate.NewWithInstance("iofs", src, "sqlite", driver)
	}
	if err != nil {
		return fmt.Errorf("broker: init migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("broker: apply migrations: %w", err)
	}
	return nil
}

// rebind adapts a "?"-placeholder query to the connected dialect.
func (db *DB) rebind(query string) string {
	return db.DB.Rebind(query)
}
