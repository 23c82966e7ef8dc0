package sqlstore

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrations embed.FS

const DefaultMigrationsTable = "schema_migrations"

// Migrate applies every pending migration for the store's driver.
// It returns true when at least one migration ran.
func (s *Storage) Migrate(migrationsTable string) (bool, error) {
	const op = "storage.sqlstore.Migrate"

	if migrationsTable == "" {
		migrationsTable = DefaultMigrationsTable
	}

	src, err := iofs.New(migrations, "migrations/"+s.driver)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	var m *migrate.Migrate

	switch s.driver {
	case DriverPostgres:
		// A dedicated connection, so the store's pool is left untouched.
		m, err = migrate.NewWithSourceInstance("iofs", src, withParam(s.dsn, "x-migrations-table", migrationsTable))
		if err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
		defer m.Close()
	case DriverSQLite:
		// Must share the pool: an in-memory database exists only there.
		// Closing this migrate instance would close the pool, so it is not.
		drv, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{MigrationsTable: migrationsTable})
		if err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
		m, err = migrate.NewWithInstance("iofs", src, DriverSQLite, drv)
		if err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
	default:
		return false, fmt.Errorf("%s: unsupported driver %q", op, s.driver)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return true, nil
}
