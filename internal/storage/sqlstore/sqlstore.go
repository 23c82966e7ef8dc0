// Package sqlstore is the account ledger store: users, accounts and the
// append-only transaction log on top of database/sql.
//
// The same queries run on PostgreSQL (production) and SQLite (local runs and
// tests). Placeholders are always numbered in order of appearance so both
// drivers bind them the same way.
package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

const pqUniqueViolation = "23505"

type Storage struct {
	db     *sql.DB
	driver string
	dsn    string

	// lockRows is appended to reads that precede a balance update.
	lockRows string
}

func New(driver, dsn string) (*Storage, error) {
	const op = "storage.sqlstore.New"

	s := &Storage{driver: driver, dsn: dsn}

	switch driver {
	case DriverPostgres:
		s.lockRows = " FOR UPDATE"
	case DriverSQLite:
		s.dsn = withParam(dsn, "_foreign_keys", "on")
	default:
		return nil, fmt.Errorf("%s: unsupported driver %q", op, driver)
	}

	db, err := sql.Open(driver, s.dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: database connection error: %w", op, err)
	}

	// SQLite has a single writer; one connection serializes transactions
	// and keeps an in-memory database alive for the life of the pool.
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: failed to connect database: %w", op, err)
	}

	s.db = db

	return s, nil
}

func (s *Storage) Driver() string {
	return s.driver
}

// DB exposes the pool for health checks and tests.
func (s *Storage) DB() *sql.DB {
	return s.db
}

func (s *Storage) Stop() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}

	return false
}

func withParam(dsn, key, value string) string {
	if strings.Contains(dsn, key+"=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + key + "=" + value
}
