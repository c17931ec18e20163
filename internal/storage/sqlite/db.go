// Package sqlite is an embedded storage.Store built on bun and
// mattn/go-sqlite3. It backs local development and the test suites.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"example.com/notifprefs/internal/domain"
	"example.com/notifprefs/internal/storage"
)

//go:embed schema.sql
var schema string

type DB struct {
	bun *bun.DB
}

var _ storage.Store = (*DB)(nil)

// Open opens (or creates) the database at path. Foreign keys are switched
// on for every connection. A path of ":memory:" gives a private in-memory
// database.
func Open(path string) (*DB, error) {
	sqldb, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: sqlite serializes writers, and an in-memory database
	// lives only as long as its connection.
	sqldb.SetMaxOpenConns(1)
	sqldb.SetConnMaxLifetime(0)
	sqldb.SetConnMaxIdleTime(0)
	return &DB{bun: bun.NewDB(sqldb, sqlitedialect.New())}, nil
}

func dsn(path string) string {
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on"
}

func (db *DB) Close() error {
	return db.bun.Close()
}

func (db *DB) Ready(ctx context.Context) error {
	return db.bun.PingContext(ctx)
}

// Migrate applies the embedded schema. It is idempotent.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.bun.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("exec schema: %w", err)
	}
	return nil
}

func (db *DB) InTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	err := db.bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &Tx{tx: tx})
	})
	return mapError(err)
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
		return domain.IntegrityViolation(err)
	}
	return err
}
