package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/notifprefs/internal/domain"
	"example.com/notifprefs/internal/storage"
)

type DB struct {
	Pool *pgxpool.Pool
}

var _ storage.Store = (*DB)(nil)

func Connect(ctx context.Context, dsn string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	return &DB{Pool: pool}, nil
}

func (db *DB) Close() error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	return nil
}

func (db *DB) Ready(ctx context.Context) error {
	var one int
	return db.Pool.QueryRow(ctx, "select 1").Scan(&one)
}

// InTx runs fn in a transaction on one pooled connection. The connection
// goes back to the pool whether fn succeeds or not.
func (db *DB) InTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	err := pgx.BeginTxFunc(ctx, db.Pool, pgx.TxOptions{}, func(t pgx.Tx) error {
		return fn(ctx, &Tx{tx: t})
	})
	return mapError(err)
}

// RunMigration executes a single SQL file. The bundled schema uses
// IF NOT EXISTS throughout so reapplying it is harmless.
func (db *DB) RunMigration(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open migration: %w", err)
	}
	defer f.Close()
	sqlBytes, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	_, err = db.Pool.Exec(ctx, string(sqlBytes))
	if err != nil {
		return fmt.Errorf("exec migration: %w", err)
	}
	return nil
}

// mapError turns SQLSTATE class 23 (integrity constraint violation) into
// domain.ErrIntegrityViolation. Errors already classified pass through.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return domain.IntegrityViolation(err)
	}
	return err
}
