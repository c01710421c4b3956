// Package store persists products, customers, sales and users through sqlx.
// Queries use '?' placeholders and are rebound for the active driver.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"makemybill/m/domain"
)

// Store bundles the repositories over one database handle.
type Store struct {
	DB        *sqlx.DB
	Timeout   time.Duration
	Products  *ProductRepo
	Customers *CustomerRepo
	Sales     *SaleRepo
	Movements *MovementRepo
	Users     *UserRepo
}

func New(db *sqlx.DB, timeout time.Duration) *Store {
	movements := &MovementRepo{db: db}
	return &Store{
		DB:        db,
		Timeout:   timeout,
		Products:  &ProductRepo{db: db, movements: movements},
		Customers: &CustomerRepo{db: db},
		Sales:     &SaleRepo{db: db},
		Movements: movements,
		Users:     &UserRepo{db: db},
	}
}

// WithTimeout bounds a storage operation. A zero timeout leaves ctx as is.
func (s *Store) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.Timeout)
}

// InTx runs fn inside a transaction that is committed only if fn succeeds.
func (s *Store) InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return inTx(ctx, s.DB, fn)
}

func inTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return mapErr(fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return mapErr(err)
	}
	if err := tx.Commit(); err != nil {
		return mapErr(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// mapErr translates driver and context failures into domain errors.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrStorageTimeout):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", domain.ErrStorageTimeout, err)
	case errors.Is(err, sql.ErrNoRows):
		return domain.ErrNotFound
	}
	return err
}

// lookupErr reports a missing row as "<what>: not found", keeping driver
// text out of the message.
func lookupErr(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return mapErr(fmt.Errorf("%s: %w", what, err))
}

// isUniqueViolation reports whether err is a unique constraint failure on a
// column whose name contains column.
func isUniqueViolation(err error, column string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName+pgErr.Message, column)
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT &&
			strings.Contains(liteErr.Error(), "UNIQUE") &&
			strings.Contains(liteErr.Error(), column)
	}
	return false
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
