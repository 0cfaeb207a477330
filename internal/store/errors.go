// Package store holds the durable-store plumbing shared by the catalog and
// order repositories: error taxonomy, driver error classification and
// connection setup for Postgres (pgx) and SQLite (gorm).
package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrConstraint  = errors.New("constraint violation")
	ErrUnavailable = errors.New("store unavailable")
)

// Constraintf builds an error that matches ErrConstraint.
func Constraintf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConstraint, fmt.Sprintf(format, args...))
}

func isTaxonomy(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrConstraint) || errors.Is(err, ErrUnavailable)
}

// ClassifyPG maps a pgx error onto the store taxonomy. Integrity (class 23)
// and data exceptions (class 22, e.g. numeric overflow) are constraint
// violations; everything that did not come back as a server error is treated
// as the store being unreachable.
func ClassifyPG(err error) error {
	if err == nil || isTaxonomy(err) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case len(pgErr.Code) == 5 && (pgErr.Code[:2] == "23" || pgErr.Code[:2] == "22"):
			return fmt.Errorf("%w: %s", ErrConstraint, pgErr.Message)
		case len(pgErr.Code) == 5 && (pgErr.Code[:2] == "08" || pgErr.Code[:2] == "53" || pgErr.Code[:2] == "57"):
			return fmt.Errorf("%w: %s", ErrUnavailable, pgErr.Message)
		}
		return err
	}
	// connect errors, timeouts, canceled contexts, broken connections
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// IsUniqueViolation reports whether err is a unique-index failure from
// either backend.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		(err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed"))
}

// ClassifyGorm maps a gorm error onto the store taxonomy. The SQLite dialector
// translates unique and foreign key failures when TranslateError is on.
func ClassifyGorm(err error) error {
	if err == nil || isTaxonomy(err) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey),
		errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", ErrConstraint, err)
	case errors.Is(err, gorm.ErrInvalidData), errors.Is(err, gorm.ErrInvalidValue):
		return fmt.Errorf("%w: %v", ErrConstraint, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
