package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrDuplicateKey is returned when a property ID is already taken.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrNotFound is returned by writes that target a property that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrRevisionConflict is returned when a property changed since it was read.
	ErrRevisionConflict = errors.New("revision conflict")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
