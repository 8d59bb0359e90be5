package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const sqlStateUniqueViolation = "23505"

// IsUniqueViolation recognises unique violations from pgx, lib/pq and sqlite.
// A non-empty constraint must match the violated constraint's name.
func IsUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	code, name, ok := sqlState(err)
	if !ok {
		// sqlite only reports violations in the message text.
		msg := err.Error()
		if constraint != "" {
			return strings.Contains(msg, constraint)
		}
		return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
	}
	return code == sqlStateUniqueViolation && (constraint == "" || name == constraint)
}

// sqlState extracts the SQLSTATE and constraint name from either Postgres
// driver's error type.
func sqlState(err error) (code, constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint, true
	}
	return "", "", false
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
