// Package sqlpg implements the domain repositories on PostgreSQL via sqlx.
package sqlpg

import (
	"database/sql"
	"strconv"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// pqUniqueViolation is the SQLSTATE for unique constraint violations.
const pqUniqueViolation = "23505"

func newID() string {
	return uuid.New().String()
}

// placeholder returns the positional bindvar for the nth argument.
func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return constraint == "" || pqErr.Constraint == constraint
	}
	return false
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
