package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// IsUniqueViolation reports whether err is a unique constraint violation raised
// by Postgres (pgx or lib/pq) or SQLite. When names are provided, at least one
// of them must match the constraint name or appear in the error text; SQLite
// reports "table.column" rather than the index name.
func IsUniqueViolation(err error, names ...string) bool {
	return isViolation(err, pgUniqueViolation, []string{"duplicate key value", "UNIQUE constraint failed"}, names)
}

// IsForeignKeyViolation reports whether err is a foreign key violation, such as
// inserting a row that references a deleted parent. SQLite does not name the
// constraint, so names only narrow Postgres errors and error text.
func IsForeignKeyViolation(err error, names ...string) bool {
	return isViolation(err, pgForeignKeyViolation, []string{"violates foreign key constraint", "FOREIGN KEY constraint failed"}, names)
}

func isViolation(err error, code string, texts []string, names []string) bool {
	if err == nil {
		return false
	}

	var constraint string
	sqlite := false
	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		if pgxErr.Code != code {
			return false
		}
		constraint = pgxErr.ConstraintName
	case errors.As(err, &pqErr):
		if string(pqErr.Code) != code {
			return false
		}
		constraint = pqErr.Constraint
	default:
		msg := err.Error()
		matched := false
		for _, text := range texts {
			if strings.Contains(msg, text) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
		sqlite = strings.Contains(msg, "constraint failed")
	}
	if sqlite && code == pgForeignKeyViolation {
		return true
	}

	if len(names) == 0 {
		return true
	}
	msg := err.Error()
	for _, name := range names {
		if name == "" {
			continue
		}
		if constraint == name || strings.Contains(msg, name) {
			return true
		}
	}
	return false
}
