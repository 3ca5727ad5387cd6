package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// UniqueViolation reports whether err is a unique constraint failure and, if so,
// the column the constraint guards. Postgres names single-column unique
// constraints <table>_<column>_key, which is what the column is recovered from.
func UniqueViolation(err error) (column string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != codeUniqueViolation {
		return "", false
	}
	return constraintColumn(pgErr.TableName, pgErr.ConstraintName), true
}

// ForeignKeyViolation reports whether err is a foreign key failure.
func ForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeForeignKeyViolation
}

func constraintColumn(table, constraint string) string {
	name := strings.TrimSuffix(constraint, "_key")
	if table != "" {
		name = strings.TrimPrefix(name, table+"_")
	} else if i := strings.Index(name, "_"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return "value"
	}
	return name
}
