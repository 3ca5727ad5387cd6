package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestUniqueViolation(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantCol string
		wantOK  bool
	}{
		{"plain error", errors.New("boom"), "", false},
		{"other pg code", &pgconn.PgError{Code: "23503"}, "", false},
		{"email on clinicians", &pgconn.PgError{Code: "23505", TableName: "clinicians", ConstraintName: "clinicians_email_key"}, "email", true},
		{"wrapped", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", TableName: "patients", ConstraintName: "patients_mobile_key"}), "mobile", true},
		{"no table name", &pgconn.PgError{Code: "23505", ConstraintName: "patients_email_key"}, "email", true},
		{"unnamed", &pgconn.PgError{Code: "23505"}, "value", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col, ok := UniqueViolation(tt.err)
			if ok != tt.wantOK || col != tt.wantCol {
				t.Errorf("UniqueViolation() = (%q, %v), want (%q, %v)", col, ok, tt.wantCol, tt.wantOK)
			}
		})
	}
}

func TestForeignKeyViolation(t *testing.T) {
	if !ForeignKeyViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("expected 23503 to be a foreign key violation")
	}
	if ForeignKeyViolation(errors.New("nope")) {
		t.Error("expected plain error not to be a foreign key violation")
	}
}
