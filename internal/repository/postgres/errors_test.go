package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestPgErrorClassification(t *testing.T) {
	duplicate := &pgconn.PgError{Code: codeUniqueViolation}
	foreignKey := &pgconn.PgError{Code: codeForeignKeyViolation}

	tests := []struct {
		name           string
		err            error
		wantDuplicate  bool
		wantNoRows     bool
		wantForeignKey bool
	}{
		{"unique violation", duplicate, true, false, false},
		{"wrapped unique violation", fmt.Errorf("insert message: %w", duplicate), true, false, false},
		{"foreign key violation", foreignKey, false, false, true},
		{"no rows", pgx.ErrNoRows, false, true, false},
		{"wrapped no rows", fmt.Errorf("get session: %w", pgx.ErrNoRows), false, true, false},
		{"other pg error", &pgconn.PgError{Code: "42P01"}, false, false, false},
		{"plain error", errors.New("connection reset"), false, false, false},
		{"nil", nil, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPgDuplicateError(tt.err); got != tt.wantDuplicate {
				t.Errorf("IsPgDuplicateError = %v, want %v", got, tt.wantDuplicate)
			}
			if got := IsPgNoRowsError(tt.err); got != tt.wantNoRows {
				t.Errorf("IsPgNoRowsError = %v, want %v", got, tt.wantNoRows)
			}
			if got := IsPgForeignKeyError(tt.err); got != tt.wantForeignKey {
				t.Errorf("IsPgForeignKeyError = %v, want %v", got, tt.wantForeignKey)
			}
		})
	}
}
