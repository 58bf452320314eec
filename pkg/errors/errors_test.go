package errors

import (
	"database/sql"
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/mattn/go-sqlite3"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeInsufficientStock, status: http.StatusBadRequest, publicMsg: "insufficient stock", detailsOK: true},
		{code: CodeIdempotency, status: http.StatusConflict, publicMsg: "idempotency key reused", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeInternal, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeInternal {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestIsCodeFollowsChain(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeInsufficientStock, "only 2 left"))
	if !IsCode(err, CodeInsufficientStock) {
		t.Fatalf("expected IsCode to find insufficient stock in chain")
	}
	if IsCode(err, CodeNotFound) {
		t.Fatalf("unexpected match for not found")
	}
	if IsCode(nil, CodeNotFound) {
		t.Fatalf("nil error should never match")
	}
}

func TestDumpFlattensChain(t *testing.T) {
	cause := stdErrors.New("disk full")
	err := Wrap(CodeInternal, cause, "db: adjust quantity")

	dump := Dump(err)
	if dump.Code != CodeInternal {
		t.Fatalf("expected internal code, got %s", dump.Code)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected 2 chain entries, got %d: %v", len(dump.Chain), dump.Chain)
	}
	if dump.Backend != "" || dump.DBCode != "" {
		t.Fatalf("expected no driver fields for plain error, got %+v", dump)
	}
	if got := Dump(nil); got.TopMessage != "" {
		t.Fatalf("expected empty dump for nil error")
	}
}

func TestDumpReadsSQLiteCheckViolation(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec(`CREATE TABLE sweets (quantity INTEGER NOT NULL, CONSTRAINT sweets_quantity_non_negative CHECK (quantity >= 0))`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	_, execErr := db.Exec(`INSERT INTO sweets (quantity) VALUES (-1)`)
	if execErr == nil {
		t.Fatal("expected check violation")
	}

	dump := Dump(Wrap(CodeInternal, execErr, "db: create sweet"))
	if dump.Backend != "sqlite" {
		t.Fatalf("expected sqlite backend, got %+v", dump)
	}
	if dump.Constraint != "sweets_quantity_non_negative" {
		t.Fatalf("expected constraint name, got %q", dump.Constraint)
	}
	// SQLITE_CONSTRAINT_CHECK
	if dump.DBCode != "275" {
		t.Fatalf("expected extended check code, got %q", dump.DBCode)
	}
}

func TestDumpReadsPostgresError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23514", ConstraintName: "sweets_price_non_negative", TableName: "sweets", Message: "violates check constraint"}
	dump := Dump(fmt.Errorf("update: %w", pgErr))
	if dump.Backend != "postgres" || dump.DBCode != "23514" || dump.Constraint != "sweets_price_non_negative" || dump.Table != "sweets" {
		t.Fatalf("unexpected postgres dump %+v", dump)
	}
}
