package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestTranslateErrorPostgresUnique(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{
		Code:           "23505",
		TableName:      "students",
		ConstraintName: "idx_students_email",
	})
	var dup *DuplicateError
	if !errors.As(TranslateError(err), &dup) || dup.Field != "email" {
		t.Fatalf("got %v", TranslateError(err))
	}

	err = &pgconn.PgError{Code: "23505", TableName: "enrollments", ConstraintName: "uniq_student_course"}
	if !errors.As(TranslateError(err), &dup) || dup.Field != "courseId" {
		t.Fatalf("composite index: got %v", TranslateError(err))
	}
}

func TestTranslateErrorPassThrough(t *testing.T) {
	if !errors.Is(TranslateError(gorm.ErrRecordNotFound), ErrNotFound) {
		t.Error("record not found should map to ErrNotFound")
	}
	other := errors.New("connection reset")
	if TranslateError(other) != other {
		t.Error("unrelated errors must pass through")
	}
	if TranslateError(nil) != nil {
		t.Error("nil stays nil")
	}
}

func TestSqliteColumn(t *testing.T) {
	cases := map[string]string{
		"UNIQUE constraint failed: students.email":                                 "email",
		"UNIQUE constraint failed: enrollments.student_ref, enrollments.course_id": "course_id",
		"something else": "",
	}
	for msg, want := range cases {
		if got := sqliteColumn(msg); got != want {
			t.Errorf("%q: got %q, want %q", msg, got, want)
		}
	}
}
