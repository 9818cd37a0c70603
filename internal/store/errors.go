package store

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrCourseNotFound    = errors.New("course not found")
	ErrEnrollmentExists  = errors.New("student is already enrolled in this course")
	ErrSequenceExhausted = errors.New("student id sequence exhausted")
)

// DuplicateError reports a unique constraint violation on Field (JSON name).
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	if e.Field == "" {
		return "record already exists"
	}
	return e.Field + " already exists"
}

// columnFields maps column and constraint names to the JSON field the API exposes.
var columnFields = map[string]string{
	"student_id":          "studentId",
	"email":               "email",
	"nic":                 "nic",
	"code":                "code",
	"reference":           "reference",
	"user_id":             "userId",
	"course_id":           "courseId",
	"uniq_student_course": "courseId",
}

// TranslateError maps driver and gorm errors onto the store's error types.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if field, ok := uniqueViolation(err); ok {
		return &DuplicateError{Field: field}
	}
	return err
}

func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		name := strings.TrimPrefix(pgErr.ConstraintName, "idx_"+pgErr.TableName+"_")
		return fieldName(name), true
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) &&
		(liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return fieldName(sqliteColumn(liteErr.Error())), true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "", true
	}
	return "", false
}

// sqliteColumn extracts the last column from "UNIQUE constraint failed: students.email".
func sqliteColumn(msg string) string {
	_, cols, ok := strings.Cut(msg, "constraint failed:")
	if !ok {
		return ""
	}
	parts := strings.Split(cols, ",")
	last := strings.TrimSpace(parts[len(parts)-1])
	if i := strings.LastIndexByte(last, '.'); i >= 0 {
		last = last[i+1:]
	}
	return last
}

func fieldName(column string) string {
	if f, ok := columnFields[column]; ok {
		return f
	}
	return column
}
