package database

import (
	"errors"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// ErrConstraintViolation matches any foreign-key, primary-key, unique or
// check failure reported by the engine.
var ErrConstraintViolation = errors.New("constraint violation")

// ConstraintError carries the engine error behind a constraint violation.
type ConstraintError struct {
	Err error
}

func (e *ConstraintError) Error() string {
	return "constraint violation: " + e.Err.Error()
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

func (e *ConstraintError) Is(target error) bool {
	return target == ErrConstraintViolation
}

// Classify marks engine constraint failures so callers can test them with
// errors.Is(err, ErrConstraintViolation). Other errors pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return &ConstraintError{Err: err}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated) {
		return &ConstraintError{Err: err}
	}
	return err
}

// IsConstraintViolation reports whether err is, or wraps, a constraint failure.
func IsConstraintViolation(err error) bool {
	return errors.Is(Classify(err), ErrConstraintViolation)
}

// IgnoreNotFound maps gorm.ErrRecordNotFound to nil. Point lookups return
// (nil, nil) for a missing row.
func IgnoreNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
