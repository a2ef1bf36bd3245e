/*
errors.go - Failure taxonomy for the record layer

PURPOSE:
  All failure kinds in one place. Every error leaving this module belongs
  to exactly one kind, and each kind carries a short user-presentable
  message separate from the technical cause.

ERROR KINDS:
  1. StorageError    - schema creation, query, or transaction failures
  2. BusinessError   - higher-level rule violations in the view layer
  3. ValidationError - field-level problems inside an edit session;
                       never propagates past the session boundary

WRAPPING POLICY:
  Failures are classified once, at the boundary where they first occur.
  WrapStorage and WrapBusiness pass already-classified errors through
  unchanged, so a message assigned close to the failing statement is
  never replaced by a more generic one further out.

USAGE:
  if err := tx.Commit(); err != nil {
      return record.WrapStorage("従業員の削除に失敗しました。", err)
  }

SEE ALSO:
  - session.go: ValidationError producer
  - store/sqlite: StorageError producer
  - api: maps kinds to HTTP status via Describe
*/
package record

import (
	"errors"
	"fmt"
)

// StorageError is raised by the storage gateway when schema creation, a
// query, or a transaction fails. Message is the user-facing summary of the
// failing operation; Err preserves the low-level cause.
type StorageError struct {
	Message string
	Err     error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *StorageError) Unwrap() error { return e.Err }

// BusinessError is raised by the view layer when a rule above the storage
// level is violated, or when it supervises a command that failed for an
// unclassified reason.
type BusinessError struct {
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error { return e.Err }

// ValidationError reports a single invalid field inside an edit session.
// It is resolved by re-presenting the session with Message; it never
// crosses the session boundary.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// WrapStorage classifies err as a storage failure carrying msg. Errors that
// already carry a storage classification are returned unchanged.
func WrapStorage(msg string, err error) error {
	if err == nil {
		return nil
	}
	if IsStorage(err) {
		return err
	}
	return &StorageError{Message: msg, Err: err}
}

// WrapBusiness classifies err as a business failure carrying msg. Storage
// and business failures pass through unchanged so their original summaries
// survive to the outermost collaborator.
func WrapBusiness(msg string, err error) error {
	if err == nil {
		return nil
	}
	if IsStorage(err) || IsBusiness(err) {
		return err
	}
	return &BusinessError{Message: msg, Err: err}
}

func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

func IsBusiness(err error) bool {
	var be *BusinessError
	return errors.As(err, &be)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// unexpectedMessage is shown for failures of no known kind.
const unexpectedMessage = "予期しないエラーが発生しました。"

// Describe selects the display string for the outermost failure observer.
// Storage and business failures surface their own summaries; anything else
// is presented as unexpected with the technical detail appended.
func Describe(err error) string {
	var se *StorageError
	if errors.As(err, &se) {
		return se.Message
	}
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Message
	}
	return fmt.Sprintf("%s (%v)", unexpectedMessage, err)
}
