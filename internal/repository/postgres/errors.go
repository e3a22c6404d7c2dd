package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"keyrental-backend/internal/domain"
)

// SQLSTATE codes raised when a concurrent writer wins a race.
const (
	codeUniqueViolation      pq.ErrorCode = "23505"
	codeForeignKeyViolation  pq.ErrorCode = "23503"
	codeSerializationFailure pq.ErrorCode = "40001"
	codeDeadlockDetected     pq.ErrorCode = "40P01"
)

// classify wraps a driver error as a domain.StorageError. Unique violations on
// the active-rental indexes, serialization failures and deadlocks are marked
// retryable.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *domain.StorageError
	if errors.As(err, &se) {
		return err
	}
	retryable := false
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeUniqueViolation, codeSerializationFailure, codeDeadlockDetected:
			retryable = true
		}
	}
	return &domain.StorageError{Op: op, Retryable: retryable, Err: err}
}

func isCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}

func notFound(what string, id any) error {
	return fmt.Errorf("%w: %s %v", domain.ErrNotFound, what, id)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
