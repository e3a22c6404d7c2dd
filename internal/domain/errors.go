package domain

import (
	"errors"
	"fmt"
)

// Business-rule failures. These are a legitimate "no" to a request and are
// surfaced to the caller with their message; they are never retried.
var (
	ErrUnknownStudent            = errors.New("student is not registered")
	ErrUnknownResource           = errors.New("resource is not available")
	ErrResourceInUse             = errors.New("resource is already checked out")
	ErrStorageUnitInUse          = errors.New("storage unit is already checked out")
	ErrRoomOrPracticeAlreadyHeld = errors.New("a room or practice room is already checked out; return it before borrowing another")
	ErrStorageOnlyAlreadyHeld    = errors.New("only one storage-only rental can be held at a time")
	ErrPrintRoomExclusive        = errors.New("the print room cannot be held together with any other rental")
	ErrTooManyStorageUnits       = errors.New("at most one storage unit can be selected")
)

// ErrStorageFailure marks faults raised by the persistence layer.
var ErrStorageFailure = errors.New("storage failure")

// Administrative input errors.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
	ErrNotFound        = errors.New("not found")
)

var businessRuleErrors = []error{
	ErrUnknownStudent,
	ErrUnknownResource,
	ErrResourceInUse,
	ErrStorageUnitInUse,
	ErrRoomOrPracticeAlreadyHeld,
	ErrStorageOnlyAlreadyHeld,
	ErrPrintRoomExclusive,
	ErrTooManyStorageUnits,
}

// IsBusinessRule reports whether err is one of the expected checkout refusals.
func IsBusinessRule(err error) bool {
	for _, target := range businessRuleErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// StorageError wraps a persistence fault. It matches ErrStorageFailure with
// errors.Is and keeps the driver error reachable through Unwrap.
type StorageError struct {
	Op        string
	Retryable bool
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorageFailure.Error(), e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorageFailure }

// IsRetryable reports whether err is a storage failure caused by losing a
// race against a concurrent writer.
func IsRetryable(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Retryable
}
