package services

import "fmt"

// ValidationError reports caller-supplied input that fails a domain rule
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// NotFoundError reports a referenced entity that does not exist
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// ConflictError reports an operation that contradicts current state,
// e.g. enrolling a duplicate email or paying a settled installment
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

// PersistenceError wraps a storage failure with the operation that hit it
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// DependencyDegraded reports a failing external dependency (identity
// provider, notifier, payment gateway). Callers decide whether the
// operation degrades or aborts.
type DependencyDegraded struct {
	Dependency string
	Err        error
}

func (e *DependencyDegraded) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Dependency, e.Err)
}

func (e *DependencyDegraded) Unwrap() error {
	return e.Err
}
