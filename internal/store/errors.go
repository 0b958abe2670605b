package store

import "fmt"

// StorageError reports that a document store operation failed.
type StorageError struct {
	Op  string
	Err error
}

// Wrap returns nil for a nil error, otherwise a *StorageError for op.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ServiceKind names the failing dependency in client-facing messages.
func (e *StorageError) ServiceKind() string {
	return "Database"
}
