package docstore

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidName reports a document name that is not a plain file stem.
	ErrInvalidName = errors.New("docstore: invalid document name")
	// ErrNullDocument reports a file that decodes to an explicit null.
	ErrNullDocument = errors.New("docstore: document is null")
	// ErrInvalidDocument reports a decoded document rejected by a validator.
	ErrInvalidDocument = errors.New("docstore: document failed validation")
	// ErrNoBackup reports that no backup file exists to recover from.
	ErrNoBackup = errors.New("docstore: no backup available")
	// ErrCanceled reports an operation abandoned before any I/O started.
	ErrCanceled = errors.New("docstore: operation canceled")
)

// StoreError describes a failed store operation.
type StoreError struct {
	Op   string
	Name string
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := "docstore: " + e.Op
	if e.Name != "" {
		msg += " " + e.Name
	}
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError wraps a validator rejection. It matches ErrInvalidDocument
// under errors.Is.
type ValidationError struct {
	Validator string
	Err       error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err == nil {
		return fmt.Sprintf("%s (%s)", ErrInvalidDocument, e.Validator)
	}
	return fmt.Sprintf("%s (%s): %v", ErrInvalidDocument, e.Validator, e.Err)
}

func (e *ValidationError) Unwrap() []error {
	if e == nil {
		return nil
	}
	if e.Err == nil {
		return []error{ErrInvalidDocument}
	}
	return []error{ErrInvalidDocument, e.Err}
}

func canceled(err error) error {
	return fmt.Errorf("%w: %w", ErrCanceled, err)
}
