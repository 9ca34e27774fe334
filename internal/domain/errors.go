package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStoreClosed is returned by stores used after Close.
var ErrStoreClosed = errors.New("review store closed")

// ValidationError means the caller sent incomplete or unusable input.
// Missing and Invalid list field names in the order they were checked.
type ValidationError struct {
	Missing []string
	Invalid []string
	Message string // overrides the generated text when set
}

func (e *ValidationError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case len(e.Missing) > 0:
		return "Missing " + strings.Join(e.Missing, ",") + " in your input!"
	case len(e.Invalid) > 0:
		return "Invalid " + strings.Join(e.Invalid, ",") + " in your input!"
	}
	return "Invalid input!"
}

// PersistenceError wraps a failure of the backing store.
type PersistenceError struct {
	Op  string // save|find|ping
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("review store %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Persist wraps err as a *PersistenceError unless it is nil or already one.
func Persist(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
