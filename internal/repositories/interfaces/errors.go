package interfaces

import "errors"

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrConflict is returned when a conditional update finds the record in an unexpected state.
	ErrConflict = errors.New("record state conflict")
)
