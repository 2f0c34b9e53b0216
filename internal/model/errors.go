package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInputShape marks precondition violations from upstream stages. Fatal.
	ErrInputShape = errors.New("input shape")

	// ErrDimensionMismatch is an input shape violation between two vectors
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrDegenerateVector is returned for similarity against a zero-magnitude vector
	ErrDegenerateVector = errors.New("degenerate vector: zero magnitude")

	// ErrEmbeddingFailed is recorded when the embedding backend fails for one item
	ErrEmbeddingFailed = errors.New("embedding failed")
)

// InputShapeError describes a fatal precondition violation
type InputShapeError struct {
	Op     string // Stage that detected the violation
	Detail string
	Err    error // Optional underlying cause
}

func (e *InputShapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: input shape: %s: %v", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: input shape: %s", e.Op, e.Detail)
}

// Is reports ErrInputShape so callers can test with errors.Is
func (e *InputShapeError) Is(target error) bool {
	return target == ErrInputShape
}

func (e *InputShapeError) Unwrap() error {
	return e.Err
}

// ShapeErrorf builds an InputShapeError for the given stage
func ShapeErrorf(op, format string, args ...any) error {
	return &InputShapeError{Op: op, Detail: fmt.Sprintf(format, args...)}
}
