// Package validation provides the error taxonomy shared by the models and
// simulator, along with small domain checks that produce those errors.
package validation

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel error kinds. Every *Error unwraps to exactly one of these.
var (
	// ErrInvalidInput marks an out-of-domain model input such as negative revenue.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidParameter marks a malformed simulation or analysis setting.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrComputationOverflow marks a computation that left the finite range.
	ErrComputationOverflow = errors.New("computation overflow")
)

// Error reports which field violated which constraint.
type Error struct {
	Kind       error
	Field      string
	Value      float64
	Constraint string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s = %v, must be %s", e.Kind, e.Field, e.Value, e.Constraint)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// InvalidInput builds an ErrInvalidInput error for field.
func InvalidInput(field string, value float64, constraint string) error {
	return &Error{Kind: ErrInvalidInput, Field: field, Value: value, Constraint: constraint}
}

// InvalidParameter builds an ErrInvalidParameter error for field.
func InvalidParameter(field string, value float64, constraint string) error {
	return &Error{Kind: ErrInvalidParameter, Field: field, Value: value, Constraint: constraint}
}

// Overflow builds an ErrComputationOverflow error for field.
func Overflow(field string, value float64) error {
	return &Error{Kind: ErrComputationOverflow, Field: field, Value: value, Constraint: "finite"}
}

// Finite fails when value is NaN or infinite.
func Finite(kind error, field string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return &Error{Kind: kind, Field: field, Value: value, Constraint: "finite"}
	}
	return nil
}

// Positive fails unless value is finite and > 0.
func Positive(kind error, field string, value float64) error {
	if err := Finite(kind, field, value); err != nil {
		return err
	}
	if value <= 0 {
		return &Error{Kind: kind, Field: field, Value: value, Constraint: "> 0"}
	}
	return nil
}

// NonNegative fails unless value is finite and >= 0.
func NonNegative(kind error, field string, value float64) error {
	if err := Finite(kind, field, value); err != nil {
		return err
	}
	if value < 0 {
		return &Error{Kind: kind, Field: field, Value: value, Constraint: ">= 0"}
	}
	return nil
}

// Rate fails unless value lies in [0, 1).
func Rate(kind error, field string, value float64) error {
	if err := Finite(kind, field, value); err != nil {
		return err
	}
	if value < 0 || value >= 1 {
		return &Error{Kind: kind, Field: field, Value: value, Constraint: "in [0, 1)"}
	}
	return nil
}

// Fraction fails unless value lies in [0, 1].
func Fraction(kind error, field string, value float64) error {
	if err := Finite(kind, field, value); err != nil {
		return err
	}
	if value < 0 || value > 1 {
		return &Error{Kind: kind, Field: field, Value: value, Constraint: "in [0, 1]"}
	}
	return nil
}

// First returns the first non-nil error, so a set of checks can be written
// as one expression while still failing on the earliest violation.
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
