package domain

import (
	"errors"
	"fmt"
)

// Sentinels para errors.Is. Los errores concretos llevan el detalle.
var (
	ErrMalformedInput   = errors.New("malformed input")
	ErrInsufficientData = errors.New("insufficient data")
)

// MalformedInputError: columnas requeridas ausentes, archivo vacío o mayoría de filas ilegibles.
type MalformedInputError struct {
	Reason string
}

func (e *MalformedInputError) Error() string {
	return "malformed input: " + e.Reason
}

func (e *MalformedInputError) Is(target error) bool { return target == ErrMalformedInput }

// NewMalformedInput construye un MalformedInputError con formato.
func NewMalformedInput(format string, args ...any) error {
	return &MalformedInputError{Reason: fmt.Sprintf(format, args...)}
}

// InsufficientDataError: quedan menos trades válidos que el mínimo viable.
type InsufficientDataError struct {
	Valid    int
	Required int
	Dropped  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d valid trades (%d dropped), at least %d required",
		e.Valid, e.Dropped, e.Required)
}

func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }
