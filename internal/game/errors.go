package game

import (
	"errors"
	"fmt"
)

// The error taxonomy. Every rejection an operation can return wraps exactly
// one of these sentinels, so transports can map them without string matching.
var (
	ErrValidation    = errors.New("validation error")
	ErrCapacity      = errors.New("capacity error")
	ErrPrecondition  = errors.New("precondition error")
	ErrTerminalState = errors.New("game is already over")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func preconditionf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPrecondition, fmt.Sprintf(format, args...))
}
