package forecast

import (
	"errors"
	"fmt"
)

// Failure classes. Every error returned by the engine wraps exactly one.
var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrFitFailed        = errors.New("model fit failed")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Error is the structured failure returned by Engine.Forecast. Method is empty
// when the call was rejected before a method was selected.
type Error struct {
	Method Method
	Label  string
	Err    error
}

func (e *Error) Error() string {
	if e.Label == "" {
		return fmt.Sprintf("forecast: %v", e.Err)
	}
	return fmt.Sprintf("forecast %s: %v", e.Label, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func insufficientData(need, have int) error {
	return fmt.Errorf("%w: need at least %d points, got %d", ErrInsufficientData, need, have)
}
