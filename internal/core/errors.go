// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Data errors
	ErrNotFound = &Error{Code: "NOT_FOUND", Message: "resource not found"}
	ErrNoData   = &Error{Code: "NO_DATA", Message: "no historical data for range"}

	// Strategy errors
	ErrValidation     = &Error{Code: "VALIDATION_FAILED", Message: "strategy validation failed"}
	ErrStrategyFailed = &Error{Code: "STRATEGY_FAILED", Message: "strategy evaluation failed"}
	ErrNotOwner       = &Error{Code: "NOT_OWNER", Message: "strategy is not owned by caller"}
	ErrImmutable      = &Error{Code: "IMMUTABLE", Message: "system strategies cannot be modified"}

	// Simulation errors
	ErrSimulation = &Error{Code: "SIMULATION_FAILED", Message: "backtest simulation failed"}

	// Storage errors
	ErrStoreFailed = &Error{Code: "STORE_FAILED", Message: "storage operation failed"}
	ErrCacheFailed = &Error{Code: "CACHE_FAILED", Message: "cache operation failed"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)
