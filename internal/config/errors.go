package config

import (
	"errors"
	"fmt"

	"github.com/dshills/keybind/internal/config/loader"
)

// Errors returned by keymap configuration operations.
var (
	// ErrFileNotFound indicates the keymap file doesn't exist.
	ErrFileNotFound = errors.New("keymap file not found")

	// ErrValidationFailed indicates the keymap has invalid entries.
	ErrValidationFailed = errors.New("validation failed")

	// ErrUnknownScheme indicates a scheme id that is not defined.
	ErrUnknownScheme = errors.New("unknown scheme")

	// ErrSchemeCycle indicates a scheme's parent chain loops.
	ErrSchemeCycle = errors.New("scheme parent chain contains a cycle")
)

// ParseError represents an error while parsing a keymap file.
type ParseError = loader.ParseError

// ValidationError describes one invalid keymap entry.
type ValidationError struct {
	// Path locates the entry, e.g. "bindings[3].keys".
	Path string
	// Message describes the validation error.
	Message string
	// Value is the invalid value.
	Value any
	// Code categorizes the validation error.
	Code ValidationErrorCode
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s (value: %v)", e.Path, e.Message, e.Value)
}

// Is implements error matching for ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// ValidationErrorCode categorizes validation errors.
type ValidationErrorCode uint8

const (
	// ErrCodeRequiredMissing indicates a required field is empty.
	ErrCodeRequiredMissing ValidationErrorCode = iota
	// ErrCodeUnknownReference indicates a reference to an undefined id.
	ErrCodeUnknownReference
	// ErrCodeCycle indicates a parent chain loops.
	ErrCodeCycle
	// ErrCodeInvalidKeys indicates an unparsable key sequence.
	ErrCodeInvalidKeys
	// ErrCodeInvalidExpression indicates an uncompilable when expression.
	ErrCodeInvalidExpression
	// ErrCodeInvalidEnum indicates the value is not in the allowed set.
	ErrCodeInvalidEnum
)

// String returns a human-readable name for the error code.
func (c ValidationErrorCode) String() string {
	switch c {
	case ErrCodeRequiredMissing:
		return "required_missing"
	case ErrCodeUnknownReference:
		return "unknown_reference"
	case ErrCodeCycle:
		return "cycle"
	case ErrCodeInvalidKeys:
		return "invalid_keys"
	case ErrCodeInvalidExpression:
		return "invalid_expression"
	case ErrCodeInvalidEnum:
		return "invalid_enum"
	default:
		return "unknown"
	}
}
