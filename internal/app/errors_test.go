package app

import (
	"errors"
	"testing"
)

func TestOperationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *OperationError
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "op only",
			err:      &OperationError{Op: "reload"},
			expected: "reload",
		},
		{
			name:     "op and target",
			err:      &OperationError{Op: "load", Target: "/home/u/keys.toml"},
			expected: "load /home/u/keys.toml",
		},
		{
			name:     "full error chain",
			err:      &OperationError{Op: "watch", Target: "keys.toml", Err: errors.New("too many files")},
			expected: "watch keys.toml: too many files",
		},
		{
			name:     "op and error only",
			err:      &OperationError{Op: "activate", Err: errors.New("unknown context")},
			expected: "activate: unknown context",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.err.Error()
			if result != tt.expected {
				t.Errorf("Error() = '%s', expected '%s'", result, tt.expected)
			}
		})
	}
}

func TestOperationError_Unwrap(t *testing.T) {
	inner := errors.New("inner error")
	err := NewOperationError("load", "keys.toml", inner)

	if err.Unwrap() != inner {
		t.Error("Unwrap() did not return inner error")
	}
}

func TestOperationError_Unwrap_Nil(t *testing.T) {
	var err *OperationError
	if err.Unwrap() != nil {
		t.Error("expected nil from Unwrap() on nil receiver")
	}
}

func TestOperationError_Is(t *testing.T) {
	err := NewOperationError("watch", "", ErrNoKeymapFile)

	if !errors.Is(err, ErrNoKeymapFile) {
		t.Error("expected errors.Is to match wrapped sentinel")
	}
	if errors.Is(err, ErrClosed) {
		t.Error("expected errors.Is to not match a different sentinel")
	}

	var opErr *OperationError
	if !errors.As(err, &opErr) || opErr.Op != "watch" {
		t.Errorf("errors.As = %v", opErr)
	}
}
