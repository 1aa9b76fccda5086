package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	wrapped := Wrap(ErrorTypeCollaborator, "scroll failed", context.DeadlineExceeded)

	if !errors.Is(wrapped, context.DeadlineExceeded) {
		t.Error("wrapped error should match its cause")
	}

	// The cause survives further %w wrapping up the call chain.
	outer := fmt.Errorf("failed to extend content: %w", wrapped)
	if !errors.Is(outer, context.DeadlineExceeded) {
		t.Error("cause should survive another wrapping layer")
	}

	var typed *Error
	if !errors.As(outer, &typed) {
		t.Fatal("typed error should be recoverable from the chain")
	}
	if typed.Type != ErrorTypeCollaborator {
		t.Errorf("type = %s, want %s", typed.Type, ErrorTypeCollaborator)
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := Wrap(ErrorTypeNetwork, "request failed", errors.New("connection reset"))
	want := "network error: request failed: connection reset"
	if err.Error() != want {
		t.Errorf("message = %q, want %q", err.Error(), want)
	}
}

func TestNewHasNoCause(t *testing.T) {
	err := New(ErrorTypeParsing, "bad markup")
	if errors.Unwrap(err) != nil {
		t.Error("New should not carry a cause")
	}
	if err.Error() != "parsing error: bad markup" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}
