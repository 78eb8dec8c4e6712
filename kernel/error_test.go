package kernel

import (
	"errors"
	"fmt"
	"testing"
)

func TestKernelError(t *testing.T) {
	err := &Error{
		Module:  "foo",
		Message: "error message",
	}

	if err.Error() != err.Message {
		t.Fatalf("expected to err.Error() to return %q; got %q", err.Message, err.Error())
	}

	wrapped := fmt.Errorf("probe: %w", err)
	var kerr *Error
	if !errors.As(wrapped, &kerr) || kerr != err {
		t.Fatal("expected errors.As to recover the original *Error")
	}
}
