package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_ChainingAndHelpers(t *testing.T) {
	t.Parallel()

	root := errors.New("root")
	err := NewError(ErrSynthesisFailed, "model failed").
		WithCause(root).
		WithRetryable(true).
		WithProvider("openai")

	if GetErrorCode(err) != ErrSynthesisFailed {
		t.Fatalf("expected code %s, got %s", ErrSynthesisFailed, GetErrorCode(err))
	}
	if !IsRetryable(err) {
		t.Fatalf("expected retryable")
	}
	if !errors.Is(err, root) {
		t.Fatalf("expected errors.Is unwrap to root")
	}
	if got := err.Error(); got != "[SYNTHESIS_FAILED] model failed: root" {
		t.Fatalf("unexpected error string %q", got)
	}
}

func TestError_WrappedLookup(t *testing.T) {
	t.Parallel()

	inner := NewNotFoundError("/tmp/missing.png")
	wrapped := fmt.Errorf("display: %w", inner)

	if !IsCode(wrapped, ErrNotFound) {
		t.Fatalf("expected NOT_FOUND through wrapping")
	}
	e, ok := AsError(wrapped)
	if !ok || e.Path != "/tmp/missing.png" {
		t.Fatalf("expected path to survive wrapping, got %+v", e)
	}
	if IsCode(nil, ErrNotFound) {
		t.Fatalf("nil error must not match any code")
	}
	if IsRetryable(errors.New("plain")) {
		t.Fatalf("plain errors are never retryable")
	}
	if GetErrorCode(errors.New("plain")) != "" {
		t.Fatalf("plain errors carry no code")
	}
}

func TestError_Constructors(t *testing.T) {
	t.Parallel()

	cause := errors.New("spi timeout")
	renderErr := NewRenderError("exec", cause)
	if renderErr.Code != ErrRenderFailed || renderErr.Provider != "exec" {
		t.Fatalf("unexpected render error %+v", renderErr)
	}
	synthErr := NewSynthesisError("flux", cause)
	if synthErr.Code != ErrSynthesisFailed || !errors.Is(synthErr, cause) {
		t.Fatalf("unexpected synthesis error %+v", synthErr)
	}
}
