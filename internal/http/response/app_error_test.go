package response

import (
	"errors"
	"testing"
)

func TestWrapError(t *testing.T) {
	cause := errors.New("connection refused")
	appErr := WrapError(CodeInternal, "operation failed", cause)

	if appErr.Code != CodeInternal {
		t.Fatalf("code want %d got %d", CodeInternal, appErr.Code)
	}
	if got := appErr.Error(); got != "operation failed: connection refused" {
		t.Fatalf("unexpected error string: %q", got)
	}
	if !errors.Is(appErr, cause) {
		t.Fatalf("wrapped cause must survive errors.Is")
	}
}

func TestWrapErrorNilCause(t *testing.T) {
	appErr := WrapError(CodeBadRequest, "invalid parameters", nil)
	if got := appErr.Error(); got != "invalid parameters" {
		t.Fatalf("unexpected error string: %q", got)
	}
	if appErr.Unwrap() != nil {
		t.Fatalf("expected nil unwrap")
	}
}
