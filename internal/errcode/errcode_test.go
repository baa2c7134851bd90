package errcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationListsEveryField(t *testing.T) {
	err := Validation("title", "company")
	if err.Message != "Missing required fields: title, company" {
		t.Fatalf("unexpected message %q", err.Message)
	}
	if len(err.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %v", err.Fields)
	}
}

func TestCodeOfWrapped(t *testing.T) {
	wrapped := fmt.Errorf("approve job: %w", NotFound("Job not found"))
	if got := CodeOf(wrapped); got != CodeNotFound {
		t.Fatalf("expected not_found, got %s", got)
	}
	if got := CodeOf(errors.New("boom")); got != CodeUpstream {
		t.Fatalf("expected upstream_error, got %s", got)
	}
}

func TestUpstreamUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := Upstream(cause, "internal error")
	if !errors.Is(err, cause) {
		t.Fatal("expected upstream error to wrap cause")
	}
}
