package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", NewValidationError("Issue title cannot be empty"), Validation},
		{"wrapped application", fmt.Errorf("fetch: %w", NewApplicationError("GET /issues", 500, "boom")), Application},
		{"communication", NewCommunicationError("GET /issues", errors.New("connection refused")), Communication},
		{"cancelled context", context.Canceled, Communication},
		{"deadline", fmt.Errorf("wait: %w", context.DeadlineExceeded), Communication},
		{"plain", errors.New("boom"), Unexpected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Errorf("KindOf(%v) = %v; want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	notFound := fmt.Errorf("probe: %w", NewApplicationError("GET /users/email/x", http.StatusNotFound, ""))
	if !IsNotFound(notFound) {
		t.Errorf("expected 404 to be recognised")
	}
	if IsNotFound(NewApplicationError("GET /users/email/x", http.StatusInternalServerError, "")) {
		t.Errorf("500 must not be treated as not found")
	}
	if IsNotFound(errors.New("404")) {
		t.Errorf("plain errors carry no status")
	}
	if got := StatusCode(notFound); got != http.StatusNotFound {
		t.Errorf("StatusCode = %d; want 404", got)
	}
}

func TestAppError_Is(t *testing.T) {
	sentinel := NewValidationError("Email cannot be empty")
	wrapped := fmt.Errorf("create user: %w", NewValidationError("Email cannot be empty"))
	if !errors.Is(wrapped, sentinel) {
		t.Errorf("expected wrapped copy to match sentinel")
	}
	if errors.Is(wrapped, NewValidationError("Password cannot be empty")) {
		t.Errorf("different messages must not match")
	}
}

func TestAppError_Error(t *testing.T) {
	err := NewApplicationError("POST /issues", 400, "bad title")
	if got := err.Error(); got != "POST /issues: status 400: bad title" {
		t.Errorf("Error() = %q", got)
	}
	err = NewCommunicationError("GET /issues", errors.New("refused"))
	if got := err.Error(); got != "GET /issues: refused" {
		t.Errorf("Error() = %q", got)
	}
}
