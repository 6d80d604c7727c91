package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

func TestErrorCodesAndStatuses(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{NewInvalidTransition("no", nil), "INVALID_TRANSITION", http.StatusConflict},
		{NewForbidden("no"), "FORBIDDEN", http.StatusForbidden},
		{NewBlocked("held", nil), "BLOCKED", http.StatusConflict},
		{NewCooldownActive(90 * time.Second), "COOLDOWN_ACTIVE", http.StatusTooManyRequests},
		{NewNotReferable("no"), "NOT_REFERABLE", http.StatusConflict},
		{NewNotFound("ticket", nil), "NOT_FOUND", http.StatusNotFound},
		{NewValidationError("bad", nil), "VALIDATION_FAILED", http.StatusBadRequest},
		{NewUnauthorized("who"), "UNAUTHORIZED", http.StatusUnauthorized},
		{NewInternalError(errors.New("boom")), "INTERNAL_ERROR", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		var domainErr *DomainError
		if !errors.As(tc.err, &domainErr) {
			t.Fatalf("%v is not a DomainError", tc.err)
		}
		if domainErr.Code != tc.code {
			t.Errorf("code = %s, want %s", domainErr.Code, tc.code)
		}
		if domainErr.HTTPStatus != tc.status {
			t.Errorf("%s status = %d, want %d", tc.code, domainErr.HTTPStatus, tc.status)
		}
	}
}

func TestCooldownActiveCarriesRetryAfter(t *testing.T) {
	err := NewCooldownActive(4*time.Minute + 30*time.Second)
	domainErr := ToDomainError(err)
	if got := domainErr.Details["retry_after_seconds"]; got != 270 {
		t.Fatalf("retry_after_seconds = %v", got)
	}
}

func TestToDomainErrorMapsNoRows(t *testing.T) {
	err := fmt.Errorf("fetch ticket: %w", pgx.ErrNoRows)
	domainErr := ToDomainError(err)
	if domainErr.Code != "NOT_FOUND" {
		t.Fatalf("code = %s", domainErr.Code)
	}
}

func TestToDomainErrorPassesThrough(t *testing.T) {
	original := NewForbidden("nope")
	if got := ToDomainError(original); got.Code != "FORBIDDEN" {
		t.Fatalf("code = %s", got.Code)
	}
}

func TestToDomainErrorWrapsUnknown(t *testing.T) {
	domainErr := ToDomainError(errors.New("disk on fire"))
	if domainErr.Code != "INTERNAL_ERROR" || domainErr.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unexpected %+v", domainErr)
	}
	if !errors.Is(domainErr, domainErr.Err) && domainErr.Err == nil {
		t.Fatal("cause must be preserved")
	}
}
