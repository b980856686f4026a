package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Taxonomy(t *testing.T) {
	cases := []struct {
		err       *DomainError
		category  ErrorCategory
		code      string
		retryable bool
	}{
		{ErrTimeout("call deadline"), ErrCatTimeout, CodeTimeout, false},
		{ErrProviderRejected("bad request"), ErrCatProvider, CodeProviderRejected, false},
		{ErrProviderUnavailable("503"), ErrCatTransient, CodeProviderUnavailable, true},
		{ErrQuotaExceeded("ceiling refused"), ErrCatQuota, CodeQuotaExceeded, false},
		{ErrResourceExhausted("no draft"), ErrCatBudget, CodeResourceExhausted, false},
		{ErrInvalidConfiguration(CodeNoVoices, "no voices"), ErrCatValidation, CodeNoVoices, false},
	}

	for _, tc := range cases {
		if tc.err.Category != tc.category {
			t.Fatalf("%s: expected category %s, got %s", tc.code, tc.category, tc.err.Category)
		}
		if tc.err.Code != tc.code {
			t.Fatalf("expected code %s, got %s", tc.code, tc.err.Code)
		}
		if IsRetryable(tc.err) != tc.retryable {
			t.Fatalf("%s: retryable mismatch", tc.code)
		}
	}
}

func TestDomainError_WrapAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := ErrProviderUnavailable("transient failure").WithCause(cause)

	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable through Unwrap")
	}

	var domErr *DomainError
	wrapped := fmt.Errorf("voice call: %w", err)
	if !errors.As(wrapped, &domErr) {
		t.Fatalf("expected DomainError through wrapping")
	}
	if !IsRetryable(wrapped) {
		t.Fatalf("retryability must survive wrapping")
	}
}

func TestDomainError_Is(t *testing.T) {
	a := ErrQuotaExceeded("one")
	b := ErrQuotaExceeded("two")
	if !errors.Is(a, b) {
		t.Fatalf("same category and code must match")
	}
	if errors.Is(a, ErrTimeout("x")) {
		t.Fatalf("different codes must not match")
	}
}

func TestDomainError_Details(t *testing.T) {
	err := ErrResourceExhausted("budget gone").
		WithDetail("tokens_used", 1000).
		WithDetail("phase", "analysis")
	if err.Details["tokens_used"] != 1000 {
		t.Fatalf("expected detail to be recorded")
	}
}

func TestGetCategory_NonDomain(t *testing.T) {
	if GetCategory(fmt.Errorf("plain")) != ErrCatInternal {
		t.Fatalf("plain errors default to internal category")
	}
	if IsRetryable(fmt.Errorf("plain")) {
		t.Fatalf("plain errors are not retryable")
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", ErrProviderRejected("nope"))
	if !IsCode(err, CodeProviderRejected) {
		t.Fatalf("expected code match through wrapping")
	}
	if IsCode(err, CodeTimeout) {
		t.Fatalf("unexpected code match")
	}
}
