package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindsAreDistinct(t *testing.T) {
	kinds := []Kind{KindInvalidRequest, KindUnknownItem, KindInvariantViolation, KindNotFound, KindInternal}
	seen := make(map[Kind]bool)
	for _, k := range kinds {
		if seen[k] {
			t.Errorf("duplicate kind: %v", k)
		}
		seen[k] = true
	}
}

func TestErrorMessageWithCause(t *testing.T) {
	err := Internal("insert transaction", errors.New("connection reset"))
	want := "insert transaction: connection reset"
	if got := err.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestIsFindsWrappedKind(t *testing.T) {
	base := InvariantViolation("stock of %q would drop to %d", "A4 paper", -3)
	wrapped := fmt.Errorf("append sale: %w", base)

	if !Is(wrapped, KindInvariantViolation) {
		t.Fatal("Is(wrapped, KindInvariantViolation) = false, want true")
	}
	if Is(wrapped, KindUnknownItem) {
		t.Fatal("Is(wrapped, KindUnknownItem) = true, want false")
	}
	if got := KindOf(wrapped); got != KindInvariantViolation {
		t.Fatalf("KindOf = %s, want %s", got, KindInvariantViolation)
	}
}

func TestKindOfPlainError(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != KindInternal {
		t.Fatalf("KindOf = %s, want %s", got, KindInternal)
	}
}

func TestUnknownItemMessage(t *testing.T) {
	err := UnknownItem("Glosy paper")
	if err.Kind != KindUnknownItem {
		t.Fatalf("kind = %s, want %s", err.Kind, KindUnknownItem)
	}
	if err.Error() != `unknown item "Glosy paper"` {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{InvalidRequest("quantity must be positive"), 400},
		{UnknownItem("Vellum"), 404},
		{InvariantViolation("negative stock"), 409},
		{NotFound("result %s", "42"), 404},
		{errors.New("db down"), 500},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
