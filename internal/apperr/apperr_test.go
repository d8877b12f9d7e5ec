package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("load quote: %w", NotFound("quote %d not found", 9))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected errors.Is to match ErrNotFound, got %v", err)
	}
	if errors.Is(err, ErrStorage) {
		t.Fatal("not found must not match storage")
	}
	if got := KindOf(err); got != KindNotFound {
		t.Fatalf("KindOf() = %s, want %s", got, KindNotFound)
	}
}

func TestStorageWrapsOnce(t *testing.T) {
	if Storage("op", nil) != nil {
		t.Fatal("Storage(nil) should be nil")
	}
	cause := errors.New("connection reset")
	err := Storage("insert line item", cause)
	if !errors.Is(err, ErrStorage) || !errors.Is(err, cause) {
		t.Fatalf("expected storage error wrapping cause, got %v", err)
	}
	cfg := Configuration("no direct deposit fee for product %d", 5)
	if got := Storage("tx", cfg); !errors.Is(got, ErrConfiguration) {
		t.Fatalf("kinded errors must pass through, got %v", got)
	}
}

func TestKindOfPlainError(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != KindStorage {
		t.Fatalf("KindOf(plain) = %s, want storage_error", got)
	}
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{&Error{Kind: KindValidation}, "validation_failed"},
		{&Error{Kind: KindNotFound, Msg: "quote 1 not found"}, "not_found: quote 1 not found"},
		{&Error{Kind: KindStorage, Msg: "select", Err: errors.New("eof")}, "storage_error: select: eof"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
