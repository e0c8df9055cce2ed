package apperr

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestKindOfWrappedError(t *testing.T) {
	base := Storage("read chatlog", io.ErrUnexpectedEOF)
	wrapped := fmt.Errorf("append turn: %w", base)

	if KindOf(wrapped) != KindStorage {
		t.Fatalf("expected storage kind, got %q", KindOf(wrapped))
	}
	if !IsStorage(wrapped) || IsTransport(wrapped) {
		t.Fatalf("unexpected classification for %v", wrapped)
	}
	if !errors.Is(wrapped, io.ErrUnexpectedEOF) {
		t.Fatal("expected cause to be reachable through Unwrap")
	}
}

func TestKindOfUnclassified(t *testing.T) {
	if KindOf(errors.New("plain")) != "" {
		t.Fatal("expected empty kind for unclassified error")
	}
	if KindOf(nil) != "" {
		t.Fatal("expected empty kind for nil error")
	}
}

func TestErrorMessage(t *testing.T) {
	err := Config("DEEPSEEK_API_KEY is not set")
	if err.Error() != "config: DEEPSEEK_API_KEY is not set" {
		t.Fatalf("unexpected message: %q", err.Error())
	}

	err = Transport("send request", errors.New("connection refused"))
	if err.Error() != "transport: send request: connection refused" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
