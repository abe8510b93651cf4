package id

import (
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	first := New("sync")
	second := New("sync")

	if !strings.HasPrefix(first, "sync_") {
		t.Fatalf("expected sync_ prefix, got %q", first)
	}
	if first == second {
		t.Fatalf("expected unique ids, got %q twice", first)
	}
}
