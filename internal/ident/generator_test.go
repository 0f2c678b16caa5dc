package ident

import (
	"strings"
	"testing"
)

func TestPrefixedGenerator_Format(t *testing.T) {
	gen := NewMessageIDs()
	id := gen.New()

	if !strings.HasPrefix(id, "msg-") {
		t.Fatalf("expected msg- prefix, got %q", id)
	}
	suffix := strings.TrimPrefix(id, "msg-")
	if len(suffix) != 16 {
		t.Fatalf("expected 16 char suffix, got %d (%q)", len(suffix), suffix)
	}
	for _, r := range suffix {
		if !strings.ContainsRune(alphabet, r) {
			t.Fatalf("unexpected character %q in id %q", r, id)
		}
	}
}

func TestPrefixedGenerator_Unique(t *testing.T) {
	gen := NewPrefixed("x", 16)
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := gen.New()
		if seen[id] {
			t.Fatalf("duplicate id generated: %q", id)
		}
		seen[id] = true
	}
}

func TestPrefixedGenerator_DefaultSize(t *testing.T) {
	gen := NewPrefixed("m", 0)
	id := gen.New()
	if len(id) != len("m-")+16 {
		t.Fatalf("expected default size 16, got id %q", id)
	}
}
