package utils

import "testing"

func TestStripNonAlnum(t *testing.T) {
	cases := map[string]string{
		"Max":        "Max",
		"  M a x ":   "Max",
		"<b>Eve</b>": "bEveb",
		"Jürgen":     "Jrgen",
		"__--!!":     "",
		"Gast123-x":  "Gast123x",
	}
	for in, want := range cases {
		if got := StripNonAlnum(in); got != want {
			t.Errorf("StripNonAlnum(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSameName(t *testing.T) {
	if !SameName("Gast42", "gAST42") {
		t.Fatalf("expected case-insensitive match")
	}
	if SameName("Gast42", "Gast43") {
		t.Fatalf("expected different names to differ")
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for range 100 {
		id := NewID()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = struct{}{}
	}
	if got := len(ShortID(6)); got != 6 {
		t.Fatalf("expected 6 characters, got %d", got)
	}
}
