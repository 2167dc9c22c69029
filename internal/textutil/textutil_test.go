package textutil

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name string
		s    string
		n    int
		want string
	}{
		{"short", "COFFEE 3.50", 200, "COFFEE 3.50"},
		{"exact", "abcde", 5, "abcde"},
		{"ascii cut", "abcdef", 3, "abc..."},
		// "₹" is three bytes; a cut at 2 falls inside it.
		{"inside rupee sign", "a₹100", 2, "a..."},
		{"after rupee sign", "a₹100", 4, "a₹..."},
		// "é" is two bytes; a cut at 1 falls inside it.
		{"inside accent", "éclair", 1, "..."},
		{"zero", "abc", 0, "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Excerpt(tt.s, tt.n)
			if got != tt.want {
				t.Errorf("Excerpt(%q, %d) = %q, want %q", tt.s, tt.n, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("Excerpt(%q, %d) = %q is not valid UTF-8", tt.s, tt.n, got)
			}
		})
	}
}

func TestExcerpt_MultiByteBoundaries(t *testing.T) {
	s := strings.Repeat("Dépôt ₹1,250.00 ", 40)
	for n := 0; n < 120; n++ {
		got := Excerpt(s, n)
		if !utf8.ValidString(got) {
			t.Fatalf("Excerpt(s, %d) = %q is not valid UTF-8", n, got)
		}
		if body := strings.TrimSuffix(got, "..."); len(body) > n || !strings.HasPrefix(s, body) {
			t.Fatalf("Excerpt(s, %d) = %q is not a bounded prefix", n, got)
		}
	}
}
