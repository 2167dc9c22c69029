// Package textutil holds small string helpers shared by the extraction clients.
package textutil

import "unicode/utf8"

// Excerpt returns at most n bytes of s followed by "..." when s is longer.
// The cut is moved back to a rune boundary so the result stays valid UTF-8.
func Excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
