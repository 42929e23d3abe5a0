package models

import (
	"strings"
	"unicode"
)

// NormalizeKey converts a filename or human-entered title into a canonical
// book key: trimmed, lowercased, a trailing text extension stripped, and every
// non-letter/digit rune dropped. "Pride and Prejudice" and "pride-and-prejudice.txt"
// both become "prideandprejudice".
//
// The same function is used for corpus filenames, metadata keys and user input
// so that keys from any path are interchangeable. It is idempotent.
func NormalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, ext := range []string{".txt", ".md", ".text"} {
		if strings.HasSuffix(s, ext) {
			s = strings.TrimSuffix(s, ext)
			break
		}
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
