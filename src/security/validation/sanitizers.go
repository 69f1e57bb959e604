package validation

import (
	"strings"
	"unicode"
)

// CleanText strips non-printable runes from a free-text CSV field and
// collapses whitespace runs into single spaces. POS exports occasionally
// leak NUL bytes and stray tabs into name fields.
func CleanText(s string) string {
	stripped := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return ' '
		case unicode.IsPrint(r):
			return r
		default:
			return -1
		}
	}, s)
	return strings.Join(strings.Fields(stripped), " ")
}
