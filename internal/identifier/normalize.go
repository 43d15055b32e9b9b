package identifier

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/width"
)

var lower = cases.Lower(language.Und)

// Normalize applies the classification input contract: full-width runes
// are narrowed, text is lower-cased, every whitespace rune is removed, and a
// single leading '+' is stripped.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	folded := lower.String(width.Narrow.String(raw))
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, folded)
	return strings.TrimPrefix(compact, "+")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
