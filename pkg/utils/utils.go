// Package utils holds small helpers shared across the HTTP layer.
package utils

import (
	"strings"
	"unicode"
)

// Diacritic ranges folded to their base ASCII letter. Anything else outside
// ASCII becomes a dash so the disposition header stays single-byte clean.
var latinFolds = []struct {
	lo, hi rune
	to     rune
}{
	{'À', 'Å', 'A'},
	{'à', 'å', 'a'},
	{'È', 'Ë', 'E'},
	{'è', 'ë', 'e'},
	{'Ì', 'Ï', 'I'},
	{'ì', 'ï', 'i'},
	{'Ò', 'Ö', 'O'},
	{'ò', 'ö', 'o'},
	{'Ù', 'Ü', 'U'},
	{'ù', 'ü', 'u'},
	{'Ç', 'Ç', 'C'},
	{'ç', 'ç', 'c'},
	{'Ñ', 'Ñ', 'N'},
	{'ñ', 'ñ', 'n'},
}

// SanitizeFilename folds a download filename to printable ASCII. Storage
// providers echo the filename back inside a Content-Disposition header, and
// multi-byte characters survive that round trip inconsistently across
// clients, so diacritics are stripped and everything else non-ASCII is
// replaced with a dash.
func SanitizeFilename(filename string) string {
	if filename == "" {
		return ""
	}

	return strings.Map(func(r rune) rune {
		if r < 128 && unicode.IsPrint(r) {
			return r
		}
		for _, f := range latinFolds {
			if r >= f.lo && r <= f.hi {
				return f.to
			}
		}
		return '-'
	}, filename)
}
