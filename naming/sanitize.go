package naming

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxNameBytes keeps names well under common filesystem limits.
const maxNameBytes = 200

// unsafeChars cannot appear in filenames on at least one common platform.
const unsafeChars = `/\:*?"<>|`

// Sanitize makes name safe to use as a single path element and
// guarantees exactly one ".pdf" extension. It is idempotent:
// Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return ' '
		case unicode.IsControl(r), r == utf8.RuneError, strings.ContainsRune(unsafeChars, r):
			return -1
		}
		return r
	}, name)

	stem := stripPDF(strings.Join(strings.Fields(name), " "))
	stem = stripPDF(truncate(stem, maxNameBytes-len(".pdf")))
	if stem == "" {
		stem = "paper"
	}
	return stem + ".pdf"
}

// stripPDF trims edge spaces, dots and underscores and removes every
// trailing ".pdf" so the extension can be re-added exactly once.
func stripPDF(stem string) string {
	for {
		stem = strings.Trim(stem, " ._")
		if !strings.HasSuffix(strings.ToLower(stem), ".pdf") {
			return stem
		}
		stem = stem[:len(stem)-len(".pdf")]
	}
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
