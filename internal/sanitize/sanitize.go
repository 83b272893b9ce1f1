// Package sanitize turns page titles and category labels into filesystem
// and URL safe names.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

const maxFilenameBytes = 255

var (
	unsafeRe   = regexp.MustCompile(`[/\\?%*:|"<>\x00-\x1f\x7f]`)
	anchorDrop = regexp.MustCompile(`[^\p{L}\p{N}\s_-]`)
)

// Filename returns a lower-cased, underscore-joined name with every
// filesystem-unsafe character removed. Filename(Filename(s)) == Filename(s).
func Filename(s string) string {
	s = norm.NFC.String(lower(norm.NFC.String(s)))
	s = unsafeRe.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), "_")
	s = truncate(s, maxFilenameBytes)
	return strings.Trim(s, ".")
}

// Anchor returns the heading id a kramdown-style renderer generates for text.
func Anchor(s string) string {
	s = lower(norm.NFC.String(strings.TrimSpace(s)))
	s = anchorDrop.ReplaceAllString(s, "")
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), "-")
}

// lower builds a Caser per call; Casers carry state and must not be shared
// between goroutines.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
