package normalize

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Norm folds text for matching: compatibility decomposition with combining
// marks dropped, lower case, "&" spelled "and", anything that is not a
// letter, digit or underscore turned into a space, whitespace collapsed.
func Norm(v string) string {
	if v == "" {
		return ""
	}
	s := strings.ToLower(norm.NFKD.String(v))
	s = strings.ReplaceAll(s, "&", " and ")

	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		default:
			pendingSpace = true
		}
	}
	return b.String()
}

var placeholderValues = map[string]bool{
	"-": true, "—": true, "n/a": true, "na": true, "null": true,
	"none": true, "undefined": true, "n.a.": true,
}

// IsMeaningful reports whether v carries information, rejecting the usual
// placeholder spellings.
func IsMeaningful(v string) bool {
	s := strings.TrimSpace(v)
	if s == "" {
		return false
	}
	return !placeholderValues[strings.ToLower(s)]
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses an ISO-style timestamp or date. Values without a zone
// are read as UTC. Unparseable input yields nil.
func ParseDate(v string) *time.Time {
	s := strings.TrimSpace(v)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
