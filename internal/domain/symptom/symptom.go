// Package symptom handles free-text symptom input: sanitization, the
// minimum-detail gate, and the domain-context keyword check used by the
// similarity and fallback stages.
package symptom

import (
	"strings"
	"unicode"
)

// Default input policy constants.
const (
	// DefaultMaxRunes caps sanitized input length.
	DefaultMaxRunes = 600

	// DefaultMinWords and DefaultMinChars define the minimum-detail gate.
	// Input is rejected only when it fails BOTH.
	DefaultMinWords = 2
	DefaultMinChars = 8
)

// DefaultContextKeywords are the terms that count as breast context.
func DefaultContextKeywords() []string {
	return []string{"breast", "nipple", "boob", "areola", "underarm", "armpit", "chest", "axilla"}
}

// Sanitize trims the input, strips control characters, collapses internal
// whitespace runs to single spaces, and caps the result at maxRunes.
// A maxRunes of 0 or less applies DefaultMaxRunes.
func Sanitize(s string, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = DefaultMaxRunes
	}
	var b strings.Builder
	b.Grow(len(s))
	space := false
	count := 0
	for _, r := range s {
		if unicode.IsControl(r) {
			continue
		}
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			if count >= maxRunes {
				break
			}
			b.WriteByte(' ')
			count++
		}
		space = false
		if count >= maxRunes {
			break
		}
		b.WriteRune(r)
		count++
	}
	return strings.TrimRight(b.String(), " ")
}

// TooShort reports whether the text fails the minimum-detail gate.
// Rejection requires failing both minima: enough words OR enough
// characters passes.
func TooShort(s string, minWords, minChars int) bool {
	words := len(strings.Fields(s))
	chars := len([]rune(s))
	return words < minWords && chars < minChars
}

// HasContext reports whether any of the keywords appears in the text,
// case-insensitively.
func HasContext(s string, keywords []string) bool {
	lower := strings.ToLower(s)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
