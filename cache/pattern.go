package cache

import (
	"regexp"
	"strings"
)

// Pattern selects stored keys for bulk invalidation. It is either a literal
// substring test or a compiled regular expression, decided at the call site.
type Pattern struct {
	text string
	re   *regexp.Regexp
}

// Substring returns a Pattern matching every key that contains text.
// This is the common case ("every key for place X regardless of suffix")
// and requires no escaping.
func Substring(text string) Pattern {
	return Pattern{text: text}
}

// Regex returns a Pattern matching every key the expression matches.
// Callers compile the expression themselves, so a malformed pattern fails
// at the call site rather than inside the store.
func Regex(re *regexp.Regexp) Pattern {
	return Pattern{text: re.String(), re: re}
}

// ParsePattern interprets raw the way the store's callers historically did:
// the presence of "^", "$" or ".*" marks raw as a full regular expression;
// anything else is matched as a literal substring. Returns an error when a
// sniffed regular expression fails to compile.
func ParsePattern(raw string) (Pattern, error) {
	if strings.ContainsAny(raw, "^$") || strings.Contains(raw, ".*") {
		re, err := regexp.Compile(raw)
		if err != nil {
			return Pattern{}, ErrInvalidPattern(raw, err)
		}
		return Regex(re), nil
	}
	return Substring(raw), nil
}

// Matches reports whether key is selected by the pattern.
func (p Pattern) Matches(key string) bool {
	if p.re != nil {
		return p.re.MatchString(key)
	}
	return strings.Contains(key, p.text)
}

// IsRegex reports whether the pattern is a regular expression rather than a
// literal substring.
func (p Pattern) IsRegex() bool {
	return p.re != nil
}

func (p Pattern) String() string {
	return p.text
}
