package utils

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	MinURLIDLength = 3
	MaxURLIDLength = 32
)

var (
	urlIDPattern    = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	slugStrip       = regexp.MustCompile(`[^a-z0-9-]+`)
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// ValidURLID reports whether s can be used as a blog address: lowercase
// letters, digits and single inner hyphens, 3 to 32 characters.
func ValidURLID(s string) bool {
	if len(s) < MinURLIDLength || len(s) > MaxURLIDLength {
		return false
	}
	return urlIDPattern.MatchString(s)
}

// Slugify turns arbitrary text into a lowercase hyphenated slug. Non-latin
// scripts are transliterated first.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, _ := transform.String(t, s)
	out = strings.ToLower(unidecode.Unidecode(out))
	out = strings.Join(strings.Fields(out), "-")
	out = slugStrip.ReplaceAllString(out, "-")
	out = multipleHyphens.ReplaceAllString(out, "-")
	return strings.Trim(out, "-")
}

// SuggestURLID derives a blog address from a display name. The result is
// padded or cut to fit the length limits; it is not checked for uniqueness.
func SuggestURLID(name string) string {
	s := Slugify(name)
	if len(s) > MaxURLIDLength {
		s = strings.TrimRight(s[:MaxURLIDLength], "-")
	}
	if len(s) < MinURLIDLength {
		if s == "" {
			s = "blog"
		} else {
			s = s + "-blog"
		}
	}
	return s
}

// WithSuffix appends -n to base, trimming base so the result stays valid.
func WithSuffix(base string, n int) string {
	suffix := "-" + strconv.Itoa(n)
	if len(base)+len(suffix) > MaxURLIDLength {
		base = strings.TrimRight(base[:MaxURLIDLength-len(suffix)], "-")
	}
	return base + suffix
}
