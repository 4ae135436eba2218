// Package slug derives unique, length-bounded, URL-safe identifiers from
// article titles. Generation is a pure function of the title and the set of
// slugs already taken; no network calls.
package slug

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var (
	datePattern    = regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日`)
	numberUnit     = regexp.MustCompile(`(\d+)(個|件|台|人|社|回|時間|分|秒|年|月|日)`)
	hyphenCollapse = regexp.MustCompile(`-+`)
)

// Generator holds the slug configuration.
type Generator struct {
	Prefix    string
	MaxLength int
}

// New creates a Generator. MaxLength below the prefix length falls back to 50.
func New(prefix string, maxLength int) *Generator {
	if maxLength <= len(prefix) {
		maxLength = 50
	}
	return &Generator{Prefix: prefix, MaxLength: maxLength}
}

// Generate produces a slug for title that does not collide with any slug in
// taken. On collision a numeric suffix (-2, -3, ...) is appended until the
// result is unique. The caller owns adding the result back into taken.
func (g *Generator) Generate(title string, taken map[string]struct{}) string {
	base := g.slugify(title)

	if _, exists := taken[base]; !exists {
		return base
	}
	for n := 2; ; n++ {
		suffix := fmt.Sprintf("-%d", n)
		candidate := truncateAtToken(base, g.MaxLength-len(suffix), len(g.Prefix)) + suffix
		if _, exists := taken[candidate]; !exists {
			return candidate
		}
	}
}

// slugify normalizes a title into prefixed hyphenated ASCII tokens bounded
// to MaxLength at a token boundary.
func (g *Generator) slugify(title string) string {
	s := datePattern.ReplaceAllString(title, "$1-$2-$3")
	s = numberUnit.ReplaceAllString(s, "$1-$2")

	// Known domain terms first, then a romanization pass for leftover
	// katakana, then drop anything still outside ASCII.
	for _, t := range termTable {
		s = strings.ReplaceAll(s, t.jp, "-"+t.en+"-")
	}
	s = romanizeKatakana(s)
	s = strings.ToLower(s)

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == '-', unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			// remaining kana/kanji/punctuation becomes a separator
			b.WriteRune('-')
		}
	}

	out := hyphenCollapse.ReplaceAllString(b.String(), "-")
	out = strings.Trim(out, "-")
	if out == "" {
		out = "post"
	}

	out = g.Prefix + out
	return truncateAtToken(out, g.MaxLength, len(g.Prefix))
}

// truncateAtToken cuts s to at most max characters, preferring the last
// hyphen boundary after minKeep so tokens are not split mid-word.
func truncateAtToken(s string, max, minKeep int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if idx := strings.LastIndex(cut, "-"); idx > minKeep {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, "-")
}
