package match

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldAccents = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFKC)

var (
	bracketed = regexp.MustCompile(`\([^()]*\)|\[[^\[\]]*\]|\{[^{}]*\}`)
	unclosed  = regexp.MustCompile(`[(\[{][^)\]}]*$`)
	strayEnds = regexp.MustCompile(`[()\[\]{}]`)
	// Stereochemistry and purity markers: d-, l-, dl-, d,l-, (+)- once the
	// parentheses are gone.
	stereoPrefix = regexp.MustCompile(`^(?:(?:d\s*,\s*l|dl|d|l)\s*-|[+±]?\s*-)\s*`)
	// Trailing amounts need a unit: "5%", "50 mg", "1,000 iu", "less than 2%".
	// Bare numbers stay so "red 40" or "vitamin b12" keep their meaning.
	quantitySuffix = regexp.MustCompile(`(?:^|\s+)(?:(?:less than|<)\s*)?\d[\d,.]*\s*(?:%|mg|mcg|ug|g|kg|iu|ml|ppm)\.?$`)
	whitespace     = regexp.MustCompile(`\s+`)
)

var microSign = strings.NewReplacer("µ", "u", "μ", "u")

// edgePunct is trimmed from both ends: label footnote markers and list
// separators that survive upstream splitting.
const edgePunct = " \t*†‡.,;:"

// Normalize converts a raw ingredient string into its comparison key. It is
// idempotent and never fails; blank input yields "".
func Normalize(raw string) string {
	// The result is a fixpoint of one pass, so a second call returns it
	// unchanged.
	s := raw
	for {
		prev := s
		s = fold(s)
		for {
			stripped := bracketed.ReplaceAllString(s, " ")
			if stripped == s {
				break
			}
			s = stripped
		}
		s = unclosed.ReplaceAllString(s, "")
		s = strayEnds.ReplaceAllString(s, " ")
		s = whitespace.ReplaceAllString(s, " ")
		s = strings.Trim(s, edgePunct)
		s = stereoPrefix.ReplaceAllString(s, "")
		s = quantitySuffix.ReplaceAllString(s, "")
		s = strings.Trim(s, edgePunct)
		if s == prev {
			return s
		}
	}
}

// fold strips accents and compatibility forms and lower-cases. Compatibility
// decompositions can yield capitals (ℌ, ℃) and lower-casing can yield
// combining marks (İ), so the accent fold runs on both sides.
func fold(s string) string {
	if folded, _, err := transform.String(foldAccents, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)
	if folded, _, err := transform.String(foldAccents, s); err == nil {
		s = folded
	}
	return microSign.Replace(s)
}

// tokens splits a normalized key into words. Hyphenated words stay whole.
func tokens(key string) []string {
	return strings.Fields(key)
}

// compact drops spaces and hyphens for space-insensitive comparison.
func compact(key string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, key)
}
