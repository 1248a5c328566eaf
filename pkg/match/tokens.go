package match

import (
	"strings"
	"unicode/utf8"
)

// genericTokens cannot carry a fuzzy or partial match on their own.
var genericTokens = map[string]bool{
	"natural": true, "organic": true, "extract": true, "powder": true, "acid": true,
	"oil": true, "flavor": true, "flavors": true, "flavoring": true, "concentrate": true,
	"protein": true, "gum": true, "syrup": true, "starch": true, "modified": true,
	"sodium": true, "calcium": true, "potassium": true, "magnesium": true, "salt": true,
	"dried": true, "from": true, "and": true, "with": true, "of": true, "derived": true,
	"isolate": true, "blend": true, "solids": true, "root": true, "leaf": true,
	"vitamin": true, "mineral": true, "complex": true, "compound": true,
}

// singular strips common English plural endings from one token.
func singular(tok string) string {
	switch {
	case len(tok) > 4 && strings.HasSuffix(tok, "ies"):
		return tok[:len(tok)-3] + "y"
	case len(tok) > 3 && strings.HasSuffix(tok, "s") &&
		!strings.HasSuffix(tok, "ss") && !strings.HasSuffix(tok, "us") && !strings.HasSuffix(tok, "is"):
		return tok[:len(tok)-1]
	}
	return tok
}

// tokenKey is the plural-insensitive form of a normalized key.
func tokenKey(key string) string {
	toks := tokens(key)
	for i, t := range toks {
		toks[i] = singular(t)
	}
	return strings.Join(toks, " ")
}

// containsTokens reports whether needle occurs in hay as a contiguous run of
// whole tokens.
func containsTokens(hay, needle []string) bool {
	return len(tokenIndexes(hay, needle)) > 0
}

// tokenIndexes returns every start index of needle in hay as a contiguous run
// of whole tokens.
func tokenIndexes(hay, needle []string) []int {
	if len(needle) == 0 || len(needle) > len(hay) {
		return nil
	}
	var out []int
	for i := 0; i+len(needle) <= len(hay); i++ {
		if equalTokens(hay[i:i+len(needle)], needle) {
			out = append(out, i)
		}
	}
	return out
}

func equalTokens(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// specific reports whether a token run carries at least one non-generic token.
func specific(toks []string) bool {
	for _, t := range toks {
		if !genericTokens[t] {
			return true
		}
	}
	return false
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func singularTokens(key string) []string {
	return tokens(tokenKey(key))
}

func joinTokens(toks []string) string {
	return strings.Join(toks, " ")
}
