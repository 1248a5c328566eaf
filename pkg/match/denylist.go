package match

// Denylist holds normalized ingredient names that must never match an
// allergen, whatever their lexical overlap.
type Denylist map[string]struct{}

// DefaultDenylistTerms are known false positives for allergen matching.
var DefaultDenylistTerms = []string{
	"royal jelly",
	"cream of tartar",
	"cocoa butter",
	"cacao butter",
	"shea butter",
	"mango butter",
	"apple butter",
	"coconut cream",
	"coconut milk",
	"oat milk",
	"rice milk",
	"nutmeg",
	"water chestnut",
	"buckwheat",
	"eggplant",
	"butternut squash",
}

// NewDenylist normalizes and collects terms.
func NewDenylist(terms ...[]string) Denylist {
	d := make(Denylist)
	for _, list := range terms {
		for _, t := range list {
			if key := Normalize(t); key != "" {
				d[key] = struct{}{}
			}
		}
	}
	return d
}

// Contains reports whether a normalized key is denied.
func (d Denylist) Contains(key string) bool {
	_, ok := d[key]
	return ok
}

// denied returns the token ranges of toks covered by a denied phrase. toks and
// phrases are both in plural-insensitive form.
func denied(toks []string, phrases [][]string) [][2]int {
	var out [][2]int
	for _, p := range phrases {
		for i := 0; i+len(p) <= len(toks); i++ {
			if equalTokens(toks[i:i+len(p)], p) {
				out = append(out, [2]int{i, i + len(p)})
			}
		}
	}
	return out
}
