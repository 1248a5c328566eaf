package report

import "strings"

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Clean drops blank entries and trims the rest, keeping order.
func Clean(ingredients []string) []string {
	out := make([]string, 0, len(ingredients))
	for _, s := range ingredients {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Split breaks a label-style ingredient list on commas and semicolons that
// are not inside brackets, so "Chocolate (sugar, cocoa), Salt" stays two
// items.
func Split(list string) []string {
	var (
		out   []string
		depth int
		start int
	)
	for i, r := range list {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		case ',', ';':
			if depth == 0 {
				out = append(out, list[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, list[start:])
	return Clean(out)
}
