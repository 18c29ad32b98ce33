package query

import "github.com/Aman-CERP/asrsmcp/internal/incident"

const (
	snippetContext = 100
	prefixLength   = 200
	ellipsis       = "..."
)

// text is a searchable string held as runes so match offsets and snippet
// bounds count characters, not bytes. folded is the incident.Fold form;
// origin maps each folded rune back to its rune in runes.
type text struct {
	runes  []rune
	folded []rune
	origin []int
}

func newText(s string) text {
	folded, origin := incident.FoldRunes(s)
	return text{runes: []rune(s), folded: folded, origin: origin}
}

func (t text) empty() bool { return len(t.runes) == 0 }

// find returns the original rune span [start, end) of the first
// case-insensitive occurrence of needle, or -1, -1.
func (t text) find(needle []rune) (start, end int) {
	n := len(needle)
	if n == 0 || n > len(t.folded) {
		return -1, -1
	}
outer:
	for i := 0; i+n <= len(t.folded); i++ {
		for j := 0; j < n; j++ {
			if t.folded[i+j] != needle[j] {
				continue outer
			}
		}
		return t.origin[i], t.origin[i+n-1] + 1
	}
	return -1, -1
}

// index returns the rune offset of the first match of needle, or -1.
func (t text) index(needle []rune) int {
	start, _ := t.find(needle)
	return start
}

// snippet returns up to snippetContext runes either side of [start, end),
// marking each truncated side with an ellipsis.
func (t text) snippet(start, end int) string {
	from := max(0, start-snippetContext)
	to := min(len(t.runes), end+snippetContext)

	s := string(t.runes[from:to])
	if from > 0 {
		s = ellipsis + s
	}
	if to < len(t.runes) {
		s += ellipsis
	}
	return s
}

// prefix returns the first prefixLength runes, with an ellipsis when cut.
func (t text) prefix() string {
	if len(t.runes) <= prefixLength {
		return string(t.runes)
	}
	return string(t.runes[:prefixLength]) + ellipsis
}

// foldNeedle folds a search term the same way newText folds the haystack.
func foldNeedle(s string) []rune {
	return []rune(incident.Fold(s))
}
