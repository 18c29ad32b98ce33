package incident

import (
	"strings"

	"golang.org/x/text/cases"
)

// Fold returns the case-folded form of s used for every case-insensitive
// comparison and tally key. A Caser keeps state, so one is built per call.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// ContainsFold reports whether sub appears in s, ignoring case.
func ContainsFold(s, sub string) bool {
	return strings.Contains(Fold(s), Fold(sub))
}

// EqualFold reports whether a and b are equal, ignoring case.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}

// FoldRunes folds s one rune at a time with the same Caser as Fold. Case
// folding is context-free, so the concatenation equals Fold(s). origin[i]
// is the rune offset in s that produced folded[i], which lets callers map a
// match back onto the original text when a rune folds to several (ß to ss).
func FoldRunes(s string) (folded []rune, origin []int) {
	c := cases.Fold()
	folded = make([]rune, 0, len(s))
	origin = make([]int, 0, len(s))
	i := 0
	for _, r := range s {
		for _, f := range c.String(string(r)) {
			folded = append(folded, f)
			origin = append(origin, i)
		}
		i++
	}
	return folded, origin
}
