// Package suggest computes did-you-mean candidates for misspelled names.
package suggest

import (
	"sort"
	"strings"
)

// Closest returns the candidate most similar to input, or "" when nothing is
// close enough to be a plausible typo. A candidate qualifies when its edit
// distance is at most 2 or when it shares a case-insensitive prefix with the
// input. Ties resolve to the lexicographically smallest candidate so output
// stays deterministic.
func Closest(input string, candidates []string) string {
	if input == "" || len(candidates) == 0 {
		return ""
	}
	sorted := append([]string{}, candidates...)
	sort.Strings(sorted)

	best := ""
	bestDist := -1
	lower := strings.ToLower(input)
	for _, c := range sorted {
		if c == input {
			continue
		}
		d := distance(lower, strings.ToLower(c))
		prefixed := strings.HasPrefix(strings.ToLower(c), lower) || strings.HasPrefix(lower, strings.ToLower(c))
		if d > 2 && !prefixed {
			continue
		}
		if bestDist == -1 || d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

// distance is the Levenshtein edit distance over bytes, two-row variant.
func distance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min3(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
