package util

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

// ScoreCompletions returns the top N matches for the input string from the candidates list.
func ScoreCompletions(input string, candidates []string, n int) []string {
	if input == "" {
		return candidates
	}
	matches := fuzzy.Find(input, candidates)
	if len(matches) == 0 {
		return nil
	}

	limit := n
	if n <= 0 || len(matches) < limit {
		limit = len(matches)
	}

	out := make([]string, limit)
	for i := 0; i < limit; i++ {
		out[i] = matches[i].Str
	}
	return out
}

// Resolve picks the candidate the user meant: an exact (case-insensitive)
// name, the only prefix match, or a fuzzy match that outscores the rest.
func Resolve(input string, candidates []string) (string, error) {
	in := strings.ToLower(strings.TrimSpace(input))
	if in == "" {
		return "", fmt.Errorf("empty name")
	}
	var prefixed []string
	for _, c := range candidates {
		lc := strings.ToLower(c)
		if lc == in {
			return c, nil
		}
		if strings.HasPrefix(lc, in) {
			prefixed = append(prefixed, c)
		}
	}
	if len(prefixed) == 1 {
		return prefixed[0], nil
	}

	matches := fuzzy.Find(in, candidates)
	switch {
	case len(matches) == 0:
		return "", fmt.Errorf("no match for %q", input)
	case len(matches) == 1 || matches[0].Score > matches[1].Score:
		return matches[0].Str, nil
	}
	return "", fmt.Errorf("%q is ambiguous: %s", input, strings.Join(ScoreCompletions(in, candidates, 5), ", "))
}
