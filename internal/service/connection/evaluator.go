package connection

import "strings"

// Evaluate counts index-aligned matches between submitted and stored
// answers. Comparison is case-insensitive with surrounding whitespace
// trimmed; there is no fuzzy matching. Arity is the caller's problem.
func Evaluate(submitted, stored []string) int {
	correct := 0
	for i, answer := range submitted {
		if i >= len(stored) {
			break
		}
		if normalise(answer) == normalise(stored[i]) {
			correct++
		}
	}
	return correct
}

func normalise(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}
