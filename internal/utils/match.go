package utils

import (
	"regexp"
	"strings"
)

// IndexFold returns the byte offset in s of the first case-insensitive match
// of substr, or -1. The offset always falls on a rune boundary of s, even when
// lowercasing would change the byte length of the text before the match.
func IndexFold(s, substr string) int {
	if substr == "" {
		return 0
	}
	loc := regexp.MustCompile("(?i)" + regexp.QuoteMeta(substr)).FindStringIndex(s)
	if loc == nil {
		return -1
	}
	return loc[0]
}

// ContainsFold reports whether s contains substr, ignoring case and surrounding whitespace
func ContainsFold(s, substr string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	substr = strings.ToLower(strings.TrimSpace(substr))
	if substr == "" {
		return true
	}
	return strings.Contains(s, substr)
}

// EqualFold compares two labels ignoring case and surrounding whitespace
func EqualFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// MatchAll reports whether every wanted term is found in at least one of the
// available labels, e.g. "Pool" is satisfied by "Swimming Pool".
func MatchAll(wanted, available []string) bool {
	for _, w := range wanted {
		found := false
		for _, a := range available {
			if ContainsFold(a, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Toggle adds value to the set when absent and removes it when present.
// Order of the remaining values is preserved.
func Toggle(set []string, value string) []string {
	for i, v := range set {
		if v == value {
			out := make([]string, 0, len(set)-1)
			out = append(out, set[:i]...)
			return append(out, set[i+1:]...)
		}
	}
	out := make([]string, 0, len(set)+1)
	out = append(out, set...)
	return append(out, value)
}
