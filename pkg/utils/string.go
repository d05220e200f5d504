package utils

import "strings"

// Truncate is a simple string truncate
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// WordCount returns the number of whitespace-delimited tokens in s.
// Computed once at item creation and never recomputed.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
