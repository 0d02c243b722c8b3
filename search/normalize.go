package search

import "strings"

// Normalize trims text and collapses each run of whitespace to a single
// space. Case and punctuation are preserved; the embedding model handles
// both and Hangul has no case.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
