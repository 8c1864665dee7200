package ai

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// listMarker matches a numbered-list marker such as "1. ".
var listMarker = regexp.MustCompile(`\d+\.\s`)

// ParseCandidates splits a numbered-list response into commit messages.
// Segments are trimmed; empty ones and those longer than maxLength
// characters are dropped, never truncated. Text before the first marker is
// a segment like any other. The result may be empty.
func ParseCandidates(text string, maxLength int) []string {
	segments := listMarker.Split(text, -1)

	candidates := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.TrimSpace(s)
		if s == "" || utf8.RuneCountInString(s) > maxLength {
			continue
		}
		candidates = append(candidates, s)
	}
	return candidates
}
