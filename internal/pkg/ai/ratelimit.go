package ai

import "strings"

// rateLimitMarkers are lowercase fragments that providers put in quota and
// rate-limit errors. Both go-openai and the Ollama client surface the
// provider's message text in err.Error().
var rateLimitMarkers = []string{
	"quota",
	"rate limit",
	"rate_limit",
	"ratelimit",
	"resource_exhausted",
	"too many requests",
}

// IsRateLimited classifies err as a quota or rate-limit failure by matching
// its text. It depends on the provider's error wording and is the single
// place to update when that wording changes.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
