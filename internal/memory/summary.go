package memory

import "strings"

// DefaultMaxSummaryLength is the default summary truncation length.
const DefaultMaxSummaryLength = 200

// GenerateSummary deterministically truncates content to maxLen.
// If content already fits, it is returned trimmed. Otherwise it is cut at
// maxLen and backed up to the last whitespace boundary, provided that
// boundary lies beyond 70% of the limit; an ellipsis marker is appended.
func GenerateSummary(content string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxSummaryLength
	}
	trimmed := strings.TrimSpace(content)
	if len(trimmed) <= maxLen {
		return trimmed
	}

	cut := trimmed[:maxLen]
	minBoundary := int(float64(maxLen) * 0.7)
	if idx := strings.LastIndexAny(cut, " \t\n"); idx >= minBoundary {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " \t\n") + "…"
}
