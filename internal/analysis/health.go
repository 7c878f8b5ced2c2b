package analysis

import (
	"context"
	"fmt"

	"github.com/exocortex-go/exocortex/internal/memory"
)

// DefaultStaleDays is the default staleness window for health checks.
const DefaultStaleDays = 90

// HealthIssue is one detected problem with the knowledge base.
type HealthIssue struct {
	IssueType         string   `json:"issue_type"`
	Severity          string   `json:"severity"` // high, medium, low
	Message           string   `json:"message"`
	AffectedMemoryIDs []string `json:"affected_memory_ids,omitempty"`
	SuggestedAction   string   `json:"suggested_action,omitempty"`
}

// HealthResult is the outcome of a full health analysis.
type HealthResult struct {
	TotalMemories int           `json:"total_memories"`
	HealthScore   float64       `json:"health_score"`
	Issues        []HealthIssue `json:"issues"`
	Suggestions   []string      `json:"suggestions"`
}

// HealthAnalyzer inspects the repository for orphaned, unlinked, and
// stale memories, and rolls the findings into a single health score.
type HealthAnalyzer struct {
	repo      *memory.Repository
	staleDays int
}

// NewHealthAnalyzer constructs a HealthAnalyzer over a repository.
func NewHealthAnalyzer(repo *memory.Repository, staleDays int) *HealthAnalyzer {
	if staleDays <= 0 {
		staleDays = DefaultStaleDays
	}
	return &HealthAnalyzer{repo: repo, staleDays: staleDays}
}

// Analyze runs the full health check.
func (h *HealthAnalyzer) Analyze(ctx context.Context) (*HealthResult, error) {
	stats, err := h.repo.GetStats(ctx)
	if err != nil {
		return nil, err
	}
	if stats.TotalMemories == 0 {
		return &HealthResult{
			TotalMemories: 0,
			HealthScore:   100.0,
			Suggestions:   []string{"Start storing memories to build your external brain!"},
		}, nil
	}

	var issues []HealthIssue

	orphans, err := h.repo.GetOrphanMemories(ctx, 10)
	if err != nil {
		return nil, err
	}
	if len(orphans) > 0 {
		ids := make([]string, len(orphans))
		for i, m := range orphans {
			ids[i] = m.ID
		}
		issues = append(issues, HealthIssue{
			IssueType: "orphan_memories", Severity: "medium",
			Message:           fmt.Sprintf("%d memories have no tags.", len(orphans)),
			AffectedMemoryIDs: ids,
			SuggestedAction:   "Add tags using update_memory",
		})
	}

	unlinkedCount, err := h.repo.GetUnlinkedCount(ctx)
	if err != nil {
		return nil, err
	}
	if unlinkedCount > 0 && stats.TotalMemories > 5 {
		ratio := float64(unlinkedCount) / float64(stats.TotalMemories)
		if ratio > 0.8 {
			issues = append(issues, HealthIssue{
				IssueType: "low_connectivity", Severity: "low",
				Message:           fmt.Sprintf("%d/%d memories have no links.", unlinkedCount, stats.TotalMemories),
				SuggestedAction:   "Use explore_related and link_memories",
			})
		}
	}

	stale, err := h.repo.GetStaleMemories(ctx, h.staleDays, 10)
	if err != nil {
		return nil, err
	}
	if len(stale) > 0 {
		ids := make([]string, len(stale))
		for i, m := range stale {
			ids[i] = m.ID
		}
		issues = append(issues, HealthIssue{
			IssueType: "stale_memories", Severity: "low",
			Message:           fmt.Sprintf("%d+ memories not updated in %d+ days.", len(stale), h.staleDays),
			AffectedMemoryIDs: ids,
			SuggestedAction:   "Review and update or mark as superseded",
		})
	}

	score := calculateHealthScore(issues, unlinkedCount, stats.TotalMemories)
	suggestions := generateSuggestions(issues, stats)

	return &HealthResult{
		TotalMemories: stats.TotalMemories,
		HealthScore:   score,
		Issues:        issues,
		Suggestions:   suggestions,
	}, nil
}

func calculateHealthScore(issues []HealthIssue, unlinkedCount, totalMemories int) float64 {
	score := 100.0
	for _, issue := range issues {
		switch issue.Severity {
		case "high":
			score -= 20
		case "medium":
			score -= 10
		case "low":
			score -= 5
		}
	}

	if totalMemories > 0 && float64(unlinkedCount)/float64(totalMemories) < 0.5 {
		score = minF(100, score+5)
	}
	return maxF(0, score)
}

func generateSuggestions(issues []HealthIssue, stats *memory.Stats) []string {
	var suggestions []string

	if len(issues) == 0 {
		suggestions = append(suggestions, "Your knowledge base looks healthy!")
	} else {
		suggestions = append(suggestions, "Address the issues above to improve discoverability.")
	}

	if stats.TotalMemories < 10 {
		suggestions = append(suggestions, "Keep recording insights for better semantic search.")
	}

	if stats.ByType[memory.TypeFailure] == 0 {
		suggestions = append(suggestions, "Don't forget to record failures too!")
	}

	return suggestions
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
