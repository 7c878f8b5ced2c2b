// Package analysis detects potential duplicates, contradictions,
// success-after-failure patterns, and suggested links for a newly
// ingested memory, plus the repository's aggregate health signal.
package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/exocortex-go/exocortex/internal/memory"
)

var contradictionKeywords = []string{
	"but", "however", "instead", "wrong", "incorrect", "not",
	"don't", "shouldn't", "actually", "contrary",
}

var supersedeKeywords = []string{
	"updated", "new version", "replaces", "improved", "better approach",
}

var contradictKeywords = []string{
	"wrong", "incorrect", "actually", "contrary", "opposite",
}

// Thresholds configures the similarity bands the analyzer reacts to.
type Thresholds struct {
	LinkSuggestion        float64
	DuplicateDetection    float64
	ContradictionCheck    float64
}

// DefaultThresholds mirrors the documented defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{LinkSuggestion: 0.65, DuplicateDetection: 0.90, ContradictionCheck: 0.70}
}

// SuggestedLink is a candidate RELATED_TO edge the analyzer proposes
// but does not create.
type SuggestedLink struct {
	TargetID          string              `json:"target_id"`
	TargetSummary     string              `json:"target_summary"`
	Similarity        float64             `json:"similarity"`
	SuggestedRelation memory.RelationType `json:"suggested_relation"`
	Reason            string              `json:"reason"`
}

// Insight is a non-link observation surfaced about a new memory.
type Insight struct {
	InsightType          string  `json:"insight_type"`
	Message              string  `json:"message"`
	RelatedMemoryID      string  `json:"related_memory_id,omitempty"`
	RelatedMemorySummary string  `json:"related_memory_summary,omitempty"`
	Confidence           float64 `json:"confidence"`
	SuggestedAction      string  `json:"suggested_action,omitempty"`
}

// Analyzer inspects newly ingested memories against the existing corpus.
type Analyzer struct {
	repo       *memory.Repository
	thresholds Thresholds
}

// NewAnalyzer constructs an Analyzer over a repository.
func NewAnalyzer(repo *memory.Repository, t Thresholds) *Analyzer {
	return &Analyzer{repo: repo, thresholds: t}
}

// AnalyzeNewMemory inspects one newly created memory and returns
// suggested links plus any insights (possible duplicate, contradiction,
// or success-after-failure).
func (a *Analyzer) AnalyzeNewMemory(ctx context.Context, newID, content string, embedding []float32, memType memory.Type) ([]SuggestedLink, []Insight, error) {
	var links []SuggestedLink
	var insights []Insight

	candidates, err := a.repo.SearchSimilarByEmbedding(ctx, embedding, 10, newID)
	if err != nil {
		return nil, nil, err
	}

	var aboveLink []memory.SimilarMemory
	for _, c := range candidates {
		if c.Similarity > a.thresholds.LinkSuggestion {
			aboveLink = append(aboveLink, c)
		}
	}

	top5 := aboveLink
	if len(top5) > 5 {
		top5 = top5[:5]
	}
	for _, c := range top5 {
		if c.Similarity > a.thresholds.DuplicateDetection {
			insights = append(insights, Insight{
				InsightType:          "potential_duplicate",
				Message:              fmt.Sprintf("This memory is very similar (%.0f%%) to an existing one.", c.Similarity*100),
				RelatedMemoryID:      c.ID,
				RelatedMemorySummary: c.Summary,
				Confidence:           c.Similarity,
				SuggestedAction:      fmt.Sprintf("Use update_memory on '%s' or link with 'supersedes'", c.ID),
			})
			continue
		}

		relation := inferRelationType(memType, c.MemoryType, content)
		reason := generateLinkReason(memType, c.MemoryType, c.Similarity, c.ContextName)
		links = append(links, SuggestedLink{
			TargetID: c.ID, TargetSummary: c.Summary, Similarity: c.Similarity,
			SuggestedRelation: relation, Reason: reason,
		})
	}

	contentLower := strings.ToLower(content)
	hasContradictionSignal := containsAny(contentLower, contradictionKeywords)
	if hasContradictionSignal && len(aboveLink) > 0 {
		top := aboveLink[0]
		if top.Similarity > a.thresholds.ContradictionCheck {
			insights = append(insights, Insight{
				InsightType:          "potential_contradiction",
				Message:              "This memory may contradict existing knowledge.",
				RelatedMemoryID:      top.ID,
				RelatedMemorySummary: top.Summary,
				Confidence:           0.6,
				SuggestedAction:      "Review and link with 'supersedes' or 'contradicts'",
			})
		}
	}

	if memType == memory.TypeSuccess {
		for _, c := range aboveLink {
			if c.MemoryType == memory.TypeFailure && c.Similarity > 0.6 {
				insights = append(insights, Insight{
					InsightType:          "success_after_failure",
					Message:              "This success may resolve a previous failure.",
					RelatedMemoryID:      c.ID,
					RelatedMemorySummary: c.Summary,
					Confidence:           c.Similarity,
					SuggestedAction:      fmt.Sprintf("Link to '%s' with 'extends' relation", c.ID),
				})
				break
			}
		}
	}

	return links, insights, nil
}

func inferRelationType(newType, existingType memory.Type, newContent string) memory.RelationType {
	lower := strings.ToLower(newContent)

	if newType == memory.TypeSuccess {
		if existingType == memory.TypeInsight || existingType == memory.TypeDecision {
			return memory.RelationExtends
		}
		if existingType == memory.TypeFailure {
			return memory.RelationExtends
		}
	}

	if newType == memory.TypeDecision && existingType == memory.TypeInsight {
		return memory.RelationDependsOn
	}

	if containsAny(lower, supersedeKeywords) {
		return memory.RelationSupersedes
	}
	if containsAny(lower, contradictKeywords) {
		return memory.RelationContradicts
	}
	return memory.RelationRelated
}

func generateLinkReason(newType, existingType memory.Type, similarity float64, existingContext string) string {
	var reasons []string

	switch {
	case similarity > 0.85:
		reasons = append(reasons, "Very high semantic similarity")
	case similarity > 0.75:
		reasons = append(reasons, "High semantic similarity")
	default:
		reasons = append(reasons, "Moderate semantic similarity")
	}

	switch {
	case newType == memory.TypeSuccess && existingType == memory.TypeFailure:
		reasons = append(reasons, "may be a solution to the recorded failure")
	case newType == memory.TypeSuccess && existingType == memory.TypeInsight:
		reasons = append(reasons, "may be an application of this insight")
	case newType == memory.TypeDecision && existingType == memory.TypeInsight:
		reasons = append(reasons, "decision may be based on this insight")
	}

	if existingContext != "" {
		reasons = append(reasons, fmt.Sprintf("from project '%s'", existingContext))
	}

	return strings.Join(reasons, "; ")
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
