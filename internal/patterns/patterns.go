// Package patterns implements the "abstraction" consolidation pass:
// clustering similar memories, then either linking a cluster to an
// existing pattern or synthesizing a brand-new one.
package patterns

import (
	"context"
	"fmt"
	"strings"

	"github.com/exocortex-go/exocortex/internal/embedding"
	"github.com/exocortex-go/exocortex/internal/logging"
	"github.com/exocortex-go/exocortex/internal/memory"
)

var log = logging.GetLogger("patterns")

const (
	DefaultMinClusterSize      = 3
	DefaultSimilarityThreshold = 0.7
	existingPatternMinConfidence = 0.3
	existingPatternLinkThreshold = 0.8
	newPatternInitialConfidence  = 0.5
	newPatternEdgeConfidence     = 0.6
)

// Options configures one consolidation run.
type Options struct {
	TagFilter           string
	MinClusterSize      int
	SimilarityThreshold float64
}

// PatternDetail describes one newly created pattern.
type PatternDetail struct {
	PatternID     string `json:"pattern_id"`
	Summary       string `json:"summary"`
	InstanceCount int    `json:"instance_count"`
}

// Result summarizes a consolidation run.
type Result struct {
	PatternsFound   int             `json:"patterns_found"`
	PatternsCreated int             `json:"patterns_created"`
	MemoriesLinked  int             `json:"memories_linked"`
	Details         []PatternDetail `json:"details"`
}

// Consolidator extracts and consolidates patterns from memory clusters.
type Consolidator struct {
	repo *memory.Repository
}

// NewConsolidator constructs a Consolidator over a repository.
func NewConsolidator(repo *memory.Repository) *Consolidator {
	return &Consolidator{repo: repo}
}

// Consolidate runs one clustering-and-synthesis pass.
func (c *Consolidator) Consolidate(ctx context.Context, opts Options) (*Result, error) {
	if opts.MinClusterSize <= 0 {
		opts.MinClusterSize = DefaultMinClusterSize
	}
	if opts.SimilarityThreshold <= 0 {
		opts.SimilarityThreshold = DefaultSimilarityThreshold
	}

	result := &Result{}

	var candidates []*memory.Memory
	var err error
	if opts.TagFilter != "" {
		candidates, err = c.repo.GetMemoriesByTag(ctx, opts.TagFilter, 100)
		log.Info("consolidating patterns for tag", "tag", opts.TagFilter, "candidates", len(candidates))
	} else {
		candidates, err = c.repo.GetFrequentlyAccessedMemories(ctx, 3, 100)
		log.Info("consolidating patterns for frequently accessed memories", "candidates", len(candidates))
	}
	if err != nil {
		return nil, err
	}

	if len(candidates) < opts.MinClusterSize {
		log.Info("not enough memories to extract patterns")
		return result, nil
	}

	clusters := findClusters(candidates, opts.SimilarityThreshold, opts.MinClusterSize)

	for _, cluster := range clusters {
		sampleSize := len(cluster)
		if sampleSize > 3 {
			sampleSize = 3
		}
		var contents []string
		for _, m := range cluster[:sampleSize] {
			contents = append(contents, m.Content)
		}
		clusterContent := strings.Join(contents, " ")

		vec, err := c.repo.EmbedText(ctx, clusterContent)
		if err != nil {
			return nil, err
		}

		similarPatterns, err := c.repo.SearchSimilarPatterns(ctx, vec, 3, existingPatternMinConfidence)
		if err != nil {
			return nil, err
		}

		if len(similarPatterns) > 0 && similarPatterns[0].Similarity >= existingPatternLinkThreshold {
			match := similarPatterns[0]
			for _, m := range cluster {
				if err := c.repo.LinkMemoryToPattern(ctx, m.ID, match.Pattern.ID, match.Similarity); err != nil {
					return nil, err
				}
				result.MemoriesLinked++
			}
			result.PatternsFound++
			log.Info("linked memories to existing pattern", "count", len(cluster), "pattern_id", match.Pattern.ID)
			continue
		}

		patternContent := synthesizeContent(cluster)
		if patternContent == "" {
			continue
		}
		pattern, err := c.repo.CreatePattern(ctx, patternContent, newPatternInitialConfidence)
		if err != nil {
			return nil, err
		}

		for _, m := range cluster {
			if err := c.repo.LinkMemoryToPattern(ctx, m.ID, pattern.ID, newPatternEdgeConfidence); err != nil {
				return nil, err
			}
			result.MemoriesLinked++
		}

		result.PatternsCreated++
		result.Details = append(result.Details, PatternDetail{
			PatternID: pattern.ID, Summary: pattern.Summary, InstanceCount: len(cluster),
		})
		log.Info("created new pattern", "pattern_id", pattern.ID, "instances", len(cluster))
	}

	return result, nil
}

// findClusters greedily groups each unassigned seed memory with every
// remaining memory whose embedding is similar to the seed's at or above
// threshold, keeping clusters of at least minSize. Members are compared
// with the seed only, not with each other.
func findClusters(memories []*memory.Memory, threshold float64, minSize int) [][]*memory.Memory {
	if len(memories) == 0 {
		return nil
	}

	var clusters [][]*memory.Memory
	used := make(map[string]bool)

	for _, m := range memories {
		if used[m.ID] {
			continue
		}
		cluster := []*memory.Memory{m}
		used[m.ID] = true

		for _, other := range memories {
			if used[other.ID] {
				continue
			}
			similarity := embedding.Cosine(m.Embedding, other.Embedding)
			if similarity >= threshold {
				cluster = append(cluster, other)
				used[other.ID] = true
			}
		}

		if len(cluster) >= minSize {
			clusters = append(clusters, cluster)
		}
	}

	return clusters
}

// synthesizeContent builds a pattern description from a cluster via
// simple heuristics: dominant memory type, tags shared by at least half
// the cluster, and the first five summaries as representative examples.
func synthesizeContent(cluster []*memory.Memory) string {
	if len(cluster) == 0 {
		return ""
	}

	tagCounts := map[string]int{}
	for _, m := range cluster {
		for _, tag := range m.Tags {
			tagCounts[tag]++
		}
	}
	var commonTags []string
	for tag, count := range tagCounts {
		if float64(count) >= float64(len(cluster))*0.5 {
			commonTags = append(commonTags, tag)
		}
	}

	typeCounts := map[memory.Type]int{}
	for _, m := range cluster {
		typeCounts[m.MemoryType]++
	}
	dominantType := memory.TypeInsight
	best := 0
	for t, n := range typeCounts {
		if n > best {
			dominantType, best = t, n
		}
	}

	sampleSize := len(cluster)
	if sampleSize > 5 {
		sampleSize = 5
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Pattern extracted from %d memories**\n\n", len(cluster))
	fmt.Fprintf(&b, "- Dominant type: %s\n", dominantType)
	if len(commonTags) > 0 {
		fmt.Fprintf(&b, "- Common tags: %s\n", strings.Join(commonTags, ", "))
	} else {
		b.WriteString("- Common tags: none\n")
	}
	b.WriteString("\n**Representative examples:**\n")
	for i, m := range cluster[:sampleSize] {
		fmt.Fprintf(&b, "%d. %s\n", i+1, m.Summary)
	}

	return strings.TrimRight(b.String(), "\n")
}
