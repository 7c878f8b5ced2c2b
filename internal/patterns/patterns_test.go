package patterns

import (
	"context"
	"testing"

	"github.com/exocortex-go/exocortex/internal/embedding"
	"github.com/exocortex-go/exocortex/internal/memory"
	"github.com/exocortex-go/exocortex/internal/testutil"
)

func newTestRepo(t *testing.T) *memory.Repository {
	t.Helper()
	st := testutil.NewTestStore(t)
	return memory.NewRepository(st, embedding.NewHashEmbedder(64))
}

func TestConsolidateNotEnoughCandidatesIsNoop(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Create(ctx, memory.CreateOptions{Content: "a lone memory", ContextName: "default", Tags: []string{"solo"}}); err != nil {
		t.Fatalf("create: %v", err)
	}

	c := NewConsolidator(repo)
	result, err := c.Consolidate(ctx, Options{TagFilter: "solo"})
	if err != nil {
		t.Fatalf("consolidate: %v", err)
	}
	if result.PatternsCreated != 0 || result.PatternsFound != 0 || result.MemoriesLinked != 0 {
		t.Errorf("expected a no-op result below min cluster size, got %+v", result)
	}
}

func TestConsolidateCreatesNewPatternFromIdenticalCluster(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// Identical content embeds identically under the hash embedder, so
	// these three are guaranteed to cluster together above the default
	// similarity threshold.
	for i := 0; i < 3; i++ {
		if _, err := repo.Create(ctx, memory.CreateOptions{
			Content:     "the retry loop backs off exponentially on timeout",
			ContextName: "default", MemoryType: memory.TypeInsight, Tags: []string{"retry"},
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	c := NewConsolidator(repo)
	result, err := c.Consolidate(ctx, Options{TagFilter: "retry"})
	if err != nil {
		t.Fatalf("consolidate: %v", err)
	}

	if result.PatternsCreated != 1 {
		t.Fatalf("expected exactly one new pattern, got %+v", result)
	}
	if result.MemoriesLinked != 3 {
		t.Errorf("expected all 3 cluster members linked, got %d", result.MemoriesLinked)
	}
	if len(result.Details) != 1 {
		t.Fatalf("expected one pattern detail, got %v", result.Details)
	}
	if result.Details[0].InstanceCount != 3 {
		t.Errorf("expected instance count 3, got %d", result.Details[0].InstanceCount)
	}

	stats, err := repo.GetStats(ctx)
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if stats.TotalPatterns != 1 {
		t.Errorf("expected 1 pattern stored, got %d", stats.TotalPatterns)
	}
}

func TestConsolidateSecondRunLinksToExistingPattern(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := repo.Create(ctx, memory.CreateOptions{
			Content:     "connection pool exhaustion under bursty load",
			ContextName: "default", MemoryType: memory.TypeFailure, Tags: []string{"pool"},
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	c := NewConsolidator(repo)
	first, err := c.Consolidate(ctx, Options{TagFilter: "pool"})
	if err != nil {
		t.Fatalf("first consolidate: %v", err)
	}
	if first.PatternsCreated != 1 {
		t.Fatalf("expected the first run to create a pattern, got %+v", first)
	}

	for i := 0; i < 3; i++ {
		if _, err := repo.Create(ctx, memory.CreateOptions{
			Content:     "connection pool exhaustion under bursty load",
			ContextName: "default", MemoryType: memory.TypeFailure, Tags: []string{"pool"},
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	second, err := c.Consolidate(ctx, Options{TagFilter: "pool"})
	if err != nil {
		t.Fatalf("second consolidate: %v", err)
	}
	if second.PatternsFound != 1 {
		t.Errorf("expected the second run to link to the existing pattern instead of creating a new one, got %+v", second)
	}
	if second.PatternsCreated != 0 {
		t.Errorf("expected no new pattern on the second run, got %+v", second)
	}
}

func TestConsolidateRerunOverUnchangedCorpusLeavesInstanceCountUnchanged(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := repo.Create(ctx, memory.CreateOptions{
			Content:     "database migration left an orphaned index behind",
			ContextName: "default", MemoryType: memory.TypeInsight, Tags: []string{"migration"},
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	c := NewConsolidator(repo)
	first, err := c.Consolidate(ctx, Options{TagFilter: "migration"})
	if err != nil {
		t.Fatalf("first consolidate: %v", err)
	}
	if first.PatternsCreated != 1 || first.Details[0].InstanceCount != 3 {
		t.Fatalf("expected the first run to create a pattern with 3 instances, got %+v", first)
	}
	patternID := first.Details[0].PatternID

	// Re-run over the exact same corpus: no new memories, same tag filter.
	second, err := c.Consolidate(ctx, Options{TagFilter: "migration"})
	if err != nil {
		t.Fatalf("second consolidate: %v", err)
	}
	if second.PatternsCreated != 0 {
		t.Errorf("expected no new pattern on an unchanged rerun, got %+v", second)
	}

	vec, err := repo.EmbedText(ctx, "database migration left an orphaned index behind")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	matches, err := repo.SearchSimilarPatterns(ctx, vec, 1, 0)
	if err != nil {
		t.Fatalf("search similar patterns: %v", err)
	}
	if len(matches) != 1 || matches[0].Pattern.ID != patternID {
		t.Fatalf("expected to find the same pattern, got %+v", matches)
	}
	if matches[0].Pattern.InstanceCount != 3 {
		t.Errorf("expected instance_count to stay at 3 after a rerun over the same corpus, got %d", matches[0].Pattern.InstanceCount)
	}
}

func TestConsolidateDefaultsUsedWhenUnset(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := repo.Create(ctx, memory.CreateOptions{
			Content:     "flaky test retried until it passed",
			ContextName: "default", Tags: []string{"ci"},
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	c := NewConsolidator(repo)
	result, err := c.Consolidate(ctx, Options{TagFilter: "ci", MinClusterSize: 0, SimilarityThreshold: 0})
	if err != nil {
		t.Fatalf("consolidate: %v", err)
	}
	if result.PatternsCreated != 1 {
		t.Errorf("expected defaults (min size 3, threshold 0.7) to still cluster identical content, got %+v", result)
	}
}

func TestFindClustersGroupsAboveThreshold(t *testing.T) {
	a := &memory.Memory{ID: "a", Embedding: []float32{1, 0}}
	b := &memory.Memory{ID: "b", Embedding: []float32{1, 0}}
	c := &memory.Memory{ID: "c", Embedding: []float32{1, 0}}
	unrelated := &memory.Memory{ID: "d", Embedding: []float32{0, 1}}

	clusters := findClusters([]*memory.Memory{a, b, c, unrelated}, 0.99, 3)
	if len(clusters) != 1 {
		t.Fatalf("expected exactly one cluster, got %d", len(clusters))
	}
	if len(clusters[0]) != 3 {
		t.Errorf("expected the cluster to contain the 3 identical-direction vectors, got %d", len(clusters[0]))
	}
}

func TestFindClustersBelowMinSizeIsDropped(t *testing.T) {
	a := &memory.Memory{ID: "a", Embedding: []float32{1, 0}}
	b := &memory.Memory{ID: "b", Embedding: []float32{1, 0}}

	clusters := findClusters([]*memory.Memory{a, b}, 0.99, 3)
	if len(clusters) != 0 {
		t.Errorf("expected a 2-member cluster below min size 3 to be dropped, got %v", clusters)
	}
}

func TestSynthesizeContentIncludesDominantTypeAndCommonTags(t *testing.T) {
	cluster := []*memory.Memory{
		{ID: "a", Summary: "first", MemoryType: memory.TypeFailure, Tags: []string{"timeout"}},
		{ID: "b", Summary: "second", MemoryType: memory.TypeFailure, Tags: []string{"timeout"}},
		{ID: "c", Summary: "third", MemoryType: memory.TypeNote, Tags: []string{"other"}},
	}

	content := synthesizeContent(cluster)
	testutil.AssertStringContains(t, content, "Pattern extracted from 3 memories")
	testutil.AssertStringContains(t, content, "Dominant type: failure")
	testutil.AssertStringContains(t, content, "timeout")
	testutil.AssertStringContains(t, content, "1. first")
}

func TestSynthesizeContentEmptyClusterReturnsEmptyString(t *testing.T) {
	if got := synthesizeContent(nil); got != "" {
		t.Errorf("expected an empty string for an empty cluster, got %q", got)
	}
}
