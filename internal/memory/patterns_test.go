package memory

import (
	"context"
	"testing"
)

func TestLinkMemoryToPatternBumpsConfidenceAndCountOnce(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	res := mustCreate(t, r, "retry with exponential backoff", CreateOptions{ContextName: "default"})
	pattern, err := r.CreatePattern(ctx, "retries back off exponentially", 0.5)
	if err != nil {
		t.Fatalf("create pattern: %v", err)
	}

	if err := r.LinkMemoryToPattern(ctx, res.ID, pattern.ID, 0.6); err != nil {
		t.Fatalf("link: %v", err)
	}

	matches, err := r.SearchSimilarPatterns(ctx, pattern.Embedding, 1, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 pattern, got %d", len(matches))
	}
	if matches[0].Pattern.InstanceCount != 1 {
		t.Fatalf("expected instance_count 1 after first link, got %d", matches[0].Pattern.InstanceCount)
	}
	wantConfidence := 0.5 + PatternConfidenceIncrement
	if matches[0].Pattern.Confidence != wantConfidence {
		t.Fatalf("expected confidence %f after first link, got %f", wantConfidence, matches[0].Pattern.Confidence)
	}

	// Re-linking the same (memory, pattern) pair must not move the
	// counters again — it's the same edge, not a new instance.
	if err := r.LinkMemoryToPattern(ctx, res.ID, pattern.ID, 0.9); err != nil {
		t.Fatalf("re-link: %v", err)
	}

	matches, err = r.SearchSimilarPatterns(ctx, pattern.Embedding, 1, 0)
	if err != nil {
		t.Fatalf("search after re-link: %v", err)
	}
	if matches[0].Pattern.InstanceCount != 1 {
		t.Errorf("expected instance_count to stay at 1 after re-linking the same pair, got %d", matches[0].Pattern.InstanceCount)
	}
	if matches[0].Pattern.Confidence != wantConfidence {
		t.Errorf("expected confidence to stay at %f after re-linking the same pair, got %f", wantConfidence, matches[0].Pattern.Confidence)
	}
}

func TestLinkMemoryToPatternDifferentMemoriesEachBumpOnce(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	a := mustCreate(t, r, "first memory in the cluster", CreateOptions{ContextName: "default"})
	b := mustCreate(t, r, "second memory in the cluster", CreateOptions{ContextName: "default"})
	pattern, err := r.CreatePattern(ctx, "memories in a cluster", 0.5)
	if err != nil {
		t.Fatalf("create pattern: %v", err)
	}

	if err := r.LinkMemoryToPattern(ctx, a.ID, pattern.ID, 0.6); err != nil {
		t.Fatalf("link a: %v", err)
	}
	if err := r.LinkMemoryToPattern(ctx, b.ID, pattern.ID, 0.6); err != nil {
		t.Fatalf("link b: %v", err)
	}

	matches, err := r.SearchSimilarPatterns(ctx, pattern.Embedding, 1, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if matches[0].Pattern.InstanceCount != 2 {
		t.Errorf("expected instance_count 2 after linking two distinct memories, got %d", matches[0].Pattern.InstanceCount)
	}
}
