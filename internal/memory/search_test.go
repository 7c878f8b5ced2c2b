package memory

import (
	"context"
	"testing"
)

func TestSearchBySimilarityFindsRelevantResult(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	mustCreate(t, r, "the deploy pipeline kept failing on flaky integration tests", CreateOptions{ContextName: "default"})
	mustCreate(t, r, "a recipe for lemon and thyme roast chicken", CreateOptions{ContextName: "default"})

	results, total, err := r.SearchBySimilarity(ctx, SearchOptions{Query: "flaky integration tests in the deploy pipeline", K: 5})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total == 0 {
		t.Fatal("expected at least one result")
	}
	if len(results) == 0 {
		t.Fatal("expected materialized results")
	}
	if results[0].Content == "" {
		t.Error("expected the top result to have content")
	}
}

func TestSearchBySimilarityContextFilter(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	mustCreate(t, r, "notes about the database migration", CreateOptions{ContextName: "infra"})
	mustCreate(t, r, "notes about the database migration", CreateOptions{ContextName: "backend"})

	results, _, err := r.SearchBySimilarity(ctx, SearchOptions{
		Query: "notes about the database migration", K: 10,
		Filters: SearchFilters{ContextFilter: "infra"},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, m := range results {
		if m.ContextName != "infra" {
			t.Errorf("expected only 'infra' context results, got %q", m.ContextName)
		}
	}
}

func TestSearchBySimilarityTagFilter(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	mustCreate(t, r, "an observation about caching", CreateOptions{ContextName: "default", Tags: []string{"cache"}})
	mustCreate(t, r, "an observation about caching", CreateOptions{ContextName: "default", Tags: []string{"other"}})

	results, _, err := r.SearchBySimilarity(ctx, SearchOptions{
		Query: "an observation about caching", K: 10,
		Filters: SearchFilters{TagFilter: "cache"},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, m := range results {
		found := false
		for _, tag := range m.Tags {
			if tag == "cache" {
				found = true
			}
		}
		if !found {
			t.Errorf("expected every result to carry the 'cache' tag, got %v", m.Tags)
		}
	}
}

func TestApplyHybridRerankFavorsRecentFrequentlyAccessed(t *testing.T) {
	older := &Memory{ID: "old", Similarity: 0.9, CreatedAt: now().AddDate(0, 0, -365), AccessCount: 1}
	newer := &Memory{ID: "new", Similarity: 0.89, CreatedAt: now(), AccessCount: 50}

	memories := []*Memory{older, newer}
	applyHybridRerank(memories)

	if memories[0].ID != "new" {
		t.Errorf("expected the recent, frequently-accessed memory to rank first, got order %v", []string{memories[0].ID, memories[1].ID})
	}
}
