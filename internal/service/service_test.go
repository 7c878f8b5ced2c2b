package service

import (
	"context"
	"testing"

	"github.com/exocortex-go/exocortex/internal/analysis"
	"github.com/exocortex-go/exocortex/internal/embedding"
	"github.com/exocortex-go/exocortex/internal/memory"
	"github.com/exocortex-go/exocortex/internal/testutil"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st := testutil.NewTestStore(t)
	repo := memory.NewRepository(st, embedding.NewHashEmbedder(64))
	return New(repo, analysis.DefaultThresholds(), 0, 0)
}

func TestStoreValidatesEmptyContent(t *testing.T) {
	s := newTestService(t)
	_, err := s.Store(context.Background(), StoreOptions{Content: "  ", ContextName: "default"})
	if _, ok := err.(*memory.ErrValidation); !ok {
		t.Fatalf("expected *memory.ErrValidation for empty content, got %v", err)
	}
}

func TestStoreValidatesEmptyContextName(t *testing.T) {
	s := newTestService(t)
	_, err := s.Store(context.Background(), StoreOptions{Content: "something happened", ContextName: ""})
	if _, ok := err.(*memory.ErrValidation); !ok {
		t.Fatalf("expected *memory.ErrValidation for empty context name, got %v", err)
	}
}

func TestStoreValidatesTagLimit(t *testing.T) {
	s := newTestService(t)
	tags := make([]string, DefaultMaxTags+1)
	for i := range tags {
		tags[i] = "tag"
	}
	_, err := s.Store(context.Background(), StoreOptions{Content: "content", ContextName: "default", Tags: tags})
	if _, ok := err.(*memory.ErrValidation); !ok {
		t.Fatalf("expected *memory.ErrValidation for too many tags, got %v", err)
	}
}

func TestStoreDerivesTimeCostFromFrustrationWhenUnset(t *testing.T) {
	s := newTestService(t)
	result, err := s.Store(context.Background(), StoreOptions{
		Content: "spent 6 hours stuck on a terrible bug", ContextName: "default",
	})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	got, err := s.Get(context.Background(), result.MemoryID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TimeCostHours == nil || *got.TimeCostHours != 6 {
		t.Errorf("expected time cost hours derived from frustration analysis (6), got %v", got.TimeCostHours)
	}
}

func TestStoreAutoAnalyzePopulatesInsightsOnNearDuplicate(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	content := "the cache invalidation bug resurfaced after the migration"
	if _, err := s.Store(ctx, StoreOptions{Content: content, ContextName: "default", MemoryType: memory.TypeFailure}); err != nil {
		t.Fatalf("store first: %v", err)
	}

	result, err := s.Store(ctx, StoreOptions{Content: content, ContextName: "default", MemoryType: memory.TypeFailure, AutoAnalyze: true})
	if err != nil {
		t.Fatalf("store second: %v", err)
	}

	found := false
	for _, in := range result.Insights {
		if in.InsightType == "potential_duplicate" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an auto-analyze insight flagging the duplicate, got %+v", result.Insights)
	}
}

func TestRecallTouchesReturnedMemories(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	stored, err := s.Store(ctx, StoreOptions{Content: "notes on the deploy pipeline", ContextName: "default"})
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	before, err := s.Get(ctx, stored.MemoryID)
	if err != nil {
		t.Fatalf("get before: %v", err)
	}

	if _, err := s.Recall(ctx, RecallOptions{Query: "notes on the deploy pipeline", Limit: 5, TouchOnRecall: true}); err != nil {
		t.Fatalf("recall: %v", err)
	}

	after, err := s.Get(ctx, stored.MemoryID)
	if err != nil {
		t.Fatalf("get after: %v", err)
	}
	if after.AccessCount <= before.AccessCount {
		t.Errorf("expected access count to increase after a touching recall, before=%d after=%d", before.AccessCount, after.AccessCount)
	}
}

func TestListPaginatesWithHasMore(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := s.Store(ctx, StoreOptions{Content: "an entry", ContextName: "default"}); err != nil {
			t.Fatalf("store: %v", err)
		}
	}

	page, err := s.List(ctx, ListOptions{Limit: 2, Offset: 0})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Memories) != 2 {
		t.Errorf("expected 2 memories on the first page, got %d", len(page.Memories))
	}
	if !page.HasMore {
		t.Error("expected has_more true with a third memory outstanding")
	}

	last, err := s.List(ctx, ListOptions{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(last.Memories) != 1 {
		t.Errorf("expected 1 memory on the last page, got %d", len(last.Memories))
	}
	if last.HasMore {
		t.Error("expected has_more false on the last page")
	}
}

func TestLinkAndUnlink(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	a, err := s.Store(ctx, StoreOptions{Content: "memory a", ContextName: "default"})
	if err != nil {
		t.Fatalf("store a: %v", err)
	}
	b, err := s.Store(ctx, StoreOptions{Content: "memory b", ContextName: "default"})
	if err != nil {
		t.Fatalf("store b: %v", err)
	}

	if _, err := s.Link(ctx, a.MemoryID, b.MemoryID, memory.RelationRelated, "testing"); err != nil {
		t.Fatalf("link: %v", err)
	}

	removed, err := s.Unlink(ctx, a.MemoryID, b.MemoryID)
	if err != nil {
		t.Fatalf("unlink: %v", err)
	}
	if !removed {
		t.Error("expected unlink to report the edge was removed")
	}
}

func TestDeleteRemovesMemory(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	stored, err := s.Store(ctx, StoreOptions{Content: "disposable", ContextName: "default"})
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	ok, err := s.Delete(ctx, stored.MemoryID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !ok {
		t.Error("expected delete to report success")
	}

	got, err := s.Get(ctx, stored.MemoryID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil after delete, got %+v", got)
	}
}

func TestAnalyzeKnowledgeOnEmptyRepoIsPerfectScore(t *testing.T) {
	s := newTestService(t)
	result, err := s.AnalyzeKnowledge(context.Background())
	if err != nil {
		t.Fatalf("analyze knowledge: %v", err)
	}
	if result.HealthScore != 100.0 {
		t.Errorf("expected a perfect score for an empty repository, got %f", result.HealthScore)
	}
}

func TestStatsReflectsStoredMemories(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if _, err := s.Store(ctx, StoreOptions{Content: "a", ContextName: "default", MemoryType: memory.TypeNote}); err != nil {
		t.Fatalf("store: %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalMemories != 1 {
		t.Errorf("expected 1 total memory, got %d", stats.TotalMemories)
	}
}
