package memory

import (
	"context"
	"testing"
)

func TestCreateAndGetByID(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	res := mustCreate(t, r, "fixed a race in the scheduler", CreateOptions{
		ContextName: "backend", Tags: []string{"Go", "go", " concurrency "}, MemoryType: TypeFailure,
	})

	m, err := r.GetByID(ctx, res.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if m == nil {
		t.Fatal("expected memory, got nil")
	}
	if m.ContextName != "backend" {
		t.Errorf("expected context 'backend', got %q", m.ContextName)
	}
	if m.MemoryType != TypeFailure {
		t.Errorf("expected type failure, got %q", m.MemoryType)
	}
	// tags are lowercased and deduplicated
	if len(m.Tags) != 2 {
		t.Fatalf("expected 2 deduplicated tags, got %v", m.Tags)
	}
}

func TestCreateDefaultsType(t *testing.T) {
	r := newTestRepo(t)
	res := mustCreate(t, r, "a stray observation", CreateOptions{ContextName: "default"})

	m, err := r.GetByID(context.Background(), res.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if m.MemoryType != TypeNote {
		t.Errorf("expected default type note, got %q", m.MemoryType)
	}
}

func TestGetByIDAbsentReturnsNilNil(t *testing.T) {
	r := newTestRepo(t)
	m, err := r.GetByID(context.Background(), "does-not-exist")
	if err != nil {
		t.Fatalf("expected no error for absent id, got %v", err)
	}
	if m != nil {
		t.Errorf("expected nil memory for absent id, got %+v", m)
	}
}

func TestTouchIncrementsAccessCount(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	res := mustCreate(t, r, "something worth recalling", CreateOptions{ContextName: "default"})

	before, _ := r.GetByID(ctx, res.ID)
	if err := r.Touch(ctx, res.ID); err != nil {
		t.Fatalf("touch: %v", err)
	}
	after, _ := r.GetByID(ctx, res.ID)

	if after.AccessCount != before.AccessCount+1 {
		t.Errorf("expected access_count to increment by 1, went from %d to %d", before.AccessCount, after.AccessCount)
	}
	if after.LastAccessedAt == nil {
		t.Error("expected last_accessed_at to be set after touch")
	}
}

func TestTouchAbsentIDIsNotAnError(t *testing.T) {
	r := newTestRepo(t)
	if err := r.Touch(context.Background(), "nope"); err != nil {
		t.Errorf("expected touching an absent id to be a no-op, got %v", err)
	}
}

func TestTouchManyEmptyIsNoop(t *testing.T) {
	r := newTestRepo(t)
	n, err := r.TouchMany(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 touched, got %d", n)
	}
}

func TestUpdateInPlaceChangesTags(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	res := mustCreate(t, r, "the deploy pipeline flakes under load", CreateOptions{
		ContextName: "infra", Tags: []string{"ci"},
	})

	result, err := r.Update(ctx, res.ID, UpdateOptions{Tags: []string{"ci", "flaky"}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !result.Success {
		t.Fatal("expected success")
	}

	m, _ := r.GetByID(ctx, res.ID)
	if len(m.Tags) != 2 {
		t.Errorf("expected 2 tags after update, got %v", m.Tags)
	}
}

func TestUpdateContentRewritePreservesLinksAndID(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	a := mustCreate(t, r, "the old caching layer used LRU eviction", CreateOptions{ContextName: "default"})
	b := mustCreate(t, r, "we replaced it with an LFU policy", CreateOptions{ContextName: "default"})

	if _, err := r.CreateLink(ctx, a.ID, b.ID, RelationEvolvedFrom, "cache policy change"); err != nil {
		t.Fatalf("create link: %v", err)
	}

	newContent := "the old caching layer used LRU eviction, documented for posterity"
	result, err := r.Update(ctx, a.ID, UpdateOptions{Content: &newContent})
	if err != nil {
		t.Fatalf("update with content rewrite: %v", err)
	}
	if !result.Success {
		t.Fatal("expected success")
	}

	m, err := r.GetByID(ctx, a.ID)
	if err != nil || m == nil {
		t.Fatalf("expected memory to still exist at same id: %v", err)
	}
	if m.Content != newContent {
		t.Errorf("expected updated content, got %q", m.Content)
	}

	links, err := r.GetLinks(ctx, a.ID)
	if err != nil {
		t.Fatalf("get links: %v", err)
	}
	if len(links) != 1 || links[0].Target != b.ID {
		t.Errorf("expected the outgoing link to survive the rewrite, got %+v", links)
	}
}

func TestUpdateAbsentIDReturnsErrNotFound(t *testing.T) {
	r := newTestRepo(t)
	_, err := r.Update(context.Background(), "nope", UpdateOptions{Tags: []string{"x"}})
	if _, ok := err.(*ErrNotFound); !ok {
		t.Fatalf("expected *ErrNotFound, got %T: %v", err, err)
	}
}

func TestDeleteRemovesMemoryAndReturnsTrue(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	res := mustCreate(t, r, "a memory destined for deletion", CreateOptions{ContextName: "default"})

	ok, err := r.Delete(ctx, res.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !ok {
		t.Error("expected delete to report true")
	}

	m, err := r.GetByID(ctx, res.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if m != nil {
		t.Error("expected memory to be gone after delete")
	}
}

func TestDeleteAbsentIDReturnsFalse(t *testing.T) {
	r := newTestRepo(t)
	ok, err := r.Delete(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected delete of an absent id to report false")
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	first := mustCreate(t, r, "first memory", CreateOptions{ContextName: "default"})
	second := mustCreate(t, r, "second memory", CreateOptions{ContextName: "default"})

	list, err := r.List(ctx, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 memories, got %d", len(list))
	}
	if list[0].ID != second.ID || list[1].ID != first.ID {
		t.Errorf("expected newest-first order [%s, %s], got [%s, %s]", second.ID, first.ID, list[0].ID, list[1].ID)
	}
}
