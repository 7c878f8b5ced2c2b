package memory

import (
	"context"
	"testing"
)

func TestCreateLinkAndGetLinks(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	a := mustCreate(t, r, "memory a", CreateOptions{ContextName: "default"})
	b := mustCreate(t, r, "memory b", CreateOptions{ContextName: "default"})

	edge, err := r.CreateLink(ctx, a.ID, b.ID, RelationExtends, "b builds on a")
	if err != nil {
		t.Fatalf("create link: %v", err)
	}
	if edge.Source != a.ID || edge.Target != b.ID || edge.RelationType != RelationExtends {
		t.Errorf("unexpected edge: %+v", edge)
	}

	outgoing, err := r.GetLinks(ctx, a.ID)
	if err != nil {
		t.Fatalf("get links: %v", err)
	}
	if len(outgoing) != 1 || outgoing[0].Target != b.ID {
		t.Errorf("expected one outgoing edge to b, got %+v", outgoing)
	}

	incoming, err := r.GetIncomingLinks(ctx, b.ID, "")
	if err != nil {
		t.Fatalf("get incoming links: %v", err)
	}
	if len(incoming) != 1 || incoming[0].Source != a.ID {
		t.Errorf("expected one incoming edge from a, got %+v", incoming)
	}
}

func TestCreateLinkRejectsSelfLink(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	a := mustCreate(t, r, "memory a", CreateOptions{ContextName: "default"})

	_, err := r.CreateLink(ctx, a.ID, a.ID, RelationRelated, "")
	if _, ok := err.(*ErrSelfLink); !ok {
		t.Fatalf("expected *ErrSelfLink, got %T: %v", err, err)
	}
}

func TestCreateLinkRejectsMissingEndpoints(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	a := mustCreate(t, r, "memory a", CreateOptions{ContextName: "default"})

	_, err := r.CreateLink(ctx, a.ID, "does-not-exist", RelationRelated, "")
	if _, ok := err.(*ErrNotFound); !ok {
		t.Fatalf("expected *ErrNotFound for missing target, got %T: %v", err, err)
	}

	_, err = r.CreateLink(ctx, "does-not-exist", a.ID, RelationRelated, "")
	if _, ok := err.(*ErrNotFound); !ok {
		t.Fatalf("expected *ErrNotFound for missing source, got %T: %v", err, err)
	}
}

func TestCreateLinkRejectsDuplicate(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	a := mustCreate(t, r, "memory a", CreateOptions{ContextName: "default"})
	b := mustCreate(t, r, "memory b", CreateOptions{ContextName: "default"})

	if _, err := r.CreateLink(ctx, a.ID, b.ID, RelationRelated, ""); err != nil {
		t.Fatalf("first link: %v", err)
	}

	_, err := r.CreateLink(ctx, a.ID, b.ID, RelationContradicts, "")
	dup, ok := err.(*ErrDuplicateLink)
	if !ok {
		t.Fatalf("expected *ErrDuplicateLink, got %T: %v", err, err)
	}
	if dup.ExistingRelation != RelationRelated {
		t.Errorf("expected existing relation 'related', got %q", dup.ExistingRelation)
	}
}

func TestDeleteLink(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	a := mustCreate(t, r, "memory a", CreateOptions{ContextName: "default"})
	b := mustCreate(t, r, "memory b", CreateOptions{ContextName: "default"})

	if _, err := r.CreateLink(ctx, a.ID, b.ID, RelationRelated, ""); err != nil {
		t.Fatalf("create link: %v", err)
	}

	ok, err := r.DeleteLink(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("delete link: %v", err)
	}
	if !ok {
		t.Error("expected delete link to report true")
	}

	links, err := r.GetLinks(ctx, a.ID)
	if err != nil {
		t.Fatalf("get links: %v", err)
	}
	if len(links) != 0 {
		t.Errorf("expected no outgoing links after delete, got %+v", links)
	}
}

func TestDeleteLinkAbsentReturnsFalse(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	a := mustCreate(t, r, "memory a", CreateOptions{ContextName: "default"})
	b := mustCreate(t, r, "memory b", CreateOptions{ContextName: "default"})

	ok, err := r.DeleteLink(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected deleting a nonexistent link to report false")
	}
}
