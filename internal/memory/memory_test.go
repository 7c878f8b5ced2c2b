package memory

import (
	"context"
	"testing"

	"github.com/exocortex-go/exocortex/internal/embedding"
	"github.com/exocortex-go/exocortex/internal/testutil"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	st := testutil.NewTestStore(t)
	return NewRepository(st, embedding.NewHashEmbedder(64))
}

func mustCreate(t *testing.T, r *Repository, content string, opts CreateOptions) *CreateResult {
	t.Helper()
	opts.Content = content
	res, err := r.Create(context.Background(), opts)
	if err != nil {
		t.Fatalf("create %q: %v", content, err)
	}
	return res
}
