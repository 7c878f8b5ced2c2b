package memory

import (
	"context"
	"database/sql"
	"encoding/binary"
	"math"

	"github.com/exocortex-go/exocortex/internal/embedding"
	"github.com/exocortex-go/exocortex/internal/logging"
	"github.com/exocortex-go/exocortex/internal/store"
	"github.com/exocortex-go/exocortex/internal/store/queries"
)

var log = logging.GetLogger("memory")

// Repository is the composable base the CRUD, search, links, graph, and
// stats behavior sets attach methods to. It is a single struct — not a
// mixin hierarchy — implementing each behavior set in its own file.
type Repository struct {
	store    *store.Store
	embedder embedding.Embedder
}

// NewRepository constructs a Repository over an opened store and embedder.
func NewRepository(s *store.Store, e embedding.Embedder) *Repository {
	return &Repository{store: s, embedder: e}
}

// EmbedText exposes the repository's embedder to higher-level packages
// (pattern consolidation) that need to embed synthesized content that
// was never itself stored as a memory.
func (r *Repository) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return r.embedder.Embed(ctx, text)
}

// scanMemory maps one result row into a Memory, using only the named
// column indices from the query catalog.
func scanMemory(row interface{ Scan(...any) error }) (*Memory, error) {
	var (
		id, content, summary, memType, contextName string
		embeddingBlob                              []byte
		createdAt, updatedAt                       string
		lastAccessedAt                              sql.NullString
		accessCount                                 int
		decayRate, frustrationScore                 float64
		timeCostHours                                sql.NullFloat64
	)
	dest := [...]any{
		queries.IdxID: &id, queries.IdxContent: &content, queries.IdxSummary: &summary,
		queries.IdxEmbedding: &embeddingBlob, queries.IdxMemoryType: &memType,
		queries.IdxContextName: &contextName, queries.IdxCreatedAt: &createdAt,
		queries.IdxUpdatedAt: &updatedAt, queries.IdxLastAccessedAt: &lastAccessedAt,
		queries.IdxAccessCount: &accessCount, queries.IdxDecayRate: &decayRate,
		queries.IdxFrustrationScore: &frustrationScore, queries.IdxTimeCostHours: &timeCostHours,
	}
	if err := row.Scan(dest[:]...); err != nil {
		return nil, err
	}

	m := &Memory{
		ID:               id,
		Content:          content,
		Summary:          summary,
		Embedding:        decodeEmbedding(embeddingBlob),
		MemoryType:       Type(memType),
		ContextName:      contextName,
		AccessCount:      accessCount,
		DecayRate:        decayRate,
		FrustrationScore: frustrationScore,
	}
	m.CreatedAt = mustParseTime(createdAt)
	m.UpdatedAt = mustParseTime(updatedAt)
	if lastAccessedAt.Valid {
		t := mustParseTime(lastAccessedAt.String)
		m.LastAccessedAt = &t
	}
	if timeCostHours.Valid {
		v := timeCostHours.Float64
		m.TimeCostHours = &v
	}
	return m, nil
}

func encodeEmbedding(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeEmbedding(buf []byte) []float32 {
	n := len(buf) / 4
	if n == 0 {
		return nil
	}
	vec := make([]float32, n)
	for i := 0; i < n; i++ {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}
