package memory

import (
	"context"
	"database/sql"
	"sort"

	"github.com/exocortex-go/exocortex/internal/embedding"
	"github.com/google/uuid"
)

// PatternConfidenceIncrement is how much Pattern.confidence rises each
// time a new memory is linked to it, capped at PatternConfidenceCap.
const (
	PatternConfidenceIncrement = 0.05
	PatternConfidenceCap       = 0.9
)

// PatternMatch pairs a pattern with its similarity to a query embedding.
type PatternMatch struct {
	Pattern    *Pattern
	Similarity float64
}

// CreatePattern inserts a new Pattern synthesized from a memory cluster.
func (r *Repository) CreatePattern(ctx context.Context, content string, confidence float64) (*Pattern, error) {
	id := uuid.NewString()
	summary := GenerateSummary(content, DefaultMaxSummaryLength)
	vec, err := r.embedder.Embed(ctx, content)
	if err != nil {
		return nil, &ErrStorage{Op: "create_pattern:embed", Err: err}
	}

	wh, err := r.store.AcquireWrite(ctx)
	if err != nil {
		return nil, wrapLockErr(err)
	}
	defer wh.Release()

	ts := now()
	_, err = wh.DB().ExecContext(ctx, `INSERT INTO patterns
		(id, content, summary, embedding, confidence, instance_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		id, content, summary, encodeEmbedding(vec), confidence, formatTime(ts), formatTime(ts))
	if err != nil {
		return nil, &ErrStorage{Op: "create_pattern:insert", Err: err}
	}

	return &Pattern{ID: id, Content: content, Summary: summary, Embedding: vec,
		Confidence: confidence, CreatedAt: ts, UpdatedAt: ts}, nil
}

// SearchSimilarPatterns finds the patterns most similar to a query
// embedding among those with confidence >= minConfidence. Patterns are
// few enough that a linear scan is sufficient — no vec0 index backs them.
func (r *Repository) SearchSimilarPatterns(ctx context.Context, vec []float32, limit int, minConfidence float64) ([]PatternMatch, error) {
	rows, err := r.store.ReadDB().QueryContext(ctx, `SELECT id, content, summary, embedding, confidence, instance_count, created_at, updated_at
		FROM patterns WHERE confidence >= ?`, minConfidence)
	if err != nil {
		return nil, &ErrStorage{Op: "search_patterns", Err: err}
	}
	defer rows.Close()

	var all []PatternMatch
	for rows.Next() {
		p, sim, err := scanPatternWithSimilarity(rows, vec)
		if err != nil {
			return nil, &ErrStorage{Op: "search_patterns:scan", Err: err}
		}
		all = append(all, PatternMatch{Pattern: p, Similarity: sim})
	}
	if err := rows.Err(); err != nil {
		return nil, &ErrStorage{Op: "search_patterns:rows", Err: err}
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Similarity > all[j].Similarity })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func scanPatternWithSimilarity(rows *sql.Rows, query []float32) (*Pattern, float64, error) {
	var id, content, summary, createdAt, updatedAt string
	var embeddingBlob []byte
	var confidence float64
	var instanceCount int
	if err := rows.Scan(&id, &content, &summary, &embeddingBlob, &confidence, &instanceCount, &createdAt, &updatedAt); err != nil {
		return nil, 0, err
	}
	vec := decodeEmbedding(embeddingBlob)
	p := &Pattern{
		ID: id, Content: content, Summary: summary, Embedding: vec,
		Confidence: confidence, InstanceCount: instanceCount,
		CreatedAt: mustParseTime(createdAt), UpdatedAt: mustParseTime(updatedAt),
	}
	return p, embedding.Cosine(query, vec), nil
}

// LinkMemoryToPattern creates an INSTANCE_OF edge and, only the first
// time a given (memoryID, patternID) pair is linked, bumps the pattern's
// own confidence by PatternConfidenceIncrement (capped at
// PatternConfidenceCap) and its instance_count by one. Re-linking an
// already-linked pair — e.g. a consolidator re-run over an unchanged
// corpus — replaces the edge row (refreshing edgeConfidence/created_at)
// without moving the counters again, keeping instance_count equal to the
// number of distinct live INSTANCE_OF edges.
func (r *Repository) LinkMemoryToPattern(ctx context.Context, memoryID, patternID string, edgeConfidence float64) error {
	wh, err := r.store.AcquireWrite(ctx)
	if err != nil {
		return wrapLockErr(err)
	}
	defer wh.Release()
	tx, err := wh.DB().BeginTx(ctx, nil)
	if err != nil {
		return &ErrStorage{Op: "link_to_pattern:begin", Err: err}
	}
	defer tx.Rollback()

	var alreadyLinked bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(
		SELECT 1 FROM memory_instance_of WHERE memory_id = ? AND pattern_id = ?)`,
		memoryID, patternID).Scan(&alreadyLinked); err != nil {
		return &ErrStorage{Op: "link_to_pattern:check_existing", Err: err}
	}

	ts := now()
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO memory_instance_of
		(memory_id, pattern_id, confidence, created_at) VALUES (?, ?, ?, ?)`,
		memoryID, patternID, edgeConfidence, formatTime(ts)); err != nil {
		return &ErrStorage{Op: "link_to_pattern:insert", Err: err}
	}

	if !alreadyLinked {
		if _, err := tx.ExecContext(ctx, `UPDATE patterns SET
			instance_count = instance_count + 1,
			confidence = MIN(?, confidence + ?),
			updated_at = ?
			WHERE id = ?`, PatternConfidenceCap, PatternConfidenceIncrement, formatTime(ts), patternID); err != nil {
			return &ErrStorage{Op: "link_to_pattern:bump_confidence", Err: err}
		}
	}

	return tx.Commit()
}

// GetMemoriesByTag returns memories tagged with tag, newest first.
func (r *Repository) GetMemoriesByTag(ctx context.Context, tag string, limit int) ([]*Memory, error) {
	return r.queryMemories(ctx, selectByTagQuery, tag, limit)
}

// GetFrequentlyAccessedMemories returns memories with access_count at
// or above minAccessCount, most-accessed first.
func (r *Repository) GetFrequentlyAccessedMemories(ctx context.Context, minAccessCount, limit int) ([]*Memory, error) {
	return r.queryMemories(ctx, selectByAccessCountQuery, minAccessCount, limit)
}
