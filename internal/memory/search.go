package memory

import (
	"context"
	"database/sql"
	"math"
	"sort"

	"github.com/exocortex-go/exocortex/internal/embedding"
)

// Hybrid-scoring constants. These are documented defaults; implementers
// may expose overrides but must default to these values.
const (
	WeightVector      = 0.5
	WeightRecency      = 0.2
	WeightFrequency    = 0.15
	WeightFrustration  = 0.15
	RecencyDecayLambda = 0.01 // per day
)

// SimilarMemory is one row from vector search, before hybrid reranking.
type SimilarMemory struct {
	ID         string
	Summary    string
	Similarity float64
	MemoryType Type
	ContextName string
}

// SearchSimilarByEmbedding is the primary vector-search operation. It
// tries the vec0 index first; on any error it falls back to an
// in-process linear scan that is correctness-equivalent.
func (r *Repository) SearchSimilarByEmbedding(ctx context.Context, vec []float32, k int, excludeID string) ([]SimilarMemory, error) {
	fetchK := k
	if excludeID != "" {
		fetchK += 5
	}

	results, err := r.searchVecIndex(ctx, vec, fetchK, excludeID)
	if err != nil {
		log.Warn("vec0 query failed, falling back to linear scan", "error", err)
		results, err = r.searchLinearScan(ctx, vec, fetchK, excludeID)
		if err != nil {
			return nil, &ErrStorage{Op: "search_similar", Err: err}
		}
	}

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (r *Repository) searchVecIndex(ctx context.Context, vec []float32, fetchK int, excludeID string) ([]SimilarMemory, error) {
	rows, err := r.store.ReadDB().QueryContext(ctx, `
		SELECT mr.memory_id, v.distance
		FROM memory_vec v
		JOIN memory_vec_rowid mr ON mr.rowid_ref = v.rowid
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance ASC`, encodeEmbedding(vec), fetchK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SimilarMemory
	for rows.Next() {
		var id string
		var distance float64
		if err := rows.Scan(&id, &distance); err != nil {
			return nil, err
		}
		if id == excludeID {
			continue
		}
		m, err := r.GetByID(ctx, id)
		if err != nil || m == nil {
			continue
		}
		out = append(out, SimilarMemory{
			ID: id, Summary: m.Summary, Similarity: embedding.ClampSimilarity(1 - distance),
			MemoryType: m.MemoryType, ContextName: m.ContextName,
		})
	}
	return out, rows.Err()
}

func (r *Repository) searchLinearScan(ctx context.Context, vec []float32, fetchK int, excludeID string) ([]SimilarMemory, error) {
	rows, err := r.store.ReadDB().QueryContext(ctx, selectAllMemoriesQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []SimilarMemory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		if m.ID == excludeID {
			continue
		}
		sim := embedding.ClampSimilarity(embedding.Cosine(vec, m.Embedding))
		all = append(all, SimilarMemory{ID: m.ID, Summary: m.Summary, Similarity: sim, MemoryType: m.MemoryType, ContextName: m.ContextName})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Similarity > all[j].Similarity })
	if len(all) > fetchK {
		all = all[:fetchK]
	}
	return all, nil
}

// upsertVectorTx maintains the vec0 index and its rowid→memory_id map.
func upsertVectorTx(ctx context.Context, tx *sql.Tx, memoryID string, vec []float32) error {
	if _, err := deleteVectorTxHelper(ctx, tx, memoryID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO memory_vec (embedding) VALUES (?)`, encodeEmbedding(vec))
	if err != nil {
		return err
	}
	rowid, err := res.LastInsertId()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO memory_vec_rowid (memory_id, rowid_ref) VALUES (?, ?)`, memoryID, rowid)
	return err
}

func deleteVectorTx(ctx context.Context, tx *sql.Tx, memoryID string) error {
	_, err := deleteVectorTxHelper(ctx, tx, memoryID)
	return err
}

func deleteVectorTxHelper(ctx context.Context, tx *sql.Tx, memoryID string) (bool, error) {
	var rowid int64
	err := tx.QueryRowContext(ctx, `SELECT rowid_ref FROM memory_vec_rowid WHERE memory_id = ?`, memoryID).Scan(&rowid)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM memory_vec WHERE rowid = ?`, rowid); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM memory_vec_rowid WHERE memory_id = ?`, memoryID); err != nil {
		return false, err
	}
	return true, nil
}

// SearchFilters narrows SearchBySimilarity candidates after retrieval.
type SearchFilters struct {
	ContextFilter string
	TagFilter     string
	TypeFilter    Type
}

// SearchOptions is the input to SearchBySimilarity.
type SearchOptions struct {
	Query     string
	K         int
	Filters   SearchFilters
	UseHybrid bool
}

// SearchBySimilarity is the high-level search-with-hybrid-scoring
// operation.
func (r *Repository) SearchBySimilarity(ctx context.Context, opts SearchOptions) ([]*Memory, int, error) {
	vec, err := r.embedder.Embed(ctx, opts.Query)
	if err != nil {
		return nil, 0, &ErrStorage{Op: "search:embed", Err: err}
	}

	multiplier := 3
	if opts.UseHybrid {
		multiplier = 5
	}
	fetchK := multiplier*opts.K + 20
	hasFilter := opts.Filters.ContextFilter != "" || opts.Filters.TagFilter != "" || opts.Filters.TypeFilter != ""
	if hasFilter {
		fetchK += 2
	}

	candidates, err := r.SearchSimilarByEmbedding(ctx, vec, fetchK, "")
	if err != nil {
		return nil, 0, err
	}

	var materialized []*Memory
	for _, c := range candidates {
		if opts.Filters.ContextFilter != "" && c.ContextName != opts.Filters.ContextFilter {
			continue
		}
		if opts.Filters.TypeFilter != "" && c.MemoryType != opts.Filters.TypeFilter {
			continue
		}
		m, err := r.GetByID(ctx, c.ID)
		if err != nil || m == nil {
			continue
		}
		if opts.Filters.TagFilter != "" && !containsTag(m.Tags, opts.Filters.TagFilter) {
			continue
		}
		m.Similarity = c.Similarity
		materialized = append(materialized, m)
	}

	if opts.UseHybrid {
		applyHybridRerank(materialized)
	}

	total := len(materialized)
	if len(materialized) > opts.K {
		materialized = materialized[:opts.K]
	}
	return materialized, total, nil
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// applyHybridRerank sorts memories in place by the composite hybrid
// score, overwriting each memory's Similarity field with that score.
func applyHybridRerank(memories []*Memory) {
	if len(memories) == 0 {
		return
	}

	maxAccess := 1
	for _, m := range memories {
		if m.AccessCount > maxAccess {
			maxAccess = m.AccessCount
		}
	}
	lnMaxAccess := math.Log(1 + float64(maxAccess))

	nowT := now()
	scores := make([]float64, len(memories))
	for i, m := range memories {
		sVec := embedding.ClampSimilarity(m.Similarity)

		refTime := m.CreatedAt
		if m.LastAccessedAt != nil {
			refTime = *m.LastAccessedAt
		}
		deltaDays := nowT.Sub(refTime).Hours() / 24
		if deltaDays < 0 {
			deltaDays = 0
		}
		sRecency := math.Exp(-RecencyDecayLambda * deltaDays)

		sFreq := 0.0
		if lnMaxAccess > 0 {
			sFreq = math.Log(1+float64(m.AccessCount)) / lnMaxAccess
		}

		sFrustration := m.FrustrationScore

		scores[i] = WeightVector*sVec + WeightRecency*sRecency + WeightFrequency*sFreq + WeightFrustration*sFrustration
	}

	for i, m := range memories {
		m.Similarity = scores[i]
	}

	sort.SliceStable(memories, func(i, j int) bool {
		if memories[i].Similarity != memories[j].Similarity {
			return memories[i].Similarity > memories[j].Similarity
		}
		return memories[i].CreatedAt.After(memories[j].CreatedAt)
	})
}
