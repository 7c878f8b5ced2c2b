package memory

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/exocortex-go/exocortex/internal/store"
	"github.com/google/uuid"
)

// CreateOptions is the input to Create.
type CreateOptions struct {
	Content         string
	ContextName     string
	Tags            []string
	MemoryType      Type
	FrustrationScore float64
	TimeCostHours   *float64
	MaxSummaryLen   int
}

// CreateResult is the output of Create.
type CreateResult struct {
	ID        string
	Summary   string
	Embedding []float32
}

// Create writes a new Memory node and its ORIGINATED_IN/TAGGED_WITH
// edges. The write lock is acquired and released within this call.
func (r *Repository) Create(ctx context.Context, opts CreateOptions) (*CreateResult, error) {
	if opts.MemoryType == "" {
		opts.MemoryType = TypeNote
	}

	id := uuid.NewString()
	summary := GenerateSummary(opts.Content, opts.MaxSummaryLen)
	vec, err := r.embedder.Embed(ctx, opts.Content)
	if err != nil {
		return nil, &ErrStorage{Op: "embed", Err: err}
	}

	wh, err := r.store.AcquireWrite(ctx)
	if err != nil {
		return nil, wrapLockErr(err)
	}
	defer wh.Release()
	db := wh.DB()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &ErrStorage{Op: "create:begin", Err: err}
	}
	defer tx.Rollback()

	ts := now()

	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO contexts (name, created_at) VALUES (?, ?)`,
		opts.ContextName, formatTime(ts)); err != nil {
		return nil, &ErrStorage{Op: "create:context", Err: err}
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO memories
		(id, content, summary, embedding, memory_type, context_name, created_at, updated_at,
		 last_accessed_at, access_count, decay_rate, frustration_score, time_cost_hours)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, 0.1, ?, ?)`,
		id, opts.Content, summary, encodeEmbedding(vec), string(opts.MemoryType), opts.ContextName,
		formatTime(ts), formatTime(ts), formatTime(ts), opts.FrustrationScore, opts.TimeCostHours)
	if err != nil {
		return nil, &ErrStorage{Op: "create:memory", Err: err}
	}

	if err := upsertTagsTx(ctx, tx, id, opts.Tags, ts); err != nil {
		return nil, err
	}

	if err := upsertVectorTx(ctx, tx, id, vec); err != nil {
		log.Warn("vec0 insert failed, linear-scan fallback will cover this memory", "error", err, "memory_id", id)
	}

	if err := tx.Commit(); err != nil {
		return nil, &ErrStorage{Op: "create:commit", Err: err}
	}

	return &CreateResult{ID: id, Summary: summary, Embedding: vec}, nil
}

func upsertTagsTx(ctx context.Context, tx *sql.Tx, memoryID string, tags []string, ts time.Time) error {
	seen := make(map[string]bool)
	for _, raw := range tags {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO tags (name, created_at) VALUES (?, ?)`,
			tag, formatTime(ts)); err != nil {
			return &ErrStorage{Op: "create:tag", Err: err}
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO memory_tags (memory_id, tag_name) VALUES (?, ?)`,
			memoryID, tag); err != nil {
			return &ErrStorage{Op: "create:memory_tag", Err: err}
		}
	}
	return nil
}

func wrapLockErr(err error) error {
	if lt, ok := err.(*store.ErrLockTimeout); ok {
		return &ErrLockTimeout{Attempts: lt.Attempts}
	}
	return &ErrStorage{Op: "acquire_write", Err: err}
}

// GetByID returns the full memory with tags, or (nil, nil) if absent —
// the absence convention used throughout this package.
func (r *Repository) GetByID(ctx context.Context, id string) (*Memory, error) {
	row := r.store.ReadDB().QueryRowContext(ctx, selectMemoryByIDQuery, id)
	m, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &ErrStorage{Op: "get_by_id", Err: err}
	}
	tags, err := r.tagsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Tags = tags
	return m, nil
}

func (r *Repository) tagsFor(ctx context.Context, id string) ([]string, error) {
	rows, err := r.store.ReadDB().QueryContext(ctx, selectTagsForMemoryQuery, id)
	if err != nil {
		return nil, &ErrStorage{Op: "tags_for", Err: err}
	}
	defer rows.Close()
	var tags []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, &ErrStorage{Op: "tags_for:scan", Err: err}
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// Touch sets last_accessed_at = now and increments access_count.
// Idempotent on absent ids: affecting zero rows is not an error.
func (r *Repository) Touch(ctx context.Context, id string) error {
	wh, err := r.store.AcquireWrite(ctx)
	if err != nil {
		return wrapLockErr(err)
	}
	defer wh.Release()

	_, err = wh.DB().ExecContext(ctx, `UPDATE memories SET
		access_count = COALESCE(access_count, 0) + 1,
		last_accessed_at = ?
		WHERE id = ?`, formatTime(now()), id)
	if err != nil {
		return &ErrStorage{Op: "touch", Err: err}
	}
	return nil
}

// TouchMany touches every id and returns the count successfully touched.
// touch_many([]) returns 0 and performs no writes.
func (r *Repository) TouchMany(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	count := 0
	for _, id := range ids {
		if err := r.Touch(ctx, id); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// UpdateOptions is the input to Update.
type UpdateOptions struct {
	Content       *string
	Tags          []string // nil means "leave unchanged"; non-nil (incl. empty) replaces
	MemoryType    *Type
	MaxSummaryLen int
}

// UpdateResult reports what changed.
type UpdateResult struct {
	Success bool     `json:"success"`
	Changed []string `json:"changed"`
	Summary string   `json:"summary"`
}

// Update edits a memory. If Content is set, this performs a
// preserve-identity delete-and-recreate rewrite, because the vector
// index forbids in-place embedding mutation. Otherwise it updates
// memory_type and/or tags in place.
func (r *Repository) Update(ctx context.Context, id string, opts UpdateOptions) (*UpdateResult, error) {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, &ErrNotFound{ID: id}
	}

	if opts.Content != nil {
		return r.updateWithContentRewrite(ctx, existing, *opts.Content, opts)
	}
	return r.updateInPlace(ctx, existing, opts)
}

func (r *Repository) updateInPlace(ctx context.Context, existing *Memory, opts UpdateOptions) (*UpdateResult, error) {
	wh, err := r.store.AcquireWrite(ctx)
	if err != nil {
		return nil, wrapLockErr(err)
	}
	defer wh.Release()
	tx, err := wh.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, &ErrStorage{Op: "update:begin", Err: err}
	}
	defer tx.Rollback()

	var changed []string
	ts := now()
	memType := existing.MemoryType
	if opts.MemoryType != nil {
		memType = *opts.MemoryType
		changed = append(changed, "memory_type")
	}

	if _, err := tx.ExecContext(ctx, `UPDATE memories SET memory_type = ?, updated_at = ? WHERE id = ?`,
		string(memType), formatTime(ts), existing.ID); err != nil {
		return nil, &ErrStorage{Op: "update:memory_type", Err: err}
	}

	if opts.Tags != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM memory_tags WHERE memory_id = ?`, existing.ID); err != nil {
			return nil, &ErrStorage{Op: "update:delete_tags", Err: err}
		}
		if err := upsertTagsTx(ctx, tx, existing.ID, opts.Tags, ts); err != nil {
			return nil, err
		}
		changed = append(changed, "tags")
	}

	if err := tx.Commit(); err != nil {
		return nil, &ErrStorage{Op: "update:commit", Err: err}
	}
	return &UpdateResult{Success: true, Changed: changed, Summary: existing.Summary}, nil
}

func (r *Repository) updateWithContentRewrite(ctx context.Context, existing *Memory, newContent string, opts UpdateOptions) (*UpdateResult, error) {
	outgoing, err := r.GetLinks(ctx, existing.ID)
	if err != nil {
		return nil, err
	}
	incoming, err := r.GetIncomingLinks(ctx, existing.ID, "")
	if err != nil {
		return nil, err
	}

	vec, err := r.embedder.Embed(ctx, newContent)
	if err != nil {
		return nil, &ErrStorage{Op: "update:embed", Err: err}
	}
	summary := GenerateSummary(newContent, opts.MaxSummaryLen)

	tags := existing.Tags
	if opts.Tags != nil {
		tags = opts.Tags
	}
	memType := existing.MemoryType
	if opts.MemoryType != nil {
		memType = *opts.MemoryType
	}

	wh, err := r.store.AcquireWrite(ctx)
	if err != nil {
		return nil, wrapLockErr(err)
	}
	defer wh.Release()
	tx, err := wh.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, &ErrStorage{Op: "update_rewrite:begin", Err: err}
	}
	defer tx.Rollback()

	// Delete incident edges, then the node.
	if _, err := tx.ExecContext(ctx, `DELETE FROM memory_relations WHERE source_id = ? OR target_id = ?`, existing.ID, existing.ID); err != nil {
		return nil, &ErrStorage{Op: "update_rewrite:delete_relations", Err: err}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM memory_tags WHERE memory_id = ?`, existing.ID); err != nil {
		return nil, &ErrStorage{Op: "update_rewrite:delete_tags", Err: err}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, existing.ID); err != nil {
		return nil, &ErrStorage{Op: "update_rewrite:delete_memory", Err: err}
	}
	if err := deleteVectorTx(ctx, tx, existing.ID); err != nil {
		log.Warn("vec0 delete failed during update rewrite", "error", err, "memory_id", existing.ID)
	}

	ts := now()
	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO contexts (name, created_at) VALUES (?, ?)`,
		existing.ContextName, formatTime(ts)); err != nil {
		return nil, &ErrStorage{Op: "update_rewrite:context", Err: err}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO memories
		(id, content, summary, embedding, memory_type, context_name, created_at, updated_at,
		 last_accessed_at, access_count, decay_rate, frustration_score, time_cost_hours)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		existing.ID, newContent, summary, encodeEmbedding(vec), string(memType), existing.ContextName,
		formatTime(existing.CreatedAt), formatTime(ts), nullableTime(existing.LastAccessedAt),
		existing.AccessCount, existing.DecayRate, existing.FrustrationScore, existing.TimeCostHours); err != nil {
		return nil, &ErrStorage{Op: "update_rewrite:insert_memory", Err: err}
	}
	if err := upsertTagsTx(ctx, tx, existing.ID, tags, ts); err != nil {
		return nil, err
	}
	if err := upsertVectorTx(ctx, tx, existing.ID, vec); err != nil {
		log.Warn("vec0 insert failed during update rewrite", "error", err, "memory_id", existing.ID)
	}

	for _, e := range outgoing {
		if _, err := tx.ExecContext(ctx, `INSERT INTO memory_relations (source_id, target_id, relation_type, reason, created_at)
			VALUES (?, ?, ?, ?, ?)`, e.Source, e.Target, string(e.RelationType), e.Reason, formatTime(e.CreatedAt)); err != nil {
			return nil, &ErrStorage{Op: "update_rewrite:restore_outgoing", Err: err}
		}
	}
	for _, e := range incoming {
		if _, err := tx.ExecContext(ctx, `INSERT INTO memory_relations (source_id, target_id, relation_type, reason, created_at)
			VALUES (?, ?, ?, ?, ?)`, e.Source, e.Target, string(e.RelationType), e.Reason, formatTime(e.CreatedAt)); err != nil {
			return nil, &ErrStorage{Op: "update_rewrite:restore_incoming", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, &ErrStorage{Op: "update_rewrite:commit", Err: err}
	}

	return &UpdateResult{Success: true, Changed: []string{"content", "summary", "embedding"}, Summary: summary}, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

// Delete removes a memory and all its incident edges before the node
// itself, so no dangling edge can ever reference a deleted memory.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	wh, err := r.store.AcquireWrite(ctx)
	if err != nil {
		return false, wrapLockErr(err)
	}
	defer wh.Release()
	tx, err := wh.DB().BeginTx(ctx, nil)
	if err != nil {
		return false, &ErrStorage{Op: "delete:begin", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM memory_relations WHERE source_id = ? OR target_id = ?`, id, id); err != nil {
		return false, &ErrStorage{Op: "delete:relations", Err: err}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM memory_tags WHERE memory_id = ?`, id); err != nil {
		return false, &ErrStorage{Op: "delete:tags", Err: err}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM memory_instance_of WHERE memory_id = ?`, id); err != nil {
		return false, &ErrStorage{Op: "delete:instance_of", Err: err}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return false, &ErrStorage{Op: "delete:memory", Err: err}
	}
	if err := deleteVectorTx(ctx, tx, id); err != nil {
		log.Warn("vec0 delete failed", "error", err, "memory_id", id)
	}
	if err := tx.Commit(); err != nil {
		return false, &ErrStorage{Op: "delete:commit", Err: err}
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// List returns memories ordered newest-first, with simple offset paging.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]*Memory, error) {
	rows, err := r.store.ReadDB().QueryContext(ctx, selectMemoriesPageQuery, limit, offset)
	if err != nil {
		return nil, &ErrStorage{Op: "list", Err: err}
	}
	defer rows.Close()
	var out []*Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, &ErrStorage{Op: "list:scan", Err: err}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
