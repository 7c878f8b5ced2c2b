package memory

import (
	"context"
)

// GetStats aggregates repository-wide totals, a per-type breakdown, and
// the top-10 most-used tags.
func (r *Repository) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByType: map[Type]int{}}

	if err := r.store.ReadDB().QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&stats.TotalMemories); err != nil {
		return nil, &ErrStorage{Op: "stats:total", Err: err}
	}

	rows, err := r.store.ReadDB().QueryContext(ctx, `SELECT memory_type, COUNT(*) FROM memories GROUP BY memory_type`)
	if err != nil {
		return nil, &ErrStorage{Op: "stats:by_type", Err: err}
	}
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			rows.Close()
			return nil, &ErrStorage{Op: "stats:by_type:scan", Err: err}
		}
		stats.ByType[Type(t)] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, &ErrStorage{Op: "stats:by_type:rows", Err: err}
	}

	if err := r.store.ReadDB().QueryRowContext(ctx, `SELECT COUNT(*) FROM patterns`).Scan(&stats.TotalPatterns); err != nil {
		return nil, &ErrStorage{Op: "stats:patterns", Err: err}
	}
	if err := r.store.ReadDB().QueryRowContext(ctx, `SELECT COUNT(*) FROM memory_relations`).Scan(&stats.TotalLinks); err != nil {
		return nil, &ErrStorage{Op: "stats:links", Err: err}
	}
	if err := r.store.ReadDB().QueryRowContext(ctx, selectUnlinkedCountQuery).Scan(&stats.UnlinkedMemories); err != nil {
		return nil, &ErrStorage{Op: "stats:unlinked", Err: err}
	}

	tagRows, err := r.store.ReadDB().QueryContext(ctx, selectTopTagsQuery, 10)
	if err != nil {
		return nil, &ErrStorage{Op: "stats:top_tags", Err: err}
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var tc TagCount
		if err := tagRows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, &ErrStorage{Op: "stats:top_tags:scan", Err: err}
		}
		stats.TopTags = append(stats.TopTags, tc)
	}
	return stats, tagRows.Err()
}

// GetOrphanMemories returns memories with no tags, newest first.
func (r *Repository) GetOrphanMemories(ctx context.Context, limit int) ([]*Memory, error) {
	if limit <= 0 {
		limit = 20
	}
	return r.queryMemories(ctx, selectOrphansQuery, limit)
}

// GetUnlinkedCount counts memories with neither outgoing nor incoming links.
func (r *Repository) GetUnlinkedCount(ctx context.Context) (int, error) {
	var n int
	err := r.store.ReadDB().QueryRowContext(ctx, selectUnlinkedCountQuery).Scan(&n)
	if err != nil {
		return 0, &ErrStorage{Op: "unlinked_count", Err: err}
	}
	return n, nil
}

// GetStaleMemories returns memories not updated since thresholdDays ago.
func (r *Repository) GetStaleMemories(ctx context.Context, thresholdDays int, limit int) ([]*Memory, error) {
	if limit <= 0 {
		limit = 20
	}
	cutoff := now().AddDate(0, 0, -thresholdDays)
	return r.queryMemories(ctx, selectStaleQuery, formatTime(cutoff), limit)
}

func (r *Repository) queryMemories(ctx context.Context, query string, args ...any) ([]*Memory, error) {
	rows, err := r.store.ReadDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &ErrStorage{Op: "query_memories", Err: err}
	}
	defer rows.Close()

	var out []*Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, &ErrStorage{Op: "query_memories:scan", Err: err}
		}
		m.Tags, _ = r.tagsFor(ctx, m.ID)
		out = append(out, m)
	}
	return out, rows.Err()
}
