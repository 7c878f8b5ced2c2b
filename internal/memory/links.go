package memory

import (
	"context"
	"database/sql"
)

// CreateLink creates one RELATED_TO edge between two memories.
func (r *Repository) CreateLink(ctx context.Context, source, target string, relation RelationType, reason string) (*RelatedEdge, error) {
	if source == target {
		return nil, &ErrSelfLink{ID: source}
	}

	src, err := r.GetByID(ctx, source)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, &ErrNotFound{ID: source}
	}
	tgt, err := r.GetByID(ctx, target)
	if err != nil {
		return nil, err
	}
	if tgt == nil {
		return nil, &ErrNotFound{ID: target}
	}

	var existingType string
	err = r.store.ReadDB().QueryRowContext(ctx, selectExistingRelationQuery, source, target).Scan(&existingType)
	if err == nil {
		return nil, &ErrDuplicateLink{Source: source, Target: target, ExistingRelation: RelationType(existingType)}
	}
	if err != sql.ErrNoRows {
		return nil, &ErrStorage{Op: "create_link:check", Err: err}
	}

	wh, err := r.store.AcquireWrite(ctx)
	if err != nil {
		return nil, wrapLockErr(err)
	}
	defer wh.Release()

	ts := now()
	_, err = wh.DB().ExecContext(ctx, `INSERT INTO memory_relations (source_id, target_id, relation_type, reason, created_at)
		VALUES (?, ?, ?, ?, ?)`, source, target, string(relation), reason, formatTime(ts))
	if err != nil {
		return nil, &ErrStorage{Op: "create_link:insert", Err: err}
	}

	return &RelatedEdge{Source: source, Target: target, RelationType: relation, Reason: reason, CreatedAt: ts}, nil
}

// GetLinks returns a memory's outgoing RELATED_TO edges.
func (r *Repository) GetLinks(ctx context.Context, id string) ([]*RelatedEdge, error) {
	return r.queryEdges(ctx, selectOutgoingQuery, id)
}

// GetIncomingLinks returns a memory's incoming RELATED_TO edges,
// optionally filtered by relation type (empty string means unfiltered).
func (r *Repository) GetIncomingLinks(ctx context.Context, id string, relation RelationType) ([]*RelatedEdge, error) {
	if relation == "" {
		return r.queryEdges(ctx, selectIncomingQuery, id)
	}
	return r.queryEdges(ctx, selectIncomingByTypeQuery, id, string(relation))
}

func (r *Repository) queryEdges(ctx context.Context, query string, args ...any) ([]*RelatedEdge, error) {
	rows, err := r.store.ReadDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &ErrStorage{Op: "query_edges", Err: err}
	}
	defer rows.Close()

	var out []*RelatedEdge
	for rows.Next() {
		var source, target, relType, reason, createdAt string
		if err := rows.Scan(&source, &target, &relType, &reason, &createdAt); err != nil {
			return nil, &ErrStorage{Op: "query_edges:scan", Err: err}
		}
		out = append(out, &RelatedEdge{
			Source: source, Target: target, RelationType: RelationType(relType),
			Reason: reason, CreatedAt: mustParseTime(createdAt),
		})
	}
	return out, rows.Err()
}

// DeleteLink removes the edge for the given ordered pair, if any.
func (r *Repository) DeleteLink(ctx context.Context, source, target string) (bool, error) {
	wh, err := r.store.AcquireWrite(ctx)
	if err != nil {
		return false, wrapLockErr(err)
	}
	defer wh.Release()

	res, err := wh.DB().ExecContext(ctx, `DELETE FROM memory_relations WHERE source_id = ? AND target_id = ?`, source, target)
	if err != nil {
		return false, &ErrStorage{Op: "delete_link", Err: err}
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
