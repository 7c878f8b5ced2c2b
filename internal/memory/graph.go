package memory

import (
	"context"
	"sort"
)

// ExploreOptions is the input to ExploreRelated.
type ExploreOptions struct {
	ID                string
	TagSiblings       bool
	ContextSiblings   bool
	MaxPerCategory    int
}

// ExploreRelated gathers direct links, tag-sibling memories ranked by
// shared-tag count, and context-sibling memories ordered by recency,
// each capped at MaxPerCategory and deduplicated against categories
// already surfaced.
func (r *Repository) ExploreRelated(ctx context.Context, opts ExploreOptions) (*ExploreResult, error) {
	if opts.MaxPerCategory <= 0 {
		opts.MaxPerCategory = 10
	}

	result := &ExploreResult{}
	seen := map[string]bool{opts.ID: true}

	edges, err := r.GetLinks(ctx, opts.ID)
	if err != nil {
		return nil, err
	}
	for _, e := range edges {
		if len(result.Linked) >= opts.MaxPerCategory {
			break
		}
		m, err := r.GetByID(ctx, e.Target)
		if err != nil || m == nil {
			continue
		}
		result.Linked = append(result.Linked, m)
		seen[m.ID] = true
	}

	if opts.TagSiblings {
		byTag, err := r.tagSiblings(ctx, opts.ID, seen, opts.MaxPerCategory)
		if err != nil {
			return nil, err
		}
		result.ByTag = byTag
		for _, m := range byTag {
			seen[m.ID] = true
		}
	}

	if opts.ContextSiblings {
		byContext, err := r.contextSiblings(ctx, opts.ID, seen, opts.MaxPerCategory)
		if err != nil {
			return nil, err
		}
		result.ByContext = byContext
	}

	return result, nil
}

func (r *Repository) tagSiblings(ctx context.Context, id string, seen map[string]bool, limit int) ([]*Memory, error) {
	tags, err := r.tagsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	order := []string{}
	for _, tag := range tags {
		rows, err := r.store.ReadDB().QueryContext(ctx, selectByTagQuery, tag, 100)
		if err != nil {
			return nil, &ErrStorage{Op: "tag_siblings", Err: err}
		}
		for rows.Next() {
			m, err := scanMemory(rows)
			if err != nil {
				rows.Close()
				return nil, &ErrStorage{Op: "tag_siblings:scan", Err: err}
			}
			if seen[m.ID] {
				continue
			}
			if counts[m.ID] == 0 {
				order = append(order, m.ID)
			}
			counts[m.ID]++
		}
		rows.Close()
	}

	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > limit {
		order = order[:limit]
	}

	var out []*Memory
	for _, id := range order {
		m, err := r.GetByID(ctx, id)
		if err != nil || m == nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *Repository) contextSiblings(ctx context.Context, id string, seen map[string]bool, limit int) ([]*Memory, error) {
	self, err := r.GetByID(ctx, id)
	if err != nil || self == nil {
		return nil, err
	}
	rows, err := r.store.ReadDB().QueryContext(ctx, selectByContextQuery, self.ContextName, id, 100)
	if err != nil {
		return nil, &ErrStorage{Op: "context_siblings", Err: err}
	}
	defer rows.Close()

	var out []*Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, &ErrStorage{Op: "context_siblings:scan", Err: err}
		}
		if seen[m.ID] {
			continue
		}
		m.Tags, _ = r.tagsFor(ctx, m.ID)
		out = append(out, m)
		if len(out) >= limit {
			break
		}
	}
	return out, rows.Err()
}

// DefaultMaxLineageDepth is the default max_depth for trace_lineage.
const DefaultMaxLineageDepth = 10

// TraceLineage walks the relation graph breadth-first with a visited
// set, following edges whose relation_type is in relationTypes
// (defaults to DefaultLineageRelations). backward follows outgoing
// edges from the current node; forward follows incoming.
func (r *Repository) TraceLineage(ctx context.Context, id string, direction Direction, relationTypes []RelationType, maxDepth int) ([]LineageNode, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxLineageDepth
	}
	if len(relationTypes) == 0 {
		relationTypes = DefaultLineageRelations
	}
	allowed := map[RelationType]bool{}
	for _, rt := range relationTypes {
		allowed[rt] = true
	}

	visited := map[string]bool{id: true}
	frontier := []string{id}
	var out []LineageNode

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, current := range frontier {
			var edges []*RelatedEdge
			var err error
			if direction == DirectionBackward {
				edges, err = r.GetLinks(ctx, current)
			} else {
				edges, err = r.GetIncomingLinks(ctx, current, "")
			}
			if err != nil {
				return nil, err
			}

			for _, e := range edges {
				if !allowed[e.RelationType] {
					continue
				}
				neighbor := e.Target
				if direction == DirectionForward {
					neighbor = e.Source
				}
				if visited[neighbor] {
					continue
				}
				visited[neighbor] = true
				next = append(next, neighbor)

				m, err := r.GetByID(ctx, neighbor)
				if err != nil || m == nil {
					continue
				}
				out = append(out, LineageNode{
					ID: m.ID, Summary: m.Summary, MemoryType: m.MemoryType, CreatedAt: m.CreatedAt,
					Depth: depth, RelationType: e.RelationType, Reason: e.Reason,
				})
			}
		}
		frontier = next
	}

	if direction == DirectionBackward {
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	} else {
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	}
	return out, nil
}
