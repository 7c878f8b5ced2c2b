// Package queries is the single source of truth for graph-query strings
// and the named column-index map each one returns. Row mappers in
// internal/memory MUST reference these named indices and never literal
// integers — the dataset has already accumulated field additions once
// (dynamics, frustration) that would otherwise have shifted every
// downstream index silently.
package queries

// Column-index map for MemoryColumns, as returned by SelectMemoryByID and
// the other memory-row queries. Every query in this file that returns memory
// rows returns them in exactly this column order.
const (
	IdxID               = 0
	IdxContent          = 1
	IdxSummary          = 2
	IdxEmbedding        = 3
	IdxMemoryType       = 4
	IdxContextName      = 5
	IdxCreatedAt        = 6
	IdxUpdatedAt        = 7
	IdxLastAccessedAt   = 8
	IdxAccessCount      = 9
	IdxDecayRate        = 10
	IdxFrustrationScore = 11
	IdxTimeCostHours    = 12
)

// MemoryColumns is the column list shared by every memory-row query.
const MemoryColumns = `id, content, summary, embedding, memory_type, context_name,
	created_at, updated_at, last_accessed_at, access_count, decay_rate,
	frustration_score, time_cost_hours`

// SelectMemoryByID fetches a single memory row.
const SelectMemoryByID = `SELECT ` + MemoryColumns + ` FROM memories WHERE id = ?`

// SelectAllMemories fetches every memory row, newest first. Used by the
// linear-scan vector-search fallback and the pattern consolidator's
// candidate listing.
const SelectAllMemories = `SELECT ` + MemoryColumns + ` FROM memories ORDER BY created_at DESC`

// SelectAllMemoriesLimit is SelectAllMemories with a row cap.
const SelectAllMemoriesLimit = `SELECT ` + MemoryColumns + ` FROM memories ORDER BY created_at DESC LIMIT ?`

// SelectMemoriesByAccessCount selects memories with access_count at or
// above a threshold, most-accessed first (pattern consolidator's default
// candidate source).
const SelectMemoriesByAccessCount = `SELECT ` + MemoryColumns + ` FROM memories
	WHERE access_count >= ? ORDER BY access_count DESC LIMIT ?`

// SelectMemoriesByTag selects memories tagged with a given tag.
const SelectMemoriesByTag = `SELECT ` + MemoryColumns + ` FROM memories m
	JOIN memory_tags mt ON mt.memory_id = m.id
	WHERE mt.tag_name = ? ORDER BY m.created_at DESC LIMIT ?`

// SelectMemoriesByContext selects memories sharing a context, newest first.
const SelectMemoriesByContext = `SELECT ` + MemoryColumns + ` FROM memories
	WHERE context_name = ? AND id != ? ORDER BY created_at DESC LIMIT ?`

// SelectOrphanMemories selects memories with no TAGGED_WITH edges.
const SelectOrphanMemories = `SELECT ` + MemoryColumns + ` FROM memories m
	WHERE NOT EXISTS (SELECT 1 FROM memory_tags mt WHERE mt.memory_id = m.id)
	ORDER BY m.created_at DESC LIMIT ?`

// SelectStaleMemories selects memories whose updated_at predates a threshold.
const SelectStaleMemories = `SELECT ` + MemoryColumns + ` FROM memories
	WHERE updated_at < ? ORDER BY updated_at ASC LIMIT ?`

// SelectUnlinkedCount counts memories with neither outgoing nor incoming RELATED_TO edges.
const SelectUnlinkedCount = `SELECT COUNT(*) FROM memories m
	WHERE NOT EXISTS (SELECT 1 FROM memory_relations r WHERE r.source_id = m.id)
	AND NOT EXISTS (SELECT 1 FROM memory_relations r WHERE r.target_id = m.id)`

// SelectTagsForMemory lists a memory's tags.
const SelectTagsForMemory = `SELECT tag_name FROM memory_tags WHERE memory_id = ? ORDER BY tag_name`

// SelectTopTags lists the most-used tags.
const SelectTopTags = `SELECT tag_name, COUNT(*) as cnt FROM memory_tags
	GROUP BY tag_name ORDER BY cnt DESC LIMIT ?`

// SelectOutgoingRelations lists a memory's outgoing RELATED_TO edges.
const SelectOutgoingRelations = `SELECT source_id, target_id, relation_type, reason, created_at
	FROM memory_relations WHERE source_id = ?`

// SelectIncomingRelations lists a memory's incoming RELATED_TO edges of every type.
const SelectIncomingRelations = `SELECT source_id, target_id, relation_type, reason, created_at
	FROM memory_relations WHERE target_id = ?`

// SelectIncomingRelationsByType filters incoming edges by relation_type.
const SelectIncomingRelationsByType = `SELECT source_id, target_id, relation_type, reason, created_at
	FROM memory_relations WHERE target_id = ? AND relation_type = ?`

// SelectExistingRelation checks for any existing edge between an ordered pair (DuplicateLink check).
const SelectExistingRelation = `SELECT relation_type FROM memory_relations WHERE source_id = ? AND target_id = ?`
