package store

// SchemaVersion is the current additive-migration checkpoint.
const SchemaVersion = 1

// CoreSchema creates every node/edge table the repository needs. It is
// run once, inside a transaction, on first write-handle creation.
const CoreSchema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY,
	applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- =============================================================================
-- MEMORIES
-- =============================================================================
CREATE TABLE IF NOT EXISTS memories (
	id TEXT PRIMARY KEY,
	content TEXT NOT NULL,
	summary TEXT NOT NULL,
	embedding BLOB,
	memory_type TEXT NOT NULL CHECK (
		memory_type IN ('insight', 'success', 'failure', 'decision', 'note')
	),
	context_name TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	last_accessed_at DATETIME,
	access_count INTEGER NOT NULL DEFAULT 1 CHECK (access_count >= 0),
	decay_rate REAL NOT NULL DEFAULT 0.1,
	frustration_score REAL NOT NULL DEFAULT 0.0 CHECK (frustration_score >= 0.0 AND frustration_score <= 1.0),
	time_cost_hours REAL,
	FOREIGN KEY (context_name) REFERENCES contexts(name)
);

CREATE INDEX IF NOT EXISTS idx_memories_context ON memories(context_name);
CREATE INDEX IF NOT EXISTS idx_memories_type ON memories(memory_type);
CREATE INDEX IF NOT EXISTS idx_memories_created_at ON memories(created_at);
CREATE INDEX IF NOT EXISTS idx_memories_updated_at ON memories(updated_at);
CREATE INDEX IF NOT EXISTS idx_memories_access_count ON memories(access_count);

-- =============================================================================
-- CONTEXTS (Memory -ORIGINATED_IN-> Context, 1:N via memories.context_name)
-- =============================================================================
CREATE TABLE IF NOT EXISTS contexts (
	name TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL
);

-- =============================================================================
-- TAGS and TAGGED_WITH (M:N)
-- =============================================================================
CREATE TABLE IF NOT EXISTS tags (
	name TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS memory_tags (
	memory_id TEXT NOT NULL,
	tag_name TEXT NOT NULL,
	PRIMARY KEY (memory_id, tag_name),
	FOREIGN KEY (memory_id) REFERENCES memories(id) ON DELETE CASCADE,
	FOREIGN KEY (tag_name) REFERENCES tags(name)
);

CREATE INDEX IF NOT EXISTS idx_memory_tags_tag ON memory_tags(tag_name);

-- =============================================================================
-- RELATED_TO
-- =============================================================================
CREATE TABLE IF NOT EXISTS memory_relations (
	source_id TEXT NOT NULL,
	target_id TEXT NOT NULL,
	relation_type TEXT NOT NULL CHECK (
		relation_type IN ('related', 'supersedes', 'contradicts', 'extends',
			'depends_on', 'evolved_from', 'caused_by', 'rejected_because')
	),
	reason TEXT,
	created_at DATETIME NOT NULL,
	PRIMARY KEY (source_id, target_id),
	FOREIGN KEY (source_id) REFERENCES memories(id) ON DELETE CASCADE,
	FOREIGN KEY (target_id) REFERENCES memories(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_relations_source ON memory_relations(source_id);
CREATE INDEX IF NOT EXISTS idx_relations_target ON memory_relations(target_id);
CREATE INDEX IF NOT EXISTS idx_relations_type ON memory_relations(relation_type);

-- =============================================================================
-- PATTERNS and INSTANCE_OF
-- =============================================================================
CREATE TABLE IF NOT EXISTS patterns (
	id TEXT PRIMARY KEY,
	content TEXT NOT NULL,
	summary TEXT NOT NULL,
	embedding BLOB,
	confidence REAL NOT NULL DEFAULT 0.5,
	instance_count INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS memory_instance_of (
	memory_id TEXT NOT NULL,
	pattern_id TEXT NOT NULL,
	confidence REAL NOT NULL,
	created_at DATETIME NOT NULL,
	PRIMARY KEY (memory_id, pattern_id),
	FOREIGN KEY (memory_id) REFERENCES memories(id) ON DELETE CASCADE,
	FOREIGN KEY (pattern_id) REFERENCES patterns(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_instance_of_pattern ON memory_instance_of(pattern_id);
`

// VecSchema creates the embedded vec0 virtual table used by the primary
// vector-search path. It is best-effort: if the sqlite-vec
// extension is unavailable for any reason, creation failure is logged
// and the repository's linear-scan fallback becomes the permanent path
// rather than a rare-case one — callers are oblivious either way.
//
// vec0 stores only the embedding keyed by rowid; the mapping from rowid
// back to a memory id lives in memory_vec_rowid.
const VecSchema = `
CREATE VIRTUAL TABLE IF NOT EXISTS memory_vec USING vec0(
	embedding float[%d]
);

CREATE TABLE IF NOT EXISTS memory_vec_rowid (
	memory_id TEXT PRIMARY KEY,
	rowid_ref INTEGER NOT NULL UNIQUE
);
`
