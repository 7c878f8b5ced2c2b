package store

import "database/sql"

// runMigrations applies additive, idempotent schema migrations. Each
// statement is allowed to fail if the column/table already exists; the
// migration never fails the process on that account. Order:
// dynamics fields, then the pattern table, then frustration fields.
func runMigrations(db *sql.DB) error {
	dynamicsColumns := []string{
		"ALTER TABLE memories ADD COLUMN last_accessed_at DATETIME",
		"ALTER TABLE memories ADD COLUMN access_count INTEGER NOT NULL DEFAULT 1",
		"ALTER TABLE memories ADD COLUMN decay_rate REAL NOT NULL DEFAULT 0.1",
	}
	for _, stmt := range dynamicsColumns {
		if _, err := db.Exec(stmt); err != nil {
			log.Debug("migration column already present, skipping", "stmt", stmt, "error", err)
		}
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS patterns (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			summary TEXT NOT NULL,
			embedding BLOB,
			confidence REAL NOT NULL DEFAULT 0.5,
			instance_count INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`); err != nil {
		log.Warn("pattern table migration failed", "error", err)
	}

	frustrationColumns := []string{
		"ALTER TABLE memories ADD COLUMN frustration_score REAL NOT NULL DEFAULT 0.0",
		"ALTER TABLE memories ADD COLUMN time_cost_hours REAL",
	}
	for _, stmt := range frustrationColumns {
		if _, err := db.Exec(stmt); err != nil {
			log.Debug("migration column already present, skipping", "stmt", stmt, "error", err)
		}
	}

	_, err := db.Exec(`INSERT OR REPLACE INTO schema_version (version, applied_at) VALUES (?, CURRENT_TIMESTAMP)`, SchemaVersion)
	return err
}
