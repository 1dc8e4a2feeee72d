package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS imports (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source_path TEXT NOT NULL,
    sheet TEXT,
    rows_read INTEGER DEFAULT 0,
    rows_kept INTEGER DEFAULT 0,
    rows_dropped INTEGER DEFAULT 0,
    imported_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS assets (
    import_id INTEGER NOT NULL REFERENCES imports(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    asset_ref TEXT NOT NULL,
    asset_type TEXT NOT NULL,
    performance TEXT NOT NULL,
    impressions REAL NOT NULL,
    clicks REAL NOT NULL,
    ctr REAL NOT NULL,
    cost REAL NOT NULL,
    installs REAL NOT NULL,
    cost_per_install REAL NOT NULL,
    installs_per_mille REAL,
    PRIMARY KEY (import_id, position)
);

CREATE INDEX IF NOT EXISTS idx_assets_type ON assets(import_id, asset_type);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "import checksums",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
ALTER TABLE imports ADD COLUMN checksum TEXT;
CREATE INDEX IF NOT EXISTS idx_imports_checksum ON imports(checksum);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
