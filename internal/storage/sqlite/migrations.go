package sqlite

import "database/sql"

// schema contains the SQL statements to set up the key-value tables.
// These run on startup to ensure tables exist.
const schema = `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS set_members (
    set_key TEXT NOT NULL,
    member TEXT NOT NULL,
    PRIMARY KEY (set_key, member)
);

CREATE INDEX IF NOT EXISTS idx_set_members_set_key ON set_members(set_key);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
