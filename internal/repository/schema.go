package repository

// Schema definitions for the Kestrel database.
// Compatible with both SQLite and PostgreSQL.

const schemaAlgorithms = `
CREATE TABLE IF NOT EXISTS algorithms (
    id TEXT NOT NULL,
    merchant_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT,
    document TEXT NOT NULL,
    active INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    modified_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id, merchant_id)
);

CREATE INDEX IF NOT EXISTS idx_algorithms_merchant ON algorithms(merchant_id);
CREATE INDEX IF NOT EXISTS idx_algorithms_kind ON algorithms(merchant_id, kind);
CREATE INDEX IF NOT EXISTS idx_algorithms_active ON algorithms(merchant_id, kind, active);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaAlgorithms,
	}
}
