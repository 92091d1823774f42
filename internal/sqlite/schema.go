// Package sqlite implements the SQLite store for satchel: persistent
// Fabrics that write through on every slot change, and the journal of
// committed slot transactions.
package sqlite

// Schema DDL for all tables. Statements are idempotent so an existing
// database is reused across runs.
const (
	createFabrics = `CREATE TABLE IF NOT EXISTS fabrics (
    fabric_id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    archetype TEXT NOT NULL,
    size INTEGER NOT NULL,
    created_at TEXT NOT NULL
);`

	createSlots = `CREATE TABLE IF NOT EXISTS slots (
    fabric_id TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    item_id TEXT NOT NULL,
    name_key TEXT NOT NULL,
    max_stack INTEGER NOT NULL,
    quantity INTEGER NOT NULL,
    properties TEXT,
    PRIMARY KEY (fabric_id, ordinal),
    FOREIGN KEY (fabric_id) REFERENCES fabrics(fabric_id) ON DELETE CASCADE
);`

	createJournal = `CREATE TABLE IF NOT EXISTS journal (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    entry_id TEXT NOT NULL UNIQUE,
    fabric_id TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    operation TEXT NOT NULL,
    original TEXT,
    final TEXT,
    created_at TEXT NOT NULL,
    FOREIGN KEY (fabric_id) REFERENCES fabrics(fabric_id) ON DELETE CASCADE
);`
)

// Index DDL for common queries.
const (
	idxJournalFabric = `CREATE INDEX IF NOT EXISTS idx_journal_fabric ON journal(fabric_id, seq);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createFabrics,
	createSlots,
	createJournal,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxJournalFabric,
}

// dbFile is the database file name inside the data directory.
const dbFile = "satchel.db"
