package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// Note: group_orders never stores the derived "expired" status; stored_status
// is constrained to the four persisted states.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS group_orders (
    id TEXT PRIMARY KEY,
    leader_id TEXT NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    start_time INTEGER NOT NULL,
    end_time INTEGER NOT NULL,
    stored_status TEXT NOT NULL
        CHECK (stored_status IN ('open', 'closed', 'submitted', 'completed')),
    delivery_fee REAL NOT NULL DEFAULT 0,
    idempotency_token TEXT NOT NULL DEFAULT '',
    external_order_id TEXT NOT NULL DEFAULT '',
    external_transaction_id TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS participant_orders (
    group_order_id TEXT NOT NULL,
    participant_id TEXT NOT NULL,
    status TEXT NOT NULL CHECK (status IN ('draft', 'submitted')),
    items_version INTEGER NOT NULL,
    items TEXT NOT NULL,
    paid INTEGER NOT NULL DEFAULT 0,
    paid_by TEXT NOT NULL DEFAULT '',
    paid_at INTEGER NOT NULL DEFAULT 0,
    reimbursed INTEGER NOT NULL DEFAULT 0,
    reimbursed_by TEXT NOT NULL DEFAULT '',
    reimbursed_at INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (group_order_id, participant_id),
    FOREIGN KEY (group_order_id) REFERENCES group_orders(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_group_orders_leader_id ON group_orders(leader_id);
CREATE INDEX IF NOT EXISTS idx_participant_orders_group ON participant_orders(group_order_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
