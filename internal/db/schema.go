package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'student' CHECK (role IN ('admin', 'teacher', 'student')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS places (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL UNIQUE,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS items (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL,
    category        TEXT NOT NULL CHECK (category IN ('electronics', 'clothing', 'bag', 'wallet', 'book',
                                                      'stationery', 'accessory', 'sports', 'other')),
    found_at        DATETIME NOT NULL,
    place_id        INTEGER NOT NULL REFERENCES places(id),
    place_detail    TEXT,
    image           BLOB,
    image_mime      TEXT,
    thumbnail       BLOB,
    status          TEXT NOT NULL DEFAULT 'lost'
                    CHECK (status IN ('lost', 'to_be_discarded', 'discarded', 'given')),
    approval_status TEXT NOT NULL DEFAULT 'pending'
                    CHECK (approval_status IN ('pending', 'approved', 'rejected')),
    discard_at      DATETIME,
    reported_by     INTEGER NOT NULL REFERENCES users(id),
    approver_id     INTEGER REFERENCES users(id),
    approved_at     DATETIME,
    holder_id       INTEGER REFERENCES users(id),
    possessor_id    INTEGER REFERENCES users(id),
    created_at      DATETIME NOT NULL,
    updated_at      DATETIME NOT NULL,
    CHECK (status != 'to_be_discarded' OR discard_at IS NOT NULL)
);

CREATE INDEX IF NOT EXISTS idx_items_status_found_at ON items(status, found_at);
CREATE INDEX IF NOT EXISTS idx_items_status_discard_at ON items(status, discard_at);

CREATE TABLE IF NOT EXISTS claims (
    id          INTEGER PRIMARY KEY,
    item_id     TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
    claimant_id INTEGER NOT NULL REFERENCES users(id),
    reason      TEXT NOT NULL,
    status      TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
    claimed_at  DATETIME NOT NULL,
    UNIQUE (item_id, claimant_id)
);

CREATE TABLE IF NOT EXISTS disposal_holds (
    id             INTEGER PRIMARY KEY,
    item_id        TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
    staff_id       INTEGER NOT NULL REFERENCES users(id),
    reason         TEXT NOT NULL,
    extension_days INTEGER NOT NULL CHECK (extension_days BETWEEN 1 AND 365),
    created_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_disposal_holds_item ON disposal_holds(item_id, created_at);

CREATE TABLE IF NOT EXISTS rewards (
    id         INTEGER PRIMARY KEY,
    item_id    TEXT NOT NULL UNIQUE REFERENCES items(id) ON DELETE CASCADE,
    student_id INTEGER NOT NULL REFERENCES users(id),
    granted_by INTEGER NOT NULL REFERENCES users(id),
    created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS gives (
    id          INTEGER PRIMARY KEY,
    item_id     TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
    giver_id    INTEGER NOT NULL REFERENCES users(id),
    receiver_id INTEGER NOT NULL REFERENCES users(id),
    given_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
