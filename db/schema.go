// ABOUTME: Database schema definitions
// ABOUTME: Creates the contacts table with never-reused AUTOINCREMENT ids and the activity log
package db

import (
	"database/sql"
)

// AUTOINCREMENT keeps ids monotonic: a deleted contact's id is never handed out again.
const schema = `
CREATE TABLE IF NOT EXISTS contacts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL DEFAULT '',
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	company TEXT NOT NULL DEFAULT '',
	lead_status TEXT NOT NULL DEFAULT 'New Lead' CHECK(lead_status IN ('New Lead', 'Qualified', 'Customer', 'Unqualified')),
	topics TEXT NOT NULL DEFAULT '[]',
	owner TEXT NOT NULL DEFAULT '',
	is_subscribed BOOLEAN NOT NULL DEFAULT 0,
	is_customer BOOLEAN NOT NULL DEFAULT 0,
	avatar TEXT,
	created_date DATETIME NOT NULL,
	last_activity DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_contacts_email ON contacts(email);
CREATE INDEX IF NOT EXISTS idx_contacts_owner ON contacts(owner);

CREATE TABLE IF NOT EXISTS activities (
	id TEXT PRIMARY KEY,
	verb TEXT NOT NULL CHECK(verb IN ('created', 'updated', 'deleted', 'imported')),
	contact_id INTEGER NOT NULL,
	contact_name TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL DEFAULT '',
	changes TEXT,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_activities_contact ON activities(contact_id);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
