// ABOUTME: Contact activity timeline storage
// ABOUTME: Records created, updated, deleted and imported events alongside the contact writes
package db

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/harperreed/nexuscrm/models"
)

// Activity sources.
const (
	SourceManual = "manual"
	SourceBulk   = "bulk"
	SourceImport = "import"
)

func recordActivity(ex execer, verb models.ActivityVerb, contact *models.Contact, source string, changes map[string]models.Change) error {
	var changesJSON []byte
	if len(changes) > 0 {
		var err error
		changesJSON, err = json.Marshal(changes)
		if err != nil {
			return errors.Wrap(err, "failed to encode changes")
		}
	}

	_, err := ex.Exec(`
		INSERT INTO activities (id, verb, contact_id, contact_name, source, changes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, uuid.New().String(), string(verb), contact.ID, contact.Name, source, nullableText(changesJSON), time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "failed to record activity")
	}
	return nil
}

func nullableText(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

// ListActivities returns the newest activities first. A contactID of zero
// lists every contact; limit <= 0 means no limit.
func ListActivities(db *sql.DB, contactID int64, limit int) ([]models.Activity, error) {
	query := `SELECT id, verb, contact_id, contact_name, source, changes, created_at FROM activities`
	var args []interface{}
	if contactID != 0 {
		query += ` WHERE contact_id = ?`
		args = append(args, contactID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query activities")
	}
	defer rows.Close()

	activities := []models.Activity{}
	for rows.Next() {
		var a models.Activity
		var verb string
		var changes sql.NullString
		if err := rows.Scan(&a.ID, &verb, &a.ContactID, &a.ContactName, &a.Source, &changes, &a.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan activity")
		}
		a.Verb = models.ActivityVerb(verb)
		if changes.Valid {
			if err := json.Unmarshal([]byte(changes.String), &a.Changes); err != nil {
				return nil, errors.Wrap(err, "failed to decode changes")
			}
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
