// ABOUTME: Static contact fixture bundled into the binary
// ABOUTME: Seeds a fresh store with the sample contacts, keeping their ids
package db

import (
	"database/sql"
	_ "embed"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/harperreed/nexuscrm/models"
)

//go:embed fixtures/contacts.json
var contactsFixture []byte

// LoadFixture decodes the bundled sample contacts.
func LoadFixture() ([]models.Contact, error) {
	var contacts []models.Contact
	if err := json.Unmarshal(contactsFixture, &contacts); err != nil {
		return nil, errors.Wrap(err, "failed to decode contacts fixture")
	}
	return contacts, nil
}

// SeedContacts inserts contacts with their existing ids in one transaction.
// The store's id sequence continues after the largest seeded id.
func SeedContacts(db *sql.DB, contacts []models.Contact) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer func() {
		_ = tx.Rollback() // Safe even after commit
	}()

	for i := range contacts {
		if err := insertContact(tx, &contacts[i], true); err != nil {
			return errors.Wrapf(err, "failed to seed contact %d", contacts[i].ID)
		}
	}

	return tx.Commit()
}
