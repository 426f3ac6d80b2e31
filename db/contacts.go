// ABOUTME: Contact database operations
// ABOUTME: Handles CRUD, bulk updates and the import merge for the contact store
package db

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/harperreed/nexuscrm/models"
)

var ErrContactNotFound = errors.New("contact not found")

const contactColumns = `id, name, first_name, last_name, email, phone, company, lead_status,
	topics, owner, is_subscribed, is_customer, avatar, created_date, last_activity`

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// ContactUpdate carries a partial update; nil fields are left unchanged.
type ContactUpdate struct {
	Name         *string            `json:"name,omitempty"`
	Email        *string            `json:"email,omitempty"`
	Phone        *string            `json:"phone,omitempty"`
	Company      *string            `json:"company,omitempty"`
	LeadStatus   *models.LeadStatus `json:"leadStatus,omitempty"`
	Topics       *[]string          `json:"topics,omitempty"`
	Owner        *string            `json:"owner,omitempty"`
	IsSubscribed *bool              `json:"isSubscribed,omitempty"`
	IsCustomer   *bool              `json:"isCustomer,omitempty"`
}

// Apply copies the set fields onto c.
func (u ContactUpdate) Apply(c *models.Contact) {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Email != nil {
		c.Email = *u.Email
	}
	if u.Phone != nil {
		c.Phone = *u.Phone
	}
	if u.Company != nil {
		c.Company = *u.Company
	}
	if u.LeadStatus != nil {
		c.LeadStatus = *u.LeadStatus
	}
	if u.Topics != nil {
		c.Topics = nil
		c.AddTopics(*u.Topics...)
	}
	if u.Owner != nil {
		c.Owner = *u.Owner
	}
	if u.IsSubscribed != nil {
		c.IsSubscribed = *u.IsSubscribed
	}
	if u.IsCustomer != nil {
		c.IsCustomer = *u.IsCustomer
	}
}

func insertContact(ex execer, contact *models.Contact, keepID bool) error {
	if contact.LeadStatus == "" {
		contact.LeadStatus = models.LeadStatusNewLead
	}
	if contact.Topics == nil {
		contact.Topics = []string{}
	}
	topics, err := json.Marshal(contact.Topics)
	if err != nil {
		return errors.Wrap(err, "failed to encode topics")
	}

	args := []interface{}{
		contact.Name, contact.FirstName, contact.LastName, contact.Email, contact.Phone,
		contact.Company, string(contact.LeadStatus), string(topics), contact.Owner,
		contact.IsSubscribed, contact.IsCustomer, contact.Avatar,
		contact.CreatedDate.UTC(), contact.LastActivity.UTC(),
	}

	if keepID {
		_, err = ex.Exec(`
			INSERT INTO contacts (`+contactColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, append([]interface{}{contact.ID}, args...)...)
		return err
	}

	res, err := ex.Exec(`
		INSERT INTO contacts (name, first_name, last_name, email, phone, company, lead_status,
			topics, owner, is_subscribed, is_customer, avatar, created_date, last_activity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, args...)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "failed to read assigned id")
	}
	contact.ID = id
	return nil
}

func writeContact(ex execer, contact *models.Contact) error {
	topics, err := json.Marshal(contact.Topics)
	if err != nil {
		return errors.Wrap(err, "failed to encode topics")
	}

	res, err := ex.Exec(`
		UPDATE contacts
		SET name = ?, first_name = ?, last_name = ?, email = ?, phone = ?, company = ?,
			lead_status = ?, topics = ?, owner = ?, is_subscribed = ?, is_customer = ?,
			avatar = ?, last_activity = ?
		WHERE id = ?
	`, contact.Name, contact.FirstName, contact.LastName, contact.Email, contact.Phone,
		contact.Company, string(contact.LeadStatus), string(topics), contact.Owner,
		contact.IsSubscribed, contact.IsCustomer, contact.Avatar, contact.LastActivity.UTC(), contact.ID)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.Wrapf(ErrContactNotFound, "id %d", contact.ID)
	}
	return nil
}

func scanContact(s scanner) (*models.Contact, error) {
	var c models.Contact
	var status, topics string
	var avatar sql.NullString

	err := s.Scan(
		&c.ID,
		&c.Name,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.Phone,
		&c.Company,
		&status,
		&topics,
		&c.Owner,
		&c.IsSubscribed,
		&c.IsCustomer,
		&avatar,
		&c.CreatedDate,
		&c.LastActivity,
	)
	if err != nil {
		return nil, err
	}

	c.LeadStatus = models.LeadStatus(status)
	if err := json.Unmarshal([]byte(topics), &c.Topics); err != nil {
		return nil, errors.Wrapf(err, "failed to decode topics for contact %d", c.ID)
	}
	if c.Topics == nil {
		c.Topics = []string{}
	}
	if avatar.Valid {
		a := avatar.String
		c.Avatar = &a
	}

	return &c, nil
}

// CreateContact stores a new contact; the store assigns its id and timestamps.
func CreateContact(db *sql.DB, contact *models.Contact) error {
	now := time.Now().UTC()
	contact.CreatedDate = now
	contact.LastActivity = now

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer func() {
		_ = tx.Rollback() // Safe even after commit
	}()

	if err := insertContact(tx, contact, false); err != nil {
		return errors.Wrap(err, "failed to create contact")
	}
	if err := recordActivity(tx, models.VerbCreated, contact, SourceManual, nil); err != nil {
		return err
	}
	return tx.Commit()
}

func GetContact(db *sql.DB, id int64) (*models.Contact, error) {
	row := db.QueryRow(`SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id)
	contact, err := scanContact(row)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(ErrContactNotFound, "id %d", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get contact")
	}
	return contact, nil
}

// ListContacts returns a snapshot of the whole store in id order.
func ListContacts(db *sql.DB) ([]models.Contact, error) {
	return queryContacts(db, `SELECT `+contactColumns+` FROM contacts ORDER BY id`)
}

// GetContactsByIDs returns the contacts among ids that exist, in id order.
func GetContactsByIDs(db *sql.DB, ids []int64) ([]models.Contact, error) {
	if len(ids) == 0 {
		return []models.Contact{}, nil
	}
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id IN (` + placeholders(len(ids)) + `) ORDER BY id`
	return queryContacts(db, query, idArgs(ids)...)
}

// FindContactsByEmail matches email case-insensitively after trimming.
func FindContactsByEmail(db *sql.DB, email string) ([]models.Contact, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return []models.Contact{}, nil
	}
	return queryContacts(db, `
		SELECT `+contactColumns+` FROM contacts
		WHERE LOWER(TRIM(email)) = ?
		ORDER BY id
	`, email)
}

func queryContacts(db *sql.DB, query string, args ...interface{}) ([]models.Contact, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query contacts")
	}
	defer rows.Close()

	contacts := []models.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan contact")
		}
		contacts = append(contacts, *c)
	}

	return contacts, rows.Err()
}

// UpdateContact applies a partial update and bumps LastActivity.
func UpdateContact(db *sql.DB, id int64, update ContactUpdate) (*models.Contact, error) {
	contact, err := GetContact(db, id)
	if err != nil {
		return nil, err
	}
	before := *contact

	update.Apply(contact)
	contact.LastActivity = time.Now().UTC()

	tx, err := db.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "failed to start transaction")
	}
	defer func() {
		_ = tx.Rollback() // Safe even after commit
	}()

	if err := writeContact(tx, contact); err != nil {
		return nil, errors.Wrap(err, "failed to update contact")
	}
	if err := recordActivity(tx, models.VerbUpdated, contact, SourceManual, models.ContactChanges(&before, contact)); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit update")
	}
	return contact, nil
}

// DeleteContact removes a contact permanently. Its activity history is kept.
func DeleteContact(db *sql.DB, id int64) error {
	contact, err := GetContact(db, id)
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer func() {
		_ = tx.Rollback() // Safe even after commit
	}()

	if _, err := tx.Exec(`DELETE FROM contacts WHERE id = ?`, id); err != nil {
		return errors.Wrap(err, "failed to delete contact")
	}
	if err := recordActivity(tx, models.VerbDeleted, contact, SourceManual, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// BulkDeleteContacts deletes every listed contact in one transaction and
// returns how many existed. Unknown ids are ignored.
func BulkDeleteContacts(db *sql.DB, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	contacts, err := GetContactsByIDs(db, ids)
	if err != nil {
		return 0, err
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, errors.Wrap(err, "failed to start transaction")
	}
	defer func() {
		_ = tx.Rollback() // Safe even after commit
	}()

	res, err := tx.Exec(`DELETE FROM contacts WHERE id IN (`+placeholders(len(ids))+`)`, idArgs(ids)...)
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete contacts")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	for i := range contacts {
		if err := recordActivity(tx, models.VerbDeleted, &contacts[i], SourceBulk, nil); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "failed to commit bulk delete")
	}
	return n, nil
}

// AssignOwner sets the owner of every listed contact.
func AssignOwner(db *sql.DB, ids []int64, owner string) (int64, error) {
	return bulkUpdate(db, ids, func(c *models.Contact) {
		c.Owner = owner
	})
}

// ChangeLeadStatus moves every listed contact to status.
func ChangeLeadStatus(db *sql.DB, ids []int64, status models.LeadStatus) (int64, error) {
	return bulkUpdate(db, ids, func(c *models.Contact) {
		c.LeadStatus = status
	})
}

// AddTopics adds topics to every listed contact, skipping ones already present.
func AddTopics(db *sql.DB, ids []int64, topics []string) (int64, error) {
	return bulkUpdate(db, ids, func(c *models.Contact) {
		c.AddTopics(topics...)
	})
}

func bulkUpdate(db *sql.DB, ids []int64, mutate func(*models.Contact)) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	contacts, err := GetContactsByIDs(db, ids)
	if err != nil {
		return 0, err
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, errors.Wrap(err, "failed to start transaction")
	}
	defer func() {
		_ = tx.Rollback() // Safe even after commit
	}()

	now := time.Now().UTC()
	for i := range contacts {
		before := contacts[i]
		before.Topics = append([]string(nil), contacts[i].Topics...)

		mutate(&contacts[i])
		contacts[i].LastActivity = now
		if err := writeContact(tx, &contacts[i]); err != nil {
			return 0, errors.Wrapf(err, "failed to update contact %d", contacts[i].ID)
		}
		if err := recordActivity(tx, models.VerbUpdated, &contacts[i], SourceBulk, models.ContactChanges(&before, &contacts[i])); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "failed to commit bulk update")
	}
	return int64(len(contacts)), nil
}

// InsertContacts merges imported contacts into the store. Provisional ids are
// discarded and each contact is re-keyed with the id the store assigns.
func InsertContacts(db *sql.DB, contacts []models.Contact) ([]models.Contact, error) {
	inserted, _, err := MergeContacts(db, contacts, nil)
	return inserted, err
}

// MergeContacts inserts new contacts and rewrites updated ones in a single
// transaction. Nothing is applied when any statement fails.
func MergeContacts(db *sql.DB, inserts, updates []models.Contact) ([]models.Contact, []models.Contact, error) {
	previous := map[int64]models.Contact{}
	if len(updates) > 0 {
		ids := make([]int64, len(updates))
		for i := range updates {
			ids[i] = updates[i].ID
		}
		stored, err := GetContactsByIDs(db, ids)
		if err != nil {
			return nil, nil, err
		}
		for _, c := range stored {
			previous[c.ID] = c
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to start transaction")
	}
	defer func() {
		_ = tx.Rollback() // Safe even after commit
	}()

	inserted := make([]models.Contact, len(inserts))
	copy(inserted, inserts)
	for i := range inserted {
		inserted[i].ID = 0
		if err := insertContact(tx, &inserted[i], false); err != nil {
			return nil, nil, errors.Wrapf(err, "failed to insert contact %q", inserted[i].Name)
		}
		if err := recordActivity(tx, models.VerbImported, &inserted[i], SourceImport, nil); err != nil {
			return nil, nil, err
		}
	}

	updated := make([]models.Contact, len(updates))
	copy(updated, updates)
	now := time.Now().UTC()
	for i := range updated {
		updated[i].LastActivity = now
		if err := writeContact(tx, &updated[i]); err != nil {
			return nil, nil, errors.Wrapf(err, "failed to update contact %d", updated[i].ID)
		}
		var changes map[string]models.Change
		if before, ok := previous[updated[i].ID]; ok {
			changes = models.ContactChanges(&before, &updated[i])
		}
		if err := recordActivity(tx, models.VerbUpdated, &updated[i], SourceImport, changes); err != nil {
			return nil, nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, errors.Wrap(err, "failed to commit merge")
	}
	return inserted, updated, nil
}

// CountContacts returns the number of stored contacts.
func CountContacts(db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM contacts`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "failed to count contacts")
	}
	return n, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func idArgs(ids []int64) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
