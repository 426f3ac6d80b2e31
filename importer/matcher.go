// ABOUTME: Contact deduplication and matching logic
// ABOUTME: Finds existing or already-imported contacts by email during an import
package importer

import (
	"strings"

	"github.com/harperreed/nexuscrm/models"
)

// ContactMatcher indexes contacts by normalised email.
type ContactMatcher struct {
	byEmail map[string]*models.Contact
}

// NewContactMatcher creates a matcher from existing contacts.
func NewContactMatcher(contacts []models.Contact) *ContactMatcher {
	m := &ContactMatcher{
		byEmail: make(map[string]*models.Contact),
	}

	for i := range contacts {
		m.AddContact(&contacts[i])
	}

	return m
}

// FindMatch looks for a known contact with the same email. Contacts without
// an email never match.
func (m *ContactMatcher) FindMatch(email string) (*models.Contact, bool) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return nil, false
	}

	contact, found := m.byEmail[normalized]
	return contact, found
}

// AddContact registers a contact so later rows of the same batch match it.
// The first contact registered for an email keeps the slot.
func (m *ContactMatcher) AddContact(contact *models.Contact) {
	email := normalizeEmail(contact.Email)
	if email == "" {
		return
	}
	if _, exists := m.byEmail[email]; !exists {
		m.byEmail[email] = contact
	}
}

// normalizeEmail converts email to lowercase for comparison.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// fillBlanks copies fields from src into the empty fields of dst and reports
// whether anything changed.
func fillBlanks(dst *models.Contact, src *models.Contact) bool {
	changed := false
	fill := func(d *string, s string) {
		if *d == "" && s != "" {
			*d = s
			changed = true
		}
	}

	fill(&dst.Name, src.Name)
	fill(&dst.FirstName, src.FirstName)
	fill(&dst.LastName, src.LastName)
	fill(&dst.Phone, src.Phone)
	fill(&dst.Company, src.Company)
	fill(&dst.Owner, src.Owner)

	before := len(dst.Topics)
	dst.AddTopics(src.Topics...)
	if len(dst.Topics) != before {
		changed = true
	}

	return changed
}
