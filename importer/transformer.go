// ABOUTME: Turns validated CSV rows into contact records
// ABOUTME: Applies the field mapping, parses topics, dates and lead status, fills defaults
package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/harperreed/nexuscrm/models"
)

// RowError describes a row the transformer could not turn into a contact.
type RowError struct {
	Row int    `json:"row"`
	Err string `json:"error"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("Row %d: %s", e.Row, e.Err)
}

// TransformResult holds the contacts built from a table. Rows[i] is the CSV
// row number Contacts[i] came from.
type TransformResult struct {
	Contacts []models.Contact `json:"contacts"`
	Rows     []int            `json:"rows"`
	Errors   []RowError       `json:"errors"`
}

// Date layouts accepted for createdDate and lastActivity.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"01/02/2006",
}

// Transform maps every row of table into a contact. A row that fails is
// recorded in Errors and left out; the others are still returned.
func Transform(table *Table, mapping Mapping) TransformResult {
	return TransformAt(table, mapping, time.Now().UTC())
}

// TransformAt is Transform with a fixed clock. Provisional ids start at
// now in Unix milliseconds plus the row index and only ever increase.
func TransformAt(table *Table, mapping Mapping, now time.Time) TransformResult {
	result := TransformResult{
		Contacts: []models.Contact{},
		Rows:     []int{},
		Errors:   []RowError{},
	}

	base := now.UnixMilli()
	var lastID int64

	for i, row := range table.Rows {
		contact, err := transformRow(table.Headers, row, mapping, now)
		if err != nil {
			result.Errors = append(result.Errors, RowError{Row: i + 2, Err: err.Error()})
			continue
		}

		id := base + int64(i)
		if id <= lastID {
			id = lastID + 1
		}
		lastID = id
		contact.ID = id

		result.Contacts = append(result.Contacts, *contact)
		result.Rows = append(result.Rows, i+2)
	}

	return result
}

func transformRow(headers []string, row map[string]string, mapping Mapping, now time.Time) (*models.Contact, error) {
	contact := &models.Contact{
		LeadStatus:   models.LeadStatusNewLead,
		Topics:       []string{},
		CreatedDate:  now,
		LastActivity: now,
	}

	// Like Validate, the first header mapped to a field is the one read.
	seen := map[string]bool{}
	for _, header := range headers {
		field, ok := mapping[header]
		if !ok || seen[field] {
			continue
		}
		seen[field] = true

		value := row[header]
		if value == "" {
			continue
		}

		switch field {
		case FieldName:
			contact.Name = value
		case FieldFirstName:
			contact.FirstName = value
		case FieldLastName:
			contact.LastName = value
		case FieldEmail:
			contact.Email = value
		case FieldPhone:
			contact.Phone = value
		case FieldCompany:
			contact.Company = value
		case FieldTopics:
			contact.Topics = []string{}
			contact.AddTopics(strings.Split(value, ",")...)
		case FieldLeadStatus:
			// Unknown statuses keep the default; Validate warns about them.
			if status, err := models.ParseLeadStatus(value); err == nil {
				contact.LeadStatus = status
			}
		case FieldCreatedDate:
			t, err := parseDate(value)
			if err != nil {
				return nil, errors.Wrap(err, "invalid created date")
			}
			contact.CreatedDate = t
		case FieldLastActivity:
			t, err := parseDate(value)
			if err != nil {
				return nil, errors.Wrap(err, "invalid last activity")
			}
			contact.LastActivity = t
		}
	}

	if contact.Name == "" {
		contact.Name = strings.TrimSpace(contact.FirstName + " " + contact.LastName)
	}

	return contact, nil
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Errorf("unrecognised date %q", value)
}
