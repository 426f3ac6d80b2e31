// ABOUTME: Activity entries for the contact timeline
// ABOUTME: Defines activity verbs and field-level change detection between contact versions
package models

import (
	"encoding/json"
	"time"
)

// ActivityVerb represents the action performed on a contact.
type ActivityVerb string

const (
	VerbCreated  ActivityVerb = "created"
	VerbUpdated  ActivityVerb = "updated"
	VerbDeleted  ActivityVerb = "deleted"
	VerbImported ActivityVerb = "imported"
)

// Change holds a field's value before and after an update.
type Change struct {
	Before interface{} `json:"before"`
	After  interface{} `json:"after"`
}

type Activity struct {
	ID          string            `json:"id"`
	Verb        ActivityVerb      `json:"verb"`
	ContactID   int64             `json:"contactId"`
	ContactName string            `json:"contactName"`
	Source      string            `json:"source,omitempty"`
	Changes     map[string]Change `json:"changes,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// ContactChanges compares two versions of a contact by their JSON fields.
// lastActivity is bookkeeping and never reported.
func ContactChanges(before, after *Contact) map[string]Change {
	oldMap, err1 := fieldMap(before)
	newMap, err2 := fieldMap(after)
	if err1 != nil || err2 != nil {
		return nil
	}

	changes := make(map[string]Change)
	for key, newVal := range newMap {
		if key == "lastActivity" {
			continue
		}
		oldVal, exists := oldMap[key]
		if !exists || !jsonEqual(oldVal, newVal) {
			changes[key] = Change{Before: oldVal, After: newVal}
		}
	}
	// omitempty fields vanish from the JSON when cleared
	for key, oldVal := range oldMap {
		if _, exists := newMap[key]; !exists {
			changes[key] = Change{Before: oldVal, After: nil}
		}
	}
	return changes
}

func fieldMap(c *Contact) (map[string]interface{}, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func jsonEqual(a, b interface{}) bool {
	aJSON, err1 := json.Marshal(a)
	bJSON, err2 := json.Marshal(b)
	if err1 != nil || err2 != nil {
		return false
	}
	return string(aJSON) == string(bJSON)
}
