// ABOUTME: Tests for the contact activity timeline
// ABOUTME: Verifies each write path records the expected activity
package db

import (
	"testing"

	"github.com/harperreed/nexuscrm/models"
)

func TestActivityRecordedForContactLifecycle(t *testing.T) {
	db, err := OpenSeeded(MemoryPath)
	if err != nil {
		t.Fatalf("OpenSeeded failed: %v", err)
	}
	defer db.Close()

	seeded, err := ListActivities(db, 0, 0)
	if err != nil {
		t.Fatalf("ListActivities failed: %v", err)
	}
	if len(seeded) != 0 {
		t.Fatalf("Expected seeding to record no activity, got %d", len(seeded))
	}

	contact := &models.Contact{Name: "Grace Hopper", Email: "grace@navy.mil", LeadStatus: models.LeadStatusNewLead}
	if err := CreateContact(db, contact); err != nil {
		t.Fatalf("CreateContact failed: %v", err)
	}

	owner := "John Smith"
	if _, err := UpdateContact(db, contact.ID, ContactUpdate{Owner: &owner}); err != nil {
		t.Fatalf("UpdateContact failed: %v", err)
	}
	if err := DeleteContact(db, contact.ID); err != nil {
		t.Fatalf("DeleteContact failed: %v", err)
	}

	activities, err := ListActivities(db, contact.ID, 0)
	if err != nil {
		t.Fatalf("ListActivities failed: %v", err)
	}
	if len(activities) != 3 {
		t.Fatalf("Expected 3 activities, got %d", len(activities))
	}

	verbs := []models.ActivityVerb{activities[0].Verb, activities[1].Verb, activities[2].Verb}
	want := []models.ActivityVerb{models.VerbDeleted, models.VerbUpdated, models.VerbCreated}
	for i := range want {
		if verbs[i] != want[i] {
			t.Errorf("Activity %d: expected %s, got %s", i, want[i], verbs[i])
		}
	}

	update := activities[1]
	change, ok := update.Changes["owner"]
	if !ok {
		t.Fatalf("Expected owner change, got %v", update.Changes)
	}
	if change.Before != nil || change.After != "John Smith" {
		t.Errorf("Unexpected owner change: %+v", change)
	}
	if _, ok := update.Changes["lastActivity"]; ok {
		t.Error("lastActivity should not be reported as a change")
	}
	if activities[0].ContactName != "Grace Hopper" {
		t.Errorf("Expected deleted activity to keep the name, got %q", activities[0].ContactName)
	}
}

func TestActivityRecordedForBulkAndImport(t *testing.T) {
	db, err := OpenSeeded(MemoryPath)
	if err != nil {
		t.Fatalf("OpenSeeded failed: %v", err)
	}
	defer db.Close()

	if _, err := ChangeLeadStatus(db, []int64{1, 2}, models.LeadStatusQualified); err != nil {
		t.Fatalf("ChangeLeadStatus failed: %v", err)
	}
	if _, err := BulkDeleteContacts(db, []int64{3, 999}); err != nil {
		t.Fatalf("BulkDeleteContacts failed: %v", err)
	}
	if _, err := InsertContacts(db, []models.Contact{{Name: "Ada", Email: "ada@engine.org", LeadStatus: models.LeadStatusNewLead}}); err != nil {
		t.Fatalf("InsertContacts failed: %v", err)
	}

	activities, err := ListActivities(db, 0, 0)
	if err != nil {
		t.Fatalf("ListActivities failed: %v", err)
	}
	if len(activities) != 4 {
		t.Fatalf("Expected 4 activities, got %d", len(activities))
	}

	counts := map[string]int{}
	for _, a := range activities {
		counts[string(a.Verb)+"/"+a.Source]++
	}
	if counts["updated/bulk"] != 2 || counts["deleted/bulk"] != 1 || counts["imported/import"] != 1 {
		t.Errorf("Unexpected activity mix: %v", counts)
	}

	limited, err := ListActivities(db, 0, 2)
	if err != nil {
		t.Fatalf("ListActivities failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("Expected limit to apply, got %d", len(limited))
	}
	if limited[0].Verb != models.VerbImported {
		t.Errorf("Expected newest activity first, got %s", limited[0].Verb)
	}
}

func TestContactChangesIgnoresUnchangedFields(t *testing.T) {
	before := models.Contact{ID: 1, Name: "A", Email: "a@b.co", Owner: "X", Topics: []string{"one"}}
	after := before
	after.Owner = ""
	after.Topics = []string{"one", "two"}

	changes := models.ContactChanges(&before, &after)
	if len(changes) != 2 {
		t.Fatalf("Expected 2 changes, got %v", changes)
	}
	if changes["owner"].Before != "X" || changes["owner"].After != nil {
		t.Errorf("Unexpected owner change: %+v", changes["owner"])
	}
	if _, ok := changes["topics"]; !ok {
		t.Error("Expected topics change")
	}
}
