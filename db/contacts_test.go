// ABOUTME: Tests for contact store operations
// ABOUTME: Covers CRUD, bulk updates, merge re-keying and id monotonicity
package db

import (
	"database/sql"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/nexuscrm/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := OpenDatabase(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func setupSeededDB(t *testing.T) *sql.DB {
	t.Helper()
	database := setupTestDB(t)
	contacts, err := LoadFixture()
	require.NoError(t, err)
	require.NoError(t, SeedContacts(database, contacts))
	return database
}

func TestLoadFixture(t *testing.T) {
	contacts, err := LoadFixture()
	require.NoError(t, err)
	require.NotEmpty(t, contacts)

	seen := map[int64]bool{}
	for _, c := range contacts {
		assert.Positive(t, c.ID)
		assert.False(t, seen[c.ID], "duplicate fixture id %d", c.ID)
		seen[c.ID] = true
		_, err := models.ParseLeadStatus(string(c.LeadStatus))
		assert.NoError(t, err, "contact %d", c.ID)
	}
}

func TestSeedKeepsFixtureIDs(t *testing.T) {
	database := setupSeededDB(t)

	fixture, err := LoadFixture()
	require.NoError(t, err)

	stored, err := ListContacts(database)
	require.NoError(t, err)
	require.Len(t, stored, len(fixture))

	for i := range fixture {
		assert.Equal(t, fixture[i].ID, stored[i].ID)
		assert.Equal(t, fixture[i].Email, stored[i].Email)
		assert.Equal(t, fixture[i].Topics, stored[i].Topics)
		assert.True(t, fixture[i].CreatedDate.Equal(stored[i].CreatedDate))
	}
}

func TestCreateAndGetContact(t *testing.T) {
	database := setupTestDB(t)

	avatar := "https://example.com/a.png"
	contact := &models.Contact{
		Name:         "Ada Lovelace",
		Email:        "ada@engine.io",
		Company:      "Analytical",
		Topics:       []string{"Math"},
		IsSubscribed: true,
		Avatar:       &avatar,
	}
	require.NoError(t, CreateContact(database, contact))
	assert.Positive(t, contact.ID)
	assert.False(t, contact.CreatedDate.IsZero())

	got, err := GetContact(database, contact.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.Name)
	assert.Equal(t, models.LeadStatusNewLead, got.LeadStatus)
	assert.Equal(t, []string{"Math"}, got.Topics)
	assert.True(t, got.IsSubscribed)
	require.NotNil(t, got.Avatar)
	assert.Equal(t, avatar, *got.Avatar)
}

func TestGetContactNotFound(t *testing.T) {
	database := setupTestDB(t)

	_, err := GetContact(database, 404)
	assert.True(t, errors.Is(err, ErrContactNotFound))
}

func TestUpdateContactPartial(t *testing.T) {
	database := setupSeededDB(t)

	before, err := GetContact(database, 1)
	require.NoError(t, err)

	company := "New Co"
	status := models.LeadStatusQualified
	after, err := UpdateContact(database, 1, ContactUpdate{Company: &company, LeadStatus: &status})
	require.NoError(t, err)

	assert.Equal(t, before.Name, after.Name)
	assert.Equal(t, before.Email, after.Email)
	assert.Equal(t, "New Co", after.Company)
	assert.Equal(t, models.LeadStatusQualified, after.LeadStatus)
	assert.True(t, after.LastActivity.After(before.LastActivity))

	stored, err := GetContact(database, 1)
	require.NoError(t, err)
	assert.Equal(t, "New Co", stored.Company)
}

func TestDeleteContact(t *testing.T) {
	database := setupSeededDB(t)

	require.NoError(t, DeleteContact(database, 2))
	_, err := GetContact(database, 2)
	assert.True(t, errors.Is(err, ErrContactNotFound))

	err = DeleteContact(database, 2)
	assert.True(t, errors.Is(err, ErrContactNotFound))
}

func TestIDsNeverReused(t *testing.T) {
	database := setupTestDB(t)

	first := &models.Contact{Name: "First"}
	second := &models.Contact{Name: "Second"}
	require.NoError(t, CreateContact(database, first))
	require.NoError(t, CreateContact(database, second))

	_, err := BulkDeleteContacts(database, []int64{first.ID, second.ID})
	require.NoError(t, err)

	third := &models.Contact{Name: "Third"}
	require.NoError(t, CreateContact(database, third))
	assert.Greater(t, third.ID, second.ID)
}

func TestIDsContinueAfterSeed(t *testing.T) {
	database := setupSeededDB(t)

	fixture, err := LoadFixture()
	require.NoError(t, err)
	var maxID int64
	for _, c := range fixture {
		if c.ID > maxID {
			maxID = c.ID
		}
	}

	contact := &models.Contact{Name: "After Seed"}
	require.NoError(t, CreateContact(database, contact))
	assert.Equal(t, maxID+1, contact.ID)
}

func TestBulkDeleteIgnoresUnknownIDs(t *testing.T) {
	database := setupSeededDB(t)

	n, err := BulkDeleteContacts(database, []int64{1, 3, 999})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = BulkDeleteContacts(database, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBulkUpdates(t *testing.T) {
	database := setupSeededDB(t)
	ids := []int64{1, 2}

	n, err := AssignOwner(database, ids, "Emily Davis")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = ChangeLeadStatus(database, ids, models.LeadStatusUnqualified)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = AddTopics(database, ids, []string{"Renewal", "Renewal", " "})
	require.NoError(t, err)

	for _, id := range ids {
		c, err := GetContact(database, id)
		require.NoError(t, err)
		assert.Equal(t, "Emily Davis", c.Owner)
		assert.Equal(t, models.LeadStatusUnqualified, c.LeadStatus)

		count := 0
		for _, topic := range c.Topics {
			if topic == "Renewal" {
				count++
			}
		}
		assert.Equal(t, 1, count)
	}

	untouched, err := GetContact(database, 3)
	require.NoError(t, err)
	assert.NotEqual(t, "Renewal", untouched.Topics[len(untouched.Topics)-1])
}

func TestInsertContactsReKeys(t *testing.T) {
	database := setupSeededDB(t)

	incoming := []models.Contact{
		{ID: 1700000000000, Name: "Imported One", Email: "one@import.io"},
		{ID: 1700000000001, Name: "Imported Two", Email: "two@import.io"},
	}

	inserted, err := InsertContacts(database, incoming)
	require.NoError(t, err)
	require.Len(t, inserted, 2)
	assert.Less(t, inserted[0].ID, inserted[1].ID)
	assert.Less(t, inserted[1].ID, int64(1700000000000))

	// input slice is left alone
	assert.Equal(t, int64(1700000000000), incoming[0].ID)

	found, err := FindContactsByEmail(database, "  ONE@import.io ")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, inserted[0].ID, found[0].ID)
}

func TestMergeContactsRollsBackOnFailure(t *testing.T) {
	database := setupSeededDB(t)

	before, err := CountContacts(database)
	require.NoError(t, err)

	inserts := []models.Contact{{Name: "Will Roll Back"}}
	updates := []models.Contact{{ID: 9999, Name: "Ghost"}}

	_, _, err = MergeContacts(database, inserts, updates)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrContactNotFound))

	after, err := CountContacts(database)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
