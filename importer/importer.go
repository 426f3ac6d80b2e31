// ABOUTME: Import pipeline that validates, transforms and merges CSV contacts
// ABOUTME: Deduplicates by email against the store and reports a batch summary
package importer

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/harperreed/nexuscrm/db"
	"github.com/harperreed/nexuscrm/logging"
	"github.com/harperreed/nexuscrm/metrics"
	"github.com/harperreed/nexuscrm/models"
)

// Options controls how rows that duplicate a known email are handled. With
// both flags false, duplicates are imported as new contacts.
type Options struct {
	// SkipDuplicates leaves rows whose email is already known out of the batch.
	SkipDuplicates bool `json:"skipDuplicates"`
	// UpdateExisting fills blank fields of the matching contact instead.
	// It takes precedence over SkipDuplicates.
	UpdateExisting bool `json:"updateExisting"`
	// Force imports even when validation reported errors.
	Force bool `json:"force"`
}

func DefaultOptions() Options {
	return Options{SkipDuplicates: true}
}

// ValidationError is returned when validation fails and the import was not forced.
type ValidationError struct {
	Report Report
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s)", len(e.Report.Errors))
}

type SkippedRow struct {
	Row    int    `json:"row"`
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// Summary describes what one import batch did.
type Summary struct {
	BatchID         string           `json:"batchId"`
	Imported        int              `json:"imported"`
	Updated         int              `json:"updated"`
	Skipped         int              `json:"skipped"`
	Errored         int              `json:"errors"`
	Dropped         int              `json:"dropped"`
	Contacts        []models.Contact `json:"contacts"`
	UpdatedContacts []models.Contact `json:"updatedContacts"`
	SkippedRows     []SkippedRow     `json:"skippedRows"`
	ErrorRows       []RowError       `json:"errorRows"`
	Warnings        []string         `json:"warnings"`
}

type Importer struct {
	db     *sql.DB
	logger logrus.FieldLogger
}

func New(database *sql.DB, logger logrus.FieldLogger) *Importer {
	return &Importer{
		db:     database,
		logger: logging.Component(logger, "importer"),
	}
}

// Import runs validation, transformation and the merge for one table. The
// merge is a single transaction: either every new and updated contact is
// written or none is.
func (im *Importer) Import(ctx context.Context, table *Table, mapping Mapping, opts Options) (*Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batchID := uuid.New().String()
	log := im.logger.WithFields(logrus.Fields{
		"batch_id": batchID,
		"rows":     table.RowCount(),
	})

	report := Validate(table, mapping)
	if !report.Valid && !opts.Force {
		metrics.RecordImportBatch(false)
		log.WithField("errors", len(report.Errors)).Warn("import rejected by validation")
		return nil, &ValidationError{Report: report}
	}

	transformed := Transform(table, mapping)

	existing, err := db.ListContacts(im.db)
	if err != nil {
		metrics.RecordImportBatch(false)
		return nil, errors.Wrap(err, "failed to load contacts for matching")
	}
	matcher := NewContactMatcher(existing)

	summary := &Summary{
		BatchID:     batchID,
		Dropped:     table.Dropped,
		SkippedRows: []SkippedRow{},
		ErrorRows:   transformed.Errors,
		Warnings:    report.Warnings,
	}

	// Pointers into these slices are registered with the matcher, so they
	// are sized up front and never reallocated.
	pending := make([]models.Contact, 0, len(transformed.Contacts))
	updates := map[int64]*models.Contact{}
	var updateOrder []int64

	for i := range transformed.Contacts {
		contact := transformed.Contacts[i]
		row := transformed.Rows[i]

		match, found := matcher.FindMatch(contact.Email)
		if found && (opts.UpdateExisting || opts.SkipDuplicates) {
			if !opts.UpdateExisting {
				summary.SkippedRows = append(summary.SkippedRows, SkippedRow{
					Row: row, Email: contact.Email, Reason: "duplicate email",
				})
				continue
			}

			if !fillBlanks(match, &contact) {
				summary.SkippedRows = append(summary.SkippedRows, SkippedRow{
					Row: row, Email: contact.Email, Reason: "no blank fields to fill",
				})
				continue
			}
			if isStored(match, existing) {
				if _, queued := updates[match.ID]; !queued {
					updates[match.ID] = match
					updateOrder = append(updateOrder, match.ID)
				}
			}
			continue
		}

		pending = append(pending, contact)
		matcher.AddContact(&pending[len(pending)-1])
	}

	updated := make([]models.Contact, 0, len(updateOrder))
	for _, id := range updateOrder {
		updated = append(updated, *updates[id])
	}

	inserted, updated, err := db.MergeContacts(im.db, pending, updated)
	if err != nil {
		metrics.RecordImportBatch(false)
		log.WithError(err).Error("import merge failed")
		return nil, errors.Wrap(err, "failed to merge imported contacts")
	}

	summary.Contacts = inserted
	summary.UpdatedContacts = updated
	summary.Imported = len(inserted)
	summary.Updated = len(updated)
	summary.Skipped = len(summary.SkippedRows)
	summary.Errored = len(summary.ErrorRows)

	metrics.RecordImportRows(metrics.OutcomeImported, summary.Imported)
	metrics.RecordImportRows(metrics.OutcomeUpdated, summary.Updated)
	metrics.RecordImportRows(metrics.OutcomeSkipped, summary.Skipped)
	metrics.RecordImportRows(metrics.OutcomeErrored, summary.Errored)
	metrics.RecordImportRows(metrics.OutcomeDropped, summary.Dropped)
	metrics.RecordImportBatch(true)

	log.WithFields(logrus.Fields{
		"imported": summary.Imported,
		"updated":  summary.Updated,
		"skipped":  summary.Skipped,
		"errored":  summary.Errored,
		"dropped":  summary.Dropped,
	}).Info("import complete")

	return summary, nil
}

// isStored reports whether c points into the store snapshot rather than at
// a contact pending insertion in this batch.
func isStored(c *models.Contact, snapshot []models.Contact) bool {
	for i := range snapshot {
		if &snapshot[i] == c {
			return true
		}
	}
	return false
}
