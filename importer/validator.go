// ABOUTME: Pre-import validation of parsed CSV rows
// ABOUTME: Reports missing names, bad emails and bad dates as errors; repeats and unknown statuses as warnings
package importer

import (
	"fmt"
	"regexp"

	"github.com/harperreed/nexuscrm/models"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Report is the outcome of Validate.
type Report struct {
	Valid     bool     `json:"valid"`
	Errors    []string `json:"errors"`
	Warnings  []string `json:"warnings"`
	TotalRows int      `json:"totalRows"`
	ValidRows int      `json:"validRows"`
}

// IsValidEmail reports whether s looks like local@domain.tld.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Validate checks every row of table under mapping. Row numbers count the
// header as row 1. ValidRows subtracts the number of error messages, so a
// row with two problems counts twice.
func Validate(table *Table, mapping Mapping) Report {
	nameCol, hasName := columnFor(table, mapping, FieldName)
	emailCol, hasEmail := columnFor(table, mapping, FieldEmail)
	statusCol, hasStatus := columnFor(table, mapping, FieldLeadStatus)
	dateCols := []struct {
		label string
		field string
	}{
		{"created date", FieldCreatedDate},
		{"last activity", FieldLastActivity},
	}

	report := Report{
		Errors:    []string{},
		Warnings:  []string{},
		TotalRows: len(table.Rows),
	}

	emailCounts := map[string]int{}
	if hasEmail {
		for _, row := range table.Rows {
			if email := row[emailCol]; email != "" {
				emailCounts[email]++
			}
		}
	}

	for i, row := range table.Rows {
		rowNumber := i + 2

		if hasName && row[nameCol] == "" {
			report.Errors = append(report.Errors, fmt.Sprintf("Row %d: Name is required", rowNumber))
		}

		if hasEmail {
			email := row[emailCol]
			if email != "" && !IsValidEmail(email) {
				report.Errors = append(report.Errors, fmt.Sprintf("Row %d: Invalid email format - %s", rowNumber, email))
			}
			if email != "" && emailCounts[email] > 1 {
				report.Warnings = append(report.Warnings, fmt.Sprintf("Row %d: Duplicate email - %s", rowNumber, email))
			}
		}

		for _, dc := range dateCols {
			col, ok := columnFor(table, mapping, dc.field)
			if !ok || row[col] == "" {
				continue
			}
			if _, err := parseDate(row[col]); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("Row %d: Invalid %s - %s", rowNumber, dc.label, row[col]))
			}
		}

		if hasStatus && row[statusCol] != "" {
			if _, err := models.ParseLeadStatus(row[statusCol]); err != nil {
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("Row %d: Unknown lead status - %s (%s used)", rowNumber, row[statusCol], models.LeadStatusNewLead))
			}
		}
	}

	report.Valid = len(report.Errors) == 0
	report.ValidRows = report.TotalRows - len(report.Errors)
	return report
}

// columnFor returns the first header, in table order, mapped to field.
func columnFor(table *Table, mapping Mapping, field string) (string, bool) {
	for _, header := range table.Headers {
		if mapping[header] == field {
			return header, true
		}
	}
	return "", false
}
