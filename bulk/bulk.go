// ABOUTME: Bulk actions over a selection of contacts
// ABOUTME: Returns a needs-input result instead of prompting when an action is missing its argument
package bulk

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/harperreed/nexuscrm/db"
	"github.com/harperreed/nexuscrm/exporter"
	"github.com/harperreed/nexuscrm/metrics"
	"github.com/harperreed/nexuscrm/models"
)

type Action string

const (
	ActionAssignOwner  Action = "assign_owner"
	ActionChangeStatus Action = "change_status"
	ActionAddTags      Action = "add_tags"
	ActionExport       Action = "export"
	ActionDelete       Action = "delete"
)

var Actions = []Action{ActionAssignOwner, ActionChangeStatus, ActionAddTags, ActionExport, ActionDelete}

// Label returns the menu text for the action.
func (a Action) Label() string {
	switch a {
	case ActionAssignOwner:
		return "Assign Owner"
	case ActionChangeStatus:
		return "Change Status"
	case ActionAddTags:
		return "Add Tags"
	case ActionExport:
		return "Export Selected"
	case ActionDelete:
		return "Delete Selected"
	}
	return string(a)
}

func ParseAction(s string) (Action, error) {
	for _, a := range Actions {
		if string(a) == s {
			return a, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownAction, "%q", s)
}

var ErrUnknownAction = errors.New("unknown bulk action")

// Owners offered when assigning an owner.
var Owners = []string{"John Smith", "Emily Davis", "Sarah Johnson"}

type Request struct {
	Action Action  `json:"action"`
	IDs    []int64 `json:"ids"`
	// Input is the owner name, lead status or comma-separated tags.
	Input string `json:"input,omitempty"`
	// Confirmed must be set for delete.
	Confirmed bool `json:"confirmed,omitempty"`
}

// InputRequest tells the caller what to collect before re-sending the request.
type InputRequest struct {
	Field   string   `json:"field"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options,omitempty"`
}

type Result struct {
	Action     Action         `json:"action"`
	Selected   int            `json:"selected"`
	Affected   int64          `json:"affected"`
	Message    string         `json:"message,omitempty"`
	NeedsInput *InputRequest  `json:"needsInput,omitempty"`
	File       *exporter.File `json:"file,omitempty"`
}

// Run applies req to the selected contacts. It never blocks for input: when
// an argument or confirmation is missing it returns a Result whose
// NeedsInput describes it and leaves the store untouched.
func Run(ctx context.Context, database *sql.DB, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := ParseAction(string(req.Action)); err != nil {
		return nil, err
	}

	result := &Result{Action: req.Action, Selected: len(req.IDs)}
	if len(req.IDs) == 0 {
		result.Message = "No contacts selected"
		return result, nil
	}

	if need := missingInput(req); need != nil {
		result.NeedsInput = need
		metrics.RecordBulkAction(string(req.Action), "needs_input")
		return result, nil
	}

	var err error
	switch req.Action {
	case ActionAssignOwner:
		owner := strings.TrimSpace(req.Input)
		result.Affected, err = db.AssignOwner(database, req.IDs, owner)
		result.Message = fmt.Sprintf("Assigned %d contacts to %s", result.Affected, owner)

	case ActionChangeStatus:
		var status models.LeadStatus
		status, err = models.ParseLeadStatus(req.Input)
		if err != nil {
			break
		}
		result.Affected, err = db.ChangeLeadStatus(database, req.IDs, status)
		result.Message = fmt.Sprintf("Updated status for %d contacts", result.Affected)

	case ActionAddTags:
		result.Affected, err = db.AddTopics(database, req.IDs, SplitTags(req.Input))
		result.Message = fmt.Sprintf("Added tags to %d contacts", result.Affected)

	case ActionExport:
		var contacts []models.Contact
		contacts, err = db.GetContactsByIDs(database, req.IDs)
		if err != nil {
			break
		}
		result.File, err = exporter.ExportContacts(contacts)
		result.Affected = int64(len(contacts))
		result.Message = fmt.Sprintf("Exported %d contacts", len(contacts))

	case ActionDelete:
		result.Affected, err = db.BulkDeleteContacts(database, req.IDs)
		result.Message = fmt.Sprintf("Deleted %d contacts", result.Affected)
	}

	if err != nil {
		metrics.RecordBulkAction(string(req.Action), "error")
		return nil, errors.Wrapf(err, "failed to run %s", req.Action)
	}

	metrics.RecordBulkAction(string(req.Action), "ok")
	return result, nil
}

func missingInput(req Request) *InputRequest {
	switch req.Action {
	case ActionAssignOwner:
		if strings.TrimSpace(req.Input) == "" {
			return &InputRequest{Field: "owner", Prompt: "Enter owner name:", Options: Owners}
		}
	case ActionChangeStatus:
		if strings.TrimSpace(req.Input) == "" {
			options := make([]string, len(models.LeadStatuses))
			for i, s := range models.LeadStatuses {
				options[i] = string(s)
			}
			return &InputRequest{
				Field:   "status",
				Prompt:  "Enter new status (New Lead, Qualified, Customer, Unqualified):",
				Options: options,
			}
		}
	case ActionAddTags:
		if len(SplitTags(req.Input)) == 0 {
			return &InputRequest{Field: "tags", Prompt: "Enter tags (comma-separated):"}
		}
	case ActionDelete:
		if !req.Confirmed {
			return &InputRequest{
				Field:  "confirm",
				Prompt: fmt.Sprintf("Delete %d contacts? This cannot be undone.", len(req.IDs)),
			}
		}
	}
	return nil
}

// SplitTags splits comma-separated tags, trimming and dropping empties.
func SplitTags(input string) []string {
	var tags []string
	for _, t := range strings.Split(input, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
