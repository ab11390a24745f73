// Package item defines the tracked work item and its normalization boundary.
//
// Everything persisted by wt is an Item. Records read from disk pass through
// Normalize before any other code sees them, so the rest of the system can rely
// on fully-populated, typed values.
package item

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Item statuses.
const (
	StatusReady      = "ready"
	StatusInProgress = "inprogress"
	StatusCompleted  = "completed"
)

// Item types.
const (
	TypeTask   = "task"
	TypeDefect = "defect"
)

// Comment actors.
const (
	ActorSystem = "system"
	ActorDev    = "dev"
	ActorClient = "client"
)

// Valid statuses and types.
//
//nolint:gochecknoglobals // package-level constants
var (
	Statuses = []string{StatusReady, StatusInProgress, StatusCompleted}
	Types    = []string{TypeTask, TypeDefect}
)

// CommentEntry is one entry in an item's conversation ledger.
// Entries are appended, never edited or removed.
type CommentEntry struct {
	Actor       string    `json:"actor"`
	Comment     string    `json:"comment"`
	Attachments []string  `json:"attachments"`
	At          time.Time `json:"at"`
}

// Item is a task or defect tracked through the workflow.
// Field names mirror the persisted JSON document.
type Item struct {
	ID                    string         `json:"id"`
	Type                  string         `json:"type"`
	Title                 string         `json:"title"`
	Client                string         `json:"client"`
	Project               string         `json:"project"`
	Billable              bool           `json:"billable"`
	Status                string         `json:"status"`
	Hours                 *float64       `json:"hours"`
	RateAtCompletion      *float64       `json:"rate_at_completion"`
	Amount                *float64       `json:"amount"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	CompletedAt           *time.Time     `json:"completed_at"`
	Archived              bool           `json:"archived"`
	NeedsClientApproval   bool           `json:"needs_client_approval"`
	ClientApproved        bool           `json:"client_approved"`
	ReviewRequested       bool           `json:"review_requested"`
	PaymentRequested      bool           `json:"payment_requested"`
	PaymentConfirmedByDev bool           `json:"payment_confirmed_by_dev"`
	PaymentRequestedAt    *time.Time     `json:"payment_requested_at"`
	PaymentConfirmedAt    *time.Time     `json:"payment_confirmed_at"`
	Attachments           []string       `json:"attachments"`
	CommentHistory        []CommentEntry `json:"comment_history"`
}

// NewID generates a new opaque item identifier.
func NewID() string {
	return uuid.NewString()
}

// New creates a fresh item in the ready state with a seeded system comment.
// Title, client and project are trimmed. The caller supplies the clock so
// created/updated timestamps and the seed comment agree.
func New(title, itemType, client, project string, billable bool, now time.Time) Item {
	it := Item{
		ID:          NewID(),
		Type:        itemType,
		Title:       strings.TrimSpace(title),
		Client:      strings.TrimSpace(client),
		Project:     strings.TrimSpace(project),
		Billable:    billable,
		Status:      StatusReady,
		CreatedAt:   now,
		UpdatedAt:   now,
		Attachments: []string{},
		CommentHistory: []CommentEntry{{
			Actor:       ActorSystem,
			Comment:     "Task created",
			Attachments: []string{},
			At:          now,
		}},
	}

	if !IsValidType(it.Type) {
		it.Type = TypeTask
	}

	return it
}

// IsValidStatus checks if the status is one of the known statuses.
func IsValidStatus(status string) bool {
	return slices.Contains(Statuses, status)
}

// IsValidType checks if the item type is known.
func IsValidType(itemType string) bool {
	return slices.Contains(Types, itemType)
}

// RoundAmount rounds a billing amount to 2 decimal places.
func RoundAmount(v float64) float64 {
	return math.Round(v*100) / 100
}

// RecomputeAmount enforces the derived-amount invariant: amount equals
// hours * rate rounded to 2 decimals when both are set, nil otherwise.
// A stored amount is never trusted.
func (it *Item) RecomputeAmount() {
	if it.Hours == nil || it.RateAtCompletion == nil {
		it.Amount = nil

		return
	}

	amount := RoundAmount(*it.Hours * *it.RateAtCompletion)
	it.Amount = &amount
}

// ActiveWithStatus reports whether the item sits on an active board column.
// Archived items never do.
func (it *Item) ActiveWithStatus(status string) bool {
	return it.Status == status && !it.Archived
}

// SortedHistory returns the comment history ordered by timestamp ascending.
// The sort is stable, so entries appended in order keep their order on ties.
func (it *Item) SortedHistory() []CommentEntry {
	history := slices.Clone(it.CommentHistory)

	slices.SortStableFunc(history, func(a, b CommentEntry) int {
		return a.At.Compare(b.At)
	})

	return history
}
