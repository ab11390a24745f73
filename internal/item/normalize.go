package item

import (
	"strconv"
	"strings"
	"time"
)

// Timestamp layouts accepted on load. Documents written by earlier revisions of
// the tracker carry zone-less ISO timestamps with microsecond precision.
//
//nolint:gochecknoglobals // package-level constant
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// Normalize coerces an arbitrary decoded JSON record into a fully-populated
// Item. Every missing field gets its default, unparsable values fall back to
// their defaults, and status is forced into the valid set. Normalize is total
// and idempotent: feeding its output back in yields the same item.
func Normalize(raw map[string]any, now time.Time) Item {
	it := Item{
		ID:                    asString(raw["id"]),
		Type:                  asString(raw["type"]),
		Title:                 asString(raw["title"]),
		Client:                asString(raw["client"]),
		Project:               asString(raw["project"]),
		Billable:              asBool(raw, "billable", true),
		Status:                asString(raw["status"]),
		Hours:                 asFloatPtr(raw["hours"]),
		RateAtCompletion:      asFloatPtr(raw["rate_at_completion"]),
		Amount:                asFloatPtr(raw["amount"]),
		CreatedAt:             asTime(raw["created_at"], now),
		UpdatedAt:             asTime(raw["updated_at"], now),
		CompletedAt:           asTimePtr(raw["completed_at"]),
		Archived:              asBool(raw, "archived", false),
		NeedsClientApproval:   asBool(raw, "needs_client_approval", false),
		ClientApproved:        asBool(raw, "client_approved", false),
		ReviewRequested:       asBool(raw, "review_requested", false),
		PaymentRequested:      asBool(raw, "payment_requested", false),
		PaymentConfirmedByDev: asBool(raw, "payment_confirmed_by_dev", false),
		PaymentRequestedAt:    asTimePtr(raw["payment_requested_at"]),
		PaymentConfirmedAt:    asTimePtr(raw["payment_confirmed_at"]),
		Attachments:           asStringList(raw["attachments"]),
		CommentHistory:        normalizeHistory(raw["comment_history"], now),
	}

	return it.Normalized(now)
}

// Normalized returns a cleaned copy of the item with every invariant enforced:
// trimmed text fields, valid status and type, recomputed amount, non-nil
// slices, and populated identity and timestamps.
func (it Item) Normalized(now time.Time) Item {
	if it.ID == "" {
		it.ID = NewID()
	}

	it.Title = strings.TrimSpace(it.Title)
	it.Client = strings.TrimSpace(it.Client)
	it.Project = strings.TrimSpace(it.Project)

	if !IsValidType(it.Type) {
		it.Type = TypeTask
	}

	if !IsValidStatus(it.Status) {
		it.Status = StatusReady
	}

	// Optional decimals are non-negative; anything else falls back to unset.
	if it.Hours != nil && *it.Hours < 0 {
		it.Hours = nil
	}

	if it.RateAtCompletion != nil && *it.RateAtCompletion < 0 {
		it.RateAtCompletion = nil
	}

	it.RecomputeAmount()

	if it.CreatedAt.IsZero() {
		it.CreatedAt = now
	}

	if it.UpdatedAt.IsZero() {
		it.UpdatedAt = now
	}

	if it.Attachments == nil {
		it.Attachments = []string{}
	}

	history := make([]CommentEntry, 0, len(it.CommentHistory))

	for _, entry := range it.CommentHistory {
		if entry.Actor == "" {
			entry.Actor = ActorSystem
		}

		if entry.Attachments == nil {
			entry.Attachments = []string{}
		}

		if entry.At.IsZero() {
			entry.At = now
		}

		history = append(history, entry)
	}

	it.CommentHistory = history

	return it
}

// Sanitize normalizes a full collection. The single canonical write path runs
// every collection through here before it reaches disk.
func Sanitize(items []Item, now time.Time) []Item {
	clean := make([]Item, 0, len(items))

	for _, it := range items {
		clean = append(clean, it.Normalized(now))
	}

	return clean
}

// normalizeHistory coerces a raw comment_history value. Non-list values become
// an empty list; non-object entries are dropped.
func normalizeHistory(raw any, now time.Time) []CommentEntry {
	list, ok := raw.([]any)
	if !ok {
		return []CommentEntry{}
	}

	history := make([]CommentEntry, 0, len(list))

	for _, elem := range list {
		rec, recOK := elem.(map[string]any)
		if !recOK {
			continue
		}

		actor := asString(rec["actor"])
		if actor == "" {
			actor = ActorSystem
		}

		history = append(history, CommentEntry{
			Actor:       actor,
			Comment:     asString(rec["comment"]),
			Attachments: asStringList(rec["attachments"]),
			At:          asTime(rec["at"], now),
		})
	}

	return history
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

// asStringList keeps only the string elements of a raw list. Anything that is
// not a list becomes an empty one.
func asStringList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return []string{}
	}

	out := make([]string, 0, len(list))

	for _, elem := range list {
		if s, isStr := elem.(string); isStr {
			out = append(out, s)
		}
	}

	return out
}

// asBool applies truthiness coercion: absent keys take the default, empty
// strings and zero numbers are false, other present values are true.
func asBool(raw map[string]any, key string, def bool) bool {
	v, exists := raw[key]
	if !exists || v == nil {
		return def
	}

	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	case string:
		return b != ""
	default:
		return true
	}
}

func asFloatPtr(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil
		}

		return &parsed
	default:
		return nil
	}
}

func asTimePtr(v any) *time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}

	for _, layout := range timeLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			return &parsed
		}
	}

	return nil
}

func asTime(v any, fallback time.Time) time.Time {
	parsed := asTimePtr(v)
	if parsed == nil {
		return fallback
	}

	return *parsed
}
