// Package export renders read-only derived views of the item collection:
// a flattened CSV (one row per item, nested fields stringified as JSON) and a
// pretty-printed JSON list.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"wt/internal/item"
)

// Header is the fixed CSV column order.
//
//nolint:gochecknoglobals // package-level constant
var Header = []string{
	"id", "type", "title", "client", "project", "billable", "status",
	"hours", "rate_at_completion", "amount",
	"created_at", "updated_at", "completed_at", "archived",
	"needs_client_approval", "client_approved", "review_requested",
	"payment_requested", "payment_confirmed_by_dev",
	"payment_requested_at", "payment_confirmed_at",
	"attachments", "comment_history",
}

// CSV renders the collection as UTF-8 CSV with a header row.
func CSV(items []item.Item) ([]byte, error) {
	var buf bytes.Buffer

	w := csv.NewWriter(&buf)

	writeErr := w.Write(Header)
	if writeErr != nil {
		return nil, fmt.Errorf("writing CSV header: %w", writeErr)
	}

	for _, it := range items {
		row, rowErr := record(it)
		if rowErr != nil {
			return nil, rowErr
		}

		writeErr = w.Write(row)
		if writeErr != nil {
			return nil, fmt.Errorf("writing CSV row: %w", writeErr)
		}
	}

	w.Flush()

	flushErr := w.Error()
	if flushErr != nil {
		return nil, fmt.Errorf("flushing CSV: %w", flushErr)
	}

	return buf.Bytes(), nil
}

// JSON renders the collection as a pretty-printed list of records.
func JSON(items []item.Item) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	encodeErr := enc.Encode(items)
	if encodeErr != nil {
		return nil, fmt.Errorf("encoding items: %w", encodeErr)
	}

	return buf.Bytes(), nil
}

func record(it item.Item) ([]string, error) {
	attachments, err := json.Marshal(it.Attachments)
	if err != nil {
		return nil, fmt.Errorf("encoding attachments: %w", err)
	}

	history, err := json.Marshal(it.CommentHistory)
	if err != nil {
		return nil, fmt.Errorf("encoding comment history: %w", err)
	}

	return []string{
		it.ID, it.Type, it.Title, it.Client, it.Project,
		strconv.FormatBool(it.Billable), it.Status,
		floatCell(it.Hours), floatCell(it.RateAtCompletion), floatCell(it.Amount),
		timeCell(&it.CreatedAt), timeCell(&it.UpdatedAt), timeCell(it.CompletedAt),
		strconv.FormatBool(it.Archived),
		strconv.FormatBool(it.NeedsClientApproval), strconv.FormatBool(it.ClientApproved),
		strconv.FormatBool(it.ReviewRequested),
		strconv.FormatBool(it.PaymentRequested), strconv.FormatBool(it.PaymentConfirmedByDev),
		timeCell(it.PaymentRequestedAt), timeCell(it.PaymentConfirmedAt),
		string(attachments), string(history),
	}, nil
}

func floatCell(v *float64) string {
	if v == nil {
		return ""
	}

	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func timeCell(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}

	return t.Format(time.RFC3339Nano)
}
