package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"wt/internal/item"
)

func sampleItems() []item.Item {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	billed := item.New("Fix login", item.TypeDefect, "Acme", "Portal", true, now)
	hours := 2.5
	rate := 80.0
	billed.Hours = &hours
	billed.RateAtCompletion = &rate
	billed.RecomputeAmount()
	billed.Status = item.StatusCompleted
	billed.Attachments = []string{"attachments/a.png"}

	fresh := item.New("Write docs", item.TypeTask, "Acme", "", false, now.Add(time.Hour))

	return []item.Item{billed, fresh}
}

func TestCSVShape(t *testing.T) {
	t.Parallel()

	data, err := CSV(sampleItems())
	if err != nil {
		t.Fatal(err)
	}

	rows, readErr := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if readErr != nil {
		t.Fatal(readErr)
	}

	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}

	for idx, col := range Header {
		if rows[0][idx] != col {
			t.Errorf("header[%d] = %q, want %q", idx, rows[0][idx], col)
		}
	}

	row := rows[1]
	cell := func(name string) string {
		for idx, col := range Header {
			if col == name {
				return row[idx]
			}
		}

		t.Fatalf("no column %q", name)

		return ""
	}

	if got, want := cell("title"), "Fix login"; got != want {
		t.Errorf("title = %q, want %q", got, want)
	}

	if got, want := cell("amount"), "200"; got != want {
		t.Errorf("amount = %q, want %q", got, want)
	}

	if got, want := cell("billable"), "true"; got != want {
		t.Errorf("billable = %q, want %q", got, want)
	}

	if cell("completed_at") != "" {
		t.Error("unset completed_at should render empty")
	}

	// Nested fields are stringified JSON.
	var attachments []string
	if unmarshalErr := json.Unmarshal([]byte(cell("attachments")), &attachments); unmarshalErr != nil {
		t.Fatalf("attachments cell is not JSON: %v", unmarshalErr)
	}

	if len(attachments) != 1 || attachments[0] != "attachments/a.png" {
		t.Errorf("attachments = %v", attachments)
	}

	var history []item.CommentEntry
	if unmarshalErr := json.Unmarshal([]byte(cell("comment_history")), &history); unmarshalErr != nil {
		t.Fatalf("comment_history cell is not JSON: %v", unmarshalErr)
	}

	if len(history) != 1 || history[0].Comment != "Task created" {
		t.Errorf("history = %+v", history)
	}
}

func TestCSVEmptyCollection(t *testing.T) {
	t.Parallel()

	data, err := CSV(nil)
	if err != nil {
		t.Fatal(err)
	}

	rows, readErr := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if readErr != nil {
		t.Fatal(readErr)
	}

	if len(rows) != 1 {
		t.Fatalf("got %d rows, want header only", len(rows))
	}
}

func TestJSONRoundTrips(t *testing.T) {
	t.Parallel()

	items := sampleItems()

	data, err := JSON(items)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(string(data), "\n  {") {
		t.Error("output should be indented")
	}

	var decoded []item.Item
	if unmarshalErr := json.Unmarshal(data, &decoded); unmarshalErr != nil {
		t.Fatal(unmarshalErr)
	}

	if len(decoded) != 2 {
		t.Fatalf("got %d items, want 2", len(decoded))
	}

	if decoded[0].ID != items[0].ID || decoded[0].Amount == nil || *decoded[0].Amount != 200.0 {
		t.Errorf("round trip mismatch: %+v", decoded[0])
	}
}
