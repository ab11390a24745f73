// Package store persists the full item collection as a single JSON document.
//
// The document is the only durable record: it is rewritten in full on every
// mutation (atomic from the reader's perspective) and read back leniently.
// Load never fails past the store boundary - a missing, malformed, or
// alien-shaped document yields an empty collection.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"

	"wt/internal/item"
)

const (
	dirPerms  = 0o750
	filePerms = 0o600
)

// Store reads and writes the item document at a fixed path.
type Store struct {
	path string
	now  func() time.Time
}

// New creates a store for the document at path.
func New(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// NewWithClock creates a store with an injected clock, for tests.
func NewWithClock(path string, now func() time.Time) *Store {
	return &Store{path: path, now: now}
}

// Path returns the document path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted collection. Three on-disk shapes are tolerated: a
// bare list of records, a document with an "items" list, or a mapping of
// id to record. Any other shape, or a read/parse failure, yields an empty
// collection.
func (s *Store) Load() []item.Item {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return []item.Item{}
	}

	// Standardize tolerates JSONC-style slack (comments, trailing commas)
	// left behind by hand edits.
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return []item.Item{}
	}

	var raw any

	unmarshalErr := json.Unmarshal(standardized, &raw)
	if unmarshalErr != nil {
		return []item.Item{}
	}

	return s.decode(raw)
}

// decode maps the three tolerated document shapes onto a normalized collection.
func (s *Store) decode(raw any) []item.Item {
	now := s.now()

	switch doc := raw.(type) {
	case []any:
		return normalizeRecords(doc, now)

	case map[string]any:
		if wrapped, ok := doc["items"].([]any); ok {
			return normalizeRecords(wrapped, now)
		}

		// id->record mapping. JSON object order is not preserved, so order
		// by creation time (id as tiebreak) for a stable collection.
		items := make([]item.Item, 0, len(doc))

		for _, v := range doc {
			rec, recOK := v.(map[string]any)
			if !recOK {
				return []item.Item{}
			}

			items = append(items, item.Normalize(rec, now))
		}

		slices.SortFunc(items, func(a, b item.Item) int {
			if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
				return c
			}

			return strings.Compare(a.ID, b.ID)
		})

		return items

	default:
		return []item.Item{}
	}
}

// normalizeRecords coerces a list of raw records, dropping non-object entries.
func normalizeRecords(list []any, now time.Time) []item.Item {
	items := make([]item.Item, 0, len(list))

	for _, elem := range list {
		rec, ok := elem.(map[string]any)
		if !ok {
			continue
		}

		items = append(items, item.Normalize(rec, now))
	}

	return items
}

// Persist sanitizes the collection and overwrites the document atomically.
// This is the single canonical write path; every mutation routes through it.
// Returns the sanitized collection so callers can keep their in-memory state
// identical to what subsequent loads will see.
func (s *Store) Persist(items []item.Item) ([]item.Item, error) {
	clean := item.Sanitize(items, s.now())

	mkdirErr := os.MkdirAll(filepath.Dir(s.path), dirPerms)
	if mkdirErr != nil {
		return nil, fmt.Errorf("creating data directory: %w", mkdirErr)
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	encodeErr := enc.Encode(clean)
	if encodeErr != nil {
		return nil, fmt.Errorf("encoding items: %w", encodeErr)
	}

	writeErr := atomic.WriteFile(s.path, &buf)
	if writeErr != nil {
		return nil, fmt.Errorf("writing data file: %w", writeErr)
	}

	// atomic.WriteFile doesn't set permissions for new files.
	chmodErr := os.Chmod(s.path, filePerms)
	if chmodErr != nil {
		return nil, fmt.Errorf("setting data file permissions: %w", chmodErr)
	}

	return clean, nil
}
