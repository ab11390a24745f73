// Package ledger appends timestamped, actor-tagged entries to an item's
// conversation history and stores uploaded files in the attachment directory.
//
// The ledger is append-only from the item's perspective: entries are never
// edited or removed, and attachment references are never dropped.
package ledger

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"

	"wt/internal/item"
)

const (
	dirPerms  = 0o750
	filePerms = 0o600
)

// File is an uploaded file held fully in memory.
type File struct {
	// Name is the original client-side filename. Only its extension is
	// trusted; the base name never becomes a path component.
	Name string
	Data []byte
}

// Ledger stores attachments under a dedicated directory.
type Ledger struct {
	dir string
	now func() time.Time
}

// New creates a ledger storing attachments under dir.
func New(dir string) *Ledger {
	return &Ledger{dir: dir, now: time.Now}
}

// NewWithClock creates a ledger with an injected clock, for tests.
func NewWithClock(dir string, now func() time.Time) *Ledger {
	return &Ledger{dir: dir, now: now}
}

// Dir returns the attachment directory.
func (l *Ledger) Dir() string {
	return l.dir
}

// Append stores the given files, mirrors the saved references into the item's
// flat attachment list (never inserting the same reference twice), and appends
// a comment entry carrying the actor, the comment text (possibly empty for
// attachment-only notes), the saved references, and the current time.
//
// File I/O failures are reported per file and do not abort the append: the
// remaining files and the comment text still land. The caller persists.
func (l *Ledger) Append(it *item.Item, actor, comment string, files []File) []error {
	now := l.now()

	var warnings []error

	saved := make([]string, 0, len(files))

	for _, f := range files {
		ref, saveErr := l.save(it.ID, f)
		if saveErr != nil {
			warnings = append(warnings, fmt.Errorf("attachment %q: %w", f.Name, saveErr))

			continue
		}

		saved = append(saved, ref)

		if !slices.Contains(it.Attachments, ref) {
			it.Attachments = append(it.Attachments, ref)
		}
	}

	it.CommentHistory = append(it.CommentHistory, item.CommentEntry{
		Actor:       actor,
		Comment:     comment,
		Attachments: saved,
		At:          now,
	})
	it.UpdatedAt = now

	return warnings
}

// save writes one file under a collision-free name derived from the item id
// plus a random token, preserving only the original extension.
func (l *Ledger) save(itemID string, f File) (string, error) {
	mkdirErr := os.MkdirAll(l.dir, dirPerms)
	if mkdirErr != nil {
		return "", fmt.Errorf("creating attachment directory: %w", mkdirErr)
	}

	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	ext := filepath.Ext(filepath.Base(f.Name))
	name := itemID + "_" + token + ext
	dest := filepath.Join(l.dir, name)

	writeErr := atomic.WriteFile(dest, bytes.NewReader(f.Data))
	if writeErr != nil {
		return "", fmt.Errorf("writing attachment: %w", writeErr)
	}

	chmodErr := os.Chmod(dest, filePerms)
	if chmodErr != nil {
		return "", fmt.Errorf("setting attachment permissions: %w", chmodErr)
	}

	return dest, nil
}

// ReadFile returns the bytes of a stored attachment. A missing file is an
// error for the caller to report, never a fatal condition.
func (l *Ledger) ReadFile(ref string) ([]byte, error) {
	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, fmt.Errorf("reading attachment: %w", err)
	}

	return data, nil
}
