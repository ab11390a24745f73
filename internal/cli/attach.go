package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"wt/internal/ledger"
)

// readAttachments loads the files named by --attach flags fully into memory.
// Unreadable files are reported as warnings and skipped; the surrounding
// operation still runs with whatever could be read.
func readAttachments(o *IO, paths []string) []ledger.File {
	files := make([]ledger.File, 0, len(paths))

	for _, path := range paths {
		data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
		if err != nil {
			o.Warn(fmt.Sprintf("attachment %s: %v (skipped)", path, err))

			continue
		}

		files = append(files, ledger.File{Name: filepath.Base(path), Data: data})
	}

	return files
}

// warnAll surfaces per-file ledger warnings through the IO helper.
func warnAll(o *IO, warnings []error) {
	for _, w := range warnings {
		o.Warn(w.Error())
	}
}
