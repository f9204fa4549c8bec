package content

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// IndexFileName is the delimited master index consumed by the graphics
// system. It is derived, never authoritative: safe to delete at any time.
const IndexFileName = "index.csv"

// writeIndex rebuilds the index in full from the state, keeping only
// references whose description file actually exists on disk, and replaces
// the file atomically. Rows are emitted in sorted reference order so the
// output is deterministic for a given state and filesystem.
func writeIndex(basePath string, state *StateStore) error {
	indexPath := filepath.Join(basePath, IndexFileName)
	tmp := indexPath + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create index file: %w", err)
	}

	w := csv.NewWriter(f)
	w.Comma = ';'

	writeErr := w.Write([]string{"URL", "RUTA LOCAL"})
	if writeErr == nil {
		for _, reference := range state.Keys() {
			assetID, _ := state.Get(reference)
			descPath := filepath.Join(basePath, assetID, DescriptionFileName)
			if _, err := os.Stat(descPath); err != nil {
				continue
			}

			absPath, err := filepath.Abs(descPath)
			if err != nil {
				absPath = descPath
			}

			if writeErr = w.Write([]string{reference, absPath}); writeErr != nil {
				break
			}
		}
	}

	w.Flush()
	if writeErr == nil {
		writeErr = w.Error()
	}

	if closeErr := f.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write index file: %w", writeErr)
	}

	if err := os.Rename(tmp, indexPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace index file: %w", err)
	}

	return nil
}
