// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prophetdb/paper-downloader/pkg/types"
)

const historyFile = "history.json"

// AppendHistory records a harvest run in history.json inside dir, which is
// the directory holding the run's config file. The ledger is an append-only
// JSON array; a missing file starts a new one.
func AppendHistory(dir string, entry types.HistoryEntry) error {
	path := filepath.Join(dir, historyFile)

	var entries []types.HistoryEntry
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	entries = append(entries, entry)
	if err := writeJSON(path, entries); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
