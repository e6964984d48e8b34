// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// Export writes a job record as pretty JSON under dataDir/results, atomically
// so readers never observe a partial file.
func (s *Store) Export(ctx context.Context, dataDir, id string) (string, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("store: encode export for %s: %w", id, err)
	}
	dir := filepath.Join(dataDir, "results")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("store: create results dir: %w", err)
	}
	path := filepath.Join(dir, id+".json")
	if err := renameio.WriteFile(path, raw, 0o640); err != nil {
		return "", fmt.Errorf("store: export %s: %w", id, err)
	}
	return path, nil
}
