package content

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
)

var statusIDPattern = regexp.MustCompile(`/status/(\d+)`)

// DeriveAssetID maps a reference to its deterministic local asset
// identifier: the numeric status ID embedded in the URL.
func DeriveAssetID(reference string) (string, bool) {
	if m := statusIDPattern.FindStringSubmatch(reference); m != nil {
		return m[1], true
	}
	return "", false
}

// Syncer reconciles the local asset store against the union of references
// currently active across all rundowns: fetch what is newly referenced,
// delete what no longer is, then rebuild the index. It is the only writer
// of the durable state.
type Syncer struct {
	basePath string
	state    *StateStore
	fetcher  AssetFetcher
}

func NewSyncer(basePath string, state *StateStore, fetcher AssetFetcher) *Syncer {
	return &Syncer{
		basePath: basePath,
		state:    state,
		fetcher:  fetcher,
	}
}

// Run performs one reconciliation pass. Calling it twice with the same
// active set and an unchanged filesystem only rewrites the index, with
// identical content.
func (s *Syncer) Run(ctx context.Context, activeRefs []string) error {
	current := make(map[string]bool, len(activeRefs))
	for _, ref := range activeRefs {
		current[ref] = true
	}

	var newRefs, obsoleteRefs []string
	known := make(map[string]bool)
	for _, ref := range s.state.Keys() {
		known[ref] = true
		if !current[ref] {
			obsoleteRefs = append(obsoleteRefs, ref)
		}
	}
	for ref := range current {
		if !known[ref] {
			newRefs = append(newRefs, ref)
		}
	}
	sort.Strings(newRefs)

	if len(newRefs) > 0 {
		slog.Info("New references detected", "count", len(newRefs))
	}
	for _, ref := range newRefs {
		assetID, ok := DeriveAssetID(ref)
		if !ok {
			slog.Warn("Cannot derive asset ID, skipping reference", "reference", ref)
			continue
		}

		slog.Info("Fetching asset", "reference", ref, "asset_id", assetID)
		s.fetcher.Fetch(ctx, ref, filepath.Join(s.basePath, assetID))

		// Recorded regardless of fetch outcome so a persistently failing
		// asset does not cause a retry storm.
		if err := s.state.Set(ref, assetID); err != nil {
			slog.Error("Failed to persist state", "reference", ref, "error", err)
		}
	}

	if len(obsoleteRefs) > 0 {
		slog.Info("Obsolete references detected", "count", len(obsoleteRefs))
	}
	for _, ref := range obsoleteRefs {
		if assetID, ok := s.state.Get(ref); ok && assetID != "" {
			assetDir := filepath.Join(s.basePath, assetID)
			if _, err := os.Stat(assetDir); err == nil {
				slog.Info("Removing obsolete asset", "reference", ref, "dir", assetDir)
				if err := os.RemoveAll(assetDir); err != nil {
					slog.Error("Failed to remove asset dir", "dir", assetDir, "error", err)
				}
			}
		}

		// Removed even when deletion failed, so an unremovable directory
		// cannot block forward progress.
		if err := s.state.Delete(ref); err != nil {
			slog.Error("Failed to persist state", "reference", ref, "error", err)
		}
	}

	return writeIndex(s.basePath, s.state)
}
