package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// CollectImages expands paths into image files: files are kept when their
// extension is allowed, directories are walked recursively. Results are sorted
// per directory so batches run in a stable order.
func CollectImages(paths []string, skipHidden bool, logger *slog.Logger) ([]string, DirStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(paths) == 0 {
		return nil, DirStats{}, errors.New("at least one path is required")
	}

	var out []string
	var stats DirStats
	for _, root := range paths {
		if strings.TrimSpace(root) == "" {
			continue
		}
		st, err := os.Stat(root)
		if err != nil {
			return out, stats, fmt.Errorf("stat %s: %w", root, err)
		}
		if !st.IsDir() {
			stats.Scanned++
			if !AllowedExt(filepath.Ext(root)) {
				stats.Skipped++
				logger.Warn("ingest.collect.skipped", "path", root, "reason", "extension")
				continue
			}
			stats.Matched++
			out = append(out, root)
			continue
		}

		var found []string
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				stats.Failed++
				logger.Warn("ingest.collect.walk_error", "path", path, "error", walkErr)
				return nil
			}
			if skipHidden && path != root && IsHidden(path) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			stats.Scanned++
			if !AllowedExt(filepath.Ext(path)) {
				stats.Skipped++
				return nil
			}
			stats.Matched++
			found = append(found, path)
			return nil
		})
		if err != nil {
			return out, stats, fmt.Errorf("walk: %w", err)
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, stats, nil
}
