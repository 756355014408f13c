package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/docparser/constants"
)

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned uint32
	Matched uint32
	Failed  uint32
}

// Allowed reports whether path has a supported document extension.
func Allowed(path string) bool {
	return constants.MapExtToFormat(filepath.Ext(path)) != ""
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

// ScanDirectory walks root and returns every PDF/DOCX file under it in
// lexical order, skipping hidden entries if requested. Unreadable entries
// are counted as failed and do not stop the walk.
func ScanDirectory(ctx context.Context, root string, skipHidden bool) ([]string, DirStats, error) {
	var stats DirStats
	if strings.TrimSpace(root) == "" {
		return nil, stats, errors.New("root path is required")
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !Allowed(path) {
			return nil
		}
		stats.Matched++
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return paths, stats, fmt.Errorf("walk: %w", err)
	}
	sort.Strings(paths)
	return paths, stats, nil
}
