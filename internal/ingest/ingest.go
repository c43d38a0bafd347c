// Package ingest finds receipt files on disk, either once (Discover) or as they arrive
// (Watch).
package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/receipt-ledger/constants"
)

// Options filter discovered files.
type Options struct {
	Extensions []string // lowercased sans '.'; empty -> constants.DefaultReceiptExtensions
	Recursive  bool
	SkipHidden bool
}

func (o Options) extSet() map[string]struct{} {
	if len(o.Extensions) == 0 {
		return constants.ExtSet(constants.DefaultReceiptExtensions)
	}
	return constants.ExtSet(o.Extensions)
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned uint32 // entries visited, root excluded
	Matched uint32
	Skipped uint32 // hidden entries and unmatched extensions
	Failed  uint32 // entries that could not be read
}

// Discover walks root and returns matching file paths in lexical order.
func Discover(root string, opts Options, logger *slog.Logger) ([]string, DirStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var stats DirStats
	if strings.TrimSpace(root) == "" {
		return nil, stats, errors.New("receipt directory is required")
	}
	exts := opts.extSet()

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if path == root {
			// a root we cannot read is fatal; WalkDir reports it here
			return walkErr
		}
		stats.Scanned++
		if walkErr != nil {
			logger.Warn("skipping unreadable entry", "path", path, "error", walkErr)
			stats.Failed++
			return nil // continue walking
		}
		// skip hidden dirs/files if requested
		if opts.SkipHidden && IsHidden(path) {
			stats.Skipped++
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if !opts.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !Allowed(path, exts) {
			stats.Skipped++
			return nil
		}
		stats.Matched++
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Strings(paths)
	logger.Info("receipts discovered",
		"root", root,
		"matched", stats.Matched,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
	)
	return paths, stats, nil
}

// Allowed reports whether path has one of the given extensions.
func Allowed(path string, exts map[string]struct{}) bool {
	_, ok := exts[constants.NormalizeExt(filepath.Ext(path))]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}
