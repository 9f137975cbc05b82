// Package shard maps canonical ids to bounded-fan-out directory paths so a
// tree holding millions of documents stays navigable.
package shard

import (
	"fmt"
	"os"
	"path/filepath"
)

// Path returns the bucket directory for id with the given unit width. The
// bucket is named after its half-open numeric range, lower..lower+unit-1, so
// every id maps to exactly one bucket and buckets never overlap.
func Path(id, unit int64) string {
	if unit < 1 {
		unit = 1
	}
	lower := (id / unit) * unit
	return fmt.Sprintf("%d-%d", lower, lower+unit-1)
}

// HierarchicalPath nests buckets of decreasing width, e.g. units of
// [1000000, 10000] produce "1000000-1999999/1040000-1049999". Widths must be
// strictly decreasing; equal or increasing widths are skipped since they
// cannot refine the parent bucket.
func HierarchicalPath(id int64, units []int64) string {
	if len(units) == 0 {
		return ""
	}
	parts := make([]string, 0, len(units))
	prev := int64(0)
	for _, unit := range units {
		if unit < 1 || (prev != 0 && unit >= prev) {
			continue
		}
		parts = append(parts, Path(id, unit))
		prev = unit
	}
	return filepath.Join(parts...)
}

// Materialize creates the bucket directory under base and returns its path.
// The mapping itself needs no directory state; mkdir is idempotent.
func Materialize(base string, id, unit int64) (string, error) {
	dir := filepath.Join(base, Path(id, unit))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create shard directory %s: %w", dir, err)
	}
	return dir, nil
}
