package diff

import (
	"bytes"
	"sort"
)

// ChangeType classifies how a path differs between two release trees.
type ChangeType string

const (
	// Added marks a path present only in the new tree.
	Added ChangeType = "added"
	// Modified marks a path present in both trees with differing content.
	Modified ChangeType = "modified"
	// Removed marks a path present only in the old tree.
	Removed ChangeType = "removed"
)

// Changes partitions the paths of two trees into the three disjoint change
// categories. Paths with identical fingerprints in both trees appear nowhere.
// Each slice is sorted lexicographically so emitted files are reproducible.
type Changes struct {
	Added    []string
	Modified []string
	Removed  []string
}

// Compare classifies every path appearing in either snapshot.
// Content equality is decided by fingerprint only; sizes and timestamps
// never influence the result.
func Compare(oldTree, newTree map[string]Entry) *Changes {
	c := new(Changes)

	for path, newEntry := range newTree {
		oldEntry, found := oldTree[path]
		if !found {
			c.Added = append(c.Added, path)
			continue
		}

		if !bytes.Equal(oldEntry.Checksum, newEntry.Checksum) {
			c.Modified = append(c.Modified, path)
		}
	}

	for path := range oldTree {
		if _, found := newTree[path]; !found {
			c.Removed = append(c.Removed, path)
		}
	}

	sort.Strings(c.Added)
	sort.Strings(c.Modified)
	sort.Strings(c.Removed)

	return c
}

// Changed returns the added and modified paths merged into one sorted list.
// This is the file set that ends up in the patch package and its manifest.
func (c *Changes) Changed() []string {
	merged := make([]string, 0, len(c.Added)+len(c.Modified))
	merged = append(merged, c.Added...)
	merged = append(merged, c.Modified...)
	sort.Strings(merged)

	return merged
}

// IsEmpty reports whether the two trees are identical.
func (c *Changes) IsEmpty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Removed) == 0
}
