package deploy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Summary collects the figures reported in the human-readable patch summary,
// e.g. for use in release notes.
type Summary struct {
	// RepositoryName names the patched project in the header.
	RepositoryName string
	// OldTag and NewTag are the compared release tags.
	OldTag string
	NewTag string
	// OldCount and NewCount are the total file counts of each tree.
	OldCount int
	NewCount int
	// Changed lists added and modified paths, sorted.
	Changed []string
	// Removed lists removed paths, sorted.
	Removed []string
}

// WriteSummary renders the patch summary document to path.
func WriteSummary(path string, s *Summary) error {
	var builder strings.Builder

	fmt.Fprintf(&builder, "# %s Patch Summary (from %s version to %s)\n\n", s.RepositoryName, s.OldTag, s.NewTag)
	fmt.Fprintf(&builder, "Number of files in OLD: %d\n", s.OldCount)
	fmt.Fprintf(&builder, "Number of files in NEW: %d\n", s.NewCount)
	fmt.Fprintf(&builder, "Number of files in generated patch ZIP: %d\n\n", len(s.Changed))

	builder.WriteString("Modified files:\n")

	for _, rel := range s.Changed {
		builder.WriteString(rel)
		builder.WriteString("\n")
	}

	if len(s.Removed) > 0 {
		builder.WriteString("\nRemoved files:\n")

		for _, rel := range s.Removed {
			builder.WriteString(rel)
			builder.WriteString("\n")
		}
	} else {
		builder.WriteString("\nNo files were removed between the two versions.\n")
	}

	if err := os.WriteFile(filepath.Clean(path), []byte(builder.String()), ManifestFileMode); err != nil {
		return fmt.Errorf("write summary %s: %w", path, err)
	}

	return nil
}
