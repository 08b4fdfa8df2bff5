package deploy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// ManifestFileMode is used for manifests and other text listings.
	ManifestFileMode os.FileMode = 0o644

	// ScriptFileMode is used for generated deployment scripts.
	ScriptFileMode os.FileMode = 0o755
)

// WriteManifest writes one relative path per line to path.
// Callers pass the paths already sorted; the file is written verbatim so the
// deployment scripts can iterate over it line by line.
func WriteManifest(path string, paths []string) error {
	var builder strings.Builder

	for _, rel := range paths {
		builder.WriteString(rel)
		builder.WriteString("\n")
	}

	if err := os.WriteFile(filepath.Clean(path), []byte(builder.String()), ManifestFileMode); err != nil {
		return fmt.Errorf("write manifest %s: %w", path, err)
	}

	return nil
}
