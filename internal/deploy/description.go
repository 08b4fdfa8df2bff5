package deploy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// defaultFilesCapacity is the initial capacity for the description file map.
const defaultFilesCapacity = 64

var errNoDescriptionFiles = errors.New("patch description lists no files")

// Description is the machine-readable patch manifest written next to the
// package. It records which releases were compared and the expected
// fingerprint of every packaged file, so `yourls-diff apply` can verify each
// file before replacing it.
type Description struct {
	// OldTag is the release the patch starts from.
	OldTag string `yaml:"old_tag"`
	// NewTag is the release the patch upgrades to.
	NewTag string `yaml:"new_tag"`
	// Files maps relative paths to their base64-encoded checksums.
	Files map[string]string `yaml:"files"`
}

// NewDescription produces a Description for the given release pair.
func NewDescription(oldTag, newTag string) *Description {
	return &Description{
		OldTag: oldTag,
		NewTag: newTag,
		Files:  make(map[string]string, defaultFilesCapacity),
	}
}

// Save writes the description as YAML to path.
func (d *Description) Save(path string) error {
	contents, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal patch description: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), contents, ManifestFileMode); err != nil {
		return fmt.Errorf("write patch description %s: %w", path, err)
	}

	return nil
}

// LoadDescription reads and validates a patch description from path.
func LoadDescription(path string) (*Description, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read patch description: %w", err)
	}

	var desc Description
	if err = yaml.Unmarshal(contents, &desc); err != nil {
		return nil, fmt.Errorf("unmarshal patch description: %w", err)
	}

	if len(desc.Files) == 0 {
		return nil, errNoDescriptionFiles
	}

	return &desc, nil
}
