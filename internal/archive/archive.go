package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// extractedDirMode is used for directories created during extraction.
const extractedDirMode os.FileMode = 0o755

var errInsecurePath = errors.New("archive entry escapes destination")

// Extract unpacks the zip at zipPath into destDir and returns the tree root.
// GitHub tag archives nest everything under a single "<repo>-<tag>/"
// directory; when extraction produces exactly one top-level directory, that
// directory is returned as the root so callers never see the wrapper.
func Extract(zipPath, destDir string) (string, error) {
	if err := extractAll(zipPath, destDir); err != nil {
		return "", err
	}

	return normalizeRoot(destDir)
}

// ExtractFlat unpacks the zip at zipPath into destDir as-is. Patch packages
// store files at their final relative paths, so destDir itself is the tree
// root even when every file shares one top-level directory.
func ExtractFlat(zipPath, destDir string) error {
	return extractAll(zipPath, destDir)
}

func extractAll(zipPath, destDir string) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", zipPath, err)
	}

	defer func() {
		_ = reader.Close()
	}()

	for _, entry := range reader.File {
		if err = extractEntry(entry, destDir); err != nil {
			return fmt.Errorf("extract %s: %w", entry.Name, err)
		}
	}

	return nil
}

// extractEntry writes a single archive entry under destDir.
// Symlinks are skipped: release source archives do not carry them, and
// extracting links from an untrusted archive risks path escape.
func extractEntry(entry *zip.File, destDir string) error {
	target, err := securePath(destDir, entry.Name)
	if err != nil {
		return err
	}

	mode := entry.Mode()

	switch {
	case mode.IsDir():
		return os.MkdirAll(target, extractedDirMode)
	case mode&os.ModeSymlink != 0:
		return nil
	}

	if err = os.MkdirAll(filepath.Dir(target), extractedDirMode); err != nil {
		return err
	}

	source, err := entry.Open()
	if err != nil {
		return err
	}

	defer func() {
		_ = source.Close()
	}()

	output, err := os.OpenFile(filepath.Clean(target), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}

	if _, err = io.Copy(output, source); err != nil {
		_ = output.Close()

		return err
	}

	return output.Close()
}

// securePath joins an archive entry name onto destDir and rejects
// entries that would land outside of it (zip-slip).
func securePath(destDir, name string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(name))
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("%s: %w", name, errInsecurePath)
	}

	return target, nil
}

// normalizeRoot returns the single top-level directory when there is exactly
// one, destDir otherwise.
func normalizeRoot(destDir string) (string, error) {
	entries, err := os.ReadDir(destDir)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", destDir, err)
	}

	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(destDir, entries[0].Name()), nil
	}

	return destDir, nil
}

// BuildPackage writes a zip at zipPath containing exactly the named files,
// read from under root and stored at their relative slash paths. No directory
// entries are written. The caller passes paths in the order entries should
// appear; the differ hands them over sorted for reproducible output.
func BuildPackage(zipPath, root string, paths []string) (int, error) {
	output, err := os.Create(filepath.Clean(zipPath))
	if err != nil {
		return 0, fmt.Errorf("create package %s: %w", zipPath, err)
	}

	writer := zip.NewWriter(output)

	count, err := addPackageEntries(writer, root, paths)
	if err != nil {
		_ = writer.Close()
		_ = output.Close()
		_ = os.Remove(zipPath)

		return 0, err
	}

	if err = writer.Close(); err != nil {
		_ = output.Close()

		return 0, fmt.Errorf("finalize package: %w", err)
	}

	return count, output.Close()
}

// addPackageEntries copies each file into the zip writer.
func addPackageEntries(writer *zip.Writer, root string, paths []string) (int, error) {
	count := 0

	for _, rel := range paths {
		source, err := os.Open(filepath.Clean(filepath.Join(root, filepath.FromSlash(rel))))
		if err != nil {
			return count, fmt.Errorf("read %s: %w", rel, err)
		}

		// Create compresses with deflate and stores the slash path as-is.
		entry, err := writer.Create(rel)
		if err != nil {
			_ = source.Close()

			return count, fmt.Errorf("add %s: %w", rel, err)
		}

		if _, err = io.Copy(entry, source); err != nil {
			_ = source.Close()

			return count, fmt.Errorf("compress %s: %w", rel, err)
		}

		_ = source.Close()
		count++
	}

	return count, nil
}
