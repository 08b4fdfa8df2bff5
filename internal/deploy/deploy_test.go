package deploy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gioxx/yourls-diff/internal/config"
)

func testTarget() config.DeployTarget {
	return config.DeployTarget{
		RemoteUser: "deploy",
		RemoteHost: "updates.local",
		TargetDir:  "/srv/yourls",
	}
}

// TestWriteManifest writes one path per line with a trailing newline.
func TestWriteManifest(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "manifest.txt")
	require.NoError(t, WriteManifest(path, []string{"a.txt", "sub/b.txt"}))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "a.txt\nsub/b.txt\n", string(contents))
}

// TestWriteSummary checks counts and both listing sections.
func TestWriteSummary(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "summary.txt")
	summary := &Summary{
		RepositoryName: "YOURLS",
		OldTag:         "1.8.10",
		NewTag:         "1.9.2",
		OldCount:       100,
		NewCount:       103,
		Changed:        []string{"b.txt", "c.txt"},
		Removed:        []string{"old.txt"},
	}

	require.NoError(t, WriteSummary(path, summary))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(contents)
	require.Contains(t, text, "# YOURLS Patch Summary (from 1.8.10 version to 1.9.2)")
	require.Contains(t, text, "Number of files in OLD: 100")
	require.Contains(t, text, "Number of files in NEW: 103")
	require.Contains(t, text, "Number of files in generated patch ZIP: 2")
	require.Contains(t, text, "Removed files:\nold.txt")
}

// TestWriteSummaryNothingRemoved renders the no-removals sentence instead of a listing.
func TestWriteSummaryNothingRemoved(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "summary.txt")
	summary := &Summary{
		RepositoryName: "YOURLS",
		OldTag:         "1.9.1",
		NewTag:         "1.9.2",
		Changed:        []string{"a.txt"},
	}

	require.NoError(t, WriteSummary(path, summary))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(contents), "No files were removed between the two versions.")
}

// TestWriteDeployScriptFull includes upload and deletion phases.
func TestWriteDeployScriptFull(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "deploy.sh")
	names := ScriptNames{
		Package:         "YOURLS-update-1.8.10-to-1.9.2.zip",
		Manifest:        "YOURLS-update-1.8.10-to-1.9.2.txt",
		RemovedManifest: "YOURLS-update-1.8.10-to-1.9.2.removed.txt",
	}

	require.NoError(t, WriteDeployScript(path, testTarget(), names, false))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(contents)
	require.True(t, strings.HasPrefix(text, "#!/bin/bash"))
	require.Contains(t, text, `ZIP_FILE="YOURLS-update-1.8.10-to-1.9.2.zip"`)
	require.Contains(t, text, "rsync -avz $DRYRUN")
	require.Contains(t, text, `TARGET_DIR="/srv/yourls"`)
	require.Contains(t, text, `ssh "$REMOTE_USER@$REMOTE_HOST" "rm -f '$TARGET_DIR/$file'"`)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, ScriptFileMode, info.Mode().Perm())
}

// TestWriteDeployScriptOnlyRemoved keeps just the deletion loop.
func TestWriteDeployScriptOnlyRemoved(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "deploy.sh")
	names := ScriptNames{
		RemovedManifest: "YOURLS-update-1.8.10-to-1.9.2.removed.txt",
	}

	require.NoError(t, WriteDeployScript(path, testTarget(), names, true))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(contents)
	require.NotContains(t, text, "rsync")
	require.NotContains(t, text, "unzip")
	require.Contains(t, text, "Removing obsolete files")
}

// TestWriteWinSCPScript downloads every file before deleting and prepares the backup tree.
func TestWriteWinSCPScript(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "removed.winscp.txt")
	backupDir := filepath.Join(dir, "removed_backup")
	removed := []string{"gone.txt", "legacy/deep/file.txt"}

	require.NoError(t, WriteWinSCPScript(path, testTarget(), removed, backupDir))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(contents)
	require.Contains(t, text, "option batch on")
	require.Contains(t, text, "open sftp://deploy@updates.local/")
	require.Contains(t, text, "cd /srv/yourls")

	// Every rm is preceded by its get.
	require.Less(t, strings.Index(text, `get "legacy/deep/file.txt"`), strings.Index(text, `rm "gone.txt"`))

	// Backup directory tree exists.
	info, err := os.Stat(filepath.Join(backupDir, "legacy", "deep"))
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

// TestDescriptionRoundtrip saves and loads a patch description.
func TestDescriptionRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "patch.yaml")

	desc := NewDescription("1.8.10", "1.9.2")
	desc.Files["b.txt"] = "c2hhNTEy"

	require.NoError(t, desc.Save(path))

	loaded, err := LoadDescription(path)
	require.NoError(t, err)
	require.Equal(t, desc.OldTag, loaded.OldTag)
	require.Equal(t, desc.NewTag, loaded.NewTag)
	require.Equal(t, desc.Files, loaded.Files)
}

// TestLoadDescriptionEmpty rejects a description without files.
func TestLoadDescriptionEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "patch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("old_tag: a\nnew_tag: b\n"), 0o644))

	_, err := LoadDescription(path)
	require.ErrorIs(t, err, errNoDescriptionFiles)
}
