package integration

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gioxx/yourls-diff/internal/service/apply"
	"github.com/gioxx/yourls-diff/internal/service/differ"
)

// TestApply_PatchesInstallation builds a patch with the differ and applies it
// onto a local copy of the old release, verifying the result matches the new one.
func TestApply_PatchesInstallation(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	host := standardHost()

	server := httptest.NewServer(host.handler(t))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	options := &differ.Options{
		ConfigPath: writeSettings(t, dir, server.URL),
		OldTag:     "1.0.0",
		NewTag:     "1.1.0",
	}
	require.NoError(t, differ.Run(ctx, options))

	// Materialize the old release as the live installation.
	install := filepath.Join(dir, "install")
	for rel, contents := range host.trees["1.0.0"] {
		path := filepath.Join(install, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	}

	applyOptions := &apply.Options{
		PackagePath: "app-update-1.0.0-to-1.1.0.zip",
		TargetDir:   install,
	}
	require.NoError(t, apply.Run(ctx, applyOptions))

	// Added and modified files now match the new release.
	for rel, contents := range host.trees["1.1.0"] {
		path := filepath.Join(install, filepath.FromSlash(rel))

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, contents, string(got), rel)
	}

	// Removal stays manual: the deploy script handles it, apply does not.
	_, err := os.Stat(filepath.Join(install, "legacy", "old.txt"))
	require.NoError(t, err)
}
