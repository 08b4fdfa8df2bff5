package deploy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gioxx/yourls-diff/internal/config"
)

// WriteWinSCPScript renders a WinSCP batch script to path that first
// downloads every removed file into backupDir (preserving the directory
// structure, so nothing is lost before deletion) and then deletes them from
// the server. The local backup tree is pre-created so the get commands never
// fail on a missing directory.
func WriteWinSCPScript(path string, target config.DeployTarget, removed []string, backupDir string) error {
	for _, rel := range removed {
		localDir := filepath.Dir(filepath.Join(backupDir, filepath.FromSlash(rel)))
		if err := os.MkdirAll(localDir, 0o755); err != nil {
			return fmt.Errorf("prepare backup folder %s: %w", localDir, err)
		}
	}

	var builder strings.Builder

	builder.WriteString("option batch on\n")
	builder.WriteString("option confirm off\n")
	fmt.Fprintf(&builder, "open sftp://%s@%s/\n", target.RemoteUser, target.RemoteHost)
	fmt.Fprintf(&builder, "cd %s\n", target.TargetDir)
	fmt.Fprintf(&builder, "lcd %s\n", backupDir)

	// Download everything before deleting anything.
	for _, rel := range removed {
		fmt.Fprintf(&builder, "get %q %q\n", rel, filepath.FromSlash(rel))
	}

	for _, rel := range removed {
		fmt.Fprintf(&builder, "rm %q\n", rel)
	}

	builder.WriteString("close\n")
	builder.WriteString("exit\n")

	if err := os.WriteFile(filepath.Clean(path), []byte(builder.String()), ManifestFileMode); err != nil {
		return fmt.Errorf("write winscp script %s: %w", path, err)
	}

	return nil
}
