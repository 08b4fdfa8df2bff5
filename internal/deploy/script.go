package deploy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/gioxx/yourls-diff/internal/config"
)

// ScriptNames carries the artifact filenames referenced by the deploy script.
type ScriptNames struct {
	// Package is the patch zip filename.
	Package string
	// Manifest lists the changed files, one per line.
	Manifest string
	// RemovedManifest lists the removed files; empty when nothing was removed.
	RemovedManifest string
}

// deployScriptTemplate renders the bash deployment helper. Full mode unzips
// the patch, rsyncs every manifest line and deletes removed files over ssh;
// only-removed mode keeps just the deletion loop.
var deployScriptTemplate = template.Must(template.New("deploy").Parse(`#!/bin/bash

# Deployment script generated by yourls-diff
# Update the variables below before running.

# Check if ssh is installed
if ! command -v ssh >/dev/null 2>&1; then
  echo "Error: ssh is not installed or not found in PATH."
  exit 1
fi

REMOVED_MANIFEST="{{.Names.RemovedManifest}}"
TARGET_DIR="{{.Target.TargetDir}}"      # <-- Update this with your server's path
REMOTE_USER="{{.Target.RemoteUser}}"    # <-- Update with your SSH user
REMOTE_HOST="{{.Target.RemoteHost}}"    # <-- Update with your server hostname or IP

# Pass --dry-run as first argument to simulate the deploy
DRYRUN=""
if [ "$1" == "--dry-run" ]; then
  DRYRUN="--dry-run"
  echo "Running in DRY-RUN mode. No files will be copied or deleted."
fi

{{if not .OnlyRemoved -}}
ZIP_FILE="{{.Names.Package}}"
MANIFEST="{{.Names.Manifest}}"
TEMP_DIR="./__deploy_temp"

# Clean and unzip the patch
rm -rf "$TEMP_DIR"
mkdir -p "$TEMP_DIR"
unzip -q "$ZIP_FILE" -d "$TEMP_DIR"
echo "→ Files extracted into $TEMP_DIR"

# Upload changed/added files
echo "→ Uploading changed files..."
while IFS= read -r file; do
  rsync -avz $DRYRUN "$TEMP_DIR/$file" "$REMOTE_USER@$REMOTE_HOST:$TARGET_DIR/$file"
done < "$MANIFEST"

{{end -}}
# Remove deleted files from remote (if any)
if [[ -f "$REMOVED_MANIFEST" ]]; then
  echo "→ Removing obsolete files..."
  while IFS= read -r file; do
    ssh "$REMOTE_USER@$REMOTE_HOST" "rm -f '$TARGET_DIR/$file'"
  done < "$REMOVED_MANIFEST"
fi
{{if not .OnlyRemoved}}
# Clean up
rm -rf "$TEMP_DIR"
{{end -}}
echo "Deployment completed!"
`))

// WriteDeployScript renders the bash deployment helper to path.
func WriteDeployScript(path string, target config.DeployTarget, names ScriptNames, onlyRemoved bool) error {
	var builder strings.Builder

	data := struct {
		Target      config.DeployTarget
		Names       ScriptNames
		OnlyRemoved bool
	}{
		Target:      target,
		Names:       names,
		OnlyRemoved: onlyRemoved,
	}

	if err := deployScriptTemplate.Execute(&builder, data); err != nil {
		return fmt.Errorf("render deploy script: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), []byte(builder.String()), ScriptFileMode); err != nil {
		return fmt.Errorf("write deploy script %s: %w", path, err)
	}

	return nil
}
