package differ

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gioxx/yourls-diff/internal/archive"
	"github.com/gioxx/yourls-diff/internal/config"
	"github.com/gioxx/yourls-diff/internal/deploy"
	"github.com/gioxx/yourls-diff/internal/diff"
	"github.com/gioxx/yourls-diff/internal/github"
	"github.com/gioxx/yourls-diff/internal/logger"
)

// Options contains inputs for the diff pipeline entry point.
type Options struct {
	// ConfigPath is an optional path to the settings YAML file.
	ConfigPath string
	// OldTag is the tag of the starting release (required).
	OldTag string
	// NewTag is the tag of the target release; empty means latest.
	NewTag string
	// OutputPath overrides the default patch package filename.
	OutputPath string
	// SkipTLSVerify disables TLS certificate verification (not recommended).
	SkipTLSVerify bool
	// WithSummary also writes the human-readable patch summary.
	WithSummary bool
	// OnlyRemoved emits just the removed-files listing and deletion script.
	OnlyRemoved bool
	// WinSCP also writes a WinSCP batch script; requires OnlyRemoved.
	WinSCP bool
}

// BackupDirName is where the WinSCP script downloads removed files before
// deleting them on the server.
const BackupDirName = "removed_backup"

var (
	errOldTagRequired  = errors.New("old tag must be provided")
	errWinSCPNeedsMode = errors.New("--winscp requires --only-removed")
)

// runner holds the state of a single diff pipeline execution.
// It is unexported; callers use Run, which encapsulates setup and validation.
type runner struct {
	cfg    *config.Config
	opts   *Options
	client *github.Client

	// oldTag and newTag are the resolved release references.
	oldTag string
	newTag string
	// workDir is the ephemeral directory holding downloads and extractions.
	workDir string
	// names are the deterministic output filenames for this release pair.
	names outputNames
}

// outputNames derives every artifact filename from the release pair.
type outputNames struct {
	Package      string
	Manifest     string
	Removed      string
	Summary      string
	Description  string
	DeployScript string
	WinSCP       string
}

// Run executes the diff pipeline: fetch both releases, extract, compare,
// and emit the patch package with its manifests and helper scripts.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "yourls-diff")

	if strings.TrimSpace(opts.OldTag) == "" {
		return errOldTagRequired
	}

	if opts.WinSCP && !opts.OnlyRemoved {
		return errWinSCPNeedsMode
	}

	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	r := &runner{
		cfg:    cfg,
		opts:   opts,
		client: github.New(cfg, clientOptions(ctx, opts)...),
		oldTag: strings.TrimSpace(opts.OldTag),
	}

	defer r.cleanup(ctx)

	if err = r.Run(ctx); err != nil {
		return fmt.Errorf("diff pipeline failed: %w", err)
	}

	return nil
}

// clientOptions translates flags and environment into fetcher options.
func clientOptions(ctx context.Context, opts *Options) []github.Option {
	var clientOpts []github.Option

	if opts.SkipTLSVerify {
		logger.Warn(ctx, "TLS certificate verification is disabled")

		clientOpts = append(clientOpts, github.WithInsecureTLS())
	}

	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		clientOpts = append(clientOpts, github.WithToken(token))
	}

	return clientOpts
}

// Run performs the fetch-extract-compare-emit sequence.
func (r *runner) Run(ctx context.Context) error {
	if err := r.resolveNewTag(ctx); err != nil {
		return err
	}

	if r.oldTag == r.newTag {
		logger.Infof(ctx, "Old tag %q and new tag %q are identical, nothing to do", r.oldTag, r.newTag)
		return nil
	}

	r.names = buildOutputNames(r.cfg.RepositoryName, r.oldTag, r.newTag, r.opts.OutputPath)

	oldRoot, newRoot, err := r.fetchTrees(ctx)
	if err != nil {
		return err
	}

	logger.Info(ctx, "Comparing directories")

	oldTree, err := diff.Snapshot(oldRoot)
	if err != nil {
		return err
	}

	newTree, err := diff.Snapshot(newRoot)
	if err != nil {
		return err
	}

	changes := diff.Compare(oldTree, newTree)

	logger.InfoKV(ctx, "Comparison finished",
		"files_old", len(oldTree),
		"files_new", len(newTree),
		"added_or_modified", len(changes.Changed()),
		"removed", len(changes.Removed))

	if r.opts.OnlyRemoved {
		return r.emitRemovedOnly(ctx, changes)
	}

	if changes.IsEmpty() {
		logger.Info(ctx, "No differences found, nothing to package")
		return nil
	}

	return r.emitOutputs(ctx, newRoot, newTree, len(oldTree), changes)
}

// resolveNewTag fills the target tag, querying the release host when the
// caller asked for the latest release.
func (r *runner) resolveNewTag(ctx context.Context) error {
	newTag := strings.TrimSpace(r.opts.NewTag)
	if newTag != "" {
		r.newTag = newTag
		return nil
	}

	tag, err := r.client.LatestTag(ctx)
	if err != nil {
		return fmt.Errorf("resolve latest release: %w", err)
	}

	logger.Infof(ctx, "No target version specified, using latest: %s", tag)
	r.newTag = tag

	return nil
}

// fetchTrees downloads and extracts both release archives into the work directory.
func (r *runner) fetchTrees(ctx context.Context) (oldRoot, newRoot string, err error) {
	r.workDir, err = os.MkdirTemp("", "yourls-diff-")
	if err != nil {
		return "", "", fmt.Errorf("create work directory: %w", err)
	}

	oldRoot, err = r.fetchTree(ctx, r.oldTag, "old")
	if err != nil {
		return "", "", err
	}

	newRoot, err = r.fetchTree(ctx, r.newTag, "new")
	if err != nil {
		return "", "", err
	}

	return oldRoot, newRoot, nil
}

// fetchTree downloads one tag archive and extracts it under the work directory.
func (r *runner) fetchTree(ctx context.Context, tag, label string) (string, error) {
	zipPath := filepath.Join(r.workDir, label+".zip")
	if err := r.client.DownloadArchive(ctx, tag, zipPath); err != nil {
		return "", fmt.Errorf("fetch release %s: %w", tag, err)
	}

	root, err := archive.Extract(zipPath, filepath.Join(r.workDir, label))
	if err != nil {
		return "", fmt.Errorf("extract release %s: %w", tag, err)
	}

	return root, nil
}

// emitRemovedOnly writes the removed listing and deletion helpers, skipping
// every other output.
func (r *runner) emitRemovedOnly(ctx context.Context, changes *diff.Changes) error {
	if len(changes.Removed) == 0 {
		logger.Info(ctx, "No files to remove from OLD to NEW")
		return nil
	}

	if err := deploy.WriteManifest(r.names.Removed, changes.Removed); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Removed files found, list saved", "path", r.names.Removed)

	scriptNames := deploy.ScriptNames{RemovedManifest: r.names.Removed}
	if err := deploy.WriteDeployScript(r.names.DeployScript, r.cfg.Deploy, scriptNames, true); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Deletion script generated", "path", r.names.DeployScript)

	if !r.opts.WinSCP {
		return nil
	}

	if err := deploy.WriteWinSCPScript(r.names.WinSCP, r.cfg.Deploy, changes.Removed, BackupDirName); err != nil {
		return err
	}

	logger.InfoKV(ctx, "WinSCP script generated", "path", r.names.WinSCP, "backup_folder", BackupDirName)

	return nil
}

// emitOutputs writes the patch package, manifests, description, deploy script
// and optional summary for a non-empty change set.
func (r *runner) emitOutputs(
	ctx context.Context,
	newRoot string,
	newTree map[string]diff.Entry,
	oldCount int,
	changes *diff.Changes,
) error {
	changed := changes.Changed()

	if err := deploy.WriteManifest(r.names.Manifest, changed); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Manifest saved", "path", r.names.Manifest)

	removedManifest := ""

	if len(changes.Removed) > 0 {
		if err := deploy.WriteManifest(r.names.Removed, changes.Removed); err != nil {
			return err
		}

		removedManifest = r.names.Removed

		logger.InfoKV(ctx, "Removed files found, list saved", "path", r.names.Removed)
	}

	count, err := archive.BuildPackage(r.names.Package, newRoot, changed)
	if err != nil {
		return fmt.Errorf("build patch package: %w", err)
	}

	logger.InfoKV(ctx, "Patch package created", "path", r.names.Package, "files", count)

	if err = r.saveDescription(changed, newTree); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Patch description saved", "path", r.names.Description)

	scriptNames := deploy.ScriptNames{
		Package:         r.names.Package,
		Manifest:        r.names.Manifest,
		RemovedManifest: removedManifest,
	}
	if err = deploy.WriteDeployScript(r.names.DeployScript, r.cfg.Deploy, scriptNames, false); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Deployment script generated", "path", r.names.DeployScript)

	if r.opts.WithSummary {
		summary := &deploy.Summary{
			RepositoryName: r.cfg.RepositoryName,
			OldTag:         r.oldTag,
			NewTag:         r.newTag,
			OldCount:       oldCount,
			NewCount:       len(newTree),
			Changed:        changed,
			Removed:        changes.Removed,
		}
		if err = deploy.WriteSummary(r.names.Summary, summary); err != nil {
			return err
		}

		logger.InfoKV(ctx, "Release summary saved", "path", r.names.Summary)
	}

	logger.Infof(ctx, "All set: upload %s and review %s for the list of changed files",
		r.names.Package, r.names.Manifest)
	logger.Infof(ctx, "You can also run %s to upload the files via rsync",
		r.names.DeployScript)

	return nil
}

// saveDescription records the new-tree fingerprint of every packaged file.
func (r *runner) saveDescription(changed []string, newTree map[string]diff.Entry) error {
	desc := deploy.NewDescription(r.oldTag, r.newTag)
	for _, rel := range changed {
		desc.Files[rel] = newTree[rel].ChecksumBase64()
	}

	return desc.Save(r.names.Description)
}

// cleanup removes the ephemeral work directory, also on early failure.
func (r *runner) cleanup(ctx context.Context) {
	if r.workDir == "" {
		return
	}

	if err := os.RemoveAll(r.workDir); err != nil {
		logger.WarnKV(ctx, "Unable to remove work directory", "path", r.workDir, "error", err)
	}
}

// buildOutputNames derives every artifact filename from the release pair,
// honoring an explicit package path override.
func buildOutputNames(repoName, oldTag, newTag, outputPath string) outputNames {
	pkg := outputPath
	if pkg == "" {
		pkg = fmt.Sprintf("%s-update-%s-to-%s.zip", repoName, oldTag, newTag)
	}

	base := strings.TrimSuffix(pkg, filepath.Ext(pkg))

	return outputNames{
		Package:      pkg,
		Manifest:     base + ".txt",
		Removed:      base + ".removed.txt",
		Summary:      base + ".summary.txt",
		Description:  base + ".yaml",
		DeployScript: fmt.Sprintf("%s-deploy-%s-to-%s.sh", repoName, oldTag, newTag),
		WinSCP:       base + ".removed.winscp.txt",
	}
}
