package apply

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/gioxx/yourls-diff/internal/archive"
	"github.com/gioxx/yourls-diff/internal/deploy"
	"github.com/gioxx/yourls-diff/internal/diff"
	"github.com/gioxx/yourls-diff/internal/logger"
)

// Options contains inputs for the patch application entry point.
type Options struct {
	// PackagePath is the patch zip produced by the diff pipeline.
	PackagePath string
	// DescriptionPath is the YAML patch description; when empty it is
	// derived from the package filename.
	DescriptionPath string
	// TargetDir is the local installation to patch.
	TargetDir string
}

// AppliedFileMode is used for files placed into the target installation.
const AppliedFileMode os.FileMode = 0o644

var (
	errApplierRunning = errors.New("another apply run is in progress")
	errNoChecksum     = errors.New("checksum missing for file")
	errTargetMissing  = errors.New("target directory does not exist")
)

// runner holds the state of a single apply execution.
type runner struct {
	opts *Options
	desc *deploy.Description

	// packageRoot is where the patch package was extracted.
	packageRoot string
	// workDir is the ephemeral extraction directory.
	workDir string
	// markerPath guards against concurrent apply runs on the same target.
	markerPath string
}

// Run applies a previously built patch package onto a local installation,
// verifying every file against the patch description before replacing it.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "yourls-diff-apply")

	r, err := newRunner(ctx, opts)
	if err != nil {
		return err
	}

	defer r.cleanup(ctx)

	if err = r.Run(ctx); err != nil {
		return fmt.Errorf("apply failed: %w", err)
	}

	logger.Info(ctx, "Patch applied successfully")

	return nil
}

// newRunner validates inputs, loads the description, and writes the run marker.
func newRunner(ctx context.Context, opts *Options) (*runner, error) {
	info, err := os.Stat(opts.TargetDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", opts.TargetDir, errTargetMissing)
	}

	descPath := opts.DescriptionPath
	if descPath == "" {
		descPath = strings.TrimSuffix(opts.PackagePath, filepath.Ext(opts.PackagePath)) + ".yaml"
	}

	desc, err := deploy.LoadDescription(descPath)
	if err != nil {
		return nil, err
	}

	r := &runner{
		opts: opts,
		desc: desc,
	}

	markerPath := filepath.Join(opts.TargetDir, MarkerFilename)
	if IsApplyRunningNow(ctx, markerPath) {
		return nil, errApplierRunning
	}

	marker, err := os.Create(filepath.Clean(markerPath))
	if err != nil {
		return nil, fmt.Errorf("create marker: %w", err)
	}

	r.markerPath = markerPath

	if err = marker.Close(); err != nil {
		_ = os.Remove(markerPath)

		return nil, err
	}

	logger.InfoKV(ctx, "Applying patch",
		"package", opts.PackagePath,
		"from", desc.OldTag,
		"to", desc.NewTag,
		"target", opts.TargetDir)

	return r, nil
}

// Run extracts the package and applies every described file.
func (r *runner) Run(ctx context.Context) error {
	if err := r.extractPackage(); err != nil {
		return err
	}

	// Deterministic application order.
	paths := make([]string, 0, len(r.desc.Files))
	for rel := range r.desc.Files {
		paths = append(paths, rel)
	}

	sort.Strings(paths)

	for _, rel := range paths {
		if err := r.applyFile(ctx, rel); err != nil {
			return fmt.Errorf("apply %s: %w", rel, err)
		}
	}

	return nil
}

// extractPackage unpacks the patch zip into an ephemeral directory.
func (r *runner) extractPackage() error {
	workDir, err := os.MkdirTemp("", "yourls-diff-apply-")
	if err != nil {
		return err
	}

	r.workDir = workDir

	// Package entries already sit at their final relative paths, so the
	// release-archive root normalization must not kick in here.
	if err = archive.ExtractFlat(r.opts.PackagePath, workDir); err != nil {
		return fmt.Errorf("extract patch package: %w", err)
	}

	r.packageRoot = workDir

	return nil
}

// applyFile replaces one target file with the packaged version after
// verifying its checksum against the patch description.
func (r *runner) applyFile(ctx context.Context, rel string) error {
	logger.InfoKV(ctx, "Updating file", "file", rel)

	data, err := os.ReadFile(filepath.Clean(filepath.Join(r.packageRoot, filepath.FromSlash(rel))))
	if err != nil {
		return err
	}

	checksumBase64, ok := r.desc.Files[rel]
	if !ok {
		return errNoChecksum
	}

	checksum, err := base64.StdEncoding.DecodeString(checksumBase64)
	if err != nil {
		return err
	}

	target := filepath.Join(r.opts.TargetDir, filepath.FromSlash(rel))
	if err = os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	// go-update needs an existing target to swap.
	if _, err = os.Stat(target); errors.Is(err, os.ErrNotExist) {
		var created *os.File
		if created, err = os.Create(filepath.Clean(target)); err != nil {
			return err
		}

		if err = created.Close(); err != nil {
			return err
		}
	}

	options := goupdate.Options{
		TargetPath: target,
		TargetMode: AppliedFileMode,
		Checksum:   checksum,
		Hash:       diff.ChecksumFunction,
	}
	if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
		return err
	}

	// go-update keeps the previous version around; we do not roll back.
	oldFileName := target + ".old"
	if _, err = os.Stat(oldFileName); err == nil {
		_ = os.Remove(oldFileName)
	}

	return nil
}

// cleanup removes the run marker and the extraction directory.
func (r *runner) cleanup(ctx context.Context) {
	if r.markerPath != "" {
		if _, err := os.Stat(r.markerPath); err == nil {
			_ = os.Remove(r.markerPath)
		}
	}

	if r.workDir != "" {
		if _, err := os.Stat(r.workDir); err == nil {
			_ = os.RemoveAll(r.workDir)
		}
	}

	logger.Info(ctx, "The applier has been stopped")
}
