package apply

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/gioxx/yourls-diff/internal/logger"
)

const (
	// MarkerFilename marks that a patch is being applied right now
	// to avoid parallel runs against the same installation.
	MarkerFilename = "yourls-diff-apply-marker.bin"

	// markerLifetime is the period after which a stale marker is ignored.
	markerLifetime = 30 * time.Second
)

// IsApplyRunningNow checks presence of a marker file and attempts recovery
// when the marker looks stale.
func IsApplyRunningNow(ctx context.Context, markerPath string) bool {
	fileInfo, err := os.Stat(markerPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false
		}

		logger.Infof(ctx, "Unable to read apply marker: %v", err)

		return false
	}

	if time.Since(fileInfo.ModTime()) <= markerLifetime {
		return true
	}

	logger.Info(ctx, "The apply marker is too old, attempting cleanup")

	if err = terminateProcessByName(executableName()); err != nil {
		return true
	}

	if err = os.Remove(markerPath); err != nil {
		return true
	}

	return false
}

// terminateProcessByName tries to kill other processes with the provided executable name.
func terminateProcessByName(processName string) error {
	processList, err := ps.Processes()
	if err != nil {
		return err
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() != processName {
			continue
		}

		var runningProcess *os.Process

		runningProcess, err = os.FindProcess(process.Pid())
		if err != nil {
			return err
		}

		if err = runningProcess.Kill(); err != nil {
			return err
		}
	}

	return nil
}

// executableName returns the name a stuck sibling process would run under.
func executableName() string {
	name := "yourls-diff"
	if exe, err := os.Executable(); err == nil {
		name = filepath.Base(exe)
	} else if strings.Contains(strings.ToLower(runtime.GOOS), "windows") {
		name += ".exe"
	}

	return name
}
