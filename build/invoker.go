// Package build runs one external build per staged sample.
//
// Failure detection is exit-code only: the combined output goes to a log
// file inside the sample directory and is never parsed.
package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pithecene-io/crucible/iox"
	"github.com/pithecene-io/crucible/log"
	"github.com/pithecene-io/crucible/metrics"
	"github.com/pithecene-io/crucible/types"
)

// Result describes a finished build process.
type Result struct {
	// ExitCode is the process exit code, -1 if it was killed by a signal.
	ExitCode int
	// LogPath is the combined stdout+stderr log.
	LogPath string
	// Duration is the wall time from start to exit.
	Duration time.Duration
}

// ExitError reports a build process that exited non-zero.
type ExitError struct {
	Sample string
	Code   int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("sample %s: external command returned exit code %d", e.Sample, e.Code)
}

// Invoker launches build processes.
type Invoker struct {
	logger    *log.Logger
	collector *metrics.Collector
}

// NewInvoker creates an Invoker. A nil logger discards output and a nil
// collector disables counting.
func NewInvoker(logger *log.Logger, collector *metrics.Collector) *Invoker {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Invoker{logger: logger, collector: collector}
}

// Run launches the build, blocks until it exits and interprets the exit code.
//
// Errors:
//   - ErrLaunchFailed if the command cannot be composed or started
//   - ErrIO if the log file cannot be created
//   - ErrBuildFailed (wrapping *ExitError) on a non-zero exit
//   - ErrInterrupted if ctx is done before the process exits; the
//     process group is killed first
//
// The Result is non-nil whenever the process was started.
func (i *Invoker) Run(ctx context.Context, inv Invocation) (*Result, error) {
	argv, err := Command(inv)
	if err != nil {
		return nil, types.NewHarnessError(types.ErrLaunchFailed, "build", inv.Sample, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, types.NewHarnessError(types.ErrInterrupted, "build", inv.Sample, err)
	}

	logPath := filepath.Join(inv.ProjectDir, inv.LogFile)
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, types.WrapIO(err, "create log", logPath)
	}
	defer iox.DiscardClose(logFile)

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = inv.ProjectDir
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	setProcessGroup(cmd)

	i.logger.Info("building sample", map[string]any{
		"sample":  inv.Sample,
		"dir":     inv.ProjectDir,
		"command": strings.Join(argv, " "),
		"log":     logPath,
	})

	start := time.Now()
	if err := cmd.Start(); err != nil {
		i.collector.IncLaunchFailure()
		return nil, types.NewHarnessError(types.ErrLaunchFailed, "build", inv.Sample,
			fmt.Errorf("unable to start %s: %w", argv[0], err))
	}
	i.collector.IncBuildStarted()

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var waitErr error
	select {
	case <-ctx.Done():
		killProcessGroup(cmd)
		<-done
		i.collector.IncBuildFailed()
		return &Result{ExitCode: -1, LogPath: logPath, Duration: time.Since(start)},
			types.NewHarnessError(types.ErrInterrupted, "build", inv.Sample,
				fmt.Errorf("process has been interrupted: %w", ctx.Err()))
	case waitErr = <-done:
	}

	result := &Result{LogPath: logPath, Duration: time.Since(start)}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			i.collector.IncBuildFailed()
			result.ExitCode = -1
			return result, types.NewHarnessError(types.ErrBuildFailed, "build", inv.Sample,
				fmt.Errorf("wait failed: %w", waitErr))
		}
		result.ExitCode = exitErr.ExitCode()
	}

	if result.ExitCode != 0 {
		i.collector.IncBuildFailed()
		i.logger.Error("sample build failed", map[string]any{
			"sample":    inv.Sample,
			"exit_code": result.ExitCode,
			"log":       logPath,
		})
		return result, types.NewHarnessError(types.ErrBuildFailed, "build", inv.Sample,
			&ExitError{Sample: inv.Sample, Code: result.ExitCode})
	}

	i.collector.IncBuildPassed()
	i.logger.Info("sample build passed", map[string]any{
		"sample":      inv.Sample,
		"duration_ms": result.Duration.Milliseconds(),
	})
	return result, nil
}
