package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for harness failure classification.
// Use errors.Is(err, ErrXxx) for typed assertions.
var (
	// ErrInvalidArgument indicates a missing required argument (nil artifact).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotPackaged indicates the artifact's backing file is absent.
	// Usually a build-order problem: the artifact was never packaged.
	ErrNotPackaged = errors.New("artifact has not been packaged yet")

	// ErrInstallFailed indicates the repository write failed.
	ErrInstallFailed = errors.New("install failed")

	// ErrIO indicates a directory creation, file read/write or traversal failure.
	ErrIO = errors.New("i/o failure")

	// ErrLaunchFailed indicates the external build process could not start.
	ErrLaunchFailed = errors.New("launch failed")

	// ErrBuildFailed indicates the external build process exited non-zero.
	ErrBuildFailed = errors.New("build failed")

	// ErrInterrupted indicates the wait on the build process was interrupted.
	ErrInterrupted = errors.New("interrupted")

	// ErrInvalidConfig indicates configuration rejected at start-up.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// HarnessError wraps an underlying error with a failure kind and the
// identity of what failed (artifact id, sample name or path).
// It preserves the original error in the chain for inspection via errors.As.
type HarnessError struct {
	// Kind is the sentinel error for classification (e.g. ErrNotPackaged).
	Kind error
	// Op is the operation that failed (e.g. "install", "copy", "build").
	Op string
	// Subject identifies what failed.
	Subject string
	// Err is the underlying error. May be nil.
	Err error
}

func (e *HarnessError) Error() string {
	msg := e.Op
	if e.Subject != "" {
		msg += " " + e.Subject
	}
	msg = fmt.Sprintf("%s: %v", msg, e.Kind)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *HarnessError) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target sentinel.
func (e *HarnessError) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

// NewHarnessError creates a classified harness error.
func NewHarnessError(kind error, op, subject string, err error) *HarnessError {
	return &HarnessError{
		Kind:    kind,
		Op:      op,
		Subject: subject,
		Err:     err,
	}
}

// WrapIO classifies err as ErrIO for the given operation and path.
// Returns nil if err is nil.
func WrapIO(err error, op, path string) error {
	if err == nil {
		return nil
	}
	return NewHarnessError(ErrIO, op, path, err)
}

// KindOf returns the first sentinel kind matched by err, or nil.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrInterrupted,
		ErrBuildFailed,
		ErrLaunchFailed,
		ErrNotPackaged,
		ErrInvalidArgument,
		ErrInstallFailed,
		ErrIO,
		ErrInvalidConfig,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
