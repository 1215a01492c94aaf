package types

// SampleStatus is the result of one sample build.
type SampleStatus string

const (
	// SamplePassed indicates the build exited 0.
	SamplePassed SampleStatus = "passed"
	// SampleFailed indicates the build exited non-zero, could not start or was interrupted.
	SampleFailed SampleStatus = "failed"
	// SampleSkipped indicates the build never ran because an earlier sample failed.
	SampleSkipped SampleStatus = "skipped"
)

// OutcomeStatus is the final status of a harness run.
type OutcomeStatus string

const (
	// OutcomeSuccess indicates every sample built successfully.
	OutcomeSuccess OutcomeStatus = "success"
	// OutcomeBuildFailure indicates a sample build exited non-zero.
	OutcomeBuildFailure OutcomeStatus = "build_failure"
	// OutcomeHarnessError indicates install, staging, launch or config failed.
	OutcomeHarnessError OutcomeStatus = "harness_error"
	// OutcomeInterrupted indicates the run was interrupted while waiting on a build.
	OutcomeInterrupted OutcomeStatus = "interrupted"
)

// OutcomeOf classifies a run error. A nil error is a success.
func OutcomeOf(err error) OutcomeStatus {
	switch KindOf(err) {
	case nil:
		if err == nil {
			return OutcomeSuccess
		}
		return OutcomeHarnessError
	case ErrBuildFailed:
		return OutcomeBuildFailure
	case ErrInterrupted:
		return OutcomeInterrupted
	default:
		return OutcomeHarnessError
	}
}
