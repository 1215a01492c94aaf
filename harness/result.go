package harness

import (
	"time"

	"github.com/pithecene-io/crucible/metrics"
	"github.com/pithecene-io/crucible/types"
)

// State is the orchestrator's lifecycle state.
type State string

const (
	StateInstalling State = "installing"
	StateStaging    State = "staging"
	StateRunning    State = "running"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// SampleResult describes one sample of a run.
type SampleResult struct {
	Name       string             `json:"name" yaml:"name"`
	StagedPath string             `json:"staged_path" yaml:"staged_path"`
	LogPath    string             `json:"log_path,omitempty" yaml:"log_path,omitempty"`
	ArchiveKey string             `json:"archive_key,omitempty" yaml:"archive_key,omitempty"`
	Status     types.SampleStatus `json:"status" yaml:"status"`
	// ExitCode is meaningful only when the build ran.
	ExitCode   int   `json:"exit_code" yaml:"exit_code"`
	DurationMS int64 `json:"duration_ms" yaml:"duration_ms"`
}

// RunResult is the outcome of one harness run. Execute returns it even on
// failure, filled in as far as the run got.
type RunResult struct {
	RunID   string              `json:"run_id" yaml:"run_id"`
	Project string              `json:"project" yaml:"project"`
	State   State               `json:"state" yaml:"state"`
	Outcome types.OutcomeStatus `json:"outcome" yaml:"outcome"`
	// Error is the message of the error that failed the run.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
	// FailedSample names the sample whose build failed the run.
	FailedSample string         `json:"failed_sample,omitempty" yaml:"failed_sample,omitempty"`
	Samples      []SampleResult `json:"samples" yaml:"samples"`
	// Installed lists artifact ids written to the repository.
	Installed []string `json:"installed" yaml:"installed"`
	// Skipped lists dependency ids filtered out by scope.
	Skipped    []string         `json:"skipped" yaml:"skipped"`
	Metrics    metrics.Snapshot `json:"metrics" yaml:"metrics"`
	StartedAt  time.Time        `json:"started_at" yaml:"started_at"`
	DurationMS int64            `json:"duration_ms" yaml:"duration_ms"`
}

// Counts returns the number of passed, failed and skipped samples.
func (r *RunResult) Counts() (passed, failed, skipped int) {
	for _, s := range r.Samples {
		switch s.Status {
		case types.SamplePassed:
			passed++
		case types.SampleFailed:
			failed++
		case types.SampleSkipped:
			skipped++
		}
	}
	return passed, failed, skipped
}
