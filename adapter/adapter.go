// Package adapter publishes run completion notifications to downstream
// systems (CI dashboards, chat bridges, release pipelines).
//
// The run command owns adapter lifecycle; users provide configuration only.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pithecene-io/crucible/harness"
	"github.com/pithecene-io/crucible/types"
)

// EventTypeRunCompleted is the only event type published.
const EventTypeRunCompleted = "run_completed"

// RunCompletedEvent is the payload published when a run finishes.
type RunCompletedEvent struct {
	ContractVersion string `json:"contract_version"`
	EventType       string `json:"event_type"` // always "run_completed"
	RunID           string `json:"run_id"`
	Project         string `json:"project"`
	Outcome         string `json:"outcome"` // success, build_failure, harness_error, interrupted
	FailedSample    string `json:"failed_sample,omitempty"`
	Error           string `json:"error,omitempty"`
	SamplesTotal    int    `json:"samples_total"`
	SamplesPassed   int    `json:"samples_passed"`
	SamplesSkipped  int    `json:"samples_skipped"`
	Timestamp       string `json:"timestamp"` // RFC 3339
	DurationMs      int64  `json:"duration_ms"`
}

// NewRunCompletedEvent builds the event for a finished run.
func NewRunCompletedEvent(result *harness.RunResult, completedAt time.Time) *RunCompletedEvent {
	passed, _, skipped := result.Counts()
	return &RunCompletedEvent{
		ContractVersion: types.ContractVersion,
		EventType:       EventTypeRunCompleted,
		RunID:           result.RunID,
		Project:         result.Project,
		Outcome:         string(result.Outcome),
		FailedSample:    result.FailedSample,
		Error:           result.Error,
		SamplesTotal:    len(result.Samples),
		SamplesPassed:   passed,
		SamplesSkipped:  skipped,
		Timestamp:       completedAt.UTC().Format(time.RFC3339),
		DurationMs:      result.DurationMS,
	}
}

// Adapter publishes run completion events to a downstream system.
// Implementations must be safe for single-use per run.
type Adapter interface {
	// Publish sends a run completion event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *RunCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}

// BaseBackoff is the delay before the first retry; it doubles per retry.
var BaseBackoff = 500 * time.Millisecond

// ErrPermanent marks an attempt error that must not be retried.
var ErrPermanent = errors.New("non-retriable")

// Retry calls attempt up to 1+retries times with exponential backoff
// between attempts. It stops early on success, on context cancellation
// and on errors wrapping ErrPermanent.
func Retry(ctx context.Context, name string, retries int, attempt func(context.Context) error) error {
	var lastErr error
	attempts := 1 + retries

	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: context canceled: %w", name, err)
		}

		if i > 0 {
			backoff := time.Duration(1<<uint(i-1)) * BaseBackoff
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: context canceled during backoff: %w", name, ctx.Err())
			case <-time.After(backoff):
			}
		}

		lastErr = attempt(ctx)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, ErrPermanent) {
			return fmt.Errorf("%s: non-retriable error: %w", name, lastErr)
		}
	}

	return fmt.Errorf("%s: failed after %d attempts: %w", name, attempts, lastErr)
}
