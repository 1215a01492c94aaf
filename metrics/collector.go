// Package metrics provides per-run counters for a harness run.
//
// The Collector accumulates counters during a single run. It is a leaf package
// with no internal dependencies, so stages can record into it without import
// cycles. All increment methods are nil-receiver safe: a nil Collector
// disables recording.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all run metrics.
type Snapshot struct {
	// Install stage
	ArtifactsInstalled int64 `json:"artifacts_installed" yaml:"artifacts_installed"`
	ArtifactsSkipped   int64 `json:"artifacts_skipped" yaml:"artifacts_skipped"`
	InstallFailures    int64 `json:"install_failures" yaml:"install_failures"`

	// Staging stage
	SamplesStaged      int64 `json:"samples_staged" yaml:"samples_staged"`
	FilesCopied        int64 `json:"files_copied" yaml:"files_copied"`
	DirectoriesCreated int64 `json:"directories_created" yaml:"directories_created"`
	EntriesSkipped     int64 `json:"entries_skipped" yaml:"entries_skipped"`

	// Build stage
	BuildsStarted   int64 `json:"builds_started" yaml:"builds_started"`
	BuildsPassed    int64 `json:"builds_passed" yaml:"builds_passed"`
	BuildsFailed    int64 `json:"builds_failed" yaml:"builds_failed"`
	LaunchFailures  int64 `json:"launch_failures" yaml:"launch_failures"`
	LogsArchived    int64 `json:"logs_archived" yaml:"logs_archived"`
	ArchiveFailures int64 `json:"archive_failures" yaml:"archive_failures"`

	// Dimensions (informational, set at construction)
	Executable     string `json:"executable" yaml:"executable"`
	ArchiveBackend string `json:"archive_backend,omitempty" yaml:"archive_backend,omitempty"`
	RunID          string `json:"run_id" yaml:"run_id"`
}

// Collector accumulates metrics during a single run.
// Thread-safe via sync.Mutex.
type Collector struct {
	mu sync.Mutex
	s  Snapshot
}

// NewCollector creates a Collector with dimension labels.
// archiveBackend is empty when no log archive is configured.
func NewCollector(executable, archiveBackend, runID string) *Collector {
	return &Collector{s: Snapshot{
		Executable:     executable,
		ArchiveBackend: archiveBackend,
		RunID:          runID,
	}}
}

func (c *Collector) add(field *int64, n int64) {
	c.mu.Lock()
	*field += n
	c.mu.Unlock()
}

// --- Install ---

// IncArtifactInstalled records an artifact written to the repository.
func (c *Collector) IncArtifactInstalled() {
	if c == nil {
		return
	}
	c.add(&c.s.ArtifactsInstalled, 1)
}

// IncArtifactSkipped records a dependency left out by scope filtering.
func (c *Collector) IncArtifactSkipped() {
	if c == nil {
		return
	}
	c.add(&c.s.ArtifactsSkipped, 1)
}

// IncInstallFailure records a failed install.
func (c *Collector) IncInstallFailure() {
	if c == nil {
		return
	}
	c.add(&c.s.InstallFailures, 1)
}

// --- Staging ---

// IncSampleStaged records a sample copied into the workspace.
func (c *Collector) IncSampleStaged() {
	if c == nil {
		return
	}
	c.add(&c.s.SamplesStaged, 1)
}

// IncFileCopied records a regular file written with substitution applied.
func (c *Collector) IncFileCopied() {
	if c == nil {
		return
	}
	c.add(&c.s.FilesCopied, 1)
}

// IncDirectoryCreated records a destination directory ensured.
func (c *Collector) IncDirectoryCreated() {
	if c == nil {
		return
	}
	c.add(&c.s.DirectoriesCreated, 1)
}

// IncEntrySkipped records a symlink or irregular entry left out of a copy.
func (c *Collector) IncEntrySkipped() {
	if c == nil {
		return
	}
	c.add(&c.s.EntriesSkipped, 1)
}

// --- Build ---

// IncBuildStarted records a build process launched.
func (c *Collector) IncBuildStarted() {
	if c == nil {
		return
	}
	c.add(&c.s.BuildsStarted, 1)
}

// IncBuildPassed records a build that exited 0.
func (c *Collector) IncBuildPassed() {
	if c == nil {
		return
	}
	c.add(&c.s.BuildsPassed, 1)
}

// IncBuildFailed records a build that exited non-zero or was interrupted.
func (c *Collector) IncBuildFailed() {
	if c == nil {
		return
	}
	c.add(&c.s.BuildsFailed, 1)
}

// IncLaunchFailure records a build process that could not start.
func (c *Collector) IncLaunchFailure() {
	if c == nil {
		return
	}
	c.add(&c.s.LaunchFailures, 1)
}

// IncLogArchived records a build log copied to the archive.
func (c *Collector) IncLogArchived() {
	if c == nil {
		return
	}
	c.add(&c.s.LogsArchived, 1)
}

// IncArchiveFailure records a failed archive write.
func (c *Collector) IncArchiveFailure() {
	if c == nil {
		return
	}
	c.add(&c.s.ArchiveFailures, 1)
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s
}
