// Package harness drives one integration-test run: install the project
// under test into a scratch repository, stage every sample, then build
// the samples one by one, stopping at the first failure.
package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pithecene-io/crucible/archive"
	"github.com/pithecene-io/crucible/build"
	"github.com/pithecene-io/crucible/log"
	"github.com/pithecene-io/crucible/metrics"
	"github.com/pithecene-io/crucible/repository"
	"github.com/pithecene-io/crucible/stage"
	"github.com/pithecene-io/crucible/types"
)

// ArtifactInstaller installs artifacts into the scratch repository.
type ArtifactInstaller interface {
	Install(ctx context.Context, artifact *types.Artifact, repo string) error
	InstallDescriptor(ctx context.Context, project *types.Project, repo string) error
}

// Stager copies one sample into the workspace with substitution.
type Stager interface {
	Copy(src, destParent string, params map[string]string) (string, error)
}

// Builder runs one sample build.
type Builder interface {
	Run(ctx context.Context, inv build.Invocation) (*build.Result, error)
}

// Config configures a single run.
type Config struct {
	// Project is the project under test.
	Project *types.Project
	// Root holds the sample source directories.
	Root string
	// Workspace receives the staged samples.
	Workspace string
	// Repository is the scratch artifact repository.
	Repository string
	// Scopes lists the dependency scopes to install.
	Scopes []string
	// Parameters override the substitution parameters.
	Parameters map[string]string
	// Executable is the build command.
	Executable string
	// Options are fixed build options.
	Options []string
	// Defines are extra -D flags.
	Defines map[string]string
	// LogFile is the log file name inside each staged sample.
	LogFile string

	// RunID identifies the run. Generated if empty.
	RunID string
	// Installer overrides the repository manager (for testing).
	Installer ArtifactInstaller
	// Stager overrides the copier (for testing).
	Stager Stager
	// Builder overrides the build invoker (for testing).
	Builder Builder
	// Archive receives build logs. If nil, logs are not archived.
	Archive archive.Archiver
	// Logger defaults to a JSON logger on stderr.
	Logger *log.Logger
	// Collector is the metrics collector. If nil, a new one is created.
	Collector *metrics.Collector
}

// Orchestrator runs the install, stage and build phases in order.
type Orchestrator struct {
	config    *Config
	runID     string
	logger    *log.Logger
	collector *metrics.Collector
	installer ArtifactInstaller
	stager    Stager
	builder   Builder
	state     State
}

// New validates config and wires the default collaborators.
func New(config *Config) (*Orchestrator, error) {
	if err := validate(config); err != nil {
		return nil, types.NewHarnessError(types.ErrInvalidConfig, "configure", "", err)
	}

	runID := config.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	logger := config.Logger
	if logger == nil {
		logger = log.NewLogger(log.RunContext{RunID: runID, Project: config.Project.ID()})
	}

	collector := config.Collector
	if collector == nil {
		backend := ""
		if config.Archive != nil {
			backend = config.Archive.Backend()
		}
		collector = metrics.NewCollector(config.Executable, backend, runID)
	}

	o := &Orchestrator{
		config:    config,
		runID:     runID,
		logger:    logger,
		collector: collector,
		installer: config.Installer,
		stager:    config.Stager,
		builder:   config.Builder,
		state:     StateInstalling,
	}
	if o.installer == nil {
		o.installer = repository.NewManager(repository.NewStoreInstaller(), logger, collector)
	}
	if o.stager == nil {
		o.stager = stage.NewCopier(logger, collector)
	}
	if o.builder == nil {
		o.builder = build.NewInvoker(logger, collector)
	}
	return o, nil
}

func validate(c *Config) error {
	if c == nil {
		return errors.New("config must not be nil")
	}
	if c.Project == nil {
		return errors.New("project must not be nil")
	}
	if err := c.Project.Validate(); err != nil {
		return err
	}
	switch {
	case c.Root == "":
		return errors.New("root must be non-empty")
	case c.Workspace == "":
		return errors.New("workspace must be non-empty")
	case c.Repository == "":
		return errors.New("repository must be non-empty")
	case c.Executable == "":
		return errors.New("executable must be non-empty")
	case c.LogFile == "":
		return errors.New("log file must be non-empty")
	case strings.ContainsAny(c.LogFile, `/\`) || c.LogFile == "." || c.LogFile == "..":
		return fmt.Errorf("log file %q must be a plain file name", c.LogFile)
	}
	return nil
}

// RunID returns the run identifier.
func (o *Orchestrator) RunID() string {
	return o.runID
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	return o.state
}

// Execute runs the whole pipeline. The returned result is never nil; on
// failure it holds everything done up to the failure, and the error is
// the first failure, classified by kind.
func (o *Orchestrator) Execute(ctx context.Context) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{
		RunID:     o.runID,
		Project:   o.config.Project.ID(),
		StartedAt: start,
		Samples:   []SampleResult{},
		Installed: []string{},
		Skipped:   []string{},
	}

	o.logger.Info("starting run", map[string]any{
		"root":       o.config.Root,
		"workspace":  o.config.Workspace,
		"repository": o.config.Repository,
		"executable": o.config.Executable,
	})

	err := o.execute(ctx, result)
	if err != nil {
		o.state = StateFailed
		result.Error = err.Error()
	} else {
		o.state = StateDone
	}

	result.State = o.state
	result.Outcome = types.OutcomeOf(err)
	result.Metrics = o.collector.Snapshot()
	result.DurationMS = time.Since(start).Milliseconds()

	passed, failed, skipped := result.Counts()
	fields := map[string]any{
		"outcome":     result.Outcome,
		"passed":      passed,
		"failed":      failed,
		"skipped":     skipped,
		"duration_ms": result.DurationMS,
	}
	if err != nil {
		fields["error"] = err.Error()
		o.logger.Error("run failed", fields)
	} else {
		o.logger.Info("run completed", fields)
	}
	return result, err
}

func (o *Orchestrator) execute(ctx context.Context, result *RunResult) error {
	o.state = StateInstalling
	if err := o.install(ctx, result); err != nil {
		return err
	}

	o.state = StateStaging
	staged, err := o.stage(result)
	if err != nil {
		return err
	}

	o.state = StateRunning
	return o.run(ctx, staged, result)
}

// install installs the descriptor, the primary artifact, then every
// dependency whose scope is allowed.
func (o *Orchestrator) install(ctx context.Context, result *RunResult) error {
	project := o.config.Project
	repo := o.config.Repository

	if err := o.installer.InstallDescriptor(ctx, project, repo); err != nil {
		return err
	}
	result.Installed = append(result.Installed, project.DescriptorArtifact().ID())

	primary := project.PrimaryArtifact()
	if err := o.installer.Install(ctx, primary, repo); err != nil {
		return err
	}
	result.Installed = append(result.Installed, primary.ID())

	for i := range project.Dependencies {
		dep := &project.Dependencies[i]
		if !o.scopeAllowed(dep.Scope) {
			o.collector.IncArtifactSkipped()
			result.Skipped = append(result.Skipped, dep.ID())
			o.logger.Debug("skipping dependency", map[string]any{
				"artifact": dep.ID(),
				"scope":    dep.Scope,
			})
			continue
		}
		if err := o.installer.Install(ctx, dep, repo); err != nil {
			return err
		}
		result.Installed = append(result.Installed, dep.ID())
	}
	return nil
}

// scopeAllowed tests allow-list membership. An empty scope is compile.
func (o *Orchestrator) scopeAllowed(scope string) bool {
	if scope == "" {
		scope = types.ScopeCompile
	}
	return slices.Contains(o.config.Scopes, scope)
}

// stage copies every discovered sample into the workspace.
func (o *Orchestrator) stage(result *RunResult) ([]stage.Sample, error) {
	if err := os.MkdirAll(o.config.Workspace, 0o755); err != nil {
		return nil, types.WrapIO(err, "mkdir", o.config.Workspace)
	}

	samples, err := stage.Discover(o.config.Root)
	if err != nil {
		return nil, err
	}

	params := stage.Parameters(o.config.Project, o.config.Parameters)
	staged := make([]stage.Sample, 0, len(samples))
	for _, s := range samples {
		dest, err := o.stager.Copy(s.Path, o.config.Workspace, params)
		if err != nil {
			return nil, err
		}
		o.collector.IncSampleStaged()
		o.logger.Info("staged sample", map[string]any{
			"sample": s.Name,
			"path":   dest,
		})
		staged = append(staged, stage.Sample{Name: s.Name, Path: dest})
		result.Samples = append(result.Samples, SampleResult{
			Name:       s.Name,
			StagedPath: dest,
			Status:     types.SampleSkipped,
		})
	}
	return staged, nil
}

// run builds the staged samples in order and stops at the first failure.
// Samples after the failure keep their skipped status.
func (o *Orchestrator) run(ctx context.Context, staged []stage.Sample, result *RunResult) error {
	for i, s := range staged {
		if err := os.MkdirAll(o.config.Root, 0o755); err != nil {
			return types.WrapIO(err, "mkdir", o.config.Root)
		}

		sr := &result.Samples[i]
		sampleLog := o.logger.With("sample", s.Name)
		res, err := o.builder.Run(ctx, build.Invocation{
			Sample:     s.Name,
			ProjectDir: s.Path,
			Executable: o.config.Executable,
			Options:    o.config.Options,
			Defines:    o.config.Defines,
			Repository: o.config.Repository,
			LogFile:    o.config.LogFile,
		})
		if res != nil {
			sr.LogPath = res.LogPath
			sr.ExitCode = res.ExitCode
			sr.DurationMS = res.Duration.Milliseconds()
			o.archiveLog(ctx, sr, sampleLog)
		}
		if err != nil {
			sr.Status = types.SampleFailed
			result.FailedSample = s.Name
			if remaining := len(staged) - i - 1; remaining > 0 {
				sampleLog.Warn("stopping at first failure", map[string]any{"skipped": remaining})
			}
			return err
		}
		sr.Status = types.SamplePassed
		sampleLog.Debug("sample passed", map[string]any{"duration_ms": sr.DurationMS})
	}
	return nil
}

// archiveLog copies the sample log to the archive. Failures are warnings.
func (o *Orchestrator) archiveLog(ctx context.Context, sr *SampleResult, logger *log.Logger) {
	if o.config.Archive == nil || sr.LogPath == "" {
		return
	}
	// An interrupted run still archives what the build wrote.
	key, err := o.config.Archive.PutLog(context.WithoutCancel(ctx), o.runID, sr.Name, sr.LogPath)
	if err != nil {
		o.collector.IncArchiveFailure()
		logger.Warn("failed to archive build log", map[string]any{"error": err})
		return
	}
	o.collector.IncLogArchived()
	sr.ArchiveKey = key
}
