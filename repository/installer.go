// Package repository installs artifacts into an isolated scratch repository.
//
// Manager validates preconditions and owns the repository directory;
// the actual file placement is delegated to an Installer.
package repository

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/pithecene-io/crucible/log"
	"github.com/pithecene-io/crucible/metrics"
	"github.com/pithecene-io/crucible/types"
)

// Installer places one artifact file at its canonical location inside a
// repository directory.
type Installer interface {
	Install(ctx context.Context, repo string, artifact *types.Artifact) error
}

// Manager installs artifacts and project descriptors into a repository.
type Manager struct {
	installer Installer
	logger    *log.Logger
	collector *metrics.Collector
}

// NewManager creates a Manager. A nil logger discards output and a nil
// collector disables counting.
func NewManager(installer Installer, logger *log.Logger, collector *metrics.Collector) *Manager {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Manager{
		installer: installer,
		logger:    logger,
		collector: collector,
	}
}

// Install installs a packaged artifact into repo.
//
// Errors:
//   - ErrInvalidArgument if artifact is nil
//   - ErrNotPackaged if the backing file is missing or empty (repo untouched)
//   - ErrIO if repo cannot be created
//   - ErrInstallFailed if the installer fails
func (m *Manager) Install(ctx context.Context, artifact *types.Artifact, repo string) error {
	if artifact == nil {
		return types.NewHarnessError(types.ErrInvalidArgument, "install", "", errors.New("artifact must not be nil"))
	}
	if !artifact.Packaged() {
		return types.NewHarnessError(types.ErrNotPackaged, "install", artifact.ID(),
			fmt.Errorf("backing file %q is missing or empty", artifact.File))
	}

	if err := os.MkdirAll(repo, 0o755); err != nil {
		return types.WrapIO(err, "mkdir", repo)
	}

	if err := m.installer.Install(ctx, repo, artifact); err != nil {
		m.collector.IncInstallFailure()
		return types.NewHarnessError(types.ErrInstallFailed, "install", artifact.ID(), err)
	}

	m.collector.IncArtifactInstalled()
	m.logger.Info("installed artifact", map[string]any{
		"artifact": artifact.ID(),
		"scope":    artifact.Scope,
		"path":     Layout(artifact),
	})
	return nil
}

// InstallDescriptor installs the project's descriptor file as a
// descriptor-type artifact, so a consuming build can resolve the
// project's metadata as well as its artifact.
func (m *Manager) InstallDescriptor(ctx context.Context, project *types.Project, repo string) error {
	if project == nil {
		return types.NewHarnessError(types.ErrInvalidArgument, "install", "", errors.New("project must not be nil"))
	}
	return m.Install(ctx, project.DescriptorArtifact(), repo)
}
