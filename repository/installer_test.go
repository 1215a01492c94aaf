package repository

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/justapithecus/lode/lode"

	"github.com/pithecene-io/crucible/metrics"
	"github.com/pithecene-io/crucible/types"
)

// recordingInstaller records Install calls and returns a configurable error.
type recordingInstaller struct {
	err   error
	calls []string
}

func (r *recordingInstaller) Install(_ context.Context, repo string, a *types.Artifact) error {
	r.calls = append(r.calls, repo+"|"+a.ID())
	return r.err
}

func memoryInstaller(store lode.Store) *StoreInstaller {
	return NewStoreInstallerWithOpener(func(string) lode.StoreFactory {
		return func() (lode.Store, error) { return store, nil }
	})
}

func packagedArtifact(t *testing.T, content string) *types.Artifact {
	t.Helper()
	file := filepath.Join(t.TempDir(), "demo-1.0.jar")
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return &types.Artifact{Group: "org.example", Name: "demo", Version: "1.0", Scope: types.ScopeCompile, File: file}
}

func readObject(t *testing.T, store lode.Store, key string) string {
	t.Helper()
	rc, err := store.Get(t.Context(), key)
	if err != nil {
		t.Fatalf("Get(%s): %v", key, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// snapshotDir maps every regular file under root to its content.
func snapshotDir(t *testing.T, root string) map[string]string {
	t.Helper()
	snap := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		snap[rel] = string(data)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return snap
}

func TestInstall_NilArtifact(t *testing.T) {
	inst := &recordingInstaller{}
	m := NewManager(inst, nil, nil)

	err := m.Install(t.Context(), nil, t.TempDir())
	if !errors.Is(err, types.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if len(inst.calls) != 0 {
		t.Errorf("installer called %d times, want 0", len(inst.calls))
	}
}

func TestInstall_NotPackagedLeavesRepositoryUntouched(t *testing.T) {
	tests := []struct {
		name string
		file func(t *testing.T) string
	}{
		{"no backing file", func(*testing.T) string { return "" }},
		{"missing backing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.jar") }},
		{"empty backing file", func(t *testing.T) string {
			f := filepath.Join(t.TempDir(), "empty.jar")
			if err := os.WriteFile(f, nil, 0o644); err != nil {
				t.Fatal(err)
			}
			return f
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := filepath.Join(t.TempDir(), "repository")
			inst := &recordingInstaller{}
			collector := metrics.NewCollector("mvn", "", "run-1")
			m := NewManager(inst, nil, collector)

			a := &types.Artifact{Group: "org.example", Name: "demo", Version: "1.0", File: tt.file(t)}
			err := m.Install(t.Context(), a, repo)

			if !errors.Is(err, types.ErrNotPackaged) {
				t.Fatalf("expected ErrNotPackaged, got %v", err)
			}
			if !strings.Contains(err.Error(), a.ID()) {
				t.Errorf("error %q should name the artifact %s", err, a.ID())
			}
			if _, statErr := os.Stat(repo); !os.IsNotExist(statErr) {
				t.Errorf("repository should not be created, stat err = %v", statErr)
			}
			if len(inst.calls) != 0 {
				t.Errorf("installer called %d times, want 0", len(inst.calls))
			}
			if collector.Snapshot().ArtifactsInstalled != 0 {
				t.Error("ArtifactsInstalled should stay 0")
			}
		})
	}
}

func TestInstall_CreatesRepositoryAndDelegates(t *testing.T) {
	repo := filepath.Join(t.TempDir(), "nested", "repository")
	inst := &recordingInstaller{}
	collector := metrics.NewCollector("mvn", "", "run-1")
	m := NewManager(inst, nil, collector)

	a := packagedArtifact(t, "jar-bytes")
	if err := m.Install(t.Context(), a, repo); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	info, err := os.Stat(repo)
	if err != nil || !info.IsDir() {
		t.Fatalf("repository directory not created: %v", err)
	}
	if len(inst.calls) != 1 || inst.calls[0] != repo+"|"+a.ID() {
		t.Errorf("calls = %v", inst.calls)
	}
	if collector.Snapshot().ArtifactsInstalled != 1 {
		t.Errorf("ArtifactsInstalled = %d, want 1", collector.Snapshot().ArtifactsInstalled)
	}
}

func TestInstall_ExistingRepositoryIsReused(t *testing.T) {
	repo := t.TempDir()
	m := NewManager(&recordingInstaller{}, nil, nil)

	if err := m.Install(t.Context(), packagedArtifact(t, "x"), repo); err != nil {
		t.Fatalf("Install into existing repository failed: %v", err)
	}
}

func TestInstall_InstallerFailureWrapsIdentity(t *testing.T) {
	cause := errors.New("disk on fire")
	collector := metrics.NewCollector("mvn", "", "run-1")
	m := NewManager(&recordingInstaller{err: cause}, nil, collector)
	a := packagedArtifact(t, "x")

	err := m.Install(t.Context(), a, t.TempDir())

	if !errors.Is(err, types.ErrInstallFailed) {
		t.Fatalf("expected ErrInstallFailed, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("underlying installer error should be reachable")
	}
	if !strings.Contains(err.Error(), a.ID()) {
		t.Errorf("error %q should name the artifact", err)
	}
	if collector.Snapshot().InstallFailures != 1 {
		t.Errorf("InstallFailures = %d, want 1", collector.Snapshot().InstallFailures)
	}
}

func TestInstall_RepositoryPathIsAFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "repo")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := NewManager(&recordingInstaller{}, nil, nil).Install(t.Context(), packagedArtifact(t, "x"), filepath.Join(blocker, "sub"))
	if !errors.Is(err, types.ErrIO) {
		t.Errorf("expected ErrIO, got %v", err)
	}
}

func TestInstallDescriptor(t *testing.T) {
	store := lode.NewMemory()
	m := NewManager(memoryInstaller(store), nil, nil)

	pom := filepath.Join(t.TempDir(), "pom.xml")
	if err := os.WriteFile(pom, []byte("<project/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	project := &types.Project{Group: "org.example", Name: "plugin", Version: "1.0.0", Descriptor: pom}

	if err := m.InstallDescriptor(t.Context(), project, t.TempDir()); err != nil {
		t.Fatalf("InstallDescriptor failed: %v", err)
	}

	if got := readObject(t, store, "org/example/plugin/1.0.0/plugin-1.0.0.pom"); got != "<project/>" {
		t.Errorf("descriptor content = %q", got)
	}
}

func TestInstallDescriptor_NilProject(t *testing.T) {
	err := NewManager(&recordingInstaller{}, nil, nil).InstallDescriptor(t.Context(), nil, t.TempDir())
	if !errors.Is(err, types.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestInstallDescriptor_MissingDescriptorNotPackaged(t *testing.T) {
	project := &types.Project{Group: "g", Name: "n", Version: "1", Descriptor: filepath.Join(t.TempDir(), "pom.xml")}
	err := NewManager(&recordingInstaller{}, nil, nil).InstallDescriptor(t.Context(), project, t.TempDir())
	if !errors.Is(err, types.ErrNotPackaged) {
		t.Errorf("expected ErrNotPackaged, got %v", err)
	}
}

func TestStoreInstaller_WritesAtLayoutPath(t *testing.T) {
	store := lode.NewMemory()
	a := packagedArtifact(t, "jar-bytes")

	if err := memoryInstaller(store).Install(t.Context(), "/unused", a); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	if got := readObject(t, store, "org/example/demo/1.0/demo-1.0.jar"); got != "jar-bytes" {
		t.Errorf("content = %q, want jar-bytes", got)
	}
}

func TestStoreInstaller_ReplacesExisting(t *testing.T) {
	store := lode.NewMemory()
	inst := memoryInstaller(store)
	a := packagedArtifact(t, "v1")

	if err := inst.Install(t.Context(), "/unused", a); err != nil {
		t.Fatalf("first Install failed: %v", err)
	}
	if err := os.WriteFile(a.File, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := inst.Install(t.Context(), "/unused", a); err != nil {
		t.Fatalf("second Install failed: %v", err)
	}

	if got := readObject(t, store, Layout(a)); got != "v2" {
		t.Errorf("content = %q, want v2", got)
	}
}

func TestStoreInstaller_OpenFailure(t *testing.T) {
	cause := errors.New("no store")
	inst := NewStoreInstallerWithOpener(func(string) lode.StoreFactory {
		return func() (lode.Store, error) { return nil, cause }
	})

	err := inst.Install(context.Background(), "/repo", packagedArtifact(t, "x"))
	if !errors.Is(err, cause) {
		t.Errorf("expected wrapped open error, got %v", err)
	}
}

func TestInstall_IdempotentOnFilesystem(t *testing.T) {
	repo := filepath.Join(t.TempDir(), "repository")
	m := NewManager(NewStoreInstaller(), nil, nil)
	a := packagedArtifact(t, "jar-bytes")

	if err := m.Install(t.Context(), a, repo); err != nil {
		t.Fatalf("first Install failed: %v", err)
	}
	once := snapshotDir(t, repo)

	if err := m.Install(t.Context(), a, repo); err != nil {
		t.Fatalf("second Install failed: %v", err)
	}
	twice := snapshotDir(t, repo)

	if len(once) == 0 {
		t.Fatal("repository is empty after install")
	}
	if len(once) != len(twice) {
		t.Fatalf("file count changed: %d -> %d", len(once), len(twice))
	}
	for path, content := range once {
		if twice[path] != content {
			t.Errorf("%s changed after second install", path)
		}
	}

	store, err := lode.NewFSFactory(repo)()
	if err != nil {
		t.Fatal(err)
	}
	ok, err := store.Exists(t.Context(), Layout(a))
	if err != nil || !ok {
		t.Errorf("Exists(%s) = %v, %v; want true", Layout(a), ok, err)
	}
}
