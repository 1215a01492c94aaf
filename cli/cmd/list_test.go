package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pithecene-io/crucible/cli/config"
	"github.com/pithecene-io/crucible/cli/render"
	"github.com/pithecene-io/crucible/stage"
	"github.com/pithecene-io/crucible/types"
)

func TestListSamples(t *testing.T) {
	_, manifest := project(t, map[string]int{"beta": 0, "alpha": 0}, "")

	err := newTestApp().Run([]string{"crucible", "list", "samples", "--config", manifest, "--format", "json"})
	if got := exitCode(t, err); got != exitSuccess {
		t.Fatalf("exit code = %d (err: %v)", got, err)
	}
}

func TestListSamples_MissingRoot(t *testing.T) {
	_, manifest := project(t, map[string]int{"a": 0}, "")

	err := newTestApp().Run([]string{
		"crucible", "list", "samples", "--config", manifest,
		"--root", filepath.Join(t.TempDir(), "missing"),
	})
	if got := exitCode(t, err); got != exitHarnessError {
		t.Errorf("exit code = %d, want %d", got, exitHarnessError)
	}
}

func TestListSamples_RendersDiscoveredOrder(t *testing.T) {
	dir, _ := project(t, map[string]int{"beta": 0, "alpha": 0}, "")
	if err := os.WriteFile(filepath.Join(dir, "samples", "README"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	samples, err := stage.Discover(filepath.Join(dir, "samples"))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := render.NewRendererWithWriter(render.FormatJSON, true, &buf).Render(samples); err != nil {
		t.Fatal(err)
	}
	var got []stage.Sample
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, buf.String())
	}
	if len(got) != 2 || got[0].Name != "alpha" || got[1].Name != "beta" {
		t.Errorf("samples = %+v", got)
	}
}

func TestArtifactEntries(t *testing.T) {
	dir := t.TempDir()
	jar := filepath.Join(dir, "core.jar")
	if err := os.WriteFile(jar, []byte("jar"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		Scopes: []string{types.ScopeCompile},
		Project: types.Project{
			Group:      "org.example",
			Name:       "demo",
			Version:    "1.0",
			Descriptor: filepath.Join(dir, "pom.xml"),
			Artifact:   types.Artifact{File: filepath.Join(dir, "demo.jar")},
			Dependencies: []types.Artifact{
				{Group: "org.example", Name: "core", Version: "2.0", File: jar},
				{Group: "junit", Name: "junit", Version: "4.13", Scope: types.ScopeTest, File: jar},
			},
		},
	}

	entries := artifactEntries(cfg)
	if len(entries) != 4 {
		t.Fatalf("got %d entries, want 4", len(entries))
	}

	tests := []struct {
		role     string
		scope    string
		install  bool
		packaged bool
		path     string
	}{
		{roleDescriptor, "", true, false, "org/example/demo/1.0/demo-1.0.pom"},
		{rolePrimary, "", true, false, "org/example/demo/1.0/demo-1.0.jar"},
		{roleDependency, "", true, true, "org/example/core/2.0/core-2.0.jar"},
		{roleDependency, types.ScopeTest, false, true, "junit/junit/4.13/junit-4.13.jar"},
	}
	for i, tt := range tests {
		e := entries[i]
		if e.Role != tt.role || e.Scope != tt.scope || e.Install != tt.install || e.Packaged != tt.packaged || e.Path != tt.path {
			t.Errorf("entry %d = %+v, want %+v", i, e, tt)
		}
	}

	if got := countUnpackaged(entries); got != 2 {
		t.Errorf("countUnpackaged = %d, want 2", got)
	}
}

func TestListArtifacts(t *testing.T) {
	_, manifest := project(t, map[string]int{"a": 0}, "")

	err := newTestApp().Run([]string{"crucible", "list", "artifacts", "--config", manifest, "--format", "yaml"})
	if got := exitCode(t, err); got != exitSuccess {
		t.Errorf("exit code = %d (err: %v)", got, err)
	}
}
