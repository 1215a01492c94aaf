package cmd

import (
	"fmt"
	"os"
	"slices"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/crucible/cli/config"
	"github.com/pithecene-io/crucible/cli/render"
	"github.com/pithecene-io/crucible/repository"
	"github.com/pithecene-io/crucible/stage"
	"github.com/pithecene-io/crucible/types"
)

// ArtifactEntry is one row of `list artifacts`.
type ArtifactEntry struct {
	ID       string `json:"id"`
	Role     string `json:"role"`
	Scope    string `json:"scope"`
	Install  bool   `json:"install"`
	Packaged bool   `json:"packaged"`
	Path     string `json:"path"`
}

// Artifact roles.
const (
	roleDescriptor = "descriptor"
	rolePrimary    = "primary"
	roleDependency = "dependency"
)

// ListCommand returns the list command with subcommands.
// Both subcommands read the manifest and the filesystem only.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List samples or artifacts a run would use",
		Subcommands: []*cli.Command{
			listSamplesCommand(),
			listArtifactsCommand(),
		},
	}
}

func listSamplesCommand() *cli.Command {
	return &cli.Command{
		Name:   "samples",
		Usage:  "List the sample projects under the source root",
		Flags:  append(ReadOnlyFlags(), ConfigFlag, RootFlag),
		Action: listSamplesAction,
	}
}

func listSamplesAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitHarnessError)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), exitHarnessError)
	}
	if c.IsSet("root") {
		cfg.Root = c.String("root")
	}

	samples, err := stage.Discover(cfg.Root)
	if err != nil {
		return cli.Exit(err.Error(), exitHarnessError)
	}
	return r.Render(samples)
}

func listArtifactsCommand() *cli.Command {
	return &cli.Command{
		Name:  "artifacts",
		Usage: "List the project artifacts and whether a run would install them",
		Flags: append(ReadOnlyFlags(), ConfigFlag,
			&cli.StringSliceFlag{
				Name:  "scope",
				Usage: "Dependency scope to install (repeatable)",
			},
		),
		Action: listArtifactsAction,
	}
}

func listArtifactsAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitHarnessError)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), exitHarnessError)
	}
	if c.IsSet("scope") {
		cfg.Scopes = c.StringSlice("scope")
	}

	entries := artifactEntries(cfg)
	if missing := countUnpackaged(entries); missing > 0 && isStderrTTY() {
		fmt.Fprintf(os.Stderr, "Warning: %d artifact(s) to install are not packaged yet.\n\n", missing)
	}
	return r.Render(entries)
}

// artifactEntries lists the descriptor, the primary artifact and every
// dependency in install order.
func artifactEntries(cfg *config.Config) []ArtifactEntry {
	project := &cfg.Project
	entry := func(a *types.Artifact, role string, install bool) ArtifactEntry {
		return ArtifactEntry{
			ID:       a.ID(),
			Role:     role,
			Scope:    a.Scope,
			Install:  install,
			Packaged: a.Packaged(),
			Path:     repository.Layout(a),
		}
	}

	entries := []ArtifactEntry{
		entry(project.DescriptorArtifact(), roleDescriptor, true),
		entry(project.PrimaryArtifact(), rolePrimary, true),
	}
	for i := range project.Dependencies {
		dep := &project.Dependencies[i]
		scope := dep.Scope
		if scope == "" {
			scope = types.ScopeCompile
		}
		entries = append(entries, entry(dep, roleDependency, slices.Contains(cfg.Scopes, scope)))
	}
	return entries
}

func countUnpackaged(entries []ArtifactEntry) int {
	n := 0
	for _, e := range entries {
		if e.Install && !e.Packaged {
			n++
		}
	}
	return n
}
