package build

import (
	"fmt"
	"path/filepath"
	"sort"
)

// RepositoryDefine is the define that points the build at the scratch
// repository. It is always present and overrides a user define of the
// same name.
const RepositoryDefine = "maven.repo.local"

// Goals are the trailing goal tokens of every build command.
var Goals = []string{"clean", "package"}

// Invocation is one external build command for one staged sample.
type Invocation struct {
	// Sample names the sample for logs and errors.
	Sample string
	// ProjectDir is the staged sample directory and the working directory.
	ProjectDir string
	// Executable is a bare command name (resolved via PATH) or a path.
	// Relative paths resolve against ProjectDir, so "./mvnw" runs the
	// sample's own wrapper.
	Executable string
	// Options are passed verbatim after the executable.
	Options []string
	// Defines become -Dkey=value flags, sorted by key.
	Defines map[string]string
	// Repository is the scratch repository directory.
	Repository string
	// LogFile is the log file name inside ProjectDir.
	LogFile string
}

// RelativeRepository returns repo relative to projectDir, so the command
// works regardless of the harness's own working directory.
func RelativeRepository(projectDir, repo string) (string, error) {
	absDir, err := filepath.Abs(projectDir)
	if err != nil {
		return "", err
	}
	absRepo, err := filepath.Abs(repo)
	if err != nil {
		return "", err
	}
	return filepath.Rel(absDir, absRepo)
}

// Command builds the argv:
//
//	executable, options..., -Dk=v (sorted by k)..., clean, package
func Command(inv Invocation) ([]string, error) {
	if inv.Executable == "" {
		return nil, fmt.Errorf("executable must be non-empty")
	}

	rel, err := RelativeRepository(inv.ProjectDir, inv.Repository)
	if err != nil {
		return nil, fmt.Errorf("relativize repository %s: %w", inv.Repository, err)
	}

	defines := make(map[string]string, len(inv.Defines)+1)
	for k, v := range inv.Defines {
		defines[k] = v
	}
	defines[RepositoryDefine] = rel

	keys := make([]string, 0, len(defines))
	for k := range defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	argv := make([]string, 0, 1+len(inv.Options)+len(keys)+len(Goals))
	argv = append(argv, inv.Executable)
	argv = append(argv, inv.Options...)
	for _, k := range keys {
		argv = append(argv, "-D"+k+"="+defines[k])
	}
	argv = append(argv, Goals...)
	return argv, nil
}
