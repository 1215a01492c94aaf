package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/pithecene-io/crucible/archive"
	"github.com/pithecene-io/crucible/types"
)

// Defaults.
const (
	DefaultFile       = "crucible.yaml"
	DefaultRoot       = "src/samples"
	DefaultWorkspace  = "target/workspace"
	DefaultRepository = "target/repository"
	DefaultExecutable = "mvn"
	DefaultLogFile    = "build.log"
)

// DefaultScopes are the dependency scopes installed when none are configured.
var DefaultScopes = []string{types.ScopeCompile, types.ScopeRuntime}

// DefaultOptions run the build non-interactively with full error output.
var DefaultOptions = []string{"--batch-mode", "--errors"}

var knownScopes = []string{
	types.ScopeCompile,
	types.ScopeRuntime,
	types.ScopeProvided,
	types.ScopeTest,
	types.ScopeSystem,
}

// Config is a crucible.yaml run manifest.
// CLI flags override file values.
type Config struct {
	Root       string            `yaml:"root"`
	Workspace  string            `yaml:"workspace"`
	Repository string            `yaml:"repository"`
	Scopes     []string          `yaml:"scopes"`
	Parameters map[string]string `yaml:"parameters"`
	Build      BuildConfig       `yaml:"build"`
	Project    types.Project     `yaml:"project"`
	Archive    ArchiveConfig     `yaml:"archive"`
	Adapter    AdapterConfig     `yaml:"adapter"`
}

// BuildConfig configures the external build command.
type BuildConfig struct {
	Executable string `yaml:"executable"`
	// Options is nil when unset; an explicit empty list disables the defaults.
	Options []string          `yaml:"options"`
	Defines map[string]string `yaml:"defines"`
	LogFile string            `yaml:"log_file"`
}

// ArchiveConfig configures the optional build-log archive.
type ArchiveConfig struct {
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// Enabled reports whether an archive backend is configured.
func (a *ArchiveConfig) Enabled() bool {
	return a.Backend != ""
}

// ToArchive converts to the archive package's config.
func (a *ArchiveConfig) ToArchive() archive.Config {
	return archive.Config{
		Backend:      a.Backend,
		Path:         a.Path,
		Region:       a.Region,
		Endpoint:     a.Endpoint,
		UsePathStyle: a.S3PathStyle,
	}
}

// AdapterConfig configures the optional run-completed notification.
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	// Secret signs webhook bodies.
	Secret string `yaml:"secret,omitempty"`
	// KeyPrefix and KeyTTL configure redis latest-run storage.
	KeyPrefix string   `yaml:"key_prefix,omitempty"`
	KeyTTL    Duration `yaml:"key_ttl,omitempty"`
	Timeout   Duration `yaml:"timeout,omitempty"`
	// Retries is nil when unset, so 0 can disable retries explicitly.
	Retries *int `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// ApplyDefaults fills every unset field with its default.
func (c *Config) ApplyDefaults() {
	if c.Root == "" {
		c.Root = DefaultRoot
	}
	if c.Workspace == "" {
		c.Workspace = DefaultWorkspace
	}
	if c.Repository == "" {
		c.Repository = DefaultRepository
	}
	if len(c.Scopes) == 0 {
		c.Scopes = slices.Clone(DefaultScopes)
	}
	if c.Build.Executable == "" {
		c.Build.Executable = DefaultExecutable
	}
	if c.Build.Options == nil {
		c.Build.Options = slices.Clone(DefaultOptions)
	}
	if c.Build.LogFile == "" {
		c.Build.LogFile = DefaultLogFile
	}
}

// ResolvePaths makes every relative manifest path absolute against base.
// The build executable is left alone: a bare name is looked up on PATH
// and a relative path is resolved by the build against its sample.
func (c *Config) ResolvePaths(base string) {
	resolve := func(p *string) {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	resolve(&c.Root)
	resolve(&c.Workspace)
	resolve(&c.Repository)
	resolve(&c.Project.Descriptor)
	resolve(&c.Project.Artifact.File)
	for i := range c.Project.Dependencies {
		resolve(&c.Project.Dependencies[i].File)
	}
	if c.Archive.Backend == archive.BackendFS {
		resolve(&c.Archive.Path)
	}
}

// Validate checks the configuration after defaults and overrides.
// Every error matches types.ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return types.NewHarnessError(types.ErrInvalidConfig, "validate", "config", err)
	}
	return nil
}

func (c *Config) validate() error {
	if err := c.Project.Validate(); err != nil {
		return fmt.Errorf("project: %w", err)
	}
	if c.Project.Descriptor == "" {
		return errors.New("project: descriptor must be non-empty")
	}
	if c.Project.Artifact.File == "" {
		return errors.New("project: artifact file must be non-empty")
	}
	for i, dep := range c.Project.Dependencies {
		if dep.File == "" {
			return fmt.Errorf("project: dependency %d (%s): file must be non-empty", i, dep.ID())
		}
	}

	for _, s := range c.Scopes {
		if !slices.Contains(knownScopes, s) {
			return fmt.Errorf("unknown scope %q (want one of %s)", s, strings.Join(knownScopes, ", "))
		}
	}

	if c.Build.Executable == "" {
		return errors.New("build: executable must be non-empty")
	}
	if strings.ContainsAny(c.Build.LogFile, `/\`) {
		return fmt.Errorf("build: log_file %q must be a plain file name", c.Build.LogFile)
	}

	if c.Archive.Enabled() {
		ac := c.Archive.ToArchive()
		if err := ac.Validate(); err != nil {
			return fmt.Errorf("archive: %w", err)
		}
	}

	switch c.Adapter.Type {
	case "":
	case "webhook", "redis":
		if c.Adapter.URL == "" {
			return fmt.Errorf("adapter: %s requires a url", c.Adapter.Type)
		}
		if c.Adapter.Retries != nil && *c.Adapter.Retries < 0 {
			return fmt.Errorf("adapter: retries must be >= 0, got %d", *c.Adapter.Retries)
		}
		if c.Adapter.Type == "webhook" && c.Adapter.KeyPrefix != "" {
			return errors.New("adapter: key_prefix applies to redis only")
		}
		if c.Adapter.Type == "redis" && c.Adapter.Secret != "" {
			return errors.New("adapter: secret applies to webhook only")
		}
	default:
		return fmt.Errorf("adapter: unknown type %q (want webhook or redis)", c.Adapter.Type)
	}
	return nil
}
