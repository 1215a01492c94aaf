// Package types defines core domain types for the crucible harness.
//
//nolint:revive // types is a common Go package naming convention
package types

import (
	"fmt"
	"os"
	"strings"
)

// DefaultArtifactType is used when an artifact does not declare a type.
const DefaultArtifactType = "jar"

// DescriptorType is the artifact type of a project descriptor.
const DescriptorType = "pom"

// Dependency scopes understood by the default configuration.
const (
	ScopeCompile  = "compile"
	ScopeRuntime  = "runtime"
	ScopeProvided = "provided"
	ScopeTest     = "test"
	ScopeSystem   = "system"
)

// Artifact is a named, versioned, file-backed build output.
// Only the fields the harness reads are carried.
type Artifact struct {
	// Group is the group coordinate (e.g. "org.example").
	Group string `yaml:"group" json:"group"`
	// Name is the artifact coordinate.
	Name string `yaml:"name" json:"name"`
	// Version is the version coordinate.
	Version string `yaml:"version" json:"version"`
	// Type is the packaging type, defaults to "jar".
	Type string `yaml:"type,omitempty" json:"type,omitempty"`
	// Classifier is optional (e.g. "sources").
	Classifier string `yaml:"classifier,omitempty" json:"classifier,omitempty"`
	// Scope is the dependency scope tag. Empty for the project's own artifacts.
	Scope string `yaml:"scope,omitempty" json:"scope,omitempty"`
	// File is the backing file on disk.
	File string `yaml:"file" json:"file"`
}

// Kind returns the artifact type, applying the default.
func (a *Artifact) Kind() string {
	if a.Type == "" {
		return DefaultArtifactType
	}
	return a.Type
}

// ID renders group:name:type[:classifier]:version.
func (a *Artifact) ID() string {
	parts := []string{a.Group, a.Name, a.Kind()}
	if a.Classifier != "" {
		parts = append(parts, a.Classifier)
	}
	parts = append(parts, a.Version)
	return strings.Join(parts, ":")
}

// String implements fmt.Stringer.
func (a *Artifact) String() string {
	return a.ID()
}

// Validate checks that the identity coordinates are present.
func (a *Artifact) Validate() error {
	switch {
	case a.Group == "":
		return fmt.Errorf("artifact %q: group must be non-empty", a.Name)
	case a.Name == "":
		return fmt.Errorf("artifact in group %q: name must be non-empty", a.Group)
	case a.Version == "":
		return fmt.Errorf("artifact %s:%s: version must be non-empty", a.Group, a.Name)
	}
	return nil
}

// Packaged reports whether the backing file exists, is a regular file and
// is non-empty. An artifact that is not packaged cannot be installed.
func (a *Artifact) Packaged() bool {
	if a.File == "" {
		return false
	}
	info, err := os.Stat(a.File)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}
