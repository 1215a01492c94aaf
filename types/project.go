package types

import "fmt"

// Project is the project under test: its identity, descriptor file,
// primary artifact and resolved dependencies.
type Project struct {
	Group   string `yaml:"group" json:"group"`
	Name    string `yaml:"name" json:"name"`
	Version string `yaml:"version" json:"version"`
	// Descriptor is the path of the project's own descriptor file.
	Descriptor string `yaml:"descriptor" json:"descriptor"`
	// Artifact is the primary build output. Identity fields left empty
	// are inherited from the project.
	Artifact Artifact `yaml:"artifact" json:"artifact"`
	// Dependencies are the resolved dependency artifacts, transitive ones
	// included. Scope filtering happens at install time.
	Dependencies []Artifact `yaml:"dependencies" json:"dependencies"`
}

// ID renders group:name:version.
func (p *Project) ID() string {
	return fmt.Sprintf("%s:%s:%s", p.Group, p.Name, p.Version)
}

// PrimaryArtifact returns the primary artifact with identity inherited
// from the project.
func (p *Project) PrimaryArtifact() *Artifact {
	a := p.Artifact
	if a.Group == "" {
		a.Group = p.Group
	}
	if a.Name == "" {
		a.Name = p.Name
	}
	if a.Version == "" {
		a.Version = p.Version
	}
	return &a
}

// DescriptorArtifact synthesizes a descriptor-type artifact with the
// project's identity, backed by the descriptor file.
func (p *Project) DescriptorArtifact() *Artifact {
	return &Artifact{
		Group:   p.Group,
		Name:    p.Name,
		Version: p.Version,
		Type:    DescriptorType,
		File:    p.Descriptor,
	}
}

// Validate checks the project identity and every dependency identity.
func (p *Project) Validate() error {
	switch {
	case p.Group == "":
		return fmt.Errorf("project group must be non-empty")
	case p.Name == "":
		return fmt.Errorf("project name must be non-empty")
	case p.Version == "":
		return fmt.Errorf("project version must be non-empty")
	}
	for i := range p.Dependencies {
		if err := p.Dependencies[i].Validate(); err != nil {
			return fmt.Errorf("dependency %d: %w", i, err)
		}
	}
	return nil
}
