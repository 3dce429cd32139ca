package project

import (
	"errors"
	"fmt"
	"os"

	"github.com/wolfeidau/bundlecfg/internal/buildconfig"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidProject is returned when a project file fails validation.
	ErrInvalidProject = errors.New("invalid project file")
	// ErrBuildNotFound is returned when a named build is not in the project.
	ErrBuildNotFound = errors.New("build not found")
)

// ReleaseEnvVar seeds the release flag when neither the project file nor the
// command line sets it.
const ReleaseEnvVar = "BUNDLECFG_RELEASE"

// Project describes the builds of a repository.
type Project struct {
	Builds      []Build           `yaml:"builds"`
	Env         map[string]string `yaml:"env"`
	NodeModules string            `yaml:"node_modules"`
	SassBinary  string            `yaml:"sass_binary"`
	BaseDir     string            `yaml:"base_dir"`
}

// Build is one invocation of the configuration factory.
type Build struct {
	Name       string `yaml:"name"`
	Entry      string `yaml:"entry"`
	OutputFile string `yaml:"output_file"`
	OutputPath string `yaml:"output_path"`
	Target     string `yaml:"target"`
}

// Load reads and validates a project file.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates project YAML.
func Parse(data []byte) (*Project, error) {
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	for i := range p.Builds {
		b := &p.Builds[i]
		if b.OutputFile == "" {
			b.OutputFile = "bundle.js"
		}
		if b.OutputPath == "" {
			b.OutputPath = b.Name
		}
		if b.Target == "" {
			b.Target = string(buildconfig.TargetWeb)
		}
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the fields the factory cannot default. Targets are left to
// the bundler to reject.
func (p *Project) Validate() error {
	seen := map[string]bool{}
	for i, b := range p.Builds {
		if b.Name == "" {
			return fmt.Errorf("%w: build %d has no name", ErrInvalidProject, i)
		}
		if b.Entry == "" {
			return fmt.Errorf("%w: build %q has no entry", ErrInvalidProject, b.Name)
		}
		if seen[b.Name] {
			return fmt.Errorf("%w: duplicate build %q", ErrInvalidProject, b.Name)
		}
		seen[b.Name] = true
	}
	return nil
}

// Find returns the named build.
func (p *Project) Find(name string) (Build, error) {
	for _, b := range p.Builds {
		if b.Name == name {
			return b, nil
		}
	}
	return Build{}, fmt.Errorf("%w: %q", ErrBuildNotFound, name)
}

// Environment merges the raw build environment. Precedence: overrides, then
// the project file, then the BUNDLECFG_RELEASE environment variable.
func (p *Project) Environment(overrides map[string]string) map[string]string {
	env := map[string]string{}
	if v, ok := os.LookupEnv(ReleaseEnvVar); ok {
		env["release"] = v
	}
	if p != nil {
		for k, v := range p.Env {
			env[k] = v
		}
	}
	for k, v := range overrides {
		env[k] = v
	}
	return env
}

// Params converts a build into factory parameters with the given raw env.
func (b Build) Params(env map[string]string) buildconfig.FactoryParams {
	return buildconfig.FactoryParams{
		Env:                env,
		EntryPath:          b.Entry,
		OutputFile:         b.OutputFile,
		OutputRelativePath: b.OutputPath,
		Target:             buildconfig.Target(b.Target),
	}
}
