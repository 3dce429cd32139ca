package assets

import (
	"errors"
	"sync"
)

var (
	// ErrBuildFailed is returned when esbuild reports errors.
	ErrBuildFailed = errors.New("esbuild failed with errors")
	// ErrNotBuilt is returned when outputs are requested before Build.
	ErrNotBuilt = errors.New("assets not built yet, call Build() first")
	// ErrEntryPointNotFound is returned when the metafile has no output for an entry point.
	ErrEntryPointNotFound = errors.New("entrypoint not found in metadata")
)

type BuildMetadata struct {
	Outputs map[string]OutputInfo `json:"outputs"`
}

type OutputInfo struct {
	Bytes      int          `json:"bytes"`
	EntryPoint string       `json:"entryPoint"`
	CSSBundle  string       `json:"cssBundle,omitempty"`
	Imports    []ImportInfo `json:"imports"`
}

type ImportInfo struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
}

// Pipeline runs esbuild for a build configuration and keeps the metadata of
// the last successful build.
type Pipeline struct {
	config   Config
	metadata *BuildMetadata
	mu       sync.RWMutex
}

// New creates a new asset pipeline with the given configuration
func New(config Config) *Pipeline {
	if config.MetafileName == "" {
		config.MetafileName = "meta.json"
	}
	return &Pipeline{
		config: config,
	}
}
