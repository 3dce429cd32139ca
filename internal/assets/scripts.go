package assets

import (
	"path/filepath"
	"slices"
)

// LoadScripts returns the ordered list of output files needed for the given
// entrypoint and the entrypoint's own output. Paths are slash separated and
// relative to the output folder.
func (p *Pipeline) LoadScripts(entryPointPath string) ([]string, string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.loadScriptsLocked(entryPointPath)
}

func (p *Pipeline) loadScriptsLocked(entryPointPath string) ([]string, string, error) {
	if p.metadata == nil {
		return nil, "", ErrNotBuilt
	}

	scripts := []string{}
	visited := make(map[string]bool)

	// Find the output file for this entrypoint
	for _, outputPath := range sortedKeys(p.metadata.Outputs) {
		info := p.metadata.Outputs[outputPath]
		if info.EntryPoint == "" || filepath.Ext(outputPath) == ".css" || !samePath(info.EntryPoint, entryPointPath) {
			continue
		}

		entrypoint := p.relative(outputPath)
		scripts = append(scripts, entrypoint)
		visited[outputPath] = true
		p.addDependencies(info, &scripts, visited)
		return scripts, entrypoint, nil
	}

	return nil, "", ErrEntryPointNotFound
}

// Stylesheet returns the stylesheet extracted for the given entrypoint.
func (p *Pipeline) Stylesheet(entryPointPath string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.stylesheetLocked(entryPointPath)
}

func (p *Pipeline) stylesheetLocked(entryPointPath string) (string, bool) {
	if p.metadata == nil {
		return "", false
	}

	for _, info := range p.metadata.Outputs {
		if info.EntryPoint != "" && info.CSSBundle != "" && samePath(info.EntryPoint, entryPointPath) {
			return p.relative(info.CSSBundle), true
		}
	}
	return "", false
}

func (p *Pipeline) addDependencies(output OutputInfo, scripts *[]string, visited map[string]bool) {
	for _, imp := range output.Imports {
		if imp.External || visited[imp.Path] {
			continue
		}
		visited[imp.Path] = true
		*scripts = append(*scripts, p.relative(imp.Path))

		if chunkInfo, exists := p.metadata.Outputs[imp.Path]; exists {
			p.addDependencies(chunkInfo, scripts, visited)
		}
	}
}

// relative converts a metafile path into one relative to the output folder.
func (p *Pipeline) relative(metaPath string) string {
	abs, err := filepath.Abs(metaPath)
	if err != nil {
		return filepath.ToSlash(metaPath)
	}
	rel, err := filepath.Rel(p.config.Build.Output.Path, abs)
	if err != nil {
		return filepath.ToSlash(metaPath)
	}
	return filepath.ToSlash(rel)
}

// samePath compares two paths relative to the working directory, which is
// how esbuild records entry points in the metafile.
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

func sortedKeys(m map[string]OutputInfo) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
