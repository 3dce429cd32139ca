package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultModulesDir is where package managers install dependencies.
const DefaultModulesDir = "node_modules"

// NodeModules enumerates the packages installed under Dir. Bundles for node
// and electron targets leave these to require() at run time.
type NodeModules struct {
	Dir string
}

// Modules returns the sorted package names found in the modules directory.
// Scoped packages are returned as "@scope/name". A missing directory is not
// an error, the project simply has nothing installed.
func (n NodeModules) Modules() ([]string, error) {
	dir := n.Dir
	if dir == "" {
		dir = DefaultModulesDir
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug().Str("dir", dir).Msg("modules directory not found")
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read modules directory: %w", err)
	}

	modules := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if skip(name) || !isDir(dir, entry) {
			continue
		}

		if !strings.HasPrefix(name, "@") {
			modules = append(modules, name)
			continue
		}

		scoped, err := os.ReadDir(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read scope %s: %w", name, err)
		}
		for _, pkg := range scoped {
			if skip(pkg.Name()) || !isDir(filepath.Join(dir, name), pkg) {
				continue
			}
			modules = append(modules, name+"/"+pkg.Name())
		}
	}

	slices.Sort(modules)

	log.Debug().Str("dir", dir).Int("count", len(modules)).Msg("enumerated platform modules")

	return modules, nil
}

// Static is a fixed module list.
type Static []string

func (s Static) Modules() ([]string, error) {
	return slices.Clone([]string(s)), nil
}

// Merge combines enumerators, dropping duplicate names.
type Merge []interface {
	Modules() ([]string, error)
}

func (m Merge) Modules() ([]string, error) {
	seen := map[string]bool{}
	out := []string{}
	for _, e := range m {
		names, err := e.Modules()
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	slices.Sort(out)
	return out, nil
}

func skip(name string) bool {
	return name == ".bin" || strings.HasPrefix(name, ".")
}

// isDir follows symlinks, which pnpm and workspaces use for installed packages.
func isDir(parent string, entry fs.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(parent, entry.Name()))
	return err == nil && info.IsDir()
}
