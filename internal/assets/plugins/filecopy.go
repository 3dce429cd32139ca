package plugins

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
)

const (
	fileCopyNamespace = "file-copy"
	hashLength        = 20
)

// FileCopy copies files matching filter into outputDir under a content
// hashed name built from template, e.g. "./images/[name].[hash].[ext]".
// Script imports receive the relative URL as their default export, CSS url()
// references are rewritten to it.
func FileCopy(filter, outputDir, template string) api.Plugin {
	return api.Plugin{
		Name: "file-copy",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: filter},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					if args.PluginData == resolving {
						return api.OnResolveResult{}, nil
					}

					source, errs := locate(build, args)
					if len(errs) > 0 {
						return api.OnResolveResult{Errors: errs}, nil
					}

					rel, err := copyHashed(source, outputDir, template)
					if err != nil {
						return api.OnResolveResult{}, err
					}

					if args.Kind == api.ResolveCSSURLToken || args.Kind == api.ResolveCSSImportRule {
						return api.OnResolveResult{Path: rel, External: true}, nil
					}

					return api.OnResolveResult{Path: rel, Namespace: fileCopyNamespace}, nil
				})

			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: fileCopyNamespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					contents := fmt.Sprintf("export default %q;\n", args.Path)
					return api.OnLoadResult{Contents: &contents, Loader: api.LoaderJS}, nil
				})
		},
	}
}

type resolveMarker struct{}

// resolving tags nested resolutions so they skip this plugin.
var resolving = resolveMarker{}

// locate finds the file behind an import. Relative and absolute paths are
// joined onto the importing directory, anything else is a package path and
// goes through esbuild's node_modules resolution. A leading "~" marks a
// package path in stylesheets.
func locate(build api.PluginBuild, args api.OnResolveArgs) (string, []api.Message) {
	spec := stripQuery(args.Path)

	switch {
	case filepath.IsAbs(spec):
		return spec, nil
	case strings.HasPrefix(spec, "./"), strings.HasPrefix(spec, "../"):
		return filepath.Join(args.ResolveDir, spec), nil
	}

	res := build.Resolve(strings.TrimPrefix(spec, "~"), api.ResolveOptions{
		Importer:   args.Importer,
		Namespace:  args.Namespace,
		ResolveDir: args.ResolveDir,
		Kind:       args.Kind,
		PluginData: resolving,
	})
	if len(res.Errors) > 0 {
		return "", res.Errors
	}
	return res.Path, nil
}

// copyHashed writes source below outputDir and returns its "./" prefixed
// path relative to outputDir.
func copyHashed(source, outputDir, template string) (string, error) {
	data, err := os.ReadFile(source)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", source, err)
	}

	rel := HashedName(template, filepath.Base(source), data)
	dest := filepath.Join(outputDir, filepath.FromSlash(rel))

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", filepath.Dir(dest), err)
	}
	// #nosec G306 - emitted assets are served publicly
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", dest, err)
	}

	log.Debug().Str("source", source).Str("dest", dest).Msg("Copied file")

	return "./" + rel, nil
}

// HashedName expands the [name], [hash] and [ext] placeholders of template
// for a file called base with the given contents. The result is a clean
// slash separated path without a leading "./".
func HashedName(template, base string, data []byte) string {
	sum := sha256.Sum256(data)
	ext := path.Ext(base)

	name := strings.NewReplacer(
		"[name]", strings.TrimSuffix(base, ext),
		"[hash]", hex.EncodeToString(sum[:])[:hashLength],
		"[ext]", strings.TrimPrefix(ext, "."),
	).Replace(template)

	return path.Clean(name)
}

func stripQuery(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		return p[:i]
	}
	return p
}
