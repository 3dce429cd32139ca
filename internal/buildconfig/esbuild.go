package buildconfig

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"

	"github.com/evanw/esbuild/pkg/api"
)

// ErrUnsupportedTarget is returned when a configuration names a target the
// bundler has no platform for.
var ErrUnsupportedTarget = errors.New("unsupported build target")

// loaders maps the extensions selected by each step onto esbuild's built-in
// loaders. Steps without an entry are handled by plugins.
var loaders = map[Step]map[string]api.Loader{
	StepCompile:          {".ts": api.LoaderTS, ".tsx": api.LoaderTSX},
	StepSourceMapExtract: {".js": api.LoaderJS, ".jsx": api.LoaderJSX},
	StepCSS:              {".css": api.LoaderCSS, ".scss": api.LoaderCSS},
	StepFileCopy: {
		".png": api.LoaderFile, ".jpg": api.LoaderFile, ".jpeg": api.LoaderFile,
		".gif": api.LoaderFile, ".ico": api.LoaderFile,
		".woff": api.LoaderFile, ".woff2": api.LoaderFile, ".ttf": api.LoaderFile,
		".eot": api.LoaderFile, ".svg": api.LoaderFile,
	},
}

// ToBuildOptions translates cfg into esbuild build options. Plugins backing
// the lint, sass and file-copy steps are attached by the asset pipeline.
func ToBuildOptions(cfg BuildConfiguration) (api.BuildOptions, error) {
	platform, format, err := platformFor(cfg.Target)
	if err != nil {
		return api.BuildOptions{}, err
	}

	opts := api.BuildOptions{
		EntryPoints:       []string{cfg.Entry},
		Outfile:           outfile(cfg.Output),
		Bundle:            true,
		Platform:          platform,
		Format:            format,
		Target:            api.ES2020,
		Loader:            loaderMap(cfg.Rules),
		ResolveExtensions: slices.Clone(cfg.Resolve.Extensions),
		External:          slices.Clone(cfg.Externals),
		Sourcemap:         cond(cfg.Devtool == "source-map", api.SourceMapLinked, api.SourceMapNone),
		LogLevel:          api.LogLevelSilent,
	}

	if define, ok := cfg.Plugin(PluginDefine); ok {
		opts.Define = maps.Clone(define.Define)
	}

	if _, ok := cfg.Plugin(PluginNamedModules); ok {
		opts.KeepNames = true
	}

	if minify, ok := cfg.Plugin(PluginMinify); ok {
		opts.MinifyWhitespace = true
		opts.MinifyIdentifiers = true
		opts.MinifySyntax = true
		opts.TreeShaking = api.TreeShakingTrue
		if !minify.Comments {
			opts.LegalComments = api.LegalCommentsNone
		}
		if minify.SourceMap {
			opts.Sourcemap = api.SourceMapLinked
		}
	}

	// esbuild's node platform never rewrites __dirname or __filename, which
	// is the disabled shim behaviour. Enabled shims pin them to the bundle.
	if cfg.Node != nil && platform == api.PlatformNode {
		if opts.Define == nil {
			opts.Define = map[string]string{}
		}
		if cfg.Node.Dirname {
			opts.Define["__dirname"] = `"/"`
		}
		if cfg.Node.Filename {
			opts.Define["__filename"] = fmt.Sprintf("%q", "/"+cfg.Output.Filename)
		}
	}

	return opts, nil
}

func platformFor(target Target) (api.Platform, api.Format, error) {
	switch target {
	case TargetWeb:
		return api.PlatformBrowser, api.FormatIIFE, nil
	case TargetNode, TargetElectronMain:
		return api.PlatformNode, api.FormatCommonJS, nil
	default:
		return api.PlatformDefault, api.FormatDefault, fmt.Errorf("%w: %q", ErrUnsupportedTarget, target)
	}
}

func loaderMap(rules []Rule) map[string]api.Loader {
	out := map[string]api.Loader{}
	for _, r := range rules {
		for _, s := range r.Use {
			maps.Copy(out, loaders[s.Step])
		}
	}
	return out
}

func outfile(o Output) string {
	return filepath.Join(o.Path, o.Filename)
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
