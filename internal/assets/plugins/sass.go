package plugins

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/godartsass/v2"
	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
)

type SassOptions struct {
	// Dart Sass binary, when empty stylesheets are loaded as plain CSS.
	Binary     string
	SourceMap  bool
	Compressed bool
	// Inject wraps the compiled sheet in a module that appends a <style>
	// element instead of emitting a stylesheet.
	Inject bool
}

// Sass compiles stylesheets matching filter.
func Sass(filter string, opts SassOptions) api.Plugin {
	return api.Plugin{
		Name: "sass",
		Setup: func(build api.PluginBuild) {
			compiler := &sassCompiler{opts: opts}

			build.OnLoad(api.OnLoadOptions{Filter: filter, Namespace: "file"},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					source, err := os.ReadFile(args.Path)
					if err != nil {
						return api.OnLoadResult{}, err
					}

					css, err := compiler.compile(args.Path, string(source))
					if err != nil {
						var sassErr godartsass.SassError
						if errors.As(err, &sassErr) {
							return api.OnLoadResult{Errors: []api.Message{{Text: sassErr.Message, Location: &api.Location{
								File:     args.Path,
								LineText: sassErr.Span.Text,
							}}}}, nil
						}
						return api.OnLoadResult{}, err
					}

					dir := filepath.Dir(args.Path)
					if opts.Inject {
						contents, err := injectModule(css)
						if err != nil {
							return api.OnLoadResult{}, err
						}
						return api.OnLoadResult{Contents: &contents, ResolveDir: dir, Loader: api.LoaderJS}, nil
					}

					return api.OnLoadResult{Contents: &css, ResolveDir: dir, Loader: api.LoaderCSS}, nil
				})

			build.OnDispose(func() {
				if err := compiler.close(); err != nil {
					log.Warn().Err(err).Msg("Failed to stop sass transpiler")
				}
			})
		},
	}
}

type sassCompiler struct {
	opts       SassOptions
	once       sync.Once
	transpiler *godartsass.Transpiler
	startErr   error
}

func (c *sassCompiler) compile(path, source string) (string, error) {
	if c.opts.Binary == "" {
		return source, nil
	}

	c.once.Do(func() {
		log.Debug().Str("binary", c.opts.Binary).Msg("Starting sass transpiler")
		c.transpiler, c.startErr = godartsass.Start(godartsass.Options{
			DartSassEmbeddedFilename: c.opts.Binary,
			Timeout:                  30 * time.Second,
			LogEventHandler: func(e godartsass.LogEvent) {
				log.Warn().Str("source", "sass").Msg(e.Message)
			},
		})
	})
	if c.startErr != nil {
		return "", fmt.Errorf("failed to start sass transpiler: %w", c.startErr)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	args := godartsass.Args{
		Source:          source,
		URL:             (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(),
		SourceSyntax:    godartsass.SourceSyntaxSCSS,
		OutputStyle:     godartsass.OutputStyleExpanded,
		EnableSourceMap: c.opts.SourceMap,
		IncludePaths:    []string{filepath.Dir(abs)},
	}
	if c.opts.Compressed {
		args.OutputStyle = godartsass.OutputStyleCompressed
	}

	res, err := c.transpiler.Execute(args)
	if err != nil {
		return "", err
	}

	css := res.CSS
	if res.SourceMap != "" {
		css += "\n/*# sourceMappingURL=data:application/json;base64," +
			base64.StdEncoding.EncodeToString([]byte(res.SourceMap)) + " */\n"
	}
	return css, nil
}

func (c *sassCompiler) close() error {
	if c.transpiler == nil || c.transpiler.IsShutDown() {
		return nil
	}
	return c.transpiler.Close()
}

// injectModule returns a script which adds css to the document head.
func injectModule(css string) (string, error) {
	encoded, err := json.Marshal(css)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`(function () {
  var style = document.createElement("style");
  style.textContent = %s;
  document.head.appendChild(style);
})();
`, encoded), nil
}
