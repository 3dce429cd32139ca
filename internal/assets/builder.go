package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/bundlecfg/internal/assets/plugins"
	"github.com/wolfeidau/bundlecfg/internal/buildconfig"
)

// Build runs esbuild once with the configured settings, writes the outputs
// and loads metadata
func (p *Pipeline) Build(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := p.config.Build

	opts, err := p.options(false, false)
	if err != nil {
		return err
	}
	// outputs are written here so the stylesheet can be renamed first
	opts.Write = false

	log.Info().
		Str("entrypoint", cfg.Entry).
		Str("target", string(cfg.Target)).
		Bool("release", cfg.Release).
		Msg("Building assets")

	result := api.Build(opts)
	logMessages(result.Errors, result.Warnings)
	if len(result.Errors) > 0 {
		return ErrBuildFailed
	}

	renames := p.stylesheetRenames()

	written, err := writeOutputs(result.OutputFiles, renames)
	if err != nil {
		return err
	}

	for _, file := range written {
		log.Info().Str("file", file).Msg("Built file")
	}

	if p.config.Compress {
		if err := compressOutputs(written); err != nil {
			return fmt.Errorf("failed to compress outputs: %w", err)
		}
	}

	raw, err := renameMetafile([]byte(result.Metafile), renames)
	if err != nil {
		return fmt.Errorf("failed to rewrite metafile: %w", err)
	}
	if err := os.WriteFile(p.metafilePath(), raw, 0600); err != nil {
		return err
	}

	// Parse and cache metadata
	var metadata BuildMetadata
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return err
	}

	p.metadata = &metadata

	if cfg.Target == buildconfig.TargetWeb && p.config.HTMLTemplate != "" {
		if err := p.writeIndex(); err != nil {
			return fmt.Errorf("failed to render index: %w", err)
		}
	}

	return nil
}

// Watch rebuilds on every change below the entry point until ctx is done.
// Stylesheets are injected by the scripts instead of being extracted.
func (p *Pipeline) Watch(ctx context.Context) error {
	bctx, err := p.context(false)
	if err != nil {
		return err
	}
	defer bctx.Dispose()

	if err := bctx.Watch(api.WatchOptions{}); err != nil {
		return fmt.Errorf("failed to start watch mode: %w", err)
	}

	log.Info().Str("entrypoint", p.config.Build.Entry).Msg("Watching for changes")

	<-ctx.Done()
	return nil
}

// Serve runs esbuild's development server rooted at the configured content
// base, rebuilding on change, until ctx is done.
func (p *Pipeline) Serve(ctx context.Context, host string) error {
	bctx, err := p.context(true)
	if err != nil {
		return err
	}
	defer bctx.Dispose()

	if err := bctx.Watch(api.WatchOptions{}); err != nil {
		return fmt.Errorf("failed to start watch mode: %w", err)
	}

	contentBase := p.config.Build.DevServer.ContentBase
	if err := os.MkdirAll(contentBase, 0o755); err != nil {
		return fmt.Errorf("failed to create content base: %w", err)
	}

	res, err := bctx.Serve(api.ServeOptions{
		Servedir: contentBase,
		Host:     host,
	})
	if err != nil {
		return fmt.Errorf("failed to start dev server: %w", err)
	}

	log.Info().Str("content_base", contentBase).Interface("server", res).Msg("Serving")

	<-ctx.Done()
	return nil
}

func (p *Pipeline) context(serve bool) (api.BuildContext, error) {
	opts, err := p.options(true, serve)
	if err != nil {
		return nil, err
	}
	opts.Write = true
	opts.Plugins = append(opts.Plugins, rebuildLogger())

	bctx, ctxErr := api.Context(opts)
	if ctxErr != nil {
		logMessages(ctxErr.Errors, nil)
		return nil, ErrBuildFailed
	}
	return bctx, nil
}

// options translates the build configuration and attaches the step plugins.
// Interactive builds fall back to inline style injection for web targets,
// served ones also reload the page when the dev server reports a change.
func (p *Pipeline) options(interactive, serve bool) (api.BuildOptions, error) {
	cfg := p.config.Build

	opts, err := buildconfig.ToBuildOptions(cfg)
	if err != nil {
		return api.BuildOptions{}, err
	}

	opts.Metafile = true
	opts.Plugins = plugins.ForConfig(cfg, plugins.Options{
		Linter:       p.config.Linter,
		SassBinary:   p.config.SassBinary,
		InjectStyles: interactive && cfg.Target == buildconfig.TargetWeb,
	})

	if _, ok := cfg.Plugin(buildconfig.PluginHotReload); ok && serve && cfg.Target == buildconfig.TargetWeb {
		opts.Banner = map[string]string{"js": liveReloadBanner}
	}

	return opts, nil
}

const liveReloadBanner = `new EventSource("/esbuild").addEventListener("change", () => location.reload());`

func (p *Pipeline) metafilePath() string {
	return filepath.Join(p.config.Build.Output.Path, p.config.MetafileName)
}

// stylesheetRenames maps the stylesheet esbuild emits next to the bundle,
// and its source map, onto the extract-styles filename.
func (p *Pipeline) stylesheetRenames() map[string]string {
	cfg := p.config.Build

	extract, ok := cfg.Plugin(buildconfig.PluginExtractStyles)
	if !ok || extract.Filename == "" || cfg.Output.Filename == "" {
		return nil
	}

	outfile, err := filepath.Abs(filepath.Join(cfg.Output.Path, cfg.Output.Filename))
	if err != nil {
		return nil
	}

	from := strings.TrimSuffix(outfile, filepath.Ext(outfile)) + ".css"
	to := filepath.Join(filepath.Dir(outfile), extract.Filename)
	if from == to {
		return nil
	}

	return map[string]string{
		from:          to,
		from + ".map": to + ".map",
	}
}

func writeOutputs(files []api.OutputFile, renames map[string]string) ([]string, error) {
	written := make([]string, 0, len(files))
	for _, file := range files {
		path := file.Path
		contents := file.Contents

		if to, ok := renames[path]; ok {
			path = to
			if filepath.Ext(path) == ".css" {
				contents = bytes.ReplaceAll(contents,
					[]byte("sourceMappingURL="+filepath.Base(file.Path)+".map"),
					[]byte("sourceMappingURL="+filepath.Base(to)+".map"))
			}
		}

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		// #nosec G306 - bundles are served publicly
		if err := os.WriteFile(path, contents, 0o644); err != nil {
			return nil, err
		}
		written = append(written, path)
	}
	return written, nil
}

// renameMetafile applies renames to the output keys and cssBundle fields of
// an esbuild metafile, leaving every other field as esbuild wrote it.
func renameMetafile(raw []byte, renames map[string]string) ([]byte, error) {
	if len(renames) == 0 {
		return raw, nil
	}

	var meta map[string]json.RawMessage
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, err
	}

	var outputs map[string]map[string]json.RawMessage
	if err := json.Unmarshal(meta["outputs"], &outputs); err != nil {
		return nil, err
	}

	renamed := make(map[string]map[string]json.RawMessage, len(outputs))
	for key, output := range outputs {
		if bundle, ok := output["cssBundle"]; ok {
			var name string
			if err := json.Unmarshal(bundle, &name); err != nil {
				return nil, err
			}
			encoded, err := json.Marshal(renameKey(name, renames))
			if err != nil {
				return nil, err
			}
			output["cssBundle"] = encoded
		}
		renamed[renameKey(key, renames)] = output
	}

	encoded, err := json.Marshal(renamed)
	if err != nil {
		return nil, err
	}
	meta["outputs"] = encoded

	return json.MarshalIndent(meta, "", "  ")
}

// renameKey applies renames to a metafile path, which esbuild records
// relative to the working directory.
func renameKey(key string, renames map[string]string) string {
	if key == "" {
		return key
	}
	abs, err := filepath.Abs(key)
	if err != nil {
		return key
	}
	to, ok := renames[abs]
	if !ok {
		return key
	}
	return filepath.ToSlash(filepath.Join(filepath.Dir(key), filepath.Base(to)))
}

func logMessages(errs, warnings []api.Message) {
	for _, msg := range errs {
		event := log.Error().Str("error", msg.Text)
		if msg.Location != nil {
			event = event.Str("file", msg.Location.File).Int("line", msg.Location.Line)
		}
		event.Msg("Build error")
	}
	for _, msg := range warnings {
		event := log.Warn().Str("warning", msg.Text)
		if msg.Location != nil {
			event = event.Str("file", msg.Location.File).Int("line", msg.Location.Line)
		}
		event.Msg("Build warning")
	}
}

func rebuildLogger() api.Plugin {
	return api.Plugin{
		Name: "rebuild-logger",
		Setup: func(build api.PluginBuild) {
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				logMessages(result.Errors, result.Warnings)
				log.Info().
					Int("errors", len(result.Errors)).
					Int("warnings", len(result.Warnings)).
					Msg("Rebuilt")
				return api.OnEndResult{}, nil
			})
		},
	}
}
