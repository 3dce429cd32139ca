package buildconfig

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseDir is the directory all output paths are resolved against.
	DefaultBaseDir = "out"

	// DefaultStylesheet is the artifact extracted stylesheets are written to.
	DefaultStylesheet = "styles.css"
)

// ModuleEnumerator lists the installed platform packages that are left
// unbundled for non-web targets.
type ModuleEnumerator interface {
	Modules() ([]string, error)
}

// ModuleEnumeratorFunc adapts a function to ModuleEnumerator.
type ModuleEnumeratorFunc func() ([]string, error)

func (f ModuleEnumeratorFunc) Modules() ([]string, error) {
	return f()
}

// Factory assembles BuildConfiguration values. It holds no per-build state
// and can be shared between goroutines.
type Factory struct {
	baseDir    string
	modules    ModuleEnumerator
	logger     *zerolog.Logger
	stylesheet string
}

type Option func(*Factory)

// WithBaseDir overrides the directory output paths are resolved against.
func WithBaseDir(dir string) Option {
	return func(f *Factory) {
		f.baseDir = dir
	}
}

// WithLogger sets the logger used for the build summary line, the global
// logger is used otherwise.
func WithLogger(logger zerolog.Logger) Option {
	return func(f *Factory) {
		f.logger = &logger
	}
}

// WithStylesheet overrides the name of the extracted stylesheet.
func WithStylesheet(name string) Option {
	return func(f *Factory) {
		f.stylesheet = name
	}
}

// NewFactory creates a factory which asks modules for the externals of
// node and electron-main builds.
func NewFactory(modules ModuleEnumerator, opts ...Option) *Factory {
	f := &Factory{
		baseDir:    DefaultBaseDir,
		modules:    modules,
		stylesheet: DefaultStylesheet,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Build assembles the configuration for params. The target is not validated
// here, an unsupported value is rejected when the configuration is
// translated for the bundler.
func (f *Factory) Build(params FactoryParams) (BuildConfiguration, error) {
	flags := ParseFlags(params.Env)

	outputFolder, err := resolvePath(f.baseDir, params.OutputRelativePath)
	if err != nil {
		return BuildConfiguration{}, fmt.Errorf("failed to resolve output folder: %w", err)
	}

	f.log().Info().
		Str("target", string(params.Target)).
		Msgf("Building %s configuration to folder: %s", mode(flags.Release), outputFolder)

	cfg := baseline(params, outputFolder, flags.Release, f.stylesheet)

	if params.Target == TargetElectronMain {
		cfg = withNodeShims(cfg, NodeShims{Dirname: false, Filename: false})
	}

	if params.Target != TargetWeb {
		if f.modules == nil {
			return BuildConfiguration{}, fmt.Errorf("no module enumerator for target %q", params.Target)
		}
		externals, err := f.modules.Modules()
		if err != nil {
			return BuildConfiguration{}, fmt.Errorf("failed to enumerate platform modules: %w", err)
		}
		cfg = withExternals(cfg, externals)
	}

	if flags.Release {
		cfg = withPlugin(cfg, Plugin{Kind: PluginMinify, SourceMap: true, Comments: false})
	}

	return cfg, nil
}

func (f *Factory) log() *zerolog.Logger {
	if f.logger != nil {
		return f.logger
	}
	return &log.Logger
}

// resolvePath mirrors path.resolve(base, rel): an absolute rel wins.
func resolvePath(base, rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel), nil
	}
	return filepath.Abs(filepath.Join(base, rel))
}

func mode(release bool) string {
	if release {
		return "release"
	}
	return "debug"
}
