package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/bundlecfg/internal/assets"
	"github.com/wolfeidau/bundlecfg/internal/assets/plugins"
	"github.com/wolfeidau/bundlecfg/internal/buildconfig"
	"github.com/wolfeidau/bundlecfg/internal/platform"
	"github.com/wolfeidau/bundlecfg/internal/project"
)

type Globals struct {
	Debug   bool
	Version string
}

// BuildFlags select a build from the project file, or describe one directly.
// Flags win over the project file.
type BuildFlags struct {
	Config string            `help:"path to the project file" type:"path" env:"BUNDLECFG_CONFIG"`
	Build  string            `help:"name of the build in the project file" short:"b"`
	Env    map[string]string `help:"raw build environment (e.g. --env release=true)" short:"e"`

	Entry      string `help:"entry point"`
	OutputFile string `help:"output file name (default: bundle.js)"`
	OutputPath string `help:"output folder relative to the base directory"`
	Target     string `help:"build target: web, node or electron-main"`
	BaseDir    string `help:"base directory output folders are resolved against" default:"out" env:"BUNDLECFG_BASE_DIR"`

	NodeModules string   `help:"installed packages left external for node targets" default:"node_modules" env:"BUNDLECFG_NODE_MODULES"`
	External    []string `help:"additional external module names"`
	SassBinary  string   `help:"Dart Sass binary used to compile stylesheets" env:"BUNDLECFG_SASS_BINARY"`
	Lint        []string `help:"external linter command, the file path is appended" env:"BUNDLECFG_LINT"`
}

// resolve loads the project file if any, applies flag overrides and runs the
// configuration factory.
func (f *BuildFlags) resolve(logger zerolog.Logger) (buildconfig.BuildConfiguration, *project.Project, error) {
	var (
		proj  *project.Project
		build project.Build
		err   error
	)

	if f.Config != "" {
		proj, err = project.Load(f.Config)
		if err != nil {
			return buildconfig.BuildConfiguration{}, nil, fmt.Errorf("failed to load project: %w", err)
		}
		name := f.Build
		if name == "" && len(proj.Builds) == 1 {
			name = proj.Builds[0].Name
		}
		if build, err = proj.Find(name); err != nil {
			return buildconfig.BuildConfiguration{}, nil, err
		}
	}

	f.override(&build)

	if build.Entry == "" {
		return buildconfig.BuildConfiguration{}, nil, fmt.Errorf("%w: an entry point is required (--entry or --config)", project.ErrInvalidProject)
	}

	baseDir := f.BaseDir
	nodeModules := f.NodeModules
	if proj != nil {
		if proj.BaseDir != "" && baseDir == buildconfig.DefaultBaseDir {
			baseDir = proj.BaseDir
		}
		if proj.NodeModules != "" && nodeModules == platform.DefaultModulesDir {
			nodeModules = proj.NodeModules
		}
	}

	factory := buildconfig.NewFactory(
		platform.Merge{platform.NodeModules{Dir: nodeModules}, platform.Static(f.External)},
		buildconfig.WithBaseDir(baseDir),
		buildconfig.WithLogger(logger),
	)

	cfg, err := factory.Build(build.Params(proj.Environment(f.Env)))
	if err != nil {
		return buildconfig.BuildConfiguration{}, nil, err
	}
	return cfg, proj, nil
}

func (f *BuildFlags) override(b *project.Build) {
	if f.Entry != "" {
		b.Entry = f.Entry
	}
	if f.OutputFile != "" {
		b.OutputFile = f.OutputFile
	}
	if f.OutputPath != "" {
		b.OutputPath = f.OutputPath
	}
	if f.Target != "" {
		b.Target = f.Target
	}

	if b.OutputFile == "" {
		b.OutputFile = "bundle.js"
	}
	if b.Target == "" {
		b.Target = string(buildconfig.TargetWeb)
	}
	if b.OutputPath == "" {
		b.OutputPath = b.Target
	}
}

func (f *BuildFlags) pipelineConfig(cfg buildconfig.BuildConfiguration, proj *project.Project) assets.Config {
	pc := assets.DefaultConfig(cfg)

	pc.SassBinary = f.SassBinary
	if pc.SassBinary == "" && proj != nil {
		pc.SassBinary = proj.SassBinary
	}

	if len(f.Lint) > 0 {
		pc.Linter = plugins.CommandLinter{Command: f.Lint[0], Args: f.Lint[1:]}
	}
	return pc
}
