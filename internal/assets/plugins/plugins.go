package plugins

import (
	"github.com/evanw/esbuild/pkg/api"
	"github.com/wolfeidau/bundlecfg/internal/buildconfig"
)

// Options tune how configuration steps are turned into esbuild plugins.
type Options struct {
	Linter     Linter
	SassBinary string
	// InjectStyles selects the style-inject fallback of stylesheet rules.
	InjectStyles bool
}

// ForConfig returns the plugins backing the steps of cfg's rules, in rule
// order. Steps served by esbuild's own loaders contribute nothing.
func ForConfig(cfg buildconfig.BuildConfiguration, opts Options) []api.Plugin {
	linter := opts.Linter
	if linter == nil {
		linter = SyntaxLinter{}
	}

	var out []api.Plugin
	for _, rule := range cfg.Rules {
		steps := rule.Use
		if opts.InjectStyles && len(rule.Fallback) > 0 && rule.Has(buildconfig.StepStyleExtract) {
			steps = append(withoutStep(rule.Use, buildconfig.StepStyleExtract), rule.Fallback...)
		}

		for _, step := range steps {
			switch step.Step {
			case buildconfig.StepLint:
				out = append(out, Lint(rule.Test, linter, step.Options.EmitErrors))
			case buildconfig.StepSass:
				out = append(out, Sass(rule.Test, SassOptions{
					Binary:     opts.SassBinary,
					SourceMap:  step.Options.SourceMap,
					Compressed: cfg.Release,
					Inject:     hasStep(steps, buildconfig.StepStyleInject),
				}))
			case buildconfig.StepFileCopy:
				out = append(out, FileCopy(rule.Test, cfg.Output.Path, step.Options.Name))
			}
		}
	}
	return out
}

func hasStep(steps []buildconfig.StepConfig, step buildconfig.Step) bool {
	for _, s := range steps {
		if s.Step == step {
			return true
		}
	}
	return false
}

func withoutStep(steps []buildconfig.StepConfig, step buildconfig.Step) []buildconfig.StepConfig {
	out := make([]buildconfig.StepConfig, 0, len(steps))
	for _, s := range steps {
		if s.Step != step {
			out = append(out, s)
		}
	}
	return out
}
