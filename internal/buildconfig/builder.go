package buildconfig

import (
	"maps"
	"regexp"
	"slices"
)

// Every helper in this file returns a new BuildConfiguration and leaves its
// argument untouched, slices and maps included.

var (
	scriptTest     = regexp.MustCompile(`\.tsx?$`)
	plainTest      = regexp.MustCompile(`\.jsx?$`)
	stylesheetTest = regexp.MustCompile(`\.scss$`)
	imageTest      = regexp.MustCompile(`\.(png|jpg|jpeg|gif|ico)$`)
	fontTest       = regexp.MustCompile(`\.(woff(2)?|ttf|eot|svg)(\?v=\d+\.\d+\.\d+)?$`)

	// compiledTests lets Rule.Matches skip compiling the baseline patterns.
	compiledTests = map[string]*regexp.Regexp{
		scriptTest.String():     scriptTest,
		plainTest.String():      plainTest,
		stylesheetTest.String(): stylesheetTest,
		imageTest.String():      imageTest,
		fontTest.String():       fontTest,
	}

	resolveExtensions = []string{".tsx", ".ts", ".jsx", ".js", ".scss"}
)

func baseline(params FactoryParams, outputFolder string, release bool, stylesheet string) BuildConfiguration {
	return BuildConfiguration{
		Entry: params.EntryPath,
		Output: Output{
			Path:     outputFolder,
			Filename: params.OutputFile,
		},
		Target:  params.Target,
		Devtool: "source-map",
		Rules: []Rule{
			{
				Name:    "lint",
				Test:    scriptTest.String(),
				Enforce: EnforcePre,
				Use:     []StepConfig{{Step: StepLint, Options: StepOptions{EmitErrors: true}}},
			},
			{
				Name: "compile",
				Test: scriptTest.String(),
				Use:  []StepConfig{{Step: StepCompile}},
			},
			{
				Name:    "source-maps",
				Test:    plainTest.String(),
				Enforce: EnforcePre,
				Use:     []StepConfig{{Step: StepSourceMapExtract}},
			},
			{
				Name: "stylesheets",
				Test: stylesheetTest.String(),
				Use: []StepConfig{
					{Step: StepStyleExtract, Options: StepOptions{Name: stylesheet}},
					{Step: StepCSS, Options: StepOptions{SourceMap: true}},
					{Step: StepSass, Options: StepOptions{SourceMap: true}},
				},
				Fallback: []StepConfig{{Step: StepStyleInject}},
			},
			{
				Name: "images",
				Test: imageTest.String(),
				Use:  []StepConfig{{Step: StepFileCopy, Options: StepOptions{Name: "./images/[name].[hash].[ext]"}}},
			},
			{
				Name: "fonts",
				Test: fontTest.String(),
				Use:  []StepConfig{{Step: StepFileCopy, Options: StepOptions{Name: "./fonts/[name].[hash].[ext]"}}},
			},
		},
		Resolve: Resolve{
			Extensions: slices.Clone(resolveExtensions),
		},
		DevServer: DevServer{
			ContentBase: outputFolder,
		},
		Plugins: []Plugin{
			{
				Kind:   PluginDefine,
				Define: map[string]string{"process.env.NODE_ENV": nodeEnv(release)},
			},
			{Kind: PluginHotReload},
			{Kind: PluginNamedModules},
			{Kind: PluginExtractStyles, Filename: stylesheet},
		},
		Release: release,
	}
}

// nodeEnv returns the JSON encoded value substituted for process.env.NODE_ENV.
func nodeEnv(release bool) string {
	if release {
		return `"production"`
	}
	return `"dev"`
}

func withNodeShims(cfg BuildConfiguration, shims NodeShims) BuildConfiguration {
	out := clone(cfg)
	out.Node = &shims
	return out
}

func withExternals(cfg BuildConfiguration, externals []string) BuildConfiguration {
	out := clone(cfg)
	out.Externals = slices.Clone(externals)
	if out.Externals == nil {
		out.Externals = []string{}
	}
	return out
}

func withPlugin(cfg BuildConfiguration, plugin Plugin) BuildConfiguration {
	out := clone(cfg)
	out.Plugins = append(out.Plugins, clonePlugin(plugin))
	return out
}

func clone(cfg BuildConfiguration) BuildConfiguration {
	out := cfg

	out.Rules = make([]Rule, len(cfg.Rules))
	for i, r := range cfg.Rules {
		r.Use = slices.Clone(r.Use)
		r.Fallback = slices.Clone(r.Fallback)
		out.Rules[i] = r
	}

	out.Plugins = make([]Plugin, len(cfg.Plugins))
	for i, p := range cfg.Plugins {
		out.Plugins[i] = clonePlugin(p)
	}

	out.Resolve.Extensions = slices.Clone(cfg.Resolve.Extensions)
	out.Externals = slices.Clone(cfg.Externals)

	if cfg.Node != nil {
		shims := *cfg.Node
		out.Node = &shims
	}

	return out
}

func clonePlugin(p Plugin) Plugin {
	p.Define = maps.Clone(p.Define)
	return p
}
