package buildconfig

import (
	"fmt"
	"regexp"
)

// Target is the runtime a bundle is produced for.
type Target string

const (
	TargetWeb          Target = "web"
	TargetNode         Target = "node"
	TargetElectronMain Target = "electron-main"
)

// Step identifies a transformation applied to files matched by a Rule.
type Step string

const (
	StepLint             Step = "lint"
	StepCompile          Step = "compile"
	StepSourceMapExtract Step = "source-map-extract"
	StepSass             Step = "sass"
	StepCSS              Step = "css"
	StepStyleExtract     Step = "style-extract"
	StepStyleInject      Step = "style-inject"
	StepFileCopy         Step = "file-copy"
)

// Enforce orders a rule relative to the normal compilation phase.
type Enforce string

const (
	EnforceNormal Enforce = ""
	EnforcePre    Enforce = "pre"
)

// PluginKind identifies a plugin in the configuration's plugin list.
type PluginKind string

const (
	PluginDefine        PluginKind = "define"
	PluginHotReload     PluginKind = "hot-reload"
	PluginNamedModules  PluginKind = "named-modules"
	PluginExtractStyles PluginKind = "extract-styles"
	PluginMinify        PluginKind = "minify"
)

// ExternalParams are the flags derived from the raw build environment.
type ExternalParams struct {
	Release bool `yaml:"release" json:"release"`
}

// FactoryParams is the caller supplied input to Factory.Build.
type FactoryParams struct {
	Env                any
	EntryPath          string
	OutputFile         string
	OutputRelativePath string
	Target             Target
}

type StepOptions struct {
	// Violations fail the build instead of being reported as warnings.
	EmitErrors bool `yaml:"emit_errors,omitempty" json:"emitErrors,omitempty"`
	SourceMap  bool `yaml:"source_map,omitempty" json:"sourceMap,omitempty"`
	// Output name template, e.g. "./images/[name].[hash].[ext]".
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
}

type StepConfig struct {
	Step    Step        `yaml:"step" json:"step"`
	Options StepOptions `yaml:"options,omitempty" json:"options,omitempty"`
}

// Rule matches files by path and lists the steps used to process them.
type Rule struct {
	Name     string       `yaml:"name" json:"name"`
	Test     string       `yaml:"test" json:"test"`
	Enforce  Enforce      `yaml:"enforce,omitempty" json:"enforce,omitempty"`
	Use      []StepConfig `yaml:"use" json:"use"`
	Fallback []StepConfig `yaml:"fallback,omitempty" json:"fallback,omitempty"`
}

// Matches reports whether path is selected by the rule's Test expression.
// An invalid expression is an error rather than a miss.
func (r Rule) Matches(path string) (bool, error) {
	re, ok := compiledTests[r.Test]
	if !ok {
		var err error
		if re, err = regexp.Compile(r.Test); err != nil {
			return false, fmt.Errorf("rule %q has an invalid test %q: %w", r.Name, r.Test, err)
		}
	}
	return re.MatchString(path), nil
}

// Has reports whether the rule uses the given step.
func (r Rule) Has(step Step) bool {
	for _, s := range r.Use {
		if s.Step == step {
			return true
		}
	}
	return false
}

type Plugin struct {
	Kind      PluginKind        `yaml:"kind" json:"kind"`
	Define    map[string]string `yaml:"define,omitempty" json:"define,omitempty"`
	Filename  string            `yaml:"filename,omitempty" json:"filename,omitempty"`
	SourceMap bool              `yaml:"source_map,omitempty" json:"sourceMap,omitempty"`
	Comments  bool              `yaml:"comments,omitempty" json:"comments,omitempty"`
}

type Output struct {
	Path     string `yaml:"path" json:"path"`
	Filename string `yaml:"filename" json:"filename"`
}

type Resolve struct {
	Extensions []string `yaml:"extensions" json:"extensions"`
}

type DevServer struct {
	ContentBase string `yaml:"content_base" json:"contentBase"`
}

// NodeShims controls substitution of the Node globals __dirname and __filename.
// A false value leaves the name to Node's own resolution at run time.
type NodeShims struct {
	Dirname  bool `yaml:"dirname" json:"__dirname"`
	Filename bool `yaml:"filename" json:"__filename"`
}

// BuildConfiguration is the value produced by Factory.Build.
type BuildConfiguration struct {
	Entry     string     `yaml:"entry" json:"entry"`
	Output    Output     `yaml:"output" json:"output"`
	Target    Target     `yaml:"target" json:"target"`
	Devtool   string     `yaml:"devtool" json:"devtool"`
	Rules     []Rule     `yaml:"rules" json:"rules"`
	Resolve   Resolve    `yaml:"resolve" json:"resolve"`
	DevServer DevServer  `yaml:"dev_server" json:"devServer"`
	Plugins   []Plugin   `yaml:"plugins" json:"plugins"`
	Node      *NodeShims `yaml:"node,omitempty" json:"node,omitempty"`
	Externals []string   `yaml:"externals,omitempty" json:"externals,omitempty"`
	Release   bool       `yaml:"release" json:"release"`
}

// Plugin returns the first plugin of the given kind.
func (c BuildConfiguration) Plugin(kind PluginKind) (Plugin, bool) {
	for _, p := range c.Plugins {
		if p.Kind == kind {
			return p, true
		}
	}
	return Plugin{}, false
}

// RulesWith returns the rules that use step, in precedence order.
func (c BuildConfiguration) RulesWith(step Step) []Rule {
	var rules []Rule
	for _, r := range c.Rules {
		if r.Has(step) {
			rules = append(rules, r)
		}
	}
	return rules
}
