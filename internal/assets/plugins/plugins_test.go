package plugins

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/bundlecfg/internal/buildconfig"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(contents), 0o600))
	return p
}

func bundle(t *testing.T, entry string, plugins ...api.Plugin) api.BuildResult {
	t.Helper()
	return api.Build(api.BuildOptions{
		EntryPoints: []string{entry},
		Bundle:      true,
		Write:       false,
		Outdir:      filepath.Join(filepath.Dir(entry), "dist"),
		LogLevel:    api.LogLevelSilent,
		Plugins:     plugins,
	})
}

func outputText(t *testing.T, result api.BuildResult, ext string) string {
	t.Helper()
	for _, f := range result.OutputFiles {
		if strings.HasSuffix(f.Path, ext) {
			return string(f.Contents)
		}
	}
	t.Fatalf("no %s output", ext)
	return ""
}

func TestSyntaxLinter_Lint(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		source    string
		wantRules []string
	}{
		{name: "clean", file: "a.ts", source: "export const a: number = 1;\n", wantRules: nil},
		{name: "syntax error", file: "a.ts", source: "export const = ;\n", wantRules: []string{"syntax"}},
		{name: "debugger", file: "a.tsx", source: "export function f() {\n  debugger;\n}\n", wantRules: []string{"no-debugger"}},
		{name: "debugger in string", file: "a.ts", source: "export const s = \"debugger\";\n", wantRules: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations, err := SyntaxLinter{}.Lint(tt.file, []byte(tt.source))
			require.NoError(t, err)

			var rules []string
			for _, v := range violations {
				rules = append(rules, v.Rule)
			}
			assert.Equal(t, tt.wantRules, rules)
		})
	}
}

func TestSyntaxLinter_DebuggerLine(t *testing.T) {
	violations, err := SyntaxLinter{}.Lint("a.ts", []byte("const a = 1;\n\ndebugger;\n"))
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, 3, violations[0].Line)
}

func TestLint_EmitErrorsBreaksBuild(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "index.ts", "export function f() {\n  debugger;\n}\n")

	result := bundle(t, entry, Lint(`\.tsx?$`, SyntaxLinter{}, true))
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0].Text, "no-debugger")
	require.NotNil(t, result.Errors[0].Location)
	assert.Equal(t, 2, result.Errors[0].Location.Line)
}

func TestLint_WarningsKeepBuilding(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "index.ts", "export function f() {\n  debugger;\n}\n")

	result := bundle(t, entry, Lint(`\.tsx?$`, SyntaxLinter{}, false))
	require.Empty(t, result.Errors)
	require.NotEmpty(t, result.Warnings)
	assert.NotEmpty(t, result.OutputFiles)
}

func TestLint_CleanSource(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "index.ts", "export const answer: number = 42;\n")

	result := bundle(t, entry, Lint(`\.tsx?$`, SyntaxLinter{}, true))
	require.Empty(t, result.Errors)
	assert.Contains(t, outputText(t, result, ".js"), "42")
}

func TestCommandLinter(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no shell available")
	}

	ok := CommandLinter{Command: "/bin/sh", Args: []string{"-c", "exit 0", "lint"}}
	violations, err := ok.Lint("a.ts", nil)
	require.NoError(t, err)
	assert.Empty(t, violations)

	failing := CommandLinter{Command: "/bin/sh", Args: []string{"-c", "echo 'a.ts:1 bad'; exit 1", "lint"}}
	violations, err = failing.Lint("a.ts", nil)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, "a.ts:1 bad", violations[0].Text)

	silent := CommandLinter{Command: "/bin/sh", Args: []string{"-c", "exit 3", "lint"}}
	violations, err = silent.Lint("a.ts", nil)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0].Text, "status 3")

	missing := CommandLinter{Command: filepath.Join(t.TempDir(), "nope")}
	_, err = missing.Lint("a.ts", nil)
	require.Error(t, err)
}

func TestHashedName(t *testing.T) {
	name := HashedName("./images/[name].[hash].[ext]", "logo.png", []byte("png"))
	assert.True(t, strings.HasPrefix(name, "images/logo."), name)
	assert.True(t, strings.HasSuffix(name, ".png"), name)
	assert.Len(t, strings.TrimSuffix(strings.TrimPrefix(name, "images/logo."), ".png"), hashLength)

	assert.Equal(t, name, HashedName("./images/[name].[hash].[ext]", "logo.png", []byte("png")))
	assert.NotEqual(t, name, HashedName("./images/[name].[hash].[ext]", "logo.png", []byte("other")))
}

func TestFileCopy_ScriptImport(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	writeFile(t, dir, "logo.png", "not really a png")
	entry := writeFile(t, dir, "index.js", "import logo from './logo.png';\nconsole.log(logo);\n")

	result := bundle(t, entry, FileCopy(`\.(png|jpg|jpeg|gif|ico)$`, out, "./images/[name].[hash].[ext]"))
	require.Empty(t, result.Errors)

	expected := HashedName("./images/[name].[hash].[ext]", "logo.png", []byte("not really a png"))
	assert.FileExists(t, filepath.Join(out, expected))
	assert.Contains(t, outputText(t, result, ".js"), "./"+expected)
}

func TestFileCopy_FontQuerySuffix(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	writeFile(t, dir, "icons.woff2", "font")
	entry := writeFile(t, dir, "index.css", "@font-face { font-family: icons; src: url('./icons.woff2?v=4.7.0'); }\n")

	result := bundle(t, entry, FileCopy(`\.(woff(2)?|ttf|eot|svg)(\?v=\d+\.\d+\.\d+)?$`, out, "./fonts/[name].[hash].[ext]"))
	require.Empty(t, result.Errors)

	expected := HashedName("./fonts/[name].[hash].[ext]", "icons.woff2", []byte("font"))
	assert.FileExists(t, filepath.Join(out, expected))
	assert.Contains(t, outputText(t, result, ".css"), expected)
}

func TestFileCopy_PackageAssets(t *testing.T) {
	tests := []struct {
		name  string
		entry string
		ext   string
	}{
		{name: "script import", entry: "index.js", ext: ".js"},
		{name: "stylesheet url", entry: "index.css", ext: ".css"},
	}

	sources := map[string]string{
		"index.js":  "import logo from 'icons/logo.png';\nconsole.log(logo);\n",
		"index.css": ".logo { background: url(~icons/logo.png); }\n",
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			out := filepath.Join(dir, "out")
			writeFile(t, dir, "node_modules/icons/logo.png", "package png")
			entry := writeFile(t, dir, filepath.Join("src", tt.entry), sources[tt.entry])

			result := bundle(t, entry, FileCopy(`\.png$`, out, "./images/[name].[hash].[ext]"))
			require.Empty(t, result.Errors)

			expected := HashedName("./images/[name].[hash].[ext]", "logo.png", []byte("package png"))
			assert.FileExists(t, filepath.Join(out, expected))
			assert.Contains(t, outputText(t, result, tt.ext), expected)
		})
	}
}

func TestFileCopy_MissingFile(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "index.js", "import logo from './missing.png';\nconsole.log(logo);\n")

	result := bundle(t, entry, FileCopy(`\.png$`, filepath.Join(dir, "out"), "./images/[name].[hash].[ext]"))
	require.NotEmpty(t, result.Errors)
}

func TestSass_PlainCSSWithoutBinary(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.scss", ".app { color: red; }\n")
	entry := writeFile(t, dir, "index.js", "import './app.scss';\n")

	result := bundle(t, entry, Sass(`\.scss$`, SassOptions{}))
	require.Empty(t, result.Errors)
	assert.Contains(t, outputText(t, result, ".css"), "color: red")
}

func TestSass_Inject(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.scss", ".app { color: red; }\n")
	entry := writeFile(t, dir, "index.js", "import './app.scss';\n")

	result := bundle(t, entry, Sass(`\.scss$`, SassOptions{Inject: true}))
	require.Empty(t, result.Errors)

	for _, f := range result.OutputFiles {
		assert.False(t, strings.HasSuffix(f.Path, ".css"), "unexpected stylesheet %s", f.Path)
	}
	js := outputText(t, result, ".js")
	assert.Contains(t, js, "document.createElement(\"style\")")
	assert.Contains(t, js, "color: red")
}

func TestSass_DartSass(t *testing.T) {
	binary := os.Getenv("DART_SASS_BINARY")
	if binary == "" {
		t.Skip("DART_SASS_BINARY not set")
	}

	dir := t.TempDir()
	writeFile(t, dir, "app.scss", "$brand: #ff0000;\n.app { .title { color: $brand; } }\n")
	entry := writeFile(t, dir, "index.js", "import './app.scss';\n")

	result := bundle(t, entry, Sass(`\.scss$`, SassOptions{Binary: binary}))
	require.Empty(t, result.Errors)
	assert.Contains(t, outputText(t, result, ".css"), ".app .title")
}

func TestForConfig(t *testing.T) {
	f := buildconfig.NewFactory(buildconfig.ModuleEnumeratorFunc(func() ([]string, error) { return nil, nil }))
	cfg, err := f.Build(buildconfig.FactoryParams{OutputRelativePath: t.TempDir(), Target: buildconfig.TargetWeb})
	require.NoError(t, err)

	names := func(plugins []api.Plugin) []string {
		var out []string
		for _, p := range plugins {
			out = append(out, p.Name)
		}
		return out
	}

	assert.Equal(t, []string{"lint", "sass", "file-copy", "file-copy"}, names(ForConfig(cfg, Options{})))
	assert.Equal(t, []string{"lint", "sass", "file-copy", "file-copy"}, names(ForConfig(cfg, Options{InjectStyles: true})))
}
