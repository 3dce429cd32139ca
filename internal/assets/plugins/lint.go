package plugins

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
)

// Violation is a single lint finding.
type Violation struct {
	Rule   string
	Text   string
	Line   int
	Column int
}

// Linter checks a source file before it is compiled.
type Linter interface {
	Lint(path string, source []byte) ([]Violation, error)
}

// Lint runs linter over every file matching filter as it is loaded. With
// emitErrors set violations fail the build, otherwise they are reported as
// warnings. The plugin never supplies contents so loading continues with
// the compile step.
func Lint(filter string, linter Linter, emitErrors bool) api.Plugin {
	return api.Plugin{
		Name: "lint",
		Setup: func(build api.PluginBuild) {
			build.OnLoad(api.OnLoadOptions{Filter: filter, Namespace: "file"},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					if strings.Contains(filepath.ToSlash(args.Path), "/node_modules/") {
						return api.OnLoadResult{}, nil
					}

					source, err := os.ReadFile(args.Path)
					if err != nil {
						return api.OnLoadResult{}, err
					}

					violations, err := linter.Lint(args.Path, source)
					if err != nil {
						return api.OnLoadResult{}, fmt.Errorf("lint %s: %w", args.Path, err)
					}

					if len(violations) == 0 {
						return api.OnLoadResult{}, nil
					}

					log.Debug().Str("file", args.Path).Int("violations", len(violations)).Msg("lint violations")

					messages := toMessages(args.Path, violations)
					if emitErrors {
						return api.OnLoadResult{Errors: messages}, nil
					}
					return api.OnLoadResult{Warnings: messages}, nil
				})
		},
	}
}

func toMessages(path string, violations []Violation) []api.Message {
	messages := make([]api.Message, 0, len(violations))
	for _, v := range violations {
		msg := api.Message{Text: v.Text}
		if v.Rule != "" {
			msg.Text = fmt.Sprintf("%s (%s)", v.Text, v.Rule)
		}
		if v.Line > 0 {
			msg.Location = &api.Location{File: path, Line: v.Line, Column: v.Column}
		}
		messages = append(messages, msg)
	}
	return messages
}

var debuggerStatement = regexp.MustCompile(`^\s*debugger\s*;?\s*(//.*)?$`)

// SyntaxLinter reports parse errors and leftover debugger statements.
type SyntaxLinter struct{}

func (SyntaxLinter) Lint(path string, source []byte) ([]Violation, error) {
	result := api.Transform(string(source), api.TransformOptions{
		Loader:     loaderFor(path),
		Sourcefile: path,
		LogLevel:   api.LogLevelSilent,
	})

	var violations []Violation
	for _, msg := range result.Errors {
		v := Violation{Rule: "syntax", Text: msg.Text}
		if msg.Location != nil {
			v.Line = msg.Location.Line
			v.Column = msg.Location.Column
		}
		violations = append(violations, v)
	}

	scanner := bufio.NewScanner(bytes.NewReader(source))
	for line := 1; scanner.Scan(); line++ {
		if debuggerStatement.MatchString(scanner.Text()) {
			violations = append(violations, Violation{
				Rule: "no-debugger",
				Text: "debugger statement",
				Line: line,
			})
		}
	}

	return violations, scanner.Err()
}

func loaderFor(path string) api.Loader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsx":
		return api.LoaderTSX
	case ".jsx":
		return api.LoaderJSX
	case ".js":
		return api.LoaderJS
	default:
		return api.LoaderTS
	}
}

// CommandLinter runs an external linter with the file path appended to Args.
// A non-zero exit turns each non-empty output line into a violation.
type CommandLinter struct {
	Command string
	Args    []string
}

func (c CommandLinter) Lint(path string, _ []byte) ([]Violation, error) {
	args := append(append([]string{}, c.Args...), path)
	cmd := exec.Command(c.Command, args...) // #nosec G204 - command is operator configured

	out, err := cmd.CombinedOutput()
	if err == nil {
		return nil, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return nil, fmt.Errorf("failed to run linter %s: %w", c.Command, err)
	}

	var violations []Violation
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			violations = append(violations, Violation{Rule: filepath.Base(c.Command), Text: line})
		}
	}
	if len(violations) == 0 {
		violations = append(violations, Violation{
			Rule: filepath.Base(c.Command),
			Text: fmt.Sprintf("exited with status %d", exitErr.ExitCode()),
		})
	}
	return violations, nil
}
