package assets

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"os"
	"path/filepath"
)

// writeIndex renders the configured template to index.html in the output
// folder with the scripts and stylesheet of the entry point.
func (p *Pipeline) writeIndex() error {
	tmpl, err := template.New(filepath.Base(p.config.HTMLTemplate)).
		Funcs(template.FuncMap{
			"marshal": marshal,
			"safe": func(s string) template.HTML {
				return template.HTML(s) //nolint:gosec
			},
		}).
		ParseFiles(p.config.HTMLTemplate)
	if err != nil {
		return err
	}

	// metadata is read under the lock Build already holds
	scripts, _, err := p.loadScriptsLocked(p.config.Build.Entry)
	if err != nil {
		return err
	}
	stylesheet, _ := p.stylesheetLocked(p.config.Build.Entry)

	data := map[string]any{
		"Title":      p.config.Title,
		"Scripts":    scripts,
		"Stylesheet": stylesheet,
		"Context": map[string]any{
			"release": p.config.Build.Release,
			"target":  p.config.Build.Target,
		},
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, data); err != nil {
		return err
	}

	// #nosec G306 - pages are served publicly
	return os.WriteFile(filepath.Join(p.config.Build.Output.Path, "index.html"), buf.Bytes(), 0o644)
}

func marshal(value any) string {
	buf := new(bytes.Buffer)

	if err := json.NewEncoder(buf).Encode(value); err != nil {
		panic(errors.New("context can only be json serializable"))
	}

	return buf.String()
}
