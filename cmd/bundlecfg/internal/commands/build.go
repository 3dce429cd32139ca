package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/wolfeidau/bundlecfg/internal/assets"
	"github.com/wolfeidau/bundlecfg/internal/logger"
)

// BuildCmd bundles once.
type BuildCmd struct {
	BuildFlags `embed:""`
	HTML       string `help:"html/template file rendered to index.html for web targets" type:"existingfile"`
	Title      string `help:"page title for the rendered index.html" default:"App"`

	out io.Writer
}

func (c *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	cfg, proj, err := c.resolve(log)
	if err != nil {
		return err
	}

	pc := c.pipelineConfig(cfg, proj)
	pc.HTMLTemplate = c.HTML
	pc.Title = c.Title

	pipeline := assets.New(pc)
	if err := pipeline.Build(ctx); err != nil {
		return fmt.Errorf("failed to build %s: %w", cfg.Entry, err)
	}

	scripts, _, err := pipeline.LoadScripts(cfg.Entry)
	if err != nil {
		return err
	}

	w := c.out
	if w == nil {
		w = os.Stdout
	}

	fmt.Fprintf(w, "Output folder: %s\n", cfg.Output.Path)
	for _, script := range scripts {
		fmt.Fprintf(w, "  %s\n", script)
	}
	if stylesheet, ok := pipeline.Stylesheet(cfg.Entry); ok {
		fmt.Fprintf(w, "  %s\n", stylesheet)
	}

	return nil
}
