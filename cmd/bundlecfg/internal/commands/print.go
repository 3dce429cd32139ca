package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/wolfeidau/bundlecfg/internal/logger"
	"gopkg.in/yaml.v3"
)

// PrintCmd renders the assembled configuration.
type PrintCmd struct {
	BuildFlags `embed:""`
	Format     string `help:"output format" default:"yaml" enum:"yaml,json"`

	out io.Writer
}

func (c *PrintCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	cfg, _, err := c.resolve(log)
	if err != nil {
		return err
	}

	w := c.out
	if w == nil {
		w = os.Stdout
	}

	switch c.Format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode configuration: %w", err)
		}
		return enc.Close()
	}
}
