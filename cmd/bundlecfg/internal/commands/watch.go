package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/wolfeidau/bundlecfg/internal/assets"
	"github.com/wolfeidau/bundlecfg/internal/logger"
)

// WatchCmd rebuilds whenever a source file changes.
type WatchCmd struct {
	BuildFlags `embed:""`
}

func (c *WatchCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	cfg, proj, err := c.resolve(log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return assets.New(c.pipelineConfig(cfg, proj)).Watch(ctx)
}

// ServeCmd runs the development server over the output folder.
type ServeCmd struct {
	BuildFlags `embed:""`
	Host       string `help:"dev server listen host" default:"127.0.0.1" env:"BUNDLECFG_HOST"`
}

func (c *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	cfg, proj, err := c.resolve(log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("content_base", cfg.DevServer.ContentBase).Str("host", c.Host).Msg("Starting dev server")

	return assets.New(c.pipelineConfig(cfg, proj)).Serve(ctx, c.Host)
}
