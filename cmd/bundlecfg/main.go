package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/bundlecfg/cmd/bundlecfg/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Print   commands.PrintCmd `cmd:"" help:"Print the build configuration"`
		Build   commands.BuildCmd `cmd:"" help:"Bundle once and write outputs"`
		Watch   commands.WatchCmd `cmd:"" help:"Rebuild on change"`
		Serve   commands.ServeCmd `cmd:"" help:"Run the development server"`
		Debug   bool              `help:"Enable debug mode."`
		Version kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("bundlecfg"),
		kong.Description("Assemble and run bundler configurations for web, node and electron-main targets."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
