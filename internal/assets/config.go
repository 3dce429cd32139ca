package assets

import (
	"github.com/wolfeidau/bundlecfg/internal/assets/plugins"
	"github.com/wolfeidau/bundlecfg/internal/buildconfig"
)

type Config struct {
	// Configuration produced by the factory
	Build buildconfig.BuildConfiguration
	// Linter used by the lint step, defaults to a syntax check
	Linter plugins.Linter
	// Dart Sass binary, empty loads stylesheets as plain CSS
	SassBinary string
	// Name of the metafile written to the output folder
	MetafileName string
	// Whether to write .gz and .zst copies of scripts and stylesheets
	Compress bool
	// Optional html/template file rendered to index.html for web targets
	HTMLTemplate string
	// Page title passed to the HTML template
	Title string
}

// DefaultConfig returns the pipeline configuration for cfg. Release builds
// are precompressed.
func DefaultConfig(cfg buildconfig.BuildConfiguration) Config {
	return Config{
		Build:        cfg,
		MetafileName: "meta.json",
		Compress:     cfg.Release,
		Title:        "App",
	}
}
