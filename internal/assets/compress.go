package assets

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

var compressible = map[string]bool{".js": true, ".css": true, ".map": true}

// compressOutputs writes .gz and .zst siblings for scripts, stylesheets and
// source maps so a static file server can send them as is.
func compressOutputs(paths []string) error {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return err
	}
	defer enc.Close()

	for _, path := range paths {
		if !compressible[filepath.Ext(path)] {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		gz, err := gzipBytes(data)
		if err != nil {
			return fmt.Errorf("gzip %s: %w", path, err)
		}
		// #nosec G306 - bundles are served publicly
		if err := os.WriteFile(path+".gz", gz, 0o644); err != nil {
			return err
		}

		// #nosec G306 - bundles are served publicly
		if err := os.WriteFile(path+".zst", enc.EncodeAll(data, nil), 0o644); err != nil {
			return err
		}

		log.Debug().Str("file", path).Int("bytes", len(data)).Int("gzip", len(gz)).Msg("Compressed file")
	}
	return nil
}

func gzipBytes(data []byte) ([]byte, error) {
	buf := new(bytes.Buffer)
	w, err := gzip.NewWriterLevel(buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
