package server

import (
	"compress/gzip"
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	"github.com/sambeau/jsxplay/config"
)

// compressedTypes are the playground's own payloads: pages, the preview
// and API responses. Everything else passes through untouched.
var compressedTypes = []string{"text/html", "application/json", "text/plain"}

// newCompressionHandler wraps h with gzip compression.
// Returns h unchanged when compression is disabled.
func newCompressionHandler(h http.Handler, cfg config.CompressionConfig) http.Handler {
	if !cfg.Enabled || cfg.Level == "none" {
		return h
	}

	level := gzip.DefaultCompression
	switch cfg.Level {
	case "fastest":
		level = gzip.BestSpeed
	case "best":
		level = gzip.BestCompression
	}

	// The option type is unexported, so the constructors are passed inline.
	wrapper, err := gzhttp.NewWrapper(
		gzhttp.MinSize(cfg.MinSize),
		gzhttp.CompressionLevel(level),
		gzhttp.ContentTypes(compressedTypes),
	)
	if err != nil {
		return h
	}
	return wrapper(h)
}
