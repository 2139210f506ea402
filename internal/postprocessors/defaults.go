package postprocessors

import (
	"github.com/custodia-labs/siteassist/internal/core/ports/driven"
	"github.com/custodia-labs/siteassist/internal/postprocessors/chunker"
	"github.com/custodia-labs/siteassist/internal/postprocessors/dedupe"
)

// DefaultOrder is the processor order used for ingested documents.
var DefaultOrder = []string{"chunker", "dedupe"}

// RegisterDefaults registers all built-in processors with the registry.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
	r.Register("dedupe", buildDedupe)
}

// DefaultPipeline builds the standard chunk-then-dedupe pipeline with the
// given chunk budget. A non-positive budget uses the chunker default.
func DefaultPipeline(chunkSize int) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r)
	return r.BuildPipeline(DefaultOrder, map[string]map[string]any{
		"chunker": {"chunk_size": chunkSize},
	})
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): maximum characters per chunk (default: 500)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option
	if size := getIntFromConfig(cfg, "chunk_size"); size > 0 {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	return chunker.New(opts...), nil
}

// buildDedupe creates a dedupe processor. Supported config keys:
//   - min_length (int): chunks shorter than this are dropped (default: 0)
func buildDedupe(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []dedupe.Option
	if n := getIntFromConfig(cfg, "min_length"); n > 0 {
		opts = append(opts, dedupe.WithMinLength(n))
	}
	return dedupe.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
