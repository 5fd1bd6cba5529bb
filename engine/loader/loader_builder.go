package loader

import (
	"github.com/Carmen-Shannon/oxy-portal/engine/scene"
	"go.uber.org/zap"
)

// MeshLoaderBuilderOption is a functional option for configuring a MeshLoader via NewMeshLoader.
type MeshLoaderBuilderOption func(*meshLoader)

// WithLogger sets the logger used by the mesh loader.
//
// Parameters:
//   - log: the logger; nil keeps the no-op default
//
// Returns:
//   - MeshLoaderBuilderOption: a function that applies the logger option to a loader
func WithLogger(log *zap.Logger) MeshLoaderBuilderOption {
	return func(l *meshLoader) {
		if log != nil {
			l.log = log.Named("loader")
		}
	}
}

// WithDecoderConfig sets the decompression configuration. An empty path keeps DefaultDecoderPath.
// Draco primitives are decoded by the tool in cfg.Path unless WithDecoder replaces ExtensionDraco.
//
// Parameters:
//   - cfg: the decoder configuration
//
// Returns:
//   - MeshLoaderBuilderOption: a function that applies the decoder config to a loader
func WithDecoderConfig(cfg DecoderConfig) MeshLoaderBuilderOption {
	return func(l *meshLoader) {
		if cfg.Path != "" {
			l.decoderConfig = cfg
		}
	}
}

// WithDecoder registers a decoder for primitives carrying the given glTF extension.
//
// Parameters:
//   - extension: the glTF extension name
//   - d: the decoder
//
// Returns:
//   - MeshLoaderBuilderOption: a function that registers the decoder on a loader
func WithDecoder(extension string, d MeshDecoder) MeshLoaderBuilderOption {
	return func(l *meshLoader) {
		l.decoders[extension] = d
	}
}

// WithFragment pre-populates the cache with a fragment.
//
// Parameters:
//   - path: the cache key
//   - fragment: the fragment to cache
//
// Returns:
//   - MeshLoaderBuilderOption: a function that applies the cache entry to a loader
func WithFragment(path string, fragment *scene.Node) MeshLoaderBuilderOption {
	return func(l *meshLoader) {
		l.cache[path] = fragment
	}
}
