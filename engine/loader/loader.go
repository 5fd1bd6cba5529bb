// Package loader reads scene assets from disk: glTF/GLB meshes into scene fragments and
// images into texture staging data, synchronously or on a worker pool.
package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-portal/engine/scene"
	"go.uber.org/zap"
)

// ErrUnsupportedFormat is returned when a file extension or image encoding has no backend.
var ErrUnsupportedFormat = errors.New("unsupported format")

// meshLoader is the implementation of the MeshLoader interface.
type meshLoader struct {
	mu sync.RWMutex

	log *zap.Logger

	cache map[string]*scene.Node

	decoderConfig DecoderConfig
	decoders      map[string]MeshDecoder

	backend meshBackend
}

// MeshLoader loads glTF/GLB files into scene fragments and caches them by path.
//
// A fragment is a grouping node whose direct children are the root nodes of the file's
// default scene. Node transforms are baked into the vertex positions, so every mesh in
// the fragment is in world space.
type MeshLoader interface {
	// Load imports a model file, or returns the cached fragment for the same path.
	// The backend is selected by extension (.gltf and .glb).
	//
	// Parameters:
	//   - path: the file path to the model file
	//
	// Returns:
	//   - *scene.Node: the loaded fragment
	//   - error: ErrUnsupportedFormat, ErrDecoderUnavailable or a wrapped parse error
	Load(path string) (*scene.Node, error)

	// Get retrieves a cached fragment by path.
	//
	// Parameters:
	//   - path: the cache key
	//
	// Returns:
	//   - *scene.Node: the cached fragment
	//   - bool: whether the path was cached
	Get(path string) (*scene.Node, bool)

	// DecoderConfig returns the decompression configuration.
	DecoderConfig() DecoderConfig

	// RegisterDecoder installs a decoder for primitives carrying the given glTF extension.
	//
	// Parameters:
	//   - extension: the glTF extension name, e.g. ExtensionDraco
	//   - d: the decoder
	RegisterDecoder(extension string, d MeshDecoder)
}

var _ MeshLoader = &meshLoader{}

// NewMeshLoader creates a MeshLoader backed by qmuntal/gltf.
//
// Parameters:
//   - options: a variadic list of MeshLoaderBuilderOption functions
//
// Returns:
//   - MeshLoader: the configured loader
func NewMeshLoader(options ...MeshLoaderBuilderOption) MeshLoader {
	l := &meshLoader{
		log:           zap.NewNop(),
		cache:         make(map[string]*scene.Node),
		decoderConfig: DecoderConfig{Path: DefaultDecoderPath},
		decoders:      make(map[string]MeshDecoder),
	}
	for _, option := range options {
		option(l)
	}
	if _, ok := l.decoders[ExtensionDraco]; !ok {
		l.decoders[ExtensionDraco] = NewDracoToolDecoder(l.decoderConfig.Path, l.log)
	}
	l.backend = newGLTFMeshBackend(l.decoder, l.log)
	return l
}

func (l *meshLoader) Load(path string) (*scene.Node, error) {
	l.mu.RLock()
	if cached, ok := l.cache[path]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}

	fragment, err := backend.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	l.mu.Lock()
	l.cache[path] = fragment
	l.mu.Unlock()

	l.log.Debug("mesh loaded", zap.String("path", path), zap.Int("children", len(fragment.Children())))
	return fragment, nil
}

func (l *meshLoader) Get(path string) (*scene.Node, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n, ok := l.cache[path]
	return n, ok
}

func (l *meshLoader) DecoderConfig() DecoderConfig {
	return l.decoderConfig
}

func (l *meshLoader) RegisterDecoder(extension string, d MeshDecoder) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.decoders[extension] = d
}

// decoder returns the registered decoder for a glTF extension.
func (l *meshLoader) decoder(extension string) (MeshDecoder, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	d, ok := l.decoders[extension]
	return d, ok
}

// resolveBackend selects a backend from the file extension.
func (l *meshLoader) resolveBackend(path string) (meshBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gltf", ".glb":
		return l.backend, nil
	default:
		return nil, fmt.Errorf("%w: model extension %q", ErrUnsupportedFormat, ext)
	}
}
