package shader

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"sync"
)

// File names of the two stages inside a program directory.
const (
	VertexFile   = "vertex.wgsl"
	FragmentFile = "fragment.wgsl"
)

// Program is a vertex/fragment pair loaded from <dir>/<key>/.
type Program struct {
	Key      string
	Vertex   Shader
	Fragment Shader
}

// library is the implementation of the Library interface.
type library struct {
	mu       sync.RWMutex
	dir      string
	pp       PreProcessor
	programs map[string]*Program
}

// Library loads and caches shader programs from a directory with one sub-directory per
// program key.
type Library interface {
	// Dir returns the root shader directory.
	Dir() string

	// Load returns the cached program for key, reading it from disk on first use.
	//
	// Parameters:
	//   - key: the program directory name
	//
	// Returns:
	//   - *Program: the program
	//   - error: error if either stage fails to load
	Load(key string) (*Program, error)

	// Reload re-reads a program from disk. The cached program is replaced only on success,
	// so a broken edit keeps the last good version.
	//
	// Parameters:
	//   - key: the program directory name
	//
	// Returns:
	//   - *Program: the fresh program
	//   - error: error if either stage fails to load
	Reload(key string) (*Program, error)

	// Get returns a cached program without touching the disk.
	Get(key string) (*Program, bool)

	// Keys returns the loaded program keys in sorted order.
	Keys() []string
}

var _ Library = &library{}

// NewLibrary creates a Library rooted at dir.
//
// Parameters:
//   - dir: the directory holding one sub-directory per program
//   - pp: the pre-processor applied to every stage; nil uses NewPreProcessor(nil)
//
// Returns:
//   - Library: the library
func NewLibrary(dir string, pp PreProcessor) Library {
	if pp == nil {
		pp = NewPreProcessor(nil)
	}
	return &library{
		dir:      dir,
		pp:       pp,
		programs: make(map[string]*Program),
	}
}

func (l *library) Dir() string {
	return l.dir
}

func (l *library) Load(key string) (*Program, error) {
	if p, ok := l.Get(key); ok {
		return p, nil
	}
	return l.Reload(key)
}

func (l *library) Reload(key string) (*Program, error) {
	p, err := l.read(key)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.programs[key] = p
	l.mu.Unlock()
	return p, nil
}

func (l *library) Get(key string) (*Program, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.programs[key]
	return p, ok
}

func (l *library) Keys() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Sorted(maps.Keys(l.programs))
}

func (l *library) read(key string) (*Program, error) {
	vs, err := NewShader(key+"_vertex", ShaderTypeVertex, filepath.Join(l.dir, key, VertexFile), l.pp)
	if err != nil {
		return nil, fmt.Errorf("program %s: %w", key, err)
	}
	fs, err := NewShader(key+"_fragment", ShaderTypeFragment, filepath.Join(l.dir, key, FragmentFile), l.pp)
	if err != nil {
		return nil, fmt.Errorf("program %s: %w", key, err)
	}
	return &Program{Key: key, Vertex: vs, Fragment: fs}, nil
}
