package loader

import (
	"github.com/Carmen-Shannon/oxy-portal/engine/scene"
)

// meshBackend loads one model file format into a scene fragment.
type meshBackend interface {
	// Load imports the file at path.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - *scene.Node: the fragment holding the default scene's root nodes
	//   - error: error if loading fails
	Load(path string) (*scene.Node, error)
}
