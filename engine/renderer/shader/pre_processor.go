// pre_processor.go resolves include annotations in WGSL sources. A line of the form
//
//	//@oxy:include <name>
//
// is replaced with the registered WGSL source for <name>. Struct definitions live next
// to the Go types that marshal them, so shader and CPU layouts cannot drift apart.
package shader

import (
	_ "embed"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/Carmen-Shannon/oxy-portal/engine/camera"
	"github.com/Carmen-Shannon/oxy-portal/engine/model"
	"github.com/Carmen-Shannon/oxy-portal/engine/renderer/material"
)

// annotationPrefix marks an include line.
const annotationPrefix = "//@oxy:include"

// Include names understood by the default pre-processor.
const (
	IncludeCamera          = "camera"
	IncludeVertex          = "vertex"
	IncludeBasicUniforms   = "basic_uniforms"
	IncludePortalUniforms  = "portal_uniforms"
	IncludeFireflyUniforms = "firefly_uniforms"
	IncludePerlin          = "perlin"
)

// PerlinSource is the WGSL classic 3D Perlin noise function cnoise(vec3<f32>) -> f32.
//
//go:embed assets/perlin.wgsl
var PerlinSource string

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	registry map[string]string
}

// PreProcessor expands include annotations in WGSL source.
type PreProcessor interface {
	// Process replaces every include line with its registered source.
	//
	// Parameters:
	//   - source: the raw WGSL
	//
	// Returns:
	//   - string: the expanded WGSL
	//   - error: error naming the line of an unknown or malformed include
	Process(source string) (string, error)

	// Includes returns the registered include names in sorted order.
	Includes() []string
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with the engine's struct and function sources
// registered, plus any extra entries.
//
// Parameters:
//   - extra: additional name-to-source entries; these override defaults of the same name
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor
func NewPreProcessor(extra map[string]string) PreProcessor {
	p := &preProcessor{
		registry: map[string]string{
			IncludeCamera:          camera.GPUCameraUniformSource,
			IncludeVertex:          model.GPUVertexSource,
			IncludeBasicUniforms:   material.GPUBasicUniformsSource,
			IncludePortalUniforms:  material.GPUPortalUniformsSource,
			IncludeFireflyUniforms: material.GPUFireflyUniformsSource,
			IncludePerlin:          PerlinSource,
		},
	}
	maps.Copy(p.registry, extra)
	return p
}

func (p *preProcessor) Process(source string) (string, error) {
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	seen := make(map[string]bool)

	for i, line := range lines {
		rest, ok := strings.CutPrefix(strings.TrimSpace(line), annotationPrefix)
		if !ok {
			out = append(out, line)
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) != 1 {
			return "", fmt.Errorf("line %d: include takes exactly one name", i+1)
		}
		name := fields[0]
		src, found := p.registry[name]
		if !found {
			return "", fmt.Errorf("line %d: unknown include %q", i+1, name)
		}
		// a second include of the same name would redeclare its symbols
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, strings.TrimRight(src, "\n"))
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Includes() []string {
	return slices.Sorted(maps.Keys(p.registry))
}
