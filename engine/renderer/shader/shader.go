package shader

import (
	"fmt"
	"os"
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies the pipeline stage a shader is written for.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	if t == ShaderTypeFragment {
		return "fragment"
	}
	return "vertex"
}

// shader is the implementation of the Shader interface.
type shader struct {
	key        string
	path       string
	source     string
	shaderType ShaderType
	entryPoint string
	bindings   []Binding
	module     *wgpu.ShaderModuleDescriptor
}

// Shader is a pre-processed WGSL source for one pipeline stage, with the metadata the
// renderer needs to build a pipeline from it.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Path returns the file the source was read from.
	Path() string

	// Source retrieves the pre-processed WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// ShaderType returns the stage of the shader.
	ShaderType() ShaderType

	// EntryPoint returns the entry point name for this shader.
	//
	// Returns:
	//   - string: the entry point name (e.g. "vs_main")
	EntryPoint() string

	// Bindings returns the resource declarations ordered by group and binding.
	Bindings() []Binding

	// HasBinding reports whether the shader declares the given group and binding.
	HasBinding(group, binding int) bool

	// Module returns the wgpu.ShaderModuleDescriptor for this shader.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the descriptor containing the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// NewShader reads a WGSL file, expands its includes and extracts its entry point and bindings.
//
// Parameters:
//   - key: a unique identifier for the shader, used as the module label
//   - shaderType: the stage the shader is written for
//   - sourcePath: the file path to read WGSL source from
//   - pp: the pre-processor that expands includes
//
// Returns:
//   - Shader: the parsed shader
//   - error: error if the file cannot be read, pre-processing fails, or no entry point exists
func NewShader(key string, shaderType ShaderType, sourcePath string, pp PreProcessor) (Shader, error) {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("shader %s: failed to read %q: %w", key, sourcePath, err)
	}
	return NewShaderFromSource(key, shaderType, sourcePath, string(data), pp)
}

// NewShaderFromSource is NewShader for source already in memory.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - shaderType: the stage the shader is written for
//   - path: the origin of the source, for error messages
//   - raw: the WGSL source
//   - pp: the pre-processor that expands includes
//
// Returns:
//   - Shader: the parsed shader
//   - error: error if pre-processing fails or no entry point exists
func NewShaderFromSource(key string, shaderType ShaderType, path, raw string, pp PreProcessor) (Shader, error) {
	source, err := pp.Process(raw)
	if err != nil {
		return nil, fmt.Errorf("shader %s: failed to pre-process %q: %w", key, path, err)
	}
	entry := parseEntryPoint(source, shaderType)
	if entry == "" {
		return nil, fmt.Errorf("shader %s: no @%s entry point in %q", key, shaderType, path)
	}
	return &shader{
		key:        key,
		path:       path,
		source:     source,
		shaderType: shaderType,
		entryPoint: entry,
		bindings:   parseBindings(source),
		module: &wgpu.ShaderModuleDescriptor{
			Label: key,
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
				Code: source,
			},
		},
	}, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Path() string {
	return s.path
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) Bindings() []Binding {
	return slices.Clone(s.bindings)
}

func (s *shader) HasBinding(group, binding int) bool {
	return slices.ContainsFunc(s.bindings, func(b Binding) bool {
		return b.Group == group && b.Binding == binding
	})
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}
