package renderer

import (
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/Carmen-Shannon/oxy-portal/common"
	"github.com/Carmen-Shannon/oxy-portal/engine/camera"
	"github.com/Carmen-Shannon/oxy-portal/engine/model"
	"github.com/Carmen-Shannon/oxy-portal/engine/particles"
	"github.com/Carmen-Shannon/oxy-portal/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-portal/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-portal/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-portal/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-portal/engine/scene"
	"github.com/Carmen-Shannon/oxy-portal/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// Bind groups shared by every program: group 0 holds the camera, group 1 the material.
const (
	GroupCamera   = 0
	GroupMaterial = 1
)

// BindingUniforms is the binding of the uniform buffer in both groups.
const BindingUniforms = 0

// ErrNoProgram is returned when a material names a shader program that was never set.
var ErrNoProgram = errors.New("no shader program")

// materialBinding tracks the GPU side of one material.
type materialBinding struct {
	provider bind_group_provider.BindGroupProvider
	texture  *common.TextureStagingData // the texture the bind group was built with
	bound    bool
	uploaded bool
	version  uint64
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu  *sync.Mutex
	log *zap.Logger

	backendType RendererBackendType
	backend     RendererBackend

	programs      map[string]*shader.Program
	pipelineCache map[string]pipeline.Pipeline

	cameraProvider bind_group_provider.BindGroupProvider
	cameraBound    bool
	meshes         map[*model.Mesh]bind_group_provider.BindGroupProvider
	points         map[*particles.Field]bind_group_provider.BindGroupProvider
	materials      map[material.Material]*materialBinding
	fallback       material.Material
	warned         map[string]bool

	clearColor    common.Color
	width, height int

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
}

// Renderer draws a scene graph through a camera onto the window surface.
//
// Pipelines are built lazily, one per combination of shader program, geometry kind and
// blend state used by the scene's materials. GPU buffers for meshes, point fields and
// materials are created the first time a drawable is seen; material uniforms are
// re-uploaded only when the material's version changes.
type Renderer interface {
	// Pipeline retrieves the cached Pipeline for a key, or nil.
	//
	// Parameters:
	//   - key: the pipeline key
	//
	// Returns:
	//   - pipeline.Pipeline: the cached pipeline or nil
	Pipeline(key string) pipeline.Pipeline

	// Pipelines returns a copy of the pipeline cache.
	Pipelines() map[string]pipeline.Pipeline

	// SetProgram adds a shader program, or replaces it after a hot reload. Every cached pipeline
	// built from the program is rebuilt first; if any rebuild fails the old program and
	// pipelines stay in use and the error is returned.
	//
	// Parameters:
	//   - prog: the program
	//
	// Returns:
	//   - error: a pipeline rebuild error
	SetProgram(prog *shader.Program) error

	// Program returns a program by key.
	Program(key string) (*shader.Program, bool)

	// SetClearColor sets the background colour of the main pass.
	//
	// Parameters:
	//   - c: the sRGB colour
	SetClearColor(c common.Color)

	// ClearColor returns the current background colour.
	ClearColor() common.Color

	// Resize reconfigures the surface for a new size. Non-positive sizes pause rendering.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// Size returns the current surface size.
	Size() (width, height int)

	// SetPresentMode changes the present mode and reconfigures the surface.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// Render draws every drawable of the scene and presents the frame. Opaque materials draw
	// first, transparent ones after, each group in scene order. Drawables whose program is
	// missing or fails to build are skipped and logged once.
	//
	// Parameters:
	//   - s: the scene to draw
	//   - cam: the camera uniform for this frame
	//
	// Returns:
	//   - error: a GPU resource or frame acquisition error
	Render(s scene.Scene, cam camera.GPUCameraUniform) error
}

var _ Renderer = &renderer{}

// NewRenderer creates a renderer for the given window and configures its surface to the
// window size. GPU adapter or device failures panic.
//
// Parameters:
//   - backendType: the GPU backend to use
//   - win: the window providing the surface
//   - options: functional options
//
// Returns:
//   - Renderer: the renderer
func NewRenderer(backendType RendererBackendType, win window.Window, options ...RendererBuilderOption) Renderer {
	r := newRenderer(backendType, options...)

	msaa := MSAA4x
	if r.pendingMSAA != nil {
		msaa = *r.pendingMSAA
	}

	switch backendType {
	case BackendTypeWGPU:
		r.backend = newWGPURendererBackend(win.SurfaceDescriptor(), r.forceFallbackAdapter, msaa)
	default:
		panic(fmt.Sprintf("unsupported renderer backend %d", backendType))
	}

	r.start(win.Width(), win.Height())
	return r
}

// newRenderer applies options to a renderer without a backend.
func newRenderer(backendType RendererBackendType, options ...RendererBuilderOption) *renderer {
	r := &renderer{
		mu:             &sync.Mutex{},
		log:            zap.NewNop(),
		backendType:    backendType,
		programs:       make(map[string]*shader.Program),
		pipelineCache:  make(map[string]pipeline.Pipeline),
		cameraProvider: bind_group_provider.NewBindGroupProvider("camera"),
		meshes:         make(map[*model.Mesh]bind_group_provider.BindGroupProvider),
		points:         make(map[*particles.Field]bind_group_provider.BindGroupProvider),
		materials:      make(map[material.Material]*materialBinding),
		fallback:       material.NewMaterial(material.WithName("fallback")),
		warned:         make(map[string]bool),
		clearColor:     common.Color{R: 0.1, G: 0.1, B: 0.1},
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// start pushes the collected configuration into the backend.
func (r *renderer) start(width, height int) {
	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	r.backend.SetClearColor(clearValue(r.clearColor))
	r.Resize(width, height)
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.pipelineCache)
}

func (r *renderer) SetProgram(prog *shader.Program) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rebuilt := make(map[string]pipeline.Pipeline)
	for key, p := range r.pipelineCache {
		if p.ProgramKey() != prog.Key {
			continue
		}
		next := p.ForProgram(prog)
		if err := r.backend.RegisterRenderPipeline(next); err != nil {
			return fmt.Errorf("rebuild pipeline %s: %w", key, err)
		}
		rebuilt[key] = next
	}

	for key, next := range rebuilt {
		if old := r.pipelineCache[key].RenderPipeline(); old != nil {
			old.Release()
		}
		r.pipelineCache[key] = next
		delete(r.warned, key)
	}
	r.programs[prog.Key] = prog

	if len(rebuilt) > 0 {
		// bind groups are recreated against the rebuilt layouts on the next frame
		r.cameraBound = false
		for _, mb := range r.materials {
			mb.bound = false
		}
		r.log.Info("shader program reloaded", zap.String("program", prog.Key), zap.Int("pipelines", len(rebuilt)))
	}
	return nil
}

func (r *renderer) Program(key string) (*shader.Program, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.programs[key]
	return p, ok
}

func (r *renderer) SetClearColor(c common.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearColor = c
	r.backend.SetClearColor(clearValue(c))
}

func (r *renderer) ClearColor() common.Color {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clearColor
}

func (r *renderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width, r.height = width, height
	if width > 0 && height > 0 {
		r.backend.ConfigureSurface(width, height)
	}
}

func (r *renderer) Size() (width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.SetPresentMode(mode)
	if r.width > 0 && r.height > 0 {
		r.backend.ConfigureSurface(r.width, r.height)
	}
}

// preparedDraw is one draw call with all its GPU resources resolved.
type preparedDraw struct {
	pipeline pipeline.Pipeline
	geometry bind_group_provider.BindGroupProvider
	material bind_group_provider.BindGroupProvider
}

func (r *renderer) Render(s scene.Scene, cam camera.GPUCameraUniform) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.width <= 0 || r.height <= 0 {
		return nil
	}

	items := buildDrawList(s.Drawables(), r.fallback)
	draws := make([]preparedDraw, 0, len(items))
	var writes []bind_group_provider.BufferWrite

	for _, it := range items {
		key := it.variant.key()
		p, err := r.pipelineFor(key, it.variant)
		if err != nil {
			if !r.warned[key] {
				r.warned[key] = true
				r.log.Warn("skipping drawable", zap.String("node", it.drawable.Node.Name), zap.String("pipeline", key), zap.Error(err))
			}
			continue
		}

		geometry, err := r.geometryFor(it.drawable)
		if err != nil {
			return fmt.Errorf("upload geometry of %s: %w", it.drawable.Node.Name, err)
		}
		if !r.cameraBound {
			if err := r.bindCamera(p); err != nil {
				return err
			}
		}
		mb, err := r.bindMaterial(it.material, p)
		if err != nil {
			return fmt.Errorf("bind material %s: %w", it.material.Name(), err)
		}
		if !mb.uploaded || mb.version != it.material.Version() {
			writes = append(writes, bind_group_provider.BufferWrite{
				Provider: mb.provider,
				Binding:  BindingUniforms,
				Data:     it.material.UniformBlock().Marshal(),
			})
			mb.uploaded = true
			mb.version = it.material.Version()
		}
		draws = append(draws, preparedDraw{pipeline: p, geometry: geometry, material: mb.provider})
	}

	if r.cameraBound {
		cam.Viewport = [2]float32{float32(r.width), float32(r.height)}
		writes = append(writes, bind_group_provider.BufferWrite{
			Provider: r.cameraProvider,
			Binding:  BindingUniforms,
			Data:     cam.Marshal(),
		})
	}
	r.backend.WriteBuffers(writes)

	if err := r.backend.BeginFrame(); err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}
	for _, d := range draws {
		r.backend.DrawCall(d.pipeline, d.geometry, []bind_group_provider.BindGroupProvider{r.cameraProvider, d.material})
	}
	r.backend.EndFrame()
	r.backend.Present()
	return nil
}

// pipelineFor returns the cached pipeline for a variant, building it on first use.
// Caller must hold the mutex.
func (r *renderer) pipelineFor(key string, v pipelineVariant) (pipeline.Pipeline, error) {
	if p, ok := r.pipelineCache[key]; ok {
		return p, nil
	}
	prog, ok := r.programs[v.program]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrNoProgram, v.program)
	}
	p := pipeline.NewPipeline(key, v.options(prog)...)
	if err := r.backend.RegisterRenderPipeline(p); err != nil {
		return nil, err
	}
	r.pipelineCache[key] = p
	return p, nil
}

// geometryFor uploads a mesh or point field on first use. Caller must hold the mutex.
func (r *renderer) geometryFor(d scene.Drawable) (bind_group_provider.BindGroupProvider, error) {
	if d.Points != nil {
		if p, ok := r.points[d.Points]; ok {
			return p, nil
		}
		p := bind_group_provider.NewBindGroupProvider(d.Node.Name,
			bind_group_provider.WithVertexCount(QuadVertexCount),
			bind_group_provider.WithInstanceCount(d.Points.Count()),
		)
		if err := r.backend.InitMeshBuffers(p, common.SliceToBytes(d.Points.Interleave()), nil, 0); err != nil {
			return nil, err
		}
		r.points[d.Points] = p
		return p, nil
	}

	if p, ok := r.meshes[d.Mesh]; ok {
		return p, nil
	}
	p := bind_group_provider.NewBindGroupProvider(d.Node.Name,
		bind_group_provider.WithVertexCount(len(d.Mesh.Vertices)),
	)
	if err := r.backend.InitMeshBuffers(p, d.Mesh.VertexBytes(), d.Mesh.IndexBytes(), len(d.Mesh.Indices)); err != nil {
		return nil, err
	}
	r.meshes[d.Mesh] = p
	return p, nil
}

// bindCamera creates the camera bind group against a pipeline's camera layout.
// Caller must hold the mutex.
func (r *renderer) bindCamera(p pipeline.Pipeline) error {
	var u camera.GPUCameraUniform
	desc := groupDescriptor(p, GroupCamera)
	if err := r.backend.InitBindGroup(r.cameraProvider, p.BindGroupLayout(GroupCamera), desc, map[int]uint64{
		BindingUniforms: uint64(u.Size()),
	}); err != nil {
		return fmt.Errorf("bind camera: %w", err)
	}
	r.cameraBound = true
	return nil
}

// bindMaterial creates the material's textures, sampler, uniform buffer and bind group the
// first time it is drawn. Basic materials without a texture sample a 1x1 white texture.
// Caller must hold the mutex.
func (r *renderer) bindMaterial(m material.Material, p pipeline.Pipeline) (*materialBinding, error) {
	mb, ok := r.materials[m]
	if !ok {
		mb = &materialBinding{provider: bind_group_provider.NewBindGroupProvider(m.Name())}
		r.materials[m] = mb
	}
	if mb.bound {
		if mb.texture == m.Texture() {
			return mb, nil
		}
		// the texture changed after the bind group was built
		mb.provider.Release()
		mb.provider = bind_group_provider.NewBindGroupProvider(m.Name())
		mb.bound, mb.uploaded = false, false
	}

	desc := groupDescriptor(p, GroupMaterial)
	for _, e := range desc.Entries {
		binding := int(e.Binding)
		switch {
		case e.Texture.SampleType != wgpu.TextureSampleTypeUndefined && mb.provider.TextureView(binding) == nil:
			tex := m.Texture()
			if tex == nil {
				tex = whiteTexture()
			}
			if err := r.backend.InitTextureView(mb.provider, binding, *tex); err != nil {
				return nil, err
			}
		case e.Sampler.Type != wgpu.SamplerBindingTypeUndefined && mb.provider.Sampler(binding) == nil:
			if err := r.backend.InitSampler(mb.provider, binding, common.SamplerStagingData{}); err != nil {
				return nil, err
			}
		}
	}

	if err := r.backend.InitBindGroup(mb.provider, p.BindGroupLayout(GroupMaterial), desc, map[int]uint64{
		BindingUniforms: uint64(m.UniformBlock().Size()),
	}); err != nil {
		return nil, err
	}
	mb.texture = m.Texture()
	mb.bound = true
	return mb, nil
}

// groupDescriptor rebuilds the layout descriptor of one bind group of a pipeline's shaders.
func groupDescriptor(p pipeline.Pipeline, group int) wgpu.BindGroupLayoutDescriptor {
	merged := mergeBindGroupLayouts(
		bindGroupLayoutDescriptors(p.Shader(shader.ShaderTypeVertex), wgpu.ShaderStageVertex),
		bindGroupLayoutDescriptors(p.Shader(shader.ShaderTypeFragment), wgpu.ShaderStageFragment),
	)
	return merged[group]
}

// clearValue converts an sRGB colour to the linear clear value of the render pass.
func clearValue(c common.Color) wgpu.Color {
	lin := c.Linear()
	return wgpu.Color{R: float64(lin[0]), G: float64(lin[1]), B: float64(lin[2]), A: 1}
}

// whiteTexture is the placeholder bound for basic materials without a texture.
func whiteTexture() *common.TextureStagingData {
	return &common.TextureStagingData{
		Pixels:     []byte{255, 255, 255, 255},
		Width:      1,
		Height:     1,
		ColorSpace: common.ColorSpaceSRGB,
	}
}
