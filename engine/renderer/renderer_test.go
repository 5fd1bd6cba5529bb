package renderer

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-portal/common"
	"github.com/Carmen-Shannon/oxy-portal/engine/camera"
	"github.com/Carmen-Shannon/oxy-portal/engine/model"
	"github.com/Carmen-Shannon/oxy-portal/engine/particles"
	"github.com/Carmen-Shannon/oxy-portal/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-portal/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-portal/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-portal/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-portal/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDraw struct {
	pipeline string
	geometry string
}

// fakeBackend records what the renderer asks of the GPU.
type fakeBackend struct {
	configured  [][2]int
	presentMode PresentMode
	clear       wgpu.Color

	registered  []string
	registerErr error

	meshes     int
	bindGroups []string
	textures   int
	samplers   int
	writes     []bind_group_provider.BufferWrite
	draws      []fakeDraw
	frames     int
}

var _ RendererBackend = &fakeBackend{}

func (f *fakeBackend) ConfigureSurface(width, height int) {
	f.configured = append(f.configured, [2]int{width, height})
}

func (f *fakeBackend) SetPresentMode(mode PresentMode) { f.presentMode = mode }

func (f *fakeBackend) SetClearColor(c wgpu.Color) { f.clear = c }

func (f *fakeBackend) RegisterRenderPipeline(p pipeline.Pipeline) error {
	if f.registerErr != nil {
		return f.registerErr
	}
	f.registered = append(f.registered, p.PipelineKey())
	p.SetRenderPipeline(nil, nil)
	return nil
}

func (f *fakeBackend) InitMeshBuffers(bind_group_provider.BindGroupProvider, []byte, []byte, int) error {
	f.meshes++
	return nil
}

func (f *fakeBackend) InitBindGroup(provider bind_group_provider.BindGroupProvider, _ *wgpu.BindGroupLayout, _ wgpu.BindGroupLayoutDescriptor, _ map[int]uint64) error {
	f.bindGroups = append(f.bindGroups, provider.Label())
	return nil
}

func (f *fakeBackend) InitTextureView(bind_group_provider.BindGroupProvider, int, common.TextureStagingData) error {
	f.textures++
	return nil
}

func (f *fakeBackend) InitSampler(bind_group_provider.BindGroupProvider, int, common.SamplerStagingData) error {
	f.samplers++
	return nil
}

func (f *fakeBackend) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	f.writes = append(f.writes, writes...)
}

func (f *fakeBackend) BeginFrame() error {
	f.frames++
	return nil
}

func (f *fakeBackend) DrawCall(p pipeline.Pipeline, geometry bind_group_provider.BindGroupProvider, _ []bind_group_provider.BindGroupProvider) {
	f.draws = append(f.draws, fakeDraw{pipeline: p.PipelineKey(), geometry: geometry.Label()})
}

func (f *fakeBackend) EndFrame() {}

func (f *fakeBackend) Present() {}

const testVertexSource = `@group(0) @binding(0) var<uniform> camera: CameraUniform;
@group(1) @binding(0) var<uniform> material: Uniforms;
@vertex
fn vs_main() -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }
`

const testBasicFragmentSource = `@group(1) @binding(0) var<uniform> material: Uniforms;
@group(1) @binding(1) var baked: texture_2d<f32>;
@group(1) @binding(2) var baked_sampler: sampler;
@fragment
fn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }
`

const testFragmentSource = `@group(1) @binding(0) var<uniform> material: Uniforms;
@fragment
fn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }
`

func testProgram(t *testing.T, key, fragment string) *shader.Program {
	t.Helper()
	pp := shader.NewPreProcessor(nil)
	vs, err := shader.NewShaderFromSource(key, shader.ShaderTypeVertex, key+"/vertex.wgsl", testVertexSource, pp)
	require.NoError(t, err)
	fs, err := shader.NewShaderFromSource(key, shader.ShaderTypeFragment, key+"/fragment.wgsl", fragment, pp)
	require.NoError(t, err)
	return &shader.Program{Key: key, Vertex: vs, Fragment: fs}
}

func testRenderer(t *testing.T, programs ...*shader.Program) (*renderer, *fakeBackend) {
	t.Helper()
	fb := &fakeBackend{}
	r := newRenderer(BackendTypeWGPU, WithPrograms(programs...))
	r.backend = fb
	r.start(800, 600)
	return r, fb
}

func quadMesh() *model.Mesh {
	m := &model.Mesh{}
	m.Append([]model.GPUVertex{{}, {}, {}, {}}, []uint32{0, 1, 2, 0, 2, 3})
	return m
}

func portalScene(pm *material.PortalMaterials) scene.Scene {
	s := scene.NewScene()
	s.Add(
		scene.NewNode("fireflies", scene.WithPoints(particles.Generate(10, particles.NewRand())), scene.WithMaterial(pm.Fireflies)),
		scene.NewNode("baked", scene.WithMesh(quadMesh()), scene.WithMaterial(pm.Baked)),
		scene.NewNode("portalLight", scene.WithMesh(quadMesh()), scene.WithMaterial(pm.PortalLight)),
	)
	return s
}

func testMaterials() *material.PortalMaterials {
	return material.NewPortalMaterials(material.PortalParams{
		PoleLightColor:   material.DefaultPoleLightColor,
		PortalColorStart: common.MustParseHexColor("#000000"),
		PortalColorEnd:   common.MustParseHexColor("#ffffff"),
		PixelRatio:       1,
		FireflySize:      100,
	})
}

func allPrograms(t *testing.T) []*shader.Program {
	return []*shader.Program{
		testProgram(t, material.PipelineBasic, testBasicFragmentSource),
		testProgram(t, material.PipelinePortal, testFragmentSource),
		testProgram(t, material.PipelineFireflies, testFragmentSource),
	}
}

func TestRenderDrawOrder(t *testing.T) {
	r, fb := testRenderer(t, allPrograms(t)...)
	pm := testMaterials()

	require.NoError(t, r.Render(portalScene(pm), camera.GPUCameraUniform{}))

	require.Len(t, fb.draws, 3)
	assert.Equal(t, "baked", fb.draws[0].geometry)
	assert.Equal(t, "portalLight", fb.draws[1].geometry)
	assert.Equal(t, "fireflies", fb.draws[2].geometry)

	assert.Equal(t, "basic/mesh/opaque/depth", fb.draws[0].pipeline)
	assert.Equal(t, "portal/mesh/opaque/depth", fb.draws[1].pipeline)
	assert.Equal(t, "fireflies/points/additive/nodepth", fb.draws[2].pipeline)
	assert.Equal(t, 1, fb.frames)
}

func TestRenderCachesGPUResources(t *testing.T) {
	r, fb := testRenderer(t, allPrograms(t)...)
	s := portalScene(testMaterials())

	require.NoError(t, r.Render(s, camera.GPUCameraUniform{}))
	require.NoError(t, r.Render(s, camera.GPUCameraUniform{}))

	assert.Len(t, fb.registered, 3)
	assert.Equal(t, 3, fb.meshes)
	// camera plus one per material
	assert.Len(t, fb.bindGroups, 4)
	assert.Equal(t, 1, fb.textures)
	assert.Equal(t, 1, fb.samplers)
	assert.Len(t, r.Pipelines(), 3)
	assert.NotNil(t, r.Pipeline("portal/mesh/opaque/depth"))
}

func TestRenderUploadsUniformsOnVersionChange(t *testing.T) {
	r, fb := testRenderer(t, allPrograms(t)...)
	pm := testMaterials()
	s := portalScene(pm)

	materialWrites := func() int {
		n := 0
		for _, w := range fb.writes {
			if w.Provider.Label() != "camera" {
				n++
			}
		}
		return n
	}

	require.NoError(t, r.Render(s, camera.GPUCameraUniform{}))
	assert.Equal(t, 3, materialWrites())

	require.NoError(t, r.Render(s, camera.GPUCameraUniform{}))
	assert.Equal(t, 3, materialWrites())

	pm.SetTime(1.5)
	require.NoError(t, r.Render(s, camera.GPUCameraUniform{}))
	assert.Equal(t, 5, materialWrites())
}

func TestRenderWritesViewportIntoCamera(t *testing.T) {
	r, fb := testRenderer(t, allPrograms(t)...)

	require.NoError(t, r.Render(portalScene(testMaterials()), camera.GPUCameraUniform{}))

	var cam []byte
	for _, w := range fb.writes {
		if w.Provider.Label() == "camera" {
			cam = w.Data
		}
	}
	require.Len(t, cam, 96)
	want := common.SliceToBytes([]float32{800, 600})
	assert.Equal(t, want, cam[80:88])
}

func TestRenderFallbackMaterial(t *testing.T) {
	r, fb := testRenderer(t, allPrograms(t)...)
	s := scene.NewScene()
	s.Add(scene.NewNode("bare", scene.WithMesh(quadMesh())))

	require.NoError(t, r.Render(s, camera.GPUCameraUniform{}))

	require.Len(t, fb.draws, 1)
	assert.Equal(t, "basic/mesh/opaque/depth", fb.draws[0].pipeline)
	assert.Contains(t, fb.bindGroups, "fallback")
	// white placeholder texture
	assert.Equal(t, 1, fb.textures)
}

func TestRenderSkipsMissingProgram(t *testing.T) {
	r, fb := testRenderer(t, testProgram(t, material.PipelineBasic, testBasicFragmentSource))

	require.NoError(t, r.Render(portalScene(testMaterials()), camera.GPUCameraUniform{}))

	require.Len(t, fb.draws, 1)
	assert.Equal(t, "baked", fb.draws[0].geometry)
	assert.True(t, r.warned["portal/mesh/opaque/depth"])
}

func TestRenderPausedAtZeroSize(t *testing.T) {
	r, fb := testRenderer(t, allPrograms(t)...)
	r.Resize(0, 0)

	require.NoError(t, r.Render(portalScene(testMaterials()), camera.GPUCameraUniform{}))
	assert.Zero(t, fb.frames)
	assert.Equal(t, [][2]int{{800, 600}}, fb.configured)

	r.Resize(1024, 768)
	w, h := r.Size()
	assert.Equal(t, 1024, w)
	assert.Equal(t, 768, h)
	assert.Equal(t, [2]int{1024, 768}, fb.configured[len(fb.configured)-1])
}

func TestSetProgramRebuildsPipelines(t *testing.T) {
	r, fb := testRenderer(t, allPrograms(t)...)
	s := portalScene(testMaterials())
	require.NoError(t, r.Render(s, camera.GPUCameraUniform{}))
	before := r.Pipeline("portal/mesh/opaque/depth")
	bindGroups := len(fb.bindGroups)

	reloaded := testProgram(t, material.PipelinePortal, testFragmentSource)
	require.NoError(t, r.SetProgram(reloaded))

	after := r.Pipeline("portal/mesh/opaque/depth")
	assert.NotSame(t, before, after)
	assert.Same(t, reloaded.Fragment, after.Shader(shader.ShaderTypeFragment))
	assert.Same(t, r.Pipeline("basic/mesh/opaque/depth"), r.Pipelines()["basic/mesh/opaque/depth"])

	got, ok := r.Program(material.PipelinePortal)
	require.True(t, ok)
	assert.Same(t, reloaded, got)

	// bind groups are recreated against the new layouts
	require.NoError(t, r.Render(s, camera.GPUCameraUniform{}))
	assert.Len(t, fb.bindGroups, bindGroups*2)
}

func TestSetProgramKeepsOldPipelinesOnError(t *testing.T) {
	r, fb := testRenderer(t, allPrograms(t)...)
	require.NoError(t, r.Render(portalScene(testMaterials()), camera.GPUCameraUniform{}))
	before := r.Pipeline("portal/mesh/opaque/depth")
	old, _ := r.Program(material.PipelinePortal)

	fb.registerErr = errors.New("shader compile failed")
	err := r.SetProgram(testProgram(t, material.PipelinePortal, testFragmentSource))
	require.ErrorContains(t, err, "shader compile failed")

	assert.Same(t, before, r.Pipeline("portal/mesh/opaque/depth"))
	got, _ := r.Program(material.PipelinePortal)
	assert.Same(t, old, got)
}

func TestClearColor(t *testing.T) {
	r, fb := testRenderer(t)
	assert.InDelta(t, 1.0, fb.clear.A, 1e-9)

	c := common.MustParseHexColor("#201919")
	r.SetClearColor(c)
	assert.Equal(t, c, r.ClearColor())

	lin := c.Linear()
	assert.InDelta(t, float64(lin[0]), fb.clear.R, 1e-6)
	assert.InDelta(t, float64(lin[2]), fb.clear.B, 1e-6)
}

func TestSetPresentMode(t *testing.T) {
	r, fb := testRenderer(t)
	r.SetPresentMode(PresentModeUncapped)
	assert.Equal(t, PresentModeUncapped, fb.presentMode)
	assert.Len(t, fb.configured, 2)
}

func TestPipelineVariantKey(t *testing.T) {
	tests := []struct {
		v    pipelineVariant
		want string
	}{
		{pipelineVariant{program: "basic", depthWrite: true}, "basic/mesh/opaque/depth"},
		{pipelineVariant{program: "basic", blended: true, depthWrite: true}, "basic/mesh/alpha/depth"},
		{pipelineVariant{program: "fireflies", points: true, blended: true, blending: material.BlendAdditive}, "fireflies/points/additive/nodepth"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.v.key())
	}
}

func TestRenderRebindsLateTexture(t *testing.T) {
	r, fb := testRenderer(t, allPrograms(t)...)
	pm := testMaterials()
	s := portalScene(pm)

	require.NoError(t, r.Render(s, camera.GPUCameraUniform{}))
	assert.Equal(t, 1, fb.textures)
	bindGroups := len(fb.bindGroups)

	bakedWrites := func() int {
		n := 0
		for _, w := range fb.writes {
			if w.Provider.Label() == material.NameBaked {
				n++
			}
		}
		return n
	}
	assert.Equal(t, 1, bakedWrites())

	pm.Baked.SetTexture(&common.TextureStagingData{Width: 1, Height: 1, Pixels: []byte{1, 2, 3, 255}})
	require.NoError(t, r.Render(s, camera.GPUCameraUniform{}))

	assert.Equal(t, 2, fb.textures)
	assert.Len(t, fb.bindGroups, bindGroups+1)
	assert.Equal(t, material.NameBaked, fb.bindGroups[len(fb.bindGroups)-1])
	assert.Equal(t, 2, bakedWrites())

	// unchanged texture keeps the bind group
	require.NoError(t, r.Render(s, camera.GPUCameraUniform{}))
	assert.Equal(t, 2, fb.textures)
	assert.Len(t, fb.bindGroups, bindGroups+1)
}
