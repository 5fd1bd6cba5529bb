package renderer

import (
	"github.com/Carmen-Shannon/oxy-portal/engine/model"
	"github.com/Carmen-Shannon/oxy-portal/engine/particles"
	"github.com/Carmen-Shannon/oxy-portal/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-portal/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-portal/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-portal/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

// QuadVertexCount is the number of vertices emitted per point sprite (two triangles).
const QuadVertexCount = 6

// meshVertexLayout matches model.GPUVertex: position then uv.
var meshVertexLayout = wgpu.VertexBufferLayout{
	ArrayStride: model.GPUVertexSize,
	StepMode:    wgpu.VertexStepModeVertex,
	Attributes: []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1},
	},
}

// pointInstanceLayout matches particles.Field.Interleave: position then scale, one per instance.
var pointInstanceLayout = wgpu.VertexBufferLayout{
	ArrayStride: particles.InstanceStride,
	StepMode:    wgpu.VertexStepModeInstance,
	Attributes: []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32, Offset: 12, ShaderLocation: 1},
	},
}

// pipelineVariant is everything about a drawable that changes its render pipeline.
type pipelineVariant struct {
	program    string
	points     bool
	blending   material.Blending
	blended    bool
	depthWrite bool
}

// key is the pipeline cache key, e.g. "fireflies/points/additive/nodepth".
func (v pipelineVariant) key() string {
	geometry := "mesh"
	if v.points {
		geometry = "points"
	}
	blend := "opaque"
	if v.blended {
		blend = "alpha"
		if v.blending == material.BlendAdditive {
			blend = "additive"
		}
	}
	depth := "depth"
	if !v.depthWrite {
		depth = "nodepth"
	}
	return v.program + "/" + geometry + "/" + blend + "/" + depth
}

// options translates the variant into pipeline builder options.
func (v pipelineVariant) options(prog *shader.Program) []pipeline.PipelineBuilderOption {
	layout := meshVertexLayout
	if v.points {
		layout = pointInstanceLayout
	}
	opts := []pipeline.PipelineBuilderOption{
		pipeline.WithProgram(prog),
		pipeline.WithVertexLayouts(layout),
		pipeline.WithDepthWriteEnabled(v.depthWrite),
	}
	if v.blended {
		state := pipeline.BlendAlpha
		if v.blending == material.BlendAdditive {
			state = pipeline.BlendAdditive
		}
		opts = append(opts, pipeline.WithBlendState(state))
	}
	return opts
}

// drawItem is a drawable with its material resolved.
type drawItem struct {
	drawable scene.Drawable
	material material.Material
	variant  pipelineVariant
}

// buildDrawList resolves materials and orders the drawables: opaque first, then transparent,
// keeping scene order inside each group. Drawables without a material use fallback.
//
// Parameters:
//   - drawables: the scene's drawables in traversal order
//   - fallback: the material used for drawables without one
//
// Returns:
//   - []drawItem: the ordered draw list
func buildDrawList(drawables []scene.Drawable, fallback material.Material) []drawItem {
	opaque := make([]drawItem, 0, len(drawables))
	var transparent []drawItem

	for _, d := range drawables {
		if d.Mesh == nil && d.Points == nil {
			continue
		}
		m := d.Material
		if m == nil {
			m = fallback
		}
		it := drawItem{
			drawable: d,
			material: m,
			variant: pipelineVariant{
				program:    m.PipelineKey(),
				points:     d.Points != nil,
				blending:   m.Blending(),
				blended:    m.Transparent() || m.Blending() == material.BlendAdditive,
				depthWrite: m.DepthWrite(),
			},
		}
		if it.variant.blended {
			transparent = append(transparent, it)
		} else {
			opaque = append(opaque, it)
		}
	}
	return append(opaque, transparent...)
}
