// Package portal puts the portal scene together: its materials, the firefly field and the
// baked texture and model loads.
package portal

import (
	"errors"
	"math/rand/v2"

	"github.com/Carmen-Shannon/oxy-portal/common"
	"github.com/Carmen-Shannon/oxy-portal/engine/particles"
	"github.com/Carmen-Shannon/oxy-portal/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-portal/engine/scene"
	"go.uber.org/zap"
)

// NodeFireflies names the scene node carrying the firefly point field.
const NodeFireflies = "fireflies"

// Loads submits asset loads whose callbacks run on the goroutine that owns the scene.
// loader.Async satisfies it.
type Loads interface {
	LoadTexture(path string, onLoad func(*common.TextureStagingData), onError func(error))
	LoadMesh(path string, onLoad func(*scene.Node), onError func(error))
}

// Params configures the portal scene.
type Params struct {
	// TexturePath and ModelPath are the baked texture and the portal model.
	TexturePath string
	ModelPath   string

	// Materials seeds the material set. BakedTexture may be nil; the loaded texture is
	// set on the baked material when it arrives.
	Materials material.PortalParams

	// Fireflies is the number of particles in the firefly field.
	Fireflies int
}

// setup is the implementation of the Setup interface.
type setup struct {
	target scene.Scene
	loads  Loads
	params Params
	log    *zap.Logger
	rng    *rand.Rand

	materials *material.PortalMaterials
	assembler scene.Assembler

	textureLoaded bool
	textureErr    error
}

// Setup owns the portal scene's materials and runs its two loads as independent branches.
//
// The firefly node is in the scene from construction. The texture branch only textures
// the baked material; the model branch only drives the assembler. A failure in one
// branch leaves the other, and the fireflies, untouched.
type Setup interface {
	// Materials returns the material set. It exists from construction.
	Materials() *material.PortalMaterials

	// Assembler returns the assembler the model load completes.
	Assembler() scene.Assembler

	// Start submits the texture and model loads.
	Start()

	// TextureLoaded reports whether the baked texture has been applied.
	TextureLoaded() bool

	// TextureErr returns the texture load failure, or nil.
	TextureErr() error
}

var _ Setup = &setup{}

// NewSetup builds the materials, adds the firefly node to target and creates a pending
// assembler. Nothing is loaded until Start.
//
// Parameters:
//   - target: the live scene
//   - loads: where the texture and model loads are submitted
//   - p: paths and initial material values
//   - options: functional options
//
// Returns:
//   - Setup: the portal setup
func NewSetup(target scene.Scene, loads Loads, p Params, options ...SetupBuilderOption) Setup {
	s := &setup{
		target: target,
		loads:  loads,
		params: p,
		log:    zap.NewNop(),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.rng == nil {
		s.rng = particles.NewRand()
	}

	s.materials = material.NewPortalMaterials(p.Materials)
	s.target.Add(scene.NewNode(NodeFireflies,
		scene.WithPoints(particles.Generate(p.Fireflies, s.rng)),
		scene.WithMaterial(s.materials.Fireflies),
	))
	s.assembler = scene.NewAssembler(target, scene.PortalBindings(s.materials), scene.WithLogger(s.log))
	return s
}

func (s *setup) Materials() *material.PortalMaterials {
	return s.materials
}

func (s *setup) Assembler() scene.Assembler {
	return s.assembler
}

func (s *setup) TextureLoaded() bool {
	return s.textureLoaded
}

func (s *setup) TextureErr() error {
	return s.textureErr
}

func (s *setup) Start() {
	s.loads.LoadTexture(s.params.TexturePath, s.onTexture, s.onTextureError)
	s.loads.LoadMesh(s.params.ModelPath, s.onModel, s.onModelError)
}

func (s *setup) onTexture(tex *common.TextureStagingData) {
	s.materials.Baked.SetTexture(tex)
	s.textureLoaded = true
	s.log.Info("baked texture applied", zap.String("path", s.params.TexturePath), zap.Uint32("width", tex.Width), zap.Uint32("height", tex.Height))
}

func (s *setup) onTextureError(err error) {
	s.textureErr = err
	s.log.Error("baked texture failed to load, baked surfaces stay untextured", zap.String("path", s.params.TexturePath), zap.Error(err))
}

func (s *setup) onModel(fragment *scene.Node) {
	if err := s.assembler.Complete(fragment); err != nil {
		s.log.Error("portal model assembly failed", zap.String("path", s.params.ModelPath), zap.Error(err))
		return
	}
	s.log.Info("portal scene assembled", zap.Int("drawables", len(s.target.Drawables())))
}

func (s *setup) onModelError(err error) {
	if ferr := s.assembler.Fail(err); errors.Is(ferr, scene.ErrNotPending) {
		s.log.Warn("model failure after assembly finished", zap.Error(ferr))
	}
}
