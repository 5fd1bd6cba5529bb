package debug

import (
	"github.com/Carmen-Shannon/oxy-portal/common"
	"github.com/Carmen-Shannon/oxy-portal/engine/logger"
	"github.com/Carmen-Shannon/oxy-portal/engine/renderer/material"
	"go.uber.org/zap"
)

// Control names of the portal panel.
const (
	ControlClearColor       = "clearColor"
	ControlPortalColorStart = "portalColorStart"
	ControlPortalColorEnd   = "portalColorEnd"
	ControlFireflySize      = "uSize"
)

// Firefly size slider range.
const (
	FireflySizeMin  = 1
	FireflySizeMax  = 400
	FireflySizeStep = 1
)

// End colour sources for the portalColorEnd control.
const (
	// EndColorFromStart feeds uColorEnd from State.PortalColorStart. This reproduces the
	// shipped demo, where editing the end colour pushes the start colour into the shader.
	EndColorFromStart = "start"
	// EndColorFromEnd feeds uColorEnd from State.PortalColorEnd.
	EndColorFromEnd = "end"
)

// ClearColorSetter receives clear colour changes.
type ClearColorSetter interface {
	SetClearColor(c common.Color)
}

// PortalTargets are the objects the portal panel writes to.
type PortalTargets struct {
	Renderer  ClearColorSetter
	Materials *material.PortalMaterials
	// EndColorSource is EndColorFromStart or EndColorFromEnd; empty means EndColorFromStart.
	EndColorSource string
}

// NewPortalPanel creates a panel with the four portal controls bound to state and targets.
//
// Parameters:
//   - state: the debug state the colour controls edit
//   - targets: the renderer and materials that receive changes
//   - log: the logger; nil disables logging
//
// Returns:
//   - Panel: the bound panel
//   - error: error if a control cannot be registered
func NewPortalPanel(state *State, targets PortalTargets, log *zap.Logger) (Panel, error) {
	p := NewPanel(log)
	log = logger.OrNop(log).Named("debug")
	portal := targets.Materials.PortalLight
	fireflies := targets.Materials.Fireflies

	// Uniform writes only fail when a material lacks the slot; the control value is kept either way.
	report := func(control string, err error) {
		if err != nil {
			log.Error("control change not applied", zap.String("control", control), zap.Error(err))
		}
	}

	if err := p.AddColor(ControlClearColor,
		func() common.Color { return state.ClearColor },
		func(c common.Color) { state.ClearColor = c },
	); err != nil {
		return nil, err
	}
	if err := p.OnChange(ControlClearColor, func(v Value) {
		if targets.Renderer != nil {
			targets.Renderer.SetClearColor(state.ClearColor)
		}
	}); err != nil {
		return nil, err
	}

	if err := p.AddColor(ControlPortalColorStart,
		func() common.Color { return state.PortalColorStart },
		func(c common.Color) { state.PortalColorStart = c },
	); err != nil {
		return nil, err
	}
	if err := p.OnChange(ControlPortalColorStart, func(v Value) {
		report(ControlPortalColorStart, portal.SetColorUniform(material.UniformColorStart, state.PortalColorStart))
	}); err != nil {
		return nil, err
	}

	if err := p.AddColor(ControlPortalColorEnd,
		func() common.Color { return state.PortalColorEnd },
		func(c common.Color) { state.PortalColorEnd = c },
	); err != nil {
		return nil, err
	}
	if err := p.OnChange(ControlPortalColorEnd, func(v Value) {
		src := state.PortalColorStart
		if targets.EndColorSource == EndColorFromEnd {
			src = state.PortalColorEnd
		}
		report(ControlPortalColorEnd, portal.SetColorUniform(material.UniformColorEnd, src))
	}); err != nil {
		return nil, err
	}

	if err := p.AddNumber(ControlFireflySize, FireflySizeMin, FireflySizeMax, FireflySizeStep,
		func() float32 {
			v, err := fireflies.Float(material.UniformSize)
			report(ControlFireflySize, err)
			return v
		},
		func(v float32) { report(ControlFireflySize, fireflies.SetFloat(material.UniformSize, v)) },
	); err != nil {
		return nil, err
	}
	return p, nil
}
