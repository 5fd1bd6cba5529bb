package debug

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-portal/common"
	"github.com/Carmen-Shannon/oxy-portal/engine/renderer/material"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeClear struct {
	colors []common.Color
}

func (f *fakeClear) SetClearColor(c common.Color) {
	f.colors = append(f.colors, c)
}

func newPortalFixture(t *testing.T, endSource string) (*State, *material.PortalMaterials, *fakeClear, Panel) {
	t.Helper()
	state := &State{
		ClearColor:       common.MustParseHexColor("#5f4545"),
		PortalColorStart: common.MustParseHexColor("#000000"),
		PortalColorEnd:   common.MustParseHexColor("#ffffff"),
	}
	pm := material.NewPortalMaterials(material.PortalParams{
		PoleLightColor:   material.DefaultPoleLightColor,
		PortalColorStart: state.PortalColorStart,
		PortalColorEnd:   state.PortalColorEnd,
		PixelRatio:       1,
		FireflySize:      100,
	})
	cc := &fakeClear{}
	p, err := NewPortalPanel(state, PortalTargets{Renderer: cc, Materials: pm, EndColorSource: endSource}, nil)
	require.NoError(t, err)
	return state, pm, cc, p
}

func TestPortalPanelColorControls(t *testing.T) {
	state, pm, cc, p := newPortalFixture(t, EndColorFromStart)

	require.NoError(t, p.SetColor(ControlClearColor, "#112233"))
	assert.Equal(t, "#112233", state.ClearColor.Hex())
	require.Len(t, cc.colors, 1)
	assert.Equal(t, "#112233", cc.colors[0].Hex())

	require.NoError(t, p.SetColor(ControlPortalColorStart, "#abc"))
	assert.Equal(t, "#aabbcc", state.PortalColorStart.Hex())
	start, err := pm.PortalLight.ColorUniform(material.UniformColorStart)
	require.NoError(t, err)
	assert.Equal(t, "#aabbcc", start.Hex())
}

func TestPortalPanelEndColorSource(t *testing.T) {
	t.Run("start", func(t *testing.T) {
		state, pm, _, p := newPortalFixture(t, EndColorFromStart)
		require.NoError(t, p.SetColor(ControlPortalColorStart, "#112233"))
		require.NoError(t, p.SetColor(ControlPortalColorEnd, "#ff0000"))

		assert.Equal(t, "#ff0000", state.PortalColorEnd.Hex())
		end, err := pm.PortalLight.ColorUniform(material.UniformColorEnd)
		require.NoError(t, err)
		assert.Equal(t, "#112233", end.Hex())
	})

	t.Run("end", func(t *testing.T) {
		_, pm, _, p := newPortalFixture(t, EndColorFromEnd)
		require.NoError(t, p.SetColor(ControlPortalColorStart, "#112233"))
		require.NoError(t, p.SetColor(ControlPortalColorEnd, "#ff0000"))

		end, err := pm.PortalLight.ColorUniform(material.UniformColorEnd)
		require.NoError(t, err)
		assert.Equal(t, "#ff0000", end.Hex())
	})
}

func TestPortalPanelInvalidColorLeavesState(t *testing.T) {
	state, pm, cc, p := newPortalFixture(t, EndColorFromStart)
	before := *state
	version := pm.PortalLight.Version()

	err := p.SetColor(ControlPortalColorStart, "#12345")
	assert.ErrorIs(t, err, common.ErrInvalidColor)
	err = p.SetColor(ControlClearColor, "blue")
	assert.ErrorIs(t, err, common.ErrInvalidColor)

	assert.Equal(t, before, *state)
	assert.Equal(t, version, pm.PortalLight.Version())
	assert.Empty(t, cc.colors)
}

func TestPortalPanelFireflySize(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float32
	}{
		{"in range", 250, 250},
		{"rounds to step", 42.6, 43},
		{"clamps high", 500, 400},
		{"clamps low", 0, 1},
		{"clamps negative", -20, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, pm, _, p := newPortalFixture(t, EndColorFromStart)
			require.NoError(t, p.SetNumber(ControlFireflySize, tt.in))
			got, err := pm.Fireflies.Float(material.UniformSize)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPanelErrors(t *testing.T) {
	_, _, _, p := newPortalFixture(t, EndColorFromStart)

	assert.ErrorIs(t, p.SetColor("nope", "#ffffff"), ErrUnknownControl)
	assert.ErrorIs(t, p.Set("nope", 1.0), ErrUnknownControl)
	assert.ErrorIs(t, p.OnChange("nope", func(Value) {}), ErrUnknownControl)
	assert.ErrorIs(t, p.SetNumber(ControlClearColor, 3), ErrInvalidValue)
	assert.ErrorIs(t, p.Set(ControlFireflySize, true), ErrInvalidValue)
	assert.Error(t, p.AddColor(ControlClearColor, nil, nil))
}

func TestPanelHandlersRunInOrder(t *testing.T) {
	p := NewPanel(nil)
	var target float32
	var calls []string
	require.NoError(t, p.AddNumber("n", 0, 10, 0.5, func() float32 { return target }, func(v float32) { target = v }))
	require.NoError(t, p.OnChange("n", func(v Value) { calls = append(calls, "first") }))
	require.NoError(t, p.OnChange("n", func(v Value) {
		// target is already written when handlers run
		assert.Equal(t, target, v.Number)
		calls = append(calls, "second")
	}))

	require.NoError(t, p.Set("n", 3.3))
	assert.Equal(t, float32(3.5), target)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestPanelSnapshot(t *testing.T) {
	_, _, _, p := newPortalFixture(t, EndColorFromStart)
	snap := p.Snapshot()
	require.Len(t, snap, 4)

	assert.Equal(t, ControlSnapshot{Name: ControlClearColor, Kind: KindColor, Value: "#5f4545"}, snap[0])
	assert.Equal(t, ControlPortalColorStart, snap[1].Name)
	assert.Equal(t, ControlPortalColorEnd, snap[2].Name)
	assert.Equal(t, ControlSnapshot{Name: ControlFireflySize, Kind: KindNumber, Value: float32(100), Min: 1, Max: 400, Step: 1}, snap[3])
}

func TestPortalPanelLogsRejectedUniformWrites(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	state := &State{PortalColorStart: common.MustParseHexColor("#000000")}
	// basic materials have no uniform slots, so every write is rejected
	pm := &material.PortalMaterials{
		Baked:       material.NewMaterial(),
		PoleLight:   material.NewMaterial(),
		PortalLight: material.NewMaterial(material.WithName("portalLight")),
		Fireflies:   material.NewMaterial(material.WithName("fireflies")),
	}
	p, err := NewPortalPanel(state, PortalTargets{Materials: pm}, zap.New(core))
	require.NoError(t, err)

	require.NoError(t, p.SetColor(ControlPortalColorStart, "#ff0000"))
	assert.Equal(t, "#ff0000", state.PortalColorStart.Hex())
	require.NoError(t, p.SetNumber(ControlFireflySize, 50))

	rejected := logs.FilterMessage("control change not applied").All()
	require.NotEmpty(t, rejected)
	assert.Equal(t, ControlPortalColorStart, rejected[0].ContextMap()["control"])
	for _, entry := range rejected {
		assert.Equal(t, "debug", entry.LoggerName)
	}
	assert.NotZero(t, logs.FilterField(zap.String("control", ControlFireflySize)).Len())
}
