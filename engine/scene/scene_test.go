package scene

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-portal/common"
	"github.com/Carmen-Shannon/oxy-portal/engine/model"
	"github.com/Carmen-Shannon/oxy-portal/engine/particles"
	"github.com/Carmen-Shannon/oxy-portal/engine/renderer/material"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func portalMaterials() *material.PortalMaterials {
	return material.NewPortalMaterials(material.PortalParams{
		BakedTexture:     &common.TextureStagingData{Width: 1, Height: 1, Pixels: make([]byte, 4)},
		PoleLightColor:   material.DefaultPoleLightColor,
		PortalColorStart: common.MustParseHexColor("#000000"),
		PortalColorEnd:   common.MustParseHexColor("#ffffff"),
		PixelRatio:       1,
		FireflySize:      100,
	})
}

func meshNode(name string) *Node {
	return NewNode(name, WithMesh(&model.Mesh{Name: name}))
}

// portalFragment mirrors the loaded model: the four named meshes plus unrelated extras.
func portalFragment(extra ...*Node) *Node {
	root := NewNode("fragment", WithChildren(
		meshNode(NodeBaked),
		meshNode(NodePortalLight),
		meshNode(NodePoleLightA),
		meshNode(NodePoleLightB),
	))
	root.Add(extra...)
	return root
}

func TestFindChildren(t *testing.T) {
	first := meshNode("a")
	root := NewNode("root", WithChildren(first, meshNode("a"), NewNode("group", WithChildren(meshNode("deep")))))

	l := root.FindChildren("a", "deep", "none")
	n, ok := l.Get("a")
	require.True(t, ok)
	assert.Same(t, first, n, "first match wins")

	_, ok = l.Get("deep")
	assert.False(t, ok, "only direct children are searched")
	assert.Equal(t, []string{"deep", "none"}, l.Missing())
	assert.False(t, l.OK())

	assert.True(t, root.FindChildren("a", "group").OK())
}

func TestNodeAddReparents(t *testing.T) {
	child := meshNode("c")
	a := NewNode("a", WithChildren(child))
	b := NewNode("b")
	b.Add(child)
	assert.Empty(t, a.Children())
	assert.Same(t, b, child.Parent())
}

func TestAssemblerBindsFourNodes(t *testing.T) {
	pm := portalMaterials()
	live := NewScene()

	keep := material.NewMaterial(material.WithName("original"))
	other := NewNode("ground", WithMesh(&model.Mesh{}), WithMaterial(keep))
	untouched := meshNode("rock")
	fragment := portalFragment(other, untouched)

	a := NewAssembler(live, PortalBindings(pm))
	assert.Equal(t, StatePending, a.State())
	assert.False(t, a.Ready())

	require.NoError(t, a.Complete(fragment))
	assert.True(t, a.Ready())
	assert.Equal(t, StateAssembled, a.State())

	l := fragment.FindChildren(NodeBaked, NodePortalLight, NodePoleLightA, NodePoleLightB)
	baked, _ := l.Get(NodeBaked)
	portal, _ := l.Get(NodePortalLight)
	poleA, _ := l.Get(NodePoleLightA)
	poleB, _ := l.Get(NodePoleLightB)
	assert.Same(t, pm.Baked, baked.Material)
	assert.Same(t, pm.PortalLight, portal.Material)
	assert.Same(t, pm.PoleLight, poleA.Material)
	assert.Same(t, poleA.Material, poleB.Material, "pole lights share one material instance")

	assert.Same(t, keep, other.Material)
	assert.Nil(t, untouched.Material)

	assert.Same(t, live.Root(), fragment.Parent())
	assert.Equal(t, uint64(1), live.Version())
}

// recordingScene checks the fragment is fully bound at the moment it is inserted.
type recordingScene struct {
	Scene
	boundAtInsert []bool
}

func (s *recordingScene) Add(nodes ...*Node) {
	for _, n := range nodes {
		for _, c := range n.Children() {
			s.boundAtInsert = append(s.boundAtInsert, c.Material != nil)
		}
	}
	s.Scene.Add(nodes...)
}

func TestAssemblerBindsBeforeInsert(t *testing.T) {
	live := &recordingScene{Scene: NewScene()}
	a := NewAssembler(live, PortalBindings(portalMaterials()))

	require.NoError(t, a.Complete(portalFragment()))
	assert.Equal(t, []bool{true, true, true, true}, live.boundAtInsert)
}

func TestAssemblerMissingNodes(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	live := NewScene()
	fragment := NewNode("fragment", WithChildren(meshNode(NodeBaked), meshNode(NodePoleLightA)))

	a := NewAssembler(live, PortalBindings(portalMaterials()), WithLogger(zap.New(core)))
	err := a.Complete(fragment)

	var missing *MissingNodesError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{NodePortalLight, NodePoleLightB}, missing.Names)
	assert.Equal(t, StateFailed, a.State())
	assert.False(t, a.Ready())
	assert.Equal(t, err, a.Err())

	assert.Empty(t, live.Root().Children(), "nothing inserted on failure")
	baked, _ := fragment.FindChildren(NodeBaked).Get(NodeBaked)
	assert.Nil(t, baked.Material, "no partial binding on failure")
	assert.Equal(t, 1, logs.Len())

	assert.ErrorIs(t, a.Complete(portalFragment()), ErrNotPending)
}

func TestAssemblerFail(t *testing.T) {
	a := NewAssembler(NewScene(), nil)
	loadErr := errors.New("portal.glb: no such file")
	assert.Equal(t, loadErr, a.Fail(loadErr))
	assert.Equal(t, StateFailed, a.State())
	assert.ErrorIs(t, a.Fail(loadErr), ErrNotPending)
}

func TestAssemblerCompletesOnce(t *testing.T) {
	a := NewAssembler(NewScene(), PortalBindings(portalMaterials()))
	require.NoError(t, a.Complete(portalFragment()))
	assert.ErrorIs(t, a.Complete(portalFragment()), ErrNotPending)
}

func TestDrawables(t *testing.T) {
	s := NewScene()
	field := particles.Generate(3, particles.NewRand())
	s.Add(
		NewNode("group", WithChildren(meshNode("a"))),
		NewNode("fireflies", WithPoints(field)),
	)
	d := s.Drawables()
	require.Len(t, d, 2)
	assert.Equal(t, "a", d[0].Node.Name)
	assert.Same(t, field, d[1].Points)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "pending", StatePending.String())
	assert.Equal(t, "assembled", StateAssembled.String())
	assert.Equal(t, "failed", StateFailed.String())
}
