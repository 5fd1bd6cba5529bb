package scene

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-portal/engine/renderer/material"
	"go.uber.org/zap"
)

// ErrNotPending is returned when an assembler is completed or failed twice.
var ErrNotPending = errors.New("assembler is not pending")

// Names of the four portal scene nodes that receive materials.
const (
	NodeBaked       = "baked"
	NodePortalLight = "portalLight"
	NodePoleLightA  = "poleLightA"
	NodePoleLightB  = "poleLightB"
)

// State is the assembly state of a loaded scene fragment.
type State int

const (
	// StatePending means the mesh has not finished loading.
	StatePending State = iota
	// StateAssembled means materials are bound and the fragment is in the live scene.
	StateAssembled
	// StateFailed means loading or lookup failed; the fragment was not inserted.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAssembled:
		return "assembled"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MissingNodesError reports the expected child names absent from a loaded fragment.
type MissingNodesError struct {
	Names []string
}

func (e *MissingNodesError) Error() string {
	return "missing scene nodes: " + strings.Join(e.Names, ", ")
}

// Binding assigns a material to the direct child of the fragment with the given name.
type Binding struct {
	Name     string
	Material material.Material
}

// PortalBindings returns the node-to-material bindings of the portal scene.
// Both pole lights share one material instance.
//
// Parameters:
//   - pm: the portal material set
//
// Returns:
//   - []Binding: bindings for baked, portalLight, poleLightA and poleLightB
func PortalBindings(pm *material.PortalMaterials) []Binding {
	return []Binding{
		{Name: NodeBaked, Material: pm.Baked},
		{Name: NodePortalLight, Material: pm.PortalLight},
		{Name: NodePoleLightA, Material: pm.PoleLight},
		{Name: NodePoleLightB, Material: pm.PoleLight},
	}
}

// Assembler moves a loaded fragment from pending to assembled.
//
// Completion resolves every binding by name first; if any name is absent the transition
// fails with *MissingNodesError and nothing is inserted. Otherwise materials are bound
// and only then is the fragment inserted into the live scene, so no frame ever renders
// the fragment with unbound materials.
type Assembler interface {
	// State returns the current state.
	State() State

	// Ready reports whether the fragment has been assembled into the scene.
	Ready() bool

	// Err returns the failure that moved the assembler to StateFailed, or nil.
	Err() error

	// Complete handles a finished mesh load.
	//
	// Parameters:
	//   - fragment: the loaded fragment whose direct children are looked up
	//
	// Returns:
	//   - error: *MissingNodesError, ErrNotPending, or nil
	Complete(fragment *Node) error

	// Fail records a load failure.
	//
	// Parameters:
	//   - err: the load error
	//
	// Returns:
	//   - error: ErrNotPending if the assembler already left StatePending
	Fail(err error) error
}

type assemblerImpl struct {
	target   Scene
	bindings []Binding
	log      *zap.Logger

	state State
	err   error
}

var _ Assembler = &assemblerImpl{}

// NewAssembler creates a pending assembler that inserts into target.
//
// Parameters:
//   - target: the live scene
//   - bindings: the name-to-material assignments to apply on completion
//   - options: functional options
//
// Returns:
//   - Assembler: the pending assembler
func NewAssembler(target Scene, bindings []Binding, options ...AssemblerBuilderOption) Assembler {
	a := &assemblerImpl{
		target:   target,
		bindings: bindings,
		log:      zap.NewNop(),
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

func (a *assemblerImpl) State() State {
	return a.state
}

func (a *assemblerImpl) Ready() bool {
	return a.state == StateAssembled
}

func (a *assemblerImpl) Err() error {
	return a.err
}

func (a *assemblerImpl) Complete(fragment *Node) error {
	if a.state != StatePending {
		return fmt.Errorf("%w: state is %s", ErrNotPending, a.state)
	}
	if fragment == nil {
		return a.fail(errors.New("loaded fragment is nil"))
	}

	names := make([]string, len(a.bindings))
	for i, b := range a.bindings {
		names[i] = b.Name
	}
	lookup := fragment.FindChildren(names...)
	if !lookup.OK() {
		return a.fail(&MissingNodesError{Names: lookup.Missing()})
	}

	for _, b := range a.bindings {
		n, _ := lookup.Get(b.Name)
		n.Material = b.Material
	}
	a.target.Add(fragment)
	a.state = StateAssembled
	a.log.Info("scene assembled", zap.Strings("bound", names), zap.Int("children", len(fragment.Children())))
	return nil
}

func (a *assemblerImpl) Fail(err error) error {
	if a.state != StatePending {
		return fmt.Errorf("%w: state is %s", ErrNotPending, a.state)
	}
	return a.fail(err)
}

func (a *assemblerImpl) fail(err error) error {
	a.state = StateFailed
	a.err = err
	a.log.Error("scene assembly failed", zap.Error(err))
	return err
}
