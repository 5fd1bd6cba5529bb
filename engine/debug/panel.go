// Package debug holds the live-tweakable scene state and the control panel that edits it.
package debug

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-portal/common"
	"go.uber.org/zap"
)

// ErrUnknownControl is returned when a control name is not registered on the panel.
var ErrUnknownControl = errors.New("unknown control")

// ErrInvalidValue is returned when a value has the wrong type for its control.
var ErrInvalidValue = errors.New("invalid control value")

// State is the single source of truth for the colours the panel edits.
type State struct {
	ClearColor       common.Color
	PortalColorStart common.Color
	PortalColorEnd   common.Color
}

// ControlKind distinguishes colour pickers from numeric sliders.
type ControlKind string

const (
	// KindColor controls take "#rrggbb" or "#rgb" strings.
	KindColor ControlKind = "color"
	// KindNumber controls take numbers, clamped to [Min, Max] and rounded to Step.
	KindNumber ControlKind = "number"
)

// Value carries a control's new value to its change handlers.
// Color is set for KindColor controls, Number for KindNumber controls.
type Value struct {
	Color  common.Color
	Number float32
}

// ChangeHandler is called synchronously after a control's target has been written.
type ChangeHandler func(v Value)

// ControlSnapshot describes one control and its current value.
type ControlSnapshot struct {
	Name  string      `json:"name"`
	Kind  ControlKind `json:"kind"`
	Value any         `json:"value"`
	Min   float32     `json:"min,omitempty"`
	Max   float32     `json:"max,omitempty"`
	Step  float32     `json:"step,omitempty"`
}

type control struct {
	name string
	kind ControlKind

	getColor func() common.Color
	setColor func(common.Color)

	getNumber      func() float32
	setNumber      func(float32)
	min, max, step float32

	handlers []ChangeHandler
}

// panel is the implementation of the Panel interface.
type panel struct {
	mu       sync.Mutex
	log      *zap.Logger
	controls []*control
}

// Panel is a set of named controls bound to targets. Setting a control validates the
// value, writes the target, then runs the control's change handlers in registration order.
// Invalid values leave the target untouched.
type Panel interface {
	// AddColor registers a colour control.
	//
	// Parameters:
	//   - name: the control name
	//   - get: reads the current target value
	//   - set: writes the target
	//
	// Returns:
	//   - error: error if the name is already registered
	AddColor(name string, get func() common.Color, set func(common.Color)) error

	// AddNumber registers a numeric control.
	//
	// Parameters:
	//   - name: the control name
	//   - min, max: the inclusive range
	//   - step: the rounding step; 0 disables rounding
	//   - get: reads the current target value
	//   - set: writes the target
	//
	// Returns:
	//   - error: error if the name is already registered or min > max
	AddNumber(name string, min, max, step float32, get func() float32, set func(float32)) error

	// OnChange appends a handler to a control.
	//
	// Parameters:
	//   - name: the control name
	//   - h: the handler
	//
	// Returns:
	//   - error: ErrUnknownControl if the name is not registered
	OnChange(name string, h ChangeHandler) error

	// SetColor parses a hex colour and applies it to a colour control.
	//
	// Returns:
	//   - error: ErrUnknownControl, ErrInvalidValue, or common.ErrInvalidColor
	SetColor(name, hex string) error

	// SetNumber clamps and rounds v and applies it to a numeric control.
	//
	// Returns:
	//   - error: ErrUnknownControl or ErrInvalidValue
	SetNumber(name string, v float64) error

	// Set applies a decoded JSON value: a string for colour controls, a number for numeric ones.
	//
	// Returns:
	//   - error: ErrUnknownControl, ErrInvalidValue, or common.ErrInvalidColor
	Set(name string, value any) error

	// Snapshot returns every control with its current value, in registration order.
	Snapshot() []ControlSnapshot
}

var _ Panel = &panel{}

// NewPanel creates an empty panel.
//
// Parameters:
//   - log: the logger; nil disables logging
//
// Returns:
//   - Panel: the panel
func NewPanel(log *zap.Logger) Panel {
	if log == nil {
		log = zap.NewNop()
	}
	return &panel{log: log.Named("debug")}
}

func (p *panel) AddColor(name string, get func() common.Color, set func(common.Color)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.find(name) != nil {
		return fmt.Errorf("control %q already registered", name)
	}
	p.controls = append(p.controls, &control{name: name, kind: KindColor, getColor: get, setColor: set})
	return nil
}

func (p *panel) AddNumber(name string, min, max, step float32, get func() float32, set func(float32)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.find(name) != nil {
		return fmt.Errorf("control %q already registered", name)
	}
	if min > max {
		return fmt.Errorf("control %q: min %v > max %v", name, min, max)
	}
	p.controls = append(p.controls, &control{
		name: name, kind: KindNumber,
		getNumber: get, setNumber: set,
		min: min, max: max, step: step,
	})
	return nil
}

func (p *panel) OnChange(name string, h ChangeHandler) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := p.find(name)
	if c == nil {
		return fmt.Errorf("%w: %q", ErrUnknownControl, name)
	}
	c.handlers = append(c.handlers, h)
	return nil
}

func (p *panel) SetColor(name, hex string) error {
	c, err := p.lookup(name, KindColor)
	if err != nil {
		return err
	}
	color, err := common.ParseHexColor(hex)
	if err != nil {
		return fmt.Errorf("control %q: %w", name, err)
	}
	c.setColor(color)
	p.log.Debug("control changed", zap.String("control", name), zap.String("value", color.Hex()))
	p.notify(c, Value{Color: color})
	return nil
}

func (p *panel) SetNumber(name string, v float64) error {
	c, err := p.lookup(name, KindNumber)
	if err != nil {
		return err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: control %q got %v", ErrInvalidValue, name, v)
	}
	n := quantize(float32(v), c.min, c.max, c.step)
	c.setNumber(n)
	p.log.Debug("control changed", zap.String("control", name), zap.Float32("value", n))
	p.notify(c, Value{Number: n})
	return nil
}

func (p *panel) Set(name string, value any) error {
	switch v := value.(type) {
	case string:
		return p.SetColor(name, v)
	case float64:
		return p.SetNumber(name, v)
	case float32:
		return p.SetNumber(name, float64(v))
	case int:
		return p.SetNumber(name, float64(v))
	default:
		if _, err := p.lookup(name, ""); err != nil {
			return err
		}
		return fmt.Errorf("%w: control %q got %T", ErrInvalidValue, name, value)
	}
}

func (p *panel) Snapshot() []ControlSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ControlSnapshot, 0, len(p.controls))
	for _, c := range p.controls {
		s := ControlSnapshot{Name: c.name, Kind: c.kind}
		if c.kind == KindColor {
			s.Value = c.getColor().Hex()
		} else {
			s.Value = c.getNumber()
			s.Min, s.Max, s.Step = c.min, c.max, c.step
		}
		out = append(out, s)
	}
	return out
}

// lookup finds a control and checks its kind; an empty kind accepts either.
func (p *panel) lookup(name string, kind ControlKind) (*control, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := p.find(name)
	if c == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownControl, name)
	}
	if kind != "" && c.kind != kind {
		return nil, fmt.Errorf("%w: control %q is a %s control", ErrInvalidValue, name, c.kind)
	}
	return c, nil
}

func (p *panel) find(name string) *control {
	idx := slices.IndexFunc(p.controls, func(c *control) bool { return c.name == name })
	if idx < 0 {
		return nil
	}
	return p.controls[idx]
}

func (p *panel) notify(c *control, v Value) {
	p.mu.Lock()
	handlers := slices.Clone(c.handlers)
	p.mu.Unlock()
	for _, h := range handlers {
		h(v)
	}
}

// quantize clamps v to [min, max] and snaps it to the nearest step above min.
func quantize(v, min, max, step float32) float32 {
	v = common.Clamp(v, min, max)
	if step > 0 {
		v = min + float32(math.Round(float64((v-min)/step)))*step
		v = common.Clamp(v, min, max)
	}
	return v
}
