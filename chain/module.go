package chain

import (
	"errors"
	"fmt"
)

// ErrUnknownParam is returned when SetParam or Param names a parameter
// the module does not expose.
var ErrUnknownParam = errors.New("unknown parameter")

// Module is the per-node contract of the chain. Implementations clamp
// out-of-range SetParam values into the documented range rather than
// rejecting them, and gate redundant writes so repeated identical
// values do not retrigger smoothing. Close releases resources and is
// idempotent; a closed module passes audio through unchanged.
type Module interface {
	ID() string
	Type() string

	Enabled() bool
	SetEnabled(on bool)

	SetParam(name string, value float64) error
	Param(name string) (float64, error)

	ProcessBlock(left, right []float64)
	Reset()
	Close() error
}

// moduleBase carries the identity and lifecycle state shared by all
// built-in modules.
type moduleBase struct {
	id      string
	typ     string
	enabled bool
	closed  bool
}

func newModuleBase(id, typ string) moduleBase {
	return moduleBase{id: id, typ: typ, enabled: true}
}

func (m *moduleBase) ID() string         { return m.id }
func (m *moduleBase) Type() string       { return m.typ }
func (m *moduleBase) Enabled() bool      { return m.enabled && !m.closed }
func (m *moduleBase) SetEnabled(on bool) { m.enabled = on }

func (m *moduleBase) Close() error {
	m.closed = true
	return nil
}

func (m *moduleBase) unknownParam(name string) error {
	return fmt.Errorf("%w: %s/%s %q", ErrUnknownParam, m.typ, m.id, name)
}
