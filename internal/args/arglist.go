package args

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/layerkit/layerstack/internal/lserr"
)

// ArgList is the ordered container of positional argument descriptors. It
// starts in Describe mode. All accessors branch on the current mode;
// switching modes never mutates stored values.
type ArgList struct {
	mode Mode
	list []*Arg
}

// NewArgList constructs an ArgList in Describe mode.
func NewArgList(argz ...*Arg) *ArgList {
	return &ArgList{mode: Describe, list: argz}
}

// Mode returns the container's current mode.
func (l *ArgList) Mode() Mode { return l.mode }

// SetMode switches between Describe and Use. Always permitted; contents are
// not validated.
func (l *ArgList) SetMode(m Mode) { l.mode = m }

// Len returns the number of descriptors.
func (l *ArgList) Len() int { return len(l.list) }

// Append adds a descriptor to the end of the list.
func (l *ArgList) Append(a *Arg) { l.list = append(l.list, a) }

// Descriptor returns the descriptor at position i. Describe mode only.
func (l *ArgList) Descriptor(i int) (*Arg, error) {
	if l.mode != Describe {
		return nil, lserr.New(lserr.KindPrecondition,
			"descriptor access requires describe mode, container is in %s mode", l.mode)
	}
	if i < 0 || i >= len(l.list) {
		return nil, lserr.New(lserr.KindRuntime, "argument index %d out of range [0,%d)", i, len(l.list))
	}
	return l.list[i], nil
}

// Descriptors returns the descriptors in container order. Describe mode only.
func (l *ArgList) Descriptors() ([]*Arg, error) {
	if l.mode != Describe {
		return nil, lserr.New(lserr.KindPrecondition,
			"descriptor access requires describe mode, container is in %s mode", l.mode)
	}
	return l.list, nil
}

// SetDescriptor replaces the descriptor at position i. Describe mode only;
// nil descriptors are rejected.
func (l *ArgList) SetDescriptor(i int, a *Arg) error {
	if l.mode != Describe {
		return lserr.New(lserr.KindPrecondition,
			"descriptor assignment requires describe mode, container is in %s mode", l.mode)
	}
	if a == nil {
		return lserr.New(lserr.KindType, "ArgLists only hold Arg descriptors, got nil")
	}
	if i < 0 || i >= len(l.list) {
		return lserr.New(lserr.KindRuntime, "argument index %d out of range [0,%d)", i, len(l.list))
	}
	l.list[i] = a
	return nil
}

// Value returns the current value at position i. Use mode only.
func (l *ArgList) Value(i int) (cty.Value, error) {
	if l.mode != Use {
		return cty.NilVal, lserr.New(lserr.KindPrecondition,
			"value access requires use mode, container is in %s mode", l.mode)
	}
	if i < 0 || i >= len(l.list) {
		return cty.NilVal, lserr.New(lserr.KindRuntime, "argument index %d out of range [0,%d)", i, len(l.list))
	}
	return l.list[i].Value()
}

// Values returns every argument's current value in order. Use mode only;
// fails if any argument is still unset.
func (l *ArgList) Values() ([]cty.Value, error) {
	if l.mode != Use {
		return nil, lserr.New(lserr.KindPrecondition,
			"value access requires use mode, container is in %s mode", l.mode)
	}
	out := make([]cty.Value, 0, len(l.list))
	for _, a := range l.list {
		v, err := a.Value()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// SetValue assigns raw to the argument at position i, routing through the
// descriptor's setter. Use mode only.
func (l *ArgList) SetValue(i int, raw any) error {
	if l.mode != Use {
		return lserr.New(lserr.KindType,
			"value assignment requires use mode; in describe mode ArgLists only accept Arg descriptors")
	}
	if i < 0 || i >= len(l.list) {
		return lserr.New(lserr.KindRuntime, "argument index %d out of range [0,%d)", i, len(l.list))
	}
	return l.list[i].SetValue(raw)
}

// Set reports whether every argument has been explicitly assigned a value.
func (l *ArgList) Set() bool {
	for _, a := range l.list {
		if !a.Set() {
			return false
		}
	}
	return true
}

// Names returns the argument names in container order.
func (l *ArgList) Names() []string {
	names := make([]string, 0, len(l.list))
	for _, a := range l.list {
		names = append(names, a.Name())
	}
	return names
}
