package args

import (
	"log/slog"

	"github.com/zclconf/go-cty/cty"

	"github.com/layerkit/layerstack/internal/lserr"
)

// KwargDict is the name-keyed container of keyword argument descriptors.
// Insertion order is preserved so the generated CLI surface is stable. It
// starts in Describe mode.
type KwargDict struct {
	mode  Mode
	names []string
	kw    map[string]*Kwarg
}

// NewKwargDict constructs an empty KwargDict in Describe mode.
func NewKwargDict() *KwargDict {
	return &KwargDict{mode: Describe, kw: make(map[string]*Kwarg)}
}

// Mode returns the container's current mode.
func (d *KwargDict) Mode() Mode { return d.mode }

// SetMode switches between Describe and Use. Always permitted; contents are
// not validated.
func (d *KwargDict) SetMode(m Mode) { d.mode = m }

// Len returns the number of descriptors.
func (d *KwargDict) Len() int { return len(d.names) }

// Has reports whether a descriptor exists under name.
func (d *KwargDict) Has(name string) bool {
	_, ok := d.kw[name]
	return ok
}

// Names returns the keys in insertion order.
func (d *KwargDict) Names() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// SetDescriptor inserts or replaces the descriptor under name, binding the
// descriptor to that key. Describe mode only; nil descriptors are rejected.
func (d *KwargDict) SetDescriptor(name string, k *Kwarg) error {
	if d.mode != Describe {
		return lserr.New(lserr.KindPrecondition,
			"descriptor assignment requires describe mode, container is in %s mode", d.mode)
	}
	if k == nil {
		return lserr.New(lserr.KindType, "KwargDicts only hold Kwarg descriptors, got nil")
	}
	k.bindName(name)
	if _, exists := d.kw[name]; !exists {
		d.names = append(d.names, name)
	}
	d.kw[name] = k
	return nil
}

// Descriptor returns the descriptor under name. Describe mode only.
func (d *KwargDict) Descriptor(name string) (*Kwarg, error) {
	if d.mode != Describe {
		return nil, lserr.New(lserr.KindPrecondition,
			"descriptor access requires describe mode, container is in %s mode", d.mode)
	}
	k, ok := d.kw[name]
	if !ok {
		return nil, lserr.New(lserr.KindRuntime, "no keyword argument named %q", name)
	}
	return k, nil
}

// Descriptors returns the descriptors in insertion order. Describe mode only.
func (d *KwargDict) Descriptors() ([]*Kwarg, error) {
	if d.mode != Describe {
		return nil, lserr.New(lserr.KindPrecondition,
			"descriptor access requires describe mode, container is in %s mode", d.mode)
	}
	out := make([]*Kwarg, 0, len(d.names))
	for _, name := range d.names {
		out = append(out, d.kw[name])
	}
	return out, nil
}

// Value returns the current value under name, falling back to the
// descriptor's default. Use mode only.
func (d *KwargDict) Value(name string) (cty.Value, error) {
	if d.mode != Use {
		return cty.NilVal, lserr.New(lserr.KindPrecondition,
			"value access requires use mode, container is in %s mode", d.mode)
	}
	k, ok := d.kw[name]
	if !ok {
		return cty.NilVal, lserr.New(lserr.KindRuntime, "no keyword argument named %q", name)
	}
	return k.Value(), nil
}

// ValueMap returns every keyword's current value. Use mode only.
func (d *KwargDict) ValueMap() (map[string]cty.Value, error) {
	if d.mode != Use {
		return nil, lserr.New(lserr.KindPrecondition,
			"value access requires use mode, container is in %s mode", d.mode)
	}
	out := make(map[string]cty.Value, len(d.names))
	for _, name := range d.names {
		out[name] = d.kw[name].Value()
	}
	return out, nil
}

// SetValue assigns raw to the descriptor under name, routing through its
// setter. Use mode only. Writing to a key that does not exist yet creates a
// default descriptor under that name first; this tolerates schema drift
// between serialized stacks and live layer contracts, so it is logged rather
// than rejected.
func (d *KwargDict) SetValue(name string, raw any) error {
	if d.mode != Use {
		return lserr.New(lserr.KindType,
			"value assignment requires use mode; in describe mode KwargDicts only accept Kwarg descriptors")
	}
	k, ok := d.kw[name]
	if !ok {
		slog.Warn("Creating default descriptor for unknown keyword argument.", "name", name)
		k = &Kwarg{def: cty.NilVal}
		k.bindName(name)
		d.names = append(d.names, name)
		d.kw[name] = k
	}
	return k.SetValue(raw)
}
