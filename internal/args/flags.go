package args

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/zclconf/go-cty/cty"

	"github.com/layerkit/layerstack/internal/lserr"
)

// FlagSpec is the flag-surface description of one descriptor, produced in
// Describe mode for construction of a command line.
type FlagSpec struct {
	Name    string
	Short   string
	Help    string
	NArgs   NArgs
	Choices []string
	Default string
}

// ValueBag supplies parsed flag values by name during Use-mode extraction.
// Lookup returns an error when the bag has no attribute under that name.
type ValueBag interface {
	Lookup(name string) (any, error)
}

// MapBag is a ValueBag backed by a plain map, mainly for tests and embedding.
type MapBag map[string]any

// Lookup implements ValueBag.
func (b MapBag) Lookup(name string) (any, error) {
	v, ok := b[name]
	if !ok {
		return nil, fmt.Errorf("no attribute %q in value bag", name)
	}
	return v, nil
}

// FlagSpecs describes the positional arguments as flag specifications.
// Describe mode only.
func (l *ArgList) FlagSpecs() ([]FlagSpec, error) {
	if l.mode != Describe {
		return nil, lserr.New(lserr.KindPrecondition,
			"flag binding requires describe mode, container is in %s mode", l.mode)
	}
	specs := make([]FlagSpec, 0, len(l.list))
	for _, a := range l.list {
		specs = append(specs, flagSpec(&a.Spec, ""))
	}
	return specs, nil
}

// SetFromFlags assigns one value per argument, read by name from the bag and
// routed through the descriptor's setter. Use mode only.
func (l *ArgList) SetFromFlags(bag ValueBag) error {
	if l.mode != Use {
		return lserr.New(lserr.KindPrecondition,
			"flag extraction requires use mode, container is in %s mode", l.mode)
	}
	for _, a := range l.list {
		raw, err := bag.Lookup(a.Name())
		if err != nil {
			return lserr.Wrap(lserr.KindRuntime, err,
				"no parsed value for argument %q", a.Name())
		}
		if err := a.SetValue(raw); err != nil {
			return err
		}
	}
	return nil
}

// FlagSpecs describes the keyword arguments as flag specifications, deriving
// a unique short name for each against the shared tracker. Describe mode
// only.
func (d *KwargDict) FlagSpecs(used *ShortNames) ([]FlagSpec, error) {
	if d.mode != Describe {
		return nil, lserr.New(lserr.KindPrecondition,
			"flag binding requires describe mode, container is in %s mode", d.mode)
	}
	specs := make([]FlagSpec, 0, len(d.names))
	for _, name := range d.names {
		k := d.kw[name]
		short, err := used.Claim(name)
		if err != nil {
			return nil, err
		}
		spec := flagSpec(&k.Spec, short)
		if k.def != cty.NilVal {
			if k.def.Type() == cty.String {
				spec.Default = k.def.AsString()
			} else {
				spec.Default = formatValue(k.def)
			}
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// AddFlags wires the keyword arguments into a pflag FlagSet. Each keyword is
// registered under its long name and, since pflag shorthands are limited to
// one character, its derived short name becomes a hidden alias flag bound to
// the same storage. List-arity keywords accept repeated occurrences. The
// returned map records long name to alias, for building an alias-aware
// ValueBag after parsing. Describe mode only.
func (d *KwargDict) AddFlags(fs *pflag.FlagSet, used *ShortNames) (map[string]string, error) {
	specs, err := d.FlagSpecs(used)
	if err != nil {
		return nil, err
	}
	aliases := make(map[string]string, len(specs))
	for _, spec := range specs {
		if spec.NArgs.IsList() {
			p := new([]string)
			fs.StringSliceVar(p, spec.Name, nil, spec.Help)
			fs.StringSliceVar(p, spec.Short, nil, spec.Help)
		} else {
			p := new(string)
			fs.StringVar(p, spec.Name, spec.Default, spec.Help)
			fs.StringVar(p, spec.Short, spec.Default, spec.Help)
		}
		_ = fs.MarkHidden(spec.Short)
		aliases[spec.Name] = spec.Short
	}
	return aliases, nil
}

// SetFromFlags assigns one value per keyword, read by name from the bag and
// routed through the descriptor's setter. Use mode only.
func (d *KwargDict) SetFromFlags(bag ValueBag) error {
	if d.mode != Use {
		return lserr.New(lserr.KindPrecondition,
			"flag extraction requires use mode, container is in %s mode", d.mode)
	}
	for _, name := range d.names {
		raw, err := bag.Lookup(name)
		if err != nil {
			return lserr.Wrap(lserr.KindRuntime, err,
				"no parsed value for argument %q", name)
		}
		if err := d.kw[name].SetValue(raw); err != nil {
			return err
		}
	}
	return nil
}

// FlagSetBag adapts a parsed pflag FlagSet into a ValueBag. Flags the user
// did not change yield nil, so keyword descriptors keep their defaults. When
// a flag is unchanged but its alias was set, the alias value is used; pflag
// tracks Changed per flag even when two flags share storage.
type FlagSetBag struct {
	fs      *pflag.FlagSet
	aliases map[string]string
}

// NewFlagSetBag wraps a parsed FlagSet. aliases maps long names to their
// hidden alias flags as returned by AddFlags; nil is fine when no aliases
// were registered.
func NewFlagSetBag(fs *pflag.FlagSet, aliases map[string]string) FlagSetBag {
	return FlagSetBag{fs: fs, aliases: aliases}
}

// Lookup implements ValueBag.
func (b FlagSetBag) Lookup(name string) (any, error) {
	f := b.fs.Lookup(name)
	if f == nil {
		return nil, fmt.Errorf("flag %q is not registered", name)
	}
	if !f.Changed {
		alias, ok := b.aliases[name]
		if !ok {
			return nil, nil
		}
		af := b.fs.Lookup(alias)
		if af == nil || !af.Changed {
			return nil, nil
		}
		f = af
		name = alias
	}
	if f.Value.Type() == "stringSlice" {
		return b.fs.GetStringSlice(name)
	}
	return f.Value.String(), nil
}

// flagSpec builds the flag-surface view of one descriptor.
func flagSpec(s *Spec, short string) FlagSpec {
	choices := make([]string, 0, len(s.choices))
	for _, c := range s.choices {
		choices = append(choices, formatValue(c))
	}
	if len(choices) == 0 {
		choices = nil
	}
	spec := FlagSpec{
		Name:    s.name,
		Short:   short,
		Help:    s.description,
		NArgs:   s.nargs,
		Choices: choices,
	}
	return spec
}
