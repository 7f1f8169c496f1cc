// Package args implements the typed argument system shared by layers: value
// descriptors for positional and keyword arguments, and the dual-mode
// containers that expose them either as editable schema (Describe) or as live
// values (Use).
package args

import (
	"encoding/json"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/layerkit/layerstack/internal/lserr"
)

// Spec is the descriptor core shared by Arg and Kwarg: the argument's name,
// display text, coercion type, optional parsers, allowed choices, and arity.
type Spec struct {
	name          string
	description   string
	typ           cty.Type
	parser        *Parser
	listParser    *Parser
	saveParser    *Parser
	restoreParser *Parser
	choices       []cty.Value
	nargs         NArgs

	value    cty.Value
	hasValue bool
}

// Option configures a descriptor at construction time.
type Option func(*Spec)

// WithDescription sets the descriptor's display text.
func WithDescription(desc string) Option {
	return func(s *Spec) { s.description = desc }
}

// WithType sets the target type; assigned values are converted to it before
// any custom parser runs. Leave unset to accept values as given.
func WithType(ty cty.Type) Option {
	return func(s *Spec) { s.typ = ty }
}

// WithParser attaches a custom per-value parser.
func WithParser(p *Parser) Option {
	return func(s *Spec) { s.parser = p }
}

// WithListParser attaches a parser applied to the whole parsed list.
func WithListParser(p *Parser) Option {
	return func(s *Spec) { s.listParser = p }
}

// WithSaveParser attaches the serialization parser and its optional inverse,
// used when values round-trip through a stack document.
func WithSaveParser(save, restore *Parser) Option {
	return func(s *Spec) {
		s.saveParser = save
		s.restoreParser = restore
	}
}

// WithChoices restricts assignable values to the given closed set. Values are
// lifted through the cty value system; invalid choice values panic since they
// indicate a broken layer contract.
func WithChoices(choices ...any) Option {
	return func(s *Spec) {
		vals := make([]cty.Value, 0, len(choices))
		for _, c := range choices {
			v, err := toCty(c)
			if err != nil {
				panic("args: invalid choice value: " + err.Error())
			}
			vals = append(vals, v)
		}
		s.choices = vals
	}
}

// WithNArgs sets the descriptor's arity.
func WithNArgs(na NArgs) Option {
	return func(s *Spec) { s.nargs = na }
}

// Name returns the descriptor's name.
func (s *Spec) Name() string { return s.name }

// Description returns the descriptor's display text.
func (s *Spec) Description() string { return s.description }

// NArgs returns the descriptor's arity.
func (s *Spec) NArgs() NArgs { return s.nargs }

// IsList reports whether the descriptor only admits list values.
func (s *Spec) IsList() bool { return s.nargs.IsList() }

// Choices returns the allowed value set, or nil when open.
func (s *Spec) Choices() []cty.Value { return s.choices }

// Type returns the coercion type, cty.NilType when unset.
func (s *Spec) Type() cty.Type { return s.typ }

// ParserRepr returns the debug string recorded for the parser in stack
// documents: the custom parser's name, or the coercion type's friendly name.
func (s *Spec) ParserRepr() string {
	if s.parser != nil {
		return s.parser.Repr()
	}
	if s.typ != cty.NilType {
		return s.typ.FriendlyName()
	}
	return ""
}

// ListParserRepr returns the debug string recorded for the list parser.
func (s *Spec) ListParserRepr() string { return s.listParser.Repr() }

// parseScalar coerces and parses a single value.
func (s *Spec) parseScalar(v cty.Value) (cty.Value, error) {
	if s.typ != cty.NilType {
		conv, err := convert.Convert(v, s.typ)
		if err != nil {
			return cty.NilVal, lserr.Wrap(lserr.KindValidation, err,
				"argument %q: cannot convert %s to %s", s.name, formatValue(v), s.typ.FriendlyName())
		}
		v = conv
	}
	parsed, err := s.parser.Apply(v)
	if err != nil {
		return cty.NilVal, lserr.Wrap(lserr.KindValidation, err,
			"argument %q: parser rejected %s", s.name, formatValue(v))
	}
	return parsed, nil
}

// checkChoice verifies membership in the allowed set.
func (s *Spec) checkChoice(v cty.Value) error {
	if s.choices == nil {
		return nil
	}
	for _, c := range s.choices {
		if v.RawEquals(c) {
			return nil
		}
	}
	return lserr.New(lserr.KindValidation,
		"argument %q: value %s is not one of the allowed choices %s",
		s.name, formatValue(v), formatValues(s.choices))
}

// setValue parses, validates, and stores raw as the current value.
func (s *Spec) setValue(raw any) error {
	v, err := toCty(raw)
	if err != nil {
		return lserr.Wrap(lserr.KindValidation, err,
			"argument %q: cannot interpret value", s.name)
	}

	if s.nargs.IsList() {
		if !isIterable(v) {
			return lserr.New(lserr.KindValidation,
				"argument %q expects a list of values (nargs %q), got %s",
				s.name, s.nargs.String(), formatValue(v))
		}
		elems := v.AsValueSlice()
		if n, fixed := s.nargs.Count(); fixed && len(elems) != n {
			return lserr.New(lserr.KindValidation,
				"argument %q expects exactly %d values, got %d", s.name, n, len(elems))
		}
		parsed := make([]cty.Value, 0, len(elems))
		for _, e := range elems {
			pe, err := s.parseScalar(e)
			if err != nil {
				return err
			}
			if err := s.checkChoice(pe); err != nil {
				return err
			}
			parsed = append(parsed, pe)
		}
		list := cty.EmptyTupleVal
		if len(parsed) > 0 {
			list = cty.TupleVal(parsed)
		}
		list, err = s.listParser.Apply(list)
		if err != nil {
			return lserr.Wrap(lserr.KindValidation, err,
				"argument %q: list parser rejected %s", s.name, formatValue(list))
		}
		s.value = list
		s.hasValue = true
		return nil
	}

	parsed, err := s.parseScalar(v)
	if err != nil {
		return err
	}
	if err := s.checkChoice(parsed); err != nil {
		return err
	}
	s.value = parsed
	s.hasValue = true
	return nil
}

// saveValue applies the save parser and renders v as a JSON fragment.
func (s *Spec) saveValue(v cty.Value) (json.RawMessage, error) {
	if v == cty.NilVal {
		return json.RawMessage("null"), nil
	}
	v, err := s.saveParser.Apply(v)
	if err != nil {
		return nil, lserr.Wrap(lserr.KindValidation, err,
			"argument %q: save parser failed", s.name)
	}
	b, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return nil, lserr.Wrap(lserr.KindValidation, err,
			"argument %q: value %s is not serializable", s.name, formatValue(v))
	}
	return json.RawMessage(b), nil
}

// ChoicesToSave renders the choices as a JSON fragment, null when open.
func (s *Spec) ChoicesToSave() (json.RawMessage, error) {
	if s.choices == nil {
		return json.RawMessage("null"), nil
	}
	list := cty.EmptyTupleVal
	if len(s.choices) > 0 {
		list = cty.TupleVal(s.choices)
	}
	b, err := ctyjson.Marshal(list, list.Type())
	if err != nil {
		return nil, lserr.Wrap(lserr.KindValidation, err,
			"argument %q: choices are not serializable", s.name)
	}
	return json.RawMessage(b), nil
}

// setSerialized decodes a JSON fragment from a stack document, applies the
// restore parser, and routes the result through the normal setter. A JSON
// null leaves the descriptor untouched.
func (s *Spec) setSerialized(raw json.RawMessage) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	ty, err := ctyjson.ImpliedType(raw)
	if err != nil {
		return lserr.Wrap(lserr.KindValidation, err,
			"argument %q: cannot decode serialized value", s.name)
	}
	v, err := ctyjson.Unmarshal(raw, ty)
	if err != nil {
		return lserr.Wrap(lserr.KindValidation, err,
			"argument %q: cannot decode serialized value", s.name)
	}
	v, err = s.restoreParser.Apply(v)
	if err != nil {
		return lserr.Wrap(lserr.KindValidation, err,
			"argument %q: restore parser failed", s.name)
	}
	return s.setValue(v)
}

// Arg is a required positional argument. It has no default; whether a value
// has been explicitly assigned is tracked separately from the value itself.
type Arg struct {
	Spec
}

// NewArg constructs a positional argument descriptor.
func NewArg(name string, opts ...Option) *Arg {
	a := &Arg{Spec: Spec{name: name}}
	for _, opt := range opts {
		opt(&a.Spec)
	}
	return a
}

// Set reports whether a value has been explicitly assigned.
func (a *Arg) Set() bool { return a.hasValue }

// Value returns the assigned value. Reading before any assignment is a
// precondition error, distinct from a keyword descriptor's default fallback.
func (a *Arg) Value() (cty.Value, error) {
	if !a.hasValue {
		return cty.NilVal, lserr.New(lserr.KindPrecondition,
			"argument %q has no value set", a.name)
	}
	return a.value, nil
}

// SetValue parses, validates, and stores raw as the current value.
func (a *Arg) SetValue(raw any) error { return a.setValue(raw) }

// SetSerialized applies a value previously written to a stack document.
func (a *Arg) SetSerialized(raw json.RawMessage) error { return a.setSerialized(raw) }

// ValueToSave renders the current value for a stack document, null when
// unset.
func (a *Arg) ValueToSave() (json.RawMessage, error) {
	if !a.hasValue {
		return json.RawMessage("null"), nil
	}
	return a.saveValue(a.value)
}

// Kwarg is an optional keyword argument with a default. Its name is bound
// when it is inserted into a KwargDict.
type Kwarg struct {
	Spec
	def cty.Value
}

// NewKwarg constructs a keyword argument descriptor. A non-nil default is
// immediately parsed and validated; nil means "no default chosen yet" and
// bypasses validation.
func NewKwarg(def any, opts ...Option) (*Kwarg, error) {
	k := &Kwarg{}
	for _, opt := range opts {
		opt(&k.Spec)
	}
	if def != nil {
		if err := k.setValue(def); err != nil {
			return nil, err
		}
		k.def = k.value
		k.value = cty.NilVal
		k.hasValue = false
	} else {
		k.def = cty.NilVal
	}
	return k, nil
}

// MustKwarg is NewKwarg for statically known-good defaults; it panics on
// validation failure.
func MustKwarg(def any, opts ...Option) *Kwarg {
	k, err := NewKwarg(def, opts...)
	if err != nil {
		panic(err)
	}
	return k
}

// bindName attaches the container key as the descriptor name.
func (k *Kwarg) bindName(name string) { k.name = name }

// Defaulted reports whether no explicit value has ever been assigned.
func (k *Kwarg) Defaulted() bool { return !k.hasValue }

// Default returns the default value, cty.NilVal when none was chosen.
func (k *Kwarg) Default() cty.Value { return k.def }

// Value returns the explicitly assigned value, falling back to the default.
func (k *Kwarg) Value() cty.Value {
	if k.hasValue {
		return k.value
	}
	return k.def
}

// SetValue parses, validates, and stores raw. Assigning nil clears any
// explicit value and reverts to the default; doing so when already defaulted
// is a no-op.
func (k *Kwarg) SetValue(raw any) error {
	v, err := toCty(raw)
	if err != nil {
		return lserr.Wrap(lserr.KindValidation, err,
			"argument %q: cannot interpret value", k.name)
	}
	if v == cty.NilVal {
		k.value = cty.NilVal
		k.hasValue = false
		return nil
	}
	return k.setValue(v)
}

// SetSerialized applies a value previously written to a stack document.
func (k *Kwarg) SetSerialized(raw json.RawMessage) error { return k.setSerialized(raw) }

// ValueToSave renders the explicitly assigned value for a stack document,
// null when defaulted.
func (k *Kwarg) ValueToSave() (json.RawMessage, error) {
	if !k.hasValue {
		return json.RawMessage("null"), nil
	}
	return k.saveValue(k.value)
}

// DefaultToSave renders the default for a stack document, null when none.
func (k *Kwarg) DefaultToSave() (json.RawMessage, error) {
	if k.def == cty.NilVal {
		return json.RawMessage("null"), nil
	}
	return k.saveValue(k.def)
}
