package args

import (
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Parser is a named value transformation applied during assignment. The name
// is recorded in serialized stack documents for debugging only; it is never
// used to reconstruct the function.
type Parser struct {
	Name string
	Func func(cty.Value) (cty.Value, error)
}

// Apply runs the parser, tolerating a nil receiver.
func (p *Parser) Apply(v cty.Value) (cty.Value, error) {
	if p == nil || p.Func == nil {
		return v, nil
	}
	return p.Func(v)
}

// Repr returns the debug representation recorded in stack documents.
func (p *Parser) Repr() string {
	if p == nil {
		return ""
	}
	return p.Name
}

// toCty lifts an arbitrary Go value into the cty value system. cty.Value
// inputs pass through untouched; nil maps to cty.NilVal, the "no value"
// sentinel.
func toCty(raw any) (cty.Value, error) {
	switch v := raw.(type) {
	case nil:
		return cty.NilVal, nil
	case cty.Value:
		return v, nil
	}
	ty, err := gocty.ImpliedType(raw)
	if err != nil {
		return cty.NilVal, err
	}
	return gocty.ToCtyValue(raw, ty)
}

// isIterable reports whether v is a sequence cty value.
func isIterable(v cty.Value) bool {
	if v == cty.NilVal || v.IsNull() {
		return false
	}
	ty := v.Type()
	return ty.IsListType() || ty.IsTupleType() || ty.IsSetType()
}

// formatValue renders a cty value for error and log messages.
func formatValue(v cty.Value) string {
	if v == cty.NilVal {
		return "<unset>"
	}
	if b, err := ctyjson.Marshal(v, v.Type()); err == nil {
		return string(b)
	}
	return v.GoString()
}

// formatValues renders a slice of cty values for error messages.
func formatValues(vals []cty.Value) string {
	out := "["
	for i, v := range vals {
		if i > 0 {
			out += ", "
		}
		out += formatValue(v)
	}
	return out + "]"
}
