// Package echo provides the simplest built-in layer: it logs the values it
// is given and returns them. Useful for smoke-testing stack plumbing.
package echo

import (
	"context"

	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"

	"github.com/layerkit/layerstack/internal/args"
	"github.com/layerkit/layerstack/internal/ctxlog"
	"github.com/layerkit/layerstack/internal/layer"
)

// Handler is the registry name layer directories bind to.
const Handler = "echo"

// Module implements the layer.Module interface for this package.
type Module struct{}

// Register registers the definition with the application registry.
func (m *Module) Register(r *layer.Registry) {
	r.Register(Handler, &Definition{})
}

// Definition is the echo layer contract.
type Definition struct{}

func (d *Definition) Name() string        { return "Echo" }
func (d *Definition) Version() string     { return "0.1.0" }
func (d *Definition) Description() string { return "Log the given values and pass them through." }

func (d *Definition) UUID() uuid.UUID {
	return uuid.MustParse("5f5cf4a2-3e9a-4a6c-8c7e-2f4fb1c24a0d")
}

// Args declares one list-valued positional argument.
func (d *Definition) Args(model any) (*args.ArgList, error) {
	list := args.NewArgList()
	list.Append(args.NewArg("values",
		args.WithDescription("Values to echo."),
		args.WithType(cty.String),
		args.WithNArgs(args.OneOrMore)))
	return list, nil
}

// Kwargs declares an optional log prefix.
func (d *Definition) Kwargs(model any) (*args.KwargDict, error) {
	dict := args.NewKwargDict()
	prefix, err := args.NewKwarg("",
		args.WithDescription("Prefix prepended to every echoed value."),
		args.WithType(cty.String))
	if err != nil {
		return nil, err
	}
	if err := dict.SetDescriptor("prefix", prefix); err != nil {
		return nil, err
	}
	return dict, nil
}

// Apply logs each value and returns the echoed slice.
func (d *Definition) Apply(ctx context.Context, rc *layer.RunContext, pos []cty.Value, kw map[string]cty.Value) (any, error) {
	logger := ctxlog.FromContext(ctx)

	prefix := ""
	if p, ok := kw["prefix"]; ok && p != cty.NilVal && !p.IsNull() {
		prefix = p.AsString()
	}

	var out []string
	for _, v := range pos[0].AsValueSlice() {
		s := prefix + v.AsString()
		logger.Info("echo", "value", s)
		out = append(out, s)
	}
	return out, nil
}
