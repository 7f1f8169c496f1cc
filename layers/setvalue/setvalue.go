// Package setvalue provides a model layer operating on JSON document models:
// maps of string keys to arbitrary JSON values, loaded from and saved to
// disk. Each application sets one key.
package setvalue

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/layerkit/layerstack/internal/args"
	"github.com/layerkit/layerstack/internal/ctxlog"
	"github.com/layerkit/layerstack/internal/layer"
)

// Handler is the registry name layer directories bind to.
const Handler = "set_value"

// Module implements the layer.Module interface for this package.
type Module struct{}

// Register registers the definition with the application registry.
func (m *Module) Register(r *layer.Registry) {
	r.Register(Handler, &Definition{})
}

// Definition is the set_value layer contract.
type Definition struct{}

func (d *Definition) Name() string        { return "Set Value" }
func (d *Definition) Version() string     { return "0.1.0" }
func (d *Definition) Description() string { return "Set one key of a JSON document model." }

func (d *Definition) UUID() uuid.UUID {
	return uuid.MustParse("9c3a7f94-1f0b-4b46-9a1e-64f7d1f0a9b2")
}

// Args declares the key and the value to assign under it.
func (d *Definition) Args(model any) (*args.ArgList, error) {
	list := args.NewArgList()
	list.Append(args.NewArg("key",
		args.WithDescription("Document key to set."),
		args.WithType(cty.String)))
	list.Append(args.NewArg("value",
		args.WithDescription("Value to store under the key.")))
	return list, nil
}

func (d *Definition) Kwargs(model any) (*args.KwargDict, error) {
	return args.NewKwargDict(), nil
}

// ApplyToModel stores the value in the document and returns the document.
func (d *Definition) ApplyToModel(ctx context.Context, rc *layer.RunContext, model any, pos []cty.Value, kw map[string]cty.Value) (any, error) {
	logger := ctxlog.FromContext(ctx)

	doc, ok := model.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("set_value requires a JSON document model, got %T", model)
	}

	key := pos[0].AsString()
	value, err := valueToAny(pos[1])
	if err != nil {
		return nil, err
	}
	doc[key] = value
	logger.Info("Set document value.", "key", key)
	return doc, nil
}

// LoadModel reads a JSON document from path.
func (d *Definition) LoadModel(ctx context.Context, path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// SaveModel writes the JSON document to path.
func (d *Definition) SaveModel(ctx context.Context, model any, path string) error {
	doc, ok := model.(map[string]any)
	if !ok {
		return fmt.Errorf("set_value requires a JSON document model, got %T", model)
	}
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// CheckModel verifies the candidate model is a JSON document.
func (d *Definition) CheckModel(model any) error {
	if _, ok := model.(map[string]any); !ok {
		return fmt.Errorf("set_value requires a JSON document model, got %T", model)
	}
	return nil
}

// valueToAny converts a cty value to its plain-JSON Go shape.
func valueToAny(v cty.Value) (any, error) {
	b, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
