// Package pickdata demonstrates model-dependent descriptors: the arity of
// its positional argument and the default and choices of its keyword
// argument are derived from the loaded model.
package pickdata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"

	"github.com/layerkit/layerstack/internal/args"
	"github.com/layerkit/layerstack/internal/ctxlog"
	"github.com/layerkit/layerstack/internal/layer"
)

// Handler is the registry name layer directories bind to.
const Handler = "pick_data"

// Module implements the layer.Module interface for this package.
type Module struct{}

// Register registers the definition with the application registry.
func (m *Module) Register(r *layer.Registry) {
	r.Register(Handler, &Definition{})
}

// Model is the document the pick_data layer operates on.
type Model struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Data  []string `json:"data"`
}

// Definition is the pick_data layer contract.
type Definition struct{}

func (d *Definition) Name() string    { return "Pick Data" }
func (d *Definition) Version() string { return "0.1.0" }

func (d *Definition) Description() string {
	return "Append labeled entries to the model data, sized by the model count."
}

func (d *Definition) UUID() uuid.UUID {
	return uuid.MustParse("d2b8e611-4c58-4f1a-bb0a-6a38e0a5c7f3")
}

// Args declares one positional argument whose arity tracks the model count.
// Without a model the argument accepts any number of labels.
func (d *Definition) Args(model any) (*args.ArgList, error) {
	nargs := args.ZeroOrMore
	if m, ok := model.(*Model); ok && m.Count > 0 {
		nargs = args.Exactly(m.Count)
	}
	list := args.NewArgList()
	list.Append(args.NewArg("labels",
		args.WithDescription("Labels to append to the model data."),
		args.WithType(cty.String),
		args.WithNArgs(nargs)))
	return list, nil
}

// Kwargs declares the element kwarg. When the model carries data, the kwarg
// defaults to the first entry and is constrained to the known entries.
func (d *Definition) Kwargs(model any) (*args.KwargDict, error) {
	opts := []args.Option{
		args.WithDescription("Existing entry to annotate."),
		args.WithType(cty.String),
	}
	def := any("")
	if m, ok := model.(*Model); ok && len(m.Data) > 0 {
		def = m.Data[0]
		choices := make([]any, len(m.Data))
		for i, v := range m.Data {
			choices[i] = v
		}
		opts = append(opts, args.WithChoices(choices...))
	}
	element, err := args.NewKwarg(def, opts...)
	if err != nil {
		return nil, err
	}
	kw := args.NewKwargDict()
	if err := kw.SetDescriptor("element", element); err != nil {
		return nil, err
	}
	return kw, nil
}

// ApplyToModel appends the labels to the model data, tagged with the chosen
// element, and returns the model.
func (d *Definition) ApplyToModel(ctx context.Context, rc *layer.RunContext, model any, pos []cty.Value, kw map[string]cty.Value) (any, error) {
	logger := ctxlog.FromContext(ctx)

	m, ok := model.(*Model)
	if !ok {
		return nil, fmt.Errorf("pick_data requires a *pickdata.Model, got %T", model)
	}

	element := ""
	if v, ok := kw["element"]; ok && v != cty.NilVal && !v.IsNull() {
		element = v.AsString()
	}

	labels := pos[0]
	for it := labels.ElementIterator(); it.Next(); {
		_, v := it.Element()
		entry := v.AsString()
		if element != "" {
			entry = element + ":" + entry
		}
		m.Data = append(m.Data, entry)
	}
	m.Count = len(m.Data)
	logger.Info("Appended labels to model.", "name", m.Name, "count", m.Count)
	return m, nil
}

// LoadModel reads a Model from a JSON file.
func (d *Definition) LoadModel(ctx context.Context, path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveModel writes the Model to a JSON file.
func (d *Definition) SaveModel(ctx context.Context, model any, path string) error {
	m, ok := model.(*Model)
	if !ok {
		return fmt.Errorf("pick_data requires a *pickdata.Model, got %T", model)
	}
	data, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// CheckModel verifies the candidate model is a *Model.
func (d *Definition) CheckModel(model any) error {
	if _, ok := model.(*Model); !ok {
		return fmt.Errorf("pick_data requires a *pickdata.Model, got %T", model)
	}
	return nil
}
