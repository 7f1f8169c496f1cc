package stack

import (
	"context"
	"encoding/json"
	"os"

	"github.com/google/uuid"

	"github.com/layerkit/layerstack/internal/ctxlog"
	"github.com/layerkit/layerstack/internal/layer"
	"github.com/layerkit/layerstack/internal/lserr"
)

// LoadOptions control how serialized layer directories are resolved.
type LoadOptions struct {
	// LayerLibraryDirs are additional directories to search for layer
	// folders referenced by the stack file.
	LayerLibraryDirs []string
	// OriginalPreferred makes the originally serialized location win over
	// the library directories when both exist.
	OriginalPreferred bool
}

// Load reads a stack document from path, resolves every referenced layer
// directory against the registry, and reconciles the serialized argument
// values onto the freshly declared argument contracts. Schema drift between
// the document and the live layers is reported through logs and reconciled
// best-effort; unresolvable layers and corrupt documents are fatal.
func Load(ctx context.Context, reg *layer.Registry, path string, opts LoadOptions) (*Stack, error) {
	logger := ctxlog.FromContext(ctx)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, lserr.Wrap(lserr.KindRuntime, err, "cannot read stack file %q", path)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, lserr.Wrap(lserr.KindRuntime, err, "corrupt stack file %q", path)
	}

	stackName := doc.UUID
	if doc.Name != nil {
		stackName = *doc.Name
	}

	s := &Stack{Version: doc.Version}
	if doc.Name != nil {
		s.Name = *doc.Name
	}
	s.runDir = doc.RunDir
	if doc.Model != nil {
		s.Model = *doc.Model
	}
	id, err := uuid.Parse(doc.UUID)
	if err != nil {
		return nil, lserr.Wrap(lserr.KindRuntime, err, "corrupt stack file %q: bad uuid", path)
	}
	s.id = id

	for i := range doc.Layers {
		l, err := loadLayer(ctx, reg, stackName, &doc.Layers[i], opts)
		if err != nil {
			return nil, err
		}
		if err := s.Append(l); err != nil {
			return nil, err
		}
	}

	logger.Debug("Stack loaded.", "stack", stackName, "layers", s.Len())
	return s, nil
}

// loadLayer resolves one serialized layer entry and applies its argument
// values.
func loadLayer(ctx context.Context, reg *layer.Registry, stackName string, doc *LayerDocument, opts LoadOptions) (*layer.Layer, error) {
	logger := ctxlog.FromContext(ctx)

	dir, err := FindLayerDir(doc.LayerDir, opts.LayerLibraryDirs, opts.OriginalPreferred, true)
	if err != nil {
		return nil, err
	}

	l, err := layer.Load(ctx, reg, dir, nil)
	if err != nil {
		return nil, err
	}

	// drift notices: never fatal, reconciliation always proceeds
	def := l.Definition()
	if doc.UUID != "" && def.UUID().String() != doc.UUID {
		logger.Warn("Layer has unexpected uuid.",
			"stack", stackName, "layer", l.Name(), "expected", doc.UUID, "got", def.UUID().String())
	}
	if l.Name() != doc.Name {
		logger.Info("Layer has different serialized name.",
			"stack", stackName, "layer", l.Name(), "serialized", doc.Name)
	}
	if def.Version() != doc.Version {
		logger.Info("Layer version differs from serialization.",
			"stack", stackName, "layer", l.Name(), "current", def.Version(), "serialized", doc.Version)
	} else if l.Checksum() != doc.Checksum {
		logger.Info("Layer version is unchanged but its checksum differs.",
			"stack", stackName, "layer", l.Name(), "version", def.Version())
	}

	if err := applyArgs(ctx, stackName, l, doc); err != nil {
		return nil, err
	}
	return l, nil
}

// applyArgs reconciles serialized argument values onto the layer's freshly
// declared descriptors. Validation failures while applying a value are
// logged and leave the argument unset; they never abort the load.
func applyArgs(ctx context.Context, stackName string, l *layer.Layer, doc *LayerDocument) error {
	logger := ctxlog.FromContext(ctx)

	descriptors, err := l.Args().Descriptors()
	if err != nil {
		return err
	}
	live := make([]string, len(descriptors))
	for i, a := range descriptors {
		live[i] = a.Name()
	}
	serialized := make([]string, len(doc.Args))
	for i := range doc.Args {
		serialized[i] = doc.Args[i].Name
	}

	for _, m := range ReconcileArgs(serialized, live) {
		switch m.Reason {
		case MatchName:
			logger.Info("Argument position moved since serialization.",
				"stack", stackName, "layer", l.Name(), "argument", serialized[m.Serialized],
				"from", m.Serialized, "to", m.Live)
		case MatchPosition:
			logger.Warn("Applying serialized value by position even though names differ.",
				"stack", stackName, "layer", l.Name(),
				"serialized", serialized[m.Serialized], "current", live[m.Live], "position", m.Live)
		case MatchDropped:
			logger.Warn("Dropping serialized argument: no matching argument in current layer.",
				"stack", stackName, "layer", l.Name(), "argument", serialized[m.Serialized])
			continue
		}
		if err := descriptors[m.Live].SetSerialized(doc.Args[m.Serialized].Value); err != nil {
			logger.Error("Unable to apply serialized argument value.",
				"stack", stackName, "layer", l.Name(),
				"argument", live[m.Live], "error", err)
		}
	}

	kwargs := l.Kwargs()
	for name, kwDoc := range doc.Kwargs {
		if !kwargs.Has(name) {
			logger.Warn("Dropping serialized keyword argument: no longer declared by layer.",
				"stack", stackName, "layer", l.Name(), "argument", name)
			continue
		}
		k, err := kwargs.Descriptor(name)
		if err != nil {
			return err
		}
		if err := k.SetSerialized(kwDoc.Value); err != nil {
			logger.Error("Unable to apply serialized keyword argument value.",
				"stack", stackName, "layer", l.Name(), "argument", name, "error", err)
		}
	}
	return nil
}
