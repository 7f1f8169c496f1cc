package stack

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/layerkit/layerstack/internal/ctxlog"
	"github.com/layerkit/layerstack/internal/lserr"
)

// RepointOptions configure Repoint.
type RepointOptions struct {
	LoadOptions
	// RunDir, when set, replaces the stack's run directory.
	RunDir string
	// Model, when set, replaces the stack's model reference.
	Model string
	// Outfile is where to save the modified stack. Empty saves next to the
	// input file with an underscore prefixed to the name.
	Outfile string
}

// Repoint rewrites the run directory, model reference, and layer locations
// of a serialized stack and saves the result. It works on the document
// directly, without resolving layers against a registry, so a stack can be
// repointed on a machine that cannot run it. Layer directories are updated
// through the soft search mode: locations that cannot be found are logged
// and left as serialized. Returns the output path.
func Repoint(ctx context.Context, path string, opts RepointOptions) (string, error) {
	logger := ctxlog.FromContext(ctx)

	data, err := os.ReadFile(path)
	if err != nil {
		return "", lserr.Wrap(lserr.KindRuntime, err, "cannot read stack file %q", path)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", lserr.Wrap(lserr.KindRuntime, err, "corrupt stack file %q", path)
	}

	if opts.RunDir != "" {
		doc.RunDir = opts.RunDir
	}
	if opts.Model != "" {
		model := opts.Model
		doc.Model = &model
	}

	for i := range doc.Layers {
		dir, err := FindLayerDir(doc.Layers[i].LayerDir, opts.LayerLibraryDirs, opts.OriginalPreferred, false)
		if err != nil {
			return "", err
		}
		if dir != "" && dir != doc.Layers[i].LayerDir {
			logger.Info("Repointing layer directory.",
				"layer", doc.Layers[i].Name, "from", doc.Layers[i].LayerDir, "to", dir)
			doc.Layers[i].LayerDir = dir
		}
	}

	out := opts.Outfile
	if out == "" {
		out = filepath.Join(filepath.Dir(path), "_"+filepath.Base(path))
	}
	if err := writeDocument(&doc, out); err != nil {
		return "", err
	}
	logger.Info("Stack repointed.", "from", path, "to", out)
	return out, nil
}
