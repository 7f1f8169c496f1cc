package layer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/layerkit/layerstack/internal/lserr"
)

// ManifestName is the well-known file a layer directory must contain. The
// manifest binds the directory to a handler registered in the application's
// Registry; there is no dynamic code loading.
const ManifestName = "layer.hcl"

// Manifest is the parsed content of a layer.hcl file.
type Manifest struct {
	// Handler is the registry name of the layer definition this directory
	// refers to.
	Handler string `hcl:"handler,label"`
	// Description optionally overrides the definition's description for
	// display purposes.
	Description string `hcl:"description,optional"`
}

type manifestDoc struct {
	Layer *Manifest `hcl:"layer,block"`
}

// ManifestPath returns the manifest file path for a layer directory.
func ManifestPath(layerDir string) string {
	return filepath.Join(layerDir, ManifestName)
}

// ReadManifest parses the manifest of a layer directory. A missing file or a
// manifest without a layer block is a resolution error: the directory does
// not declare a layer contract.
func ReadManifest(layerDir string) (*Manifest, error) {
	path := ManifestPath(layerDir)
	if _, err := os.Stat(path); err != nil {
		return nil, lserr.Wrap(lserr.KindResolution, err,
			"no layer contract found in %q: missing %s", layerDir, ManifestName)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, lserr.Wrap(lserr.KindResolution, diags,
			"failed to parse layer manifest %q", path)
	}

	var doc manifestDoc
	if diags := gohcl.DecodeBody(file.Body, nil, &doc); diags.HasErrors() {
		return nil, lserr.Wrap(lserr.KindResolution, diags,
			"invalid layer manifest %q", path)
	}
	if doc.Layer == nil {
		return nil, lserr.New(lserr.KindResolution,
			"no layer contract found in %q: %s has no layer block", layerDir, ManifestName)
	}
	return doc.Layer, nil
}

// WriteManifest creates a layer directory manifest binding it to handler.
// Used when laying out layer libraries and test fixtures.
func WriteManifest(layerDir, handler string) error {
	content := fmt.Sprintf("layer %q {\n}\n", handler)
	return os.WriteFile(ManifestPath(layerDir), []byte(content), 0o644)
}
