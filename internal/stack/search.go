package stack

import (
	"log/slog"
	"path/filepath"

	"github.com/layerkit/layerstack/internal/fsutil"
	"github.com/layerkit/layerstack/internal/lserr"
)

// FindLayerDir determines the best current location for a layer that was
// serialized at original. The layer's base folder name is looked for under a
// list of candidate parents: the original location's parent and the library
// directories, ordered by preference. The first candidate that exists on
// disk wins.
//
// With hardFail, an unresolvable layer is a fatal resolution error; load
// always uses this mode. Otherwise the miss is logged and an empty path is
// returned, which suits ad hoc repointing tools.
func FindLayerDir(original string, libraryDirs []string, originalPreferred, hardFail bool) (string, error) {
	base := filepath.Base(original)

	var parents []string
	if originalPreferred {
		parents = append(parents, filepath.Dir(original))
		parents = append(parents, libraryDirs...)
	} else {
		parents = append(parents, libraryDirs...)
		parents = append(parents, filepath.Dir(original))
	}

	for _, parent := range parents {
		candidate := filepath.Join(parent, base)
		if fsutil.DirExists(candidate) {
			return candidate, nil
		}
	}

	if hardFail {
		return "", lserr.New(lserr.KindResolution,
			"unable to find the layer %q: tried %q and %d library directories",
			base, original, len(libraryDirs))
	}
	slog.Warn("Unable to locate layer directory.", "layer", base, "original", original)
	return "", nil
}
