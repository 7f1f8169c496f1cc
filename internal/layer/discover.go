package layer

import (
	"path/filepath"
	"sort"

	"github.com/layerkit/layerstack/internal/fsutil"
	"github.com/layerkit/layerstack/internal/lserr"
)

// Discover walks a layer library directory and returns every directory under
// it that carries a layer manifest, sorted. Directories whose manifest fails
// to parse are skipped; discovery is a browsing aid, not validation.
func Discover(root string) ([]string, error) {
	if !fsutil.DirExists(root) {
		return nil, lserr.New(lserr.KindResolution, "layer library %q is not a directory", root)
	}
	manifests, err := fsutil.FindFilesByExtension(root, ManifestName)
	if err != nil {
		return nil, lserr.Wrap(lserr.KindResolution, err, "cannot scan layer library %q", root)
	}

	seen := make(map[string]bool, len(manifests))
	dirs := make([]string, 0, len(manifests))
	for _, m := range manifests {
		if filepath.Base(m) != ManifestName {
			continue
		}
		dir := filepath.Dir(m)
		if seen[dir] {
			continue
		}
		if _, err := ReadManifest(dir); err != nil {
			continue
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs, nil
}
