package layer

import (
	"context"

	"github.com/layerkit/layerstack/internal/args"
	"github.com/layerkit/layerstack/internal/ctxlog"
	"github.com/layerkit/layerstack/internal/fsutil"
	"github.com/layerkit/layerstack/internal/lserr"
)

// Layer is a layer definition bound to a directory on disk: the resolved
// contract, a content checksum of the manifest it was loaded from, and fresh
// Describe-mode argument containers built for the current model. Instances
// are constructed anew each time a stack is loaded or a directory attached;
// only directory, checksum, version, and argument state are ever serialized.
type Layer struct {
	dir      string
	def      Definition
	checksum string
	args     *args.ArgList
	kwargs   *args.KwargDict
}

// Load binds the layer directory to its registered definition and builds the
// argument containers, passing the current model (possibly nil) so argument
// shape can depend on model contents. The checksum is computed once here and
// is immutable afterwards; it is informational drift detection, not a
// security measure.
func Load(ctx context.Context, reg *Registry, dir string, model any) (*Layer, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading layer.", "dir", dir)

	manifest, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}
	def, ok := reg.Lookup(manifest.Handler)
	if !ok {
		return nil, lserr.New(lserr.KindResolution,
			"layer directory %q refers to handler %q, which is not registered", dir, manifest.Handler)
	}

	sum, err := fsutil.Checksum(ManifestPath(dir))
	if err != nil {
		return nil, lserr.Wrap(lserr.KindResolution, err,
			"cannot checksum layer manifest in %q", dir)
	}

	argList, err := def.Args(model)
	if err != nil {
		return nil, lserr.Wrap(lserr.KindResolution, err,
			"layer %q: building positional arguments failed", def.Name())
	}
	kwargDict, err := def.Kwargs(model)
	if err != nil {
		return nil, lserr.Wrap(lserr.KindResolution, err,
			"layer %q: building keyword arguments failed", def.Name())
	}
	argList.SetMode(args.Describe)
	kwargDict.SetMode(args.Describe)

	return &Layer{
		dir:      dir,
		def:      def,
		checksum: sum,
		args:     argList,
		kwargs:   kwargDict,
	}, nil
}

// Dir returns the directory this layer was loaded from.
func (l *Layer) Dir() string { return l.dir }

// Name returns the definition's human-readable name.
func (l *Layer) Name() string { return l.def.Name() }

// Definition returns the resolved layer contract.
func (l *Layer) Definition() Definition { return l.def }

// Checksum returns the manifest content checksum computed at load time.
func (l *Layer) Checksum() string { return l.checksum }

// Args returns the positional argument container.
func (l *Layer) Args() *args.ArgList { return l.args }

// Kwargs returns the keyword argument container.
func (l *Layer) Kwargs() *args.KwargDict { return l.kwargs }

// SetArgMode switches both containers to the same mode.
func (l *Layer) SetArgMode(m args.Mode) {
	l.args.SetMode(m)
	l.kwargs.SetMode(m)
}

// ModelRunner returns the definition as a ModelRunner when it operates on a
// model.
func (l *Layer) ModelRunner() (ModelRunner, bool) {
	mr, ok := l.def.(ModelRunner)
	return mr, ok
}

// Runnable reports whether every positional argument has a value.
func (l *Layer) Runnable() bool { return l.args.Set() }

// RunLayer invokes the layer's entry point with the expanded positional and
// keyword values. Both containers are switched to Use mode; all positional
// arguments must already be set. For model layers the (possibly updated)
// model is returned; otherwise the result is an arbitrary value the caller
// stores separately.
func (l *Layer) RunLayer(ctx context.Context, rc *RunContext, model any) (any, error) {
	if !l.Runnable() {
		return nil, lserr.New(lserr.KindPrecondition,
			"layer %q is not runnable: not all positional arguments are set", l.Name())
	}
	l.SetArgMode(args.Use)
	pos, err := l.args.Values()
	if err != nil {
		return nil, err
	}
	kw, err := l.kwargs.ValueMap()
	if err != nil {
		return nil, err
	}

	switch def := l.def.(type) {
	case ModelRunner:
		return def.ApplyToModel(ctx, rc, model, pos, kw)
	case Runner:
		return def.Apply(ctx, rc, pos, kw)
	}
	return nil, lserr.New(lserr.KindType,
		"layer %q implements neither Runner nor ModelRunner", l.Name())
}
