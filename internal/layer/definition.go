// Package layer defines layer contracts, the in-process registry that binds
// layer directories to Go implementations, and the Layer instance type that a
// Stack composes and runs.
package layer

import (
	"context"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"

	"github.com/layerkit/layerstack/internal/args"
)

// Definition is the contract every layer implementation provides: identity
// plus factories for its argument containers. The factories receive the
// current model (possibly nil) so argument shape can depend on model
// contents; they are called anew each time a Layer instance is constructed.
type Definition interface {
	Name() string
	UUID() uuid.UUID
	Version() string
	Description() string
	Args(model any) (*args.ArgList, error)
	Kwargs(model any) (*args.KwargDict, error)
}

// Runner is a layer definition whose entry point does not operate on a
// model. Its result is stored by the Stack and not threaded forward.
type Runner interface {
	Definition
	Apply(ctx context.Context, rc *RunContext, pos []cty.Value, kw map[string]cty.Value) (any, error)
}

// ModelRunner is a layer definition that operates on the shared model. The
// load/save/check hooks are dispatched by the Stack, never by the Layer
// instance itself.
type ModelRunner interface {
	Definition
	ApplyToModel(ctx context.Context, rc *RunContext, model any, pos []cty.Value, kw map[string]cty.Value) (any, error)
	LoadModel(ctx context.Context, path string) (any, error)
	SaveModel(ctx context.Context, model any, path string) error
	CheckModel(model any) error
}

// RunContext carries the execution environment into layer entry points. File
// operations inside a layer should resolve paths against it rather than the
// process working directory, which is never changed during a run.
type RunContext struct {
	StackName string
	RunDir    string
}

// Path resolves elems against the run directory.
func (rc *RunContext) Path(elems ...string) string {
	return filepath.Join(append([]string{rc.RunDir}, elems...)...)
}
