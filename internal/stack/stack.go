// Package stack implements ordered, persistable sequences of layers: editing,
// JSON serialization with best-effort argument reconciliation on reload, and
// strictly sequential execution against an optional shared model.
package stack

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/layerkit/layerstack/internal/args"
	"github.com/layerkit/layerstack/internal/layer"
	"github.com/layerkit/layerstack/internal/lserr"
)

// DefaultVersion is the version assigned to newly created stacks.
const DefaultVersion = "v0.1.0"

// Stack is an ordered, mutable sequence of layers plus the shared execution
// context they run in: a run directory and an optional model. The model may
// be nil, a path string to a serialized model, or a live object.
type Stack struct {
	Name    string
	Version string
	Model   any

	// Result holds the return value of the most recently executed
	// non-model layer. It is not threaded between layers.
	Result any

	runDir string
	id     uuid.UUID
	layers []*layer.Layer
}

// New creates a stack over the given layers. Nil layers are rejected; a
// stack only ever holds layer instances.
func New(name string, layers ...*layer.Layer) (*Stack, error) {
	s := &Stack{
		Name:    name,
		Version: DefaultVersion,
		id:      uuid.New(),
	}
	for _, l := range layers {
		if err := s.Append(l); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// checkLayer guards every insertion path.
func checkLayer(l *layer.Layer) error {
	if l == nil {
		return lserr.New(lserr.KindType,
			"stacks only hold layer instances, got nil")
	}
	return nil
}

// UUID returns the stack's process-unique identifier.
func (s *Stack) UUID() uuid.UUID { return s.id }

// RunDir returns the stack's run directory, empty when unset.
func (s *Stack) RunDir() string { return s.runDir }

// SetRunDir assigns the directory the stack will execute in.
func (s *Stack) SetRunDir(dir string) { s.runDir = dir }

// Len returns the number of layers.
func (s *Stack) Len() int { return len(s.layers) }

// Layers returns the underlying layer sequence.
func (s *Stack) Layers() []*layer.Layer { return s.layers }

// At returns the layer at position i.
func (s *Stack) At(i int) *layer.Layer { return s.layers[i] }

// Append adds a layer to the end of the stack.
func (s *Stack) Append(l *layer.Layer) error {
	if err := checkLayer(l); err != nil {
		return err
	}
	slog.Debug("Appending layer.", "layer", l.Name())
	s.layers = append(s.layers, l)
	return nil
}

// Insert places a layer at position i, shifting later layers down.
func (s *Stack) Insert(i int, l *layer.Layer) error {
	if err := checkLayer(l); err != nil {
		return err
	}
	if i < 0 || i > len(s.layers) {
		return lserr.New(lserr.KindRuntime, "layer index %d out of range [0,%d]", i, len(s.layers))
	}
	s.layers = append(s.layers[:i], append([]*layer.Layer{l}, s.layers[i:]...)...)
	return nil
}

// Set replaces the layer at position i.
func (s *Stack) Set(i int, l *layer.Layer) error {
	if err := checkLayer(l); err != nil {
		return err
	}
	if i < 0 || i >= len(s.layers) {
		return lserr.New(lserr.KindRuntime, "layer index %d out of range [0,%d)", i, len(s.layers))
	}
	s.layers[i] = l
	return nil
}

// Delete removes the layer at position i.
func (s *Stack) Delete(i int) error {
	if i < 0 || i >= len(s.layers) {
		return lserr.New(lserr.KindRuntime, "layer index %d out of range [0,%d)", i, len(s.layers))
	}
	s.layers = append(s.layers[:i], s.layers[i+1:]...)
	return nil
}

// SetArgMode switches every layer's containers to the same mode.
func (s *Stack) SetArgMode(m args.Mode) {
	for _, l := range s.layers {
		l.SetArgMode(m)
	}
}

// Runnable reports whether the stack can execute: the run directory is set
// and every layer's positional arguments are.
func (s *Stack) Runnable() bool {
	if s.runDir == "" {
		slog.Info("The run directory must be assigned for this stack to be runnable.")
		return false
	}
	for _, l := range s.layers {
		if !l.Runnable() {
			slog.Info("Set arguments to make this stack runnable.", "layer", l.Name())
			return false
		}
	}
	return true
}

// SuggestedFilename derives a stack file name from the stack name, empty
// when the stack is unnamed.
func (s *Stack) SuggestedFilename() string {
	if s.Name == "" {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(s.Name), " ", "_") + ".json"
}

// String renders a human-readable description of the stack.
func (s *Stack) String() string {
	version := s.Version
	version = strings.TrimPrefix(strings.TrimPrefix(version, "v"), "V")

	var b strings.Builder
	fmt.Fprintf(&b, "%s, v%s\n", s.Name, version)
	if s.Runnable() {
		b.WriteString("runnable\n")
	} else {
		b.WriteString("NOT runnable\n")
	}
	fmt.Fprintf(&b, "run_dir: %q\n", s.runDir)
	fmt.Fprintf(&b, "model: %v\n", s.Model)
	b.WriteString("layers:\n")
	doc, err := s.document()
	if err != nil {
		fmt.Fprintf(&b, "    <unserializable: %v>\n", err)
		return b.String()
	}
	out, err := json.MarshalIndent(doc.Layers, "", "    ")
	if err != nil {
		fmt.Fprintf(&b, "    <unserializable: %v>\n", err)
		return b.String()
	}
	b.Write(out)
	return b.String()
}
