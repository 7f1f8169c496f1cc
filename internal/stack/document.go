package stack

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/layerkit/layerstack/internal/args"
	"github.com/layerkit/layerstack/internal/fsutil"
	"github.com/layerkit/layerstack/internal/lserr"
)

// ArchiveName is the file written into the run directory before execution.
const ArchiveName = "stack.archive"

// Document is the serialized form of a stack. It is a lossy snapshot: parser
// fields hold debug strings only and are never parsed back; live callables
// are always re-obtained from the freshly resolved layer contracts on load.
type Document struct {
	Name    *string         `json:"name"`
	UUID    string          `json:"uuid"`
	Version string          `json:"version"`
	RunDir  string          `json:"run_dir"`
	Model   *string         `json:"model"`
	Layers  []LayerDocument `json:"layers"`

	// Checksum is present in archive documents only: the checksum of the
	// plain save document.
	Checksum string `json:"checksum,omitempty"`
}

// LayerDocument is the serialized form of one layer instance.
type LayerDocument struct {
	Name     string                   `json:"name"`
	UUID     string                   `json:"uuid"`
	LayerDir string                   `json:"layer_dir"`
	Version  string                   `json:"version"`
	Checksum string                   `json:"checksum"`
	Args     []ArgDocument            `json:"args"`
	Kwargs   map[string]KwargDocument `json:"kwargs"`
}

// ArgDocument is the serialized form of one positional argument descriptor.
type ArgDocument struct {
	Name        string          `json:"name"`
	Value       json.RawMessage `json:"value"`
	Description string          `json:"description"`
	Parser      string          `json:"parser"`
	Choices     json.RawMessage `json:"choices"`
	NArgs       args.NArgs      `json:"nargs"`
	ListParser  string          `json:"list_parser"`
}

// KwargDocument is the serialized form of one keyword argument descriptor.
type KwargDocument struct {
	Value       json.RawMessage `json:"value"`
	Default     json.RawMessage `json:"default"`
	Description string          `json:"description"`
	Parser      string          `json:"parser"`
	Choices     json.RawMessage `json:"choices"`
	NArgs       args.NArgs      `json:"nargs"`
	ListParser  string          `json:"list_parser"`
}

// document builds the serialized form of the stack. Containers are switched
// to Describe mode to expose descriptors.
func (s *Stack) document() (*Document, error) {
	doc := &Document{
		UUID:    s.id.String(),
		Version: s.Version,
		RunDir:  s.runDir,
	}
	if s.Name != "" {
		name := s.Name
		doc.Name = &name
	}
	if model, ok := s.Model.(string); ok {
		doc.Model = &model
	}

	for _, l := range s.layers {
		l.SetArgMode(args.Describe)

		descriptors, err := l.Args().Descriptors()
		if err != nil {
			return nil, err
		}
		argDocs := make([]ArgDocument, 0, len(descriptors))
		for _, a := range descriptors {
			value, err := a.ValueToSave()
			if err != nil {
				return nil, err
			}
			choices, err := a.ChoicesToSave()
			if err != nil {
				return nil, err
			}
			argDocs = append(argDocs, ArgDocument{
				Name:        a.Name(),
				Value:       value,
				Description: a.Description(),
				Parser:      a.ParserRepr(),
				Choices:     choices,
				NArgs:       a.NArgs(),
				ListParser:  a.ListParserRepr(),
			})
		}

		kwDescriptors, err := l.Kwargs().Descriptors()
		if err != nil {
			return nil, err
		}
		kwargDocs := make(map[string]KwargDocument, len(kwDescriptors))
		for _, k := range kwDescriptors {
			value, err := k.ValueToSave()
			if err != nil {
				return nil, err
			}
			def, err := k.DefaultToSave()
			if err != nil {
				return nil, err
			}
			choices, err := k.ChoicesToSave()
			if err != nil {
				return nil, err
			}
			kwargDocs[k.Name()] = KwargDocument{
				Value:       value,
				Default:     def,
				Description: k.Description(),
				Parser:      k.ParserRepr(),
				Choices:     choices,
				NArgs:       k.NArgs(),
				ListParser:  k.ListParserRepr(),
			}
		}

		doc.Layers = append(doc.Layers, LayerDocument{
			Name:     l.Name(),
			UUID:     l.Definition().UUID().String(),
			LayerDir: l.Dir(),
			Version:  l.Definition().Version(),
			Checksum: l.Checksum(),
			Args:     argDocs,
			Kwargs:   kwargDocs,
		})
	}
	return doc, nil
}

// Save writes the stack document to path as indented JSON.
func (s *Stack) Save(path string) error {
	doc, err := s.document()
	if err != nil {
		return err
	}
	return writeDocument(doc, path)
}

// Archive computes the checksum of the save document via a temporary file
// and writes a second document, identical plus that checksum, to path. When
// path is empty the archive goes to ArchiveName inside the run directory.
// The result is a tamper-evidence record of exactly what was run.
func (s *Stack) Archive(path string) error {
	if path == "" {
		if s.runDir == "" {
			return lserr.New(lserr.KindPrecondition,
				"cannot archive: no archive path given and run directory is unset")
		}
		path = filepath.Join(s.runDir, ArchiveName)
	}

	tmp, err := os.CreateTemp("", "stack-*.json")
	if err != nil {
		return lserr.Wrap(lserr.KindRuntime, err, "cannot create temporary stack file")
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := s.Save(tmpPath); err != nil {
		return err
	}
	sum, err := fsutil.Checksum(tmpPath)
	if err != nil {
		return lserr.Wrap(lserr.KindRuntime, err, "cannot checksum stack document")
	}

	doc, err := s.document()
	if err != nil {
		return err
	}
	doc.Checksum = sum
	return writeDocument(doc, path)
}

func writeDocument(doc *Document, path string) error {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return lserr.Wrap(lserr.KindRuntime, err, "cannot serialize stack document")
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return lserr.Wrap(lserr.KindRuntime, err, "cannot write stack file %q", path)
	}
	return nil
}
