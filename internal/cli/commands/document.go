package commands

import (
	"encoding/json"
	"fmt"
	"os"

	atoms "github.com/goliatone/go-atoms"
)

// Document is the JSON input of describe. A document without a "values"
// member is treated as the values object itself.
type Document struct {
	Name     string            `json:"name"`
	Values   map[string]any    `json:"values"`
	Computed map[string]string `json:"computed"`
}

// LoadDocument reads path as a Document.
func LoadDocument(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	doc := &Document{}
	if _, ok := probe["values"]; !ok {
		if err := json.Unmarshal(raw, &doc.Values); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return doc, nil
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if doc.Values == nil {
		doc.Values = map[string]any{}
	}
	return doc, nil
}

// Define builds the store the document describes. name overrides the
// document name when set. Computed expressions may reference every value key.
func (d *Document) Define(name string, opts ...atoms.Option) (*atoms.Store, error) {
	if name == "" {
		name = d.Name
	}
	opts = append([]atoms.Option{atoms.WithName(name)}, opts...)
	if len(d.Computed) > 0 {
		opts = append(opts, atoms.WithExtend(d.extend))
	}
	return atoms.Define(d.Values, opts...)
}

func (d *Document) extend(x *atoms.Extension) (atoms.Atoms, error) {
	deps := x.Atoms().Keys()
	out := make(atoms.Atoms, len(d.Computed))
	for key, expression := range d.Computed {
		atom, err := x.Computed(key, expression, deps...)
		if err != nil {
			return nil, err
		}
		out[key] = atom
	}
	return out, nil
}
