package atoms

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-atoms/reactive"
)

// Schema describes a store: its export names and, per key, the value type,
// capabilities and generated accessor names.
type Schema struct {
	Store       string          `json:"store"`
	Identifiers Identifiers     `json:"identifiers"`
	Keys        []KeyDescriptor `json:"keys"`
}

// KeyDescriptor describes a single store key.
type KeyDescriptor struct {
	Key       string            `json:"key"`
	Type      string            `json:"type"`
	Kind      string            `json:"kind"`
	Writable  bool              `json:"writable"`
	Extended  bool              `json:"extended,omitempty"`
	Expr      string            `json:"expr,omitempty"`
	Accessors []string          `json:"accessors"`
	Fields    []FieldDescriptor `json:"fields,omitempty"`
}

// FieldDescriptor describes a nested path inside a map value and its
// inferred type.
type FieldDescriptor struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

// Schema inspects the store. Types are taken from the values a fresh
// container reports, so computed keys show the type of their first
// evaluation.
func (s *Store) Schema() Schema {
	scratch := reactive.NewContainer(reactive.WithContainerLabel("schema"))
	defer scratch.Dispose()

	out := Schema{
		Store:       s.name,
		Identifiers: s.Identifiers(),
		Keys:        make([]KeyDescriptor, 0, len(s.bundle.keys)),
	}
	for _, key := range s.bundle.keys {
		atom := s.bundle.atoms[key]
		value := scratch.Get(atom)
		desc := KeyDescriptor{
			Key:      key,
			Type:     typeName(value),
			Kind:     atom.Kind().String(),
			Writable: s.bundle.writable[key],
			Extended: s.bundle.extended[key],
			Fields:   deriveFieldDescriptors(value, ""),
		}
		if expr, ok := atom.Tags()["expr"].(string); ok {
			desc.Expr = expr
		}
		for _, c := range Categories {
			if s.tables.has(c, key) {
				desc.Accessors = append(desc.Accessors, c.Identifier(key))
			}
		}
		out.Keys = append(out.Keys, desc)
	}
	return out
}

// Key returns the descriptor for key.
func (sc Schema) Key(key string) (KeyDescriptor, bool) {
	for _, desc := range sc.Keys {
		if desc.Key == key {
			return desc, true
		}
	}
	return KeyDescriptor{}, false
}

// ToJSON serialises the schema with indentation.
func (sc Schema) ToJSON() ([]byte, error) {
	return json.MarshalIndent(sc, "", "  ")
}

func deriveFieldDescriptors(value any, prefix string) []FieldDescriptor {
	typed, ok := value.(map[string]any)
	if !ok || len(typed) == 0 {
		if prefix == "" {
			return nil
		}
		return []FieldDescriptor{{Path: prefix, Type: typeName(value)}}
	}
	keys := make([]string, 0, len(typed))
	for key := range typed {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var fields []FieldDescriptor
	for _, key := range keys {
		fields = append(fields, deriveFieldDescriptors(typed[key], joinPath(prefix, key))...)
	}
	return fields
}

func typeName(value any) string {
	switch typed := value.(type) {
	case nil:
		return "nil"
	case []any:
		if len(typed) > 0 {
			return "[]" + typeName(typed[0])
		}
		return "[]any"
	default:
		return fmt.Sprintf("%T", value)
	}
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return strings.Join([]string{prefix, segment}, ".")
}
