package hydrate

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrUnsupported is returned by Fields for inputs that are neither string
// keyed maps nor structs.
var ErrUnsupported = errors.New("hydrate: value must be a string keyed map or a struct")

// TagName is the struct tag Fields consults for key names. A tag of "-"
// skips the field.
const TagName = "atom"

// Field is one top-level key of an initial value.
type Field struct {
	Key   string
	Value any
}

// Fields flattens the top level of v into ordered key/value pairs. Map keys
// are sorted; struct fields keep declaration order, skip unexported fields
// and default to the field name with a lower-cased first rune. Pointers are
// followed.
func Fields(v any) ([]Field, error) {
	if v == nil {
		return nil, ErrUnsupported
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, ErrUnsupported
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%w: got map keyed by %s", ErrUnsupported, rv.Type().Key())
		}
		fields := make([]Field, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			fields = append(fields, Field{
				Key:   iter.Key().String(),
				Value: iter.Value().Interface(),
			})
		}
		sort.Slice(fields, func(i, j int) bool { return fields[i].Key < fields[j].Key })
		return fields, nil
	case reflect.Struct:
		return structFields(rv)
	default:
		return nil, fmt.Errorf("%w: got %s", ErrUnsupported, rv.Type())
	}
}

func structFields(rv reflect.Value) ([]Field, error) {
	rt := rv.Type()
	fields := make([]Field, 0, rt.NumField())
	seen := make(map[string]string, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		key := FieldKey(sf)
		if key == "" {
			continue
		}
		if previous, ok := seen[key]; ok {
			return nil, fmt.Errorf("hydrate: fields %s and %s both map to key %q", previous, sf.Name, key)
		}
		seen[key] = sf.Name
		fields = append(fields, Field{Key: key, Value: rv.Field(i).Interface()})
	}
	return fields, nil
}

// FieldKey returns the key a struct field maps to, or "" when skipped.
func FieldKey(sf reflect.StructField) string {
	tag := sf.Tag.Get(TagName)
	if tag == "-" {
		return ""
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name
	}
	return lowerFirst(sf.Name)
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
