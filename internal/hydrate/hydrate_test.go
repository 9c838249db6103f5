package hydrate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

type profile struct {
	Name     string   `json:"name"`
	Age      int      `json:"age"`
	Tags     []string `json:"tags"`
	Verified bool     `json:"verified"`
}

func TestDecoderCases(t *testing.T) {
	cases := []struct {
		name      string
		snapshot  map[string]any
		options   []DecoderOption[profile]
		expect    profile
		expectErr string
	}{
		{
			name:     "plain snapshot",
			snapshot: map[string]any{"name": "Jane", "age": 98, "tags": []string{"a"}},
			expect:   profile{Name: "Jane", Age: 98, Tags: []string{"a"}},
		},
		{
			name:      "nil snapshot",
			snapshot:  nil,
			expectErr: `snapshot is nil for store "user@scope1"`,
		},
		{
			name:     "unknown keys ignored by default",
			snapshot: map[string]any{"name": "Jane", "bio": "Jane is 98"},
			expect:   profile{Name: "Jane"},
		},
		{
			name:      "unknown keys rejected",
			snapshot:  map[string]any{"name": "Jane", "bio": "Jane is 98"},
			options:   []DecoderOption[profile]{WithDisallowUnknownFields[profile]()},
			expectErr: "unknown field",
		},
		{
			name:     "pre hook rewrites keys",
			snapshot: map[string]any{"fullName": "Jane Doe"},
			options: []DecoderOption[profile]{WithPreHook[profile](func(_ Context, snapshot map[string]any) (map[string]any, error) {
				snapshot["name"] = snapshot["fullName"]
				delete(snapshot, "fullName")
				return snapshot, nil
			})},
			expect: profile{Name: "Jane Doe"},
		},
		{
			name:     "post hook tags scope",
			snapshot: map[string]any{"name": "Jane"},
			options: []DecoderOption[profile]{WithPostHook[profile](func(ctx Context, p *profile) error {
				p.Tags = append(p.Tags, ctx.Scope)
				return nil
			})},
			expect: profile{Name: "Jane", Tags: []string{"scope1"}},
		},
		{
			name:     "post hook failure",
			snapshot: map[string]any{"name": ""},
			options: []DecoderOption[profile]{WithPostHook[profile](func(_ Context, p *profile) error {
				if p.Name == "" {
					return errors.New("name required")
				}
				return nil
			})},
			expectErr: "post-hook for store",
		},
		{
			name:     "custom decoder",
			snapshot: map[string]any{"age": 3},
			options: []DecoderOption[profile]{WithCustomDecoder[profile](func(_ Context, snapshot map[string]any) (profile, error) {
				return profile{Name: fmt.Sprint("age-", snapshot["age"]), Verified: true}, nil
			})},
			expect: profile{Name: "age-3", Verified: true},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decoder := NewDecoder(tc.options...)
			input := tc.snapshot
			result, err := decoder.Decode(Context{Store: "user", Scope: "scope1"}, input)
			if tc.expectErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.expectErr) {
					t.Fatalf("expected error containing %q, got %v", tc.expectErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}
			if !reflect.DeepEqual(tc.expect, result) {
				t.Fatalf("decoded snapshot mismatch:\nwant: %#v\n got: %#v", tc.expect, result)
			}
		})
	}
}

func TestDecoderDoesNotMutateSnapshot(t *testing.T) {
	snapshot := map[string]any{"name": "Jane"}
	decoder := NewDecoder(WithPreHook[profile](func(_ Context, m map[string]any) (map[string]any, error) {
		m["name"] = "changed"
		return m, nil
	}))
	if _, err := decoder.Decode(Context{Store: "user"}, snapshot); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snapshot["name"] != "Jane" {
		t.Fatalf("expected caller snapshot untouched, got %v", snapshot["name"])
	}
}

type initialUser struct {
	Name     string
	Age      int `atom:"years"`
	Internal string `atom:"-"`
	hidden   bool
	URL      string
}

func TestFieldsFromStructKeepsDeclarationOrder(t *testing.T) {
	fields, err := Fields(initialUser{Name: "Jane", Age: 98, Internal: "x", hidden: true, URL: "u"})
	if err != nil {
		t.Fatalf("fields: %v", err)
	}
	var keys []string
	for _, f := range fields {
		keys = append(keys, f.Key)
	}
	if strings.Join(keys, ",") != "name,years,uRL" {
		t.Fatalf("unexpected keys %v", keys)
	}
	if fields[1].Value != 98 {
		t.Fatalf("expected tagged field value 98, got %v", fields[1].Value)
	}
}

func TestFieldsFromMapSortsKeys(t *testing.T) {
	fields, err := Fields(&map[string]int{"b": 2, "a": 1, "c": 3})
	if err != nil {
		t.Fatalf("fields: %v", err)
	}
	if len(fields) != 3 || fields[0].Key != "a" || fields[2].Key != "c" || fields[0].Value != 1 {
		t.Fatalf("unexpected fields %+v", fields)
	}
}

func TestFieldsRejectsUnsupportedInput(t *testing.T) {
	var nilStruct *initialUser
	for _, input := range []any{nil, 42, []string{"a"}, map[int]string{1: "a"}, nilStruct} {
		if _, err := Fields(input); !errors.Is(err, ErrUnsupported) {
			t.Fatalf("expected ErrUnsupported for %T, got %v", input, err)
		}
	}
}

func TestFieldsRejectsDuplicateKeys(t *testing.T) {
	type clash struct {
		Name  string
		Alias string `atom:"name"`
	}
	if _, err := Fields(clash{}); err == nil || !strings.Contains(err.Error(), `both map to key "name"`) {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
}
