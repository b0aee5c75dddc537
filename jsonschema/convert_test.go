package jsonschema_test

import (
	"reflect"
	"testing"

	json "github.com/goccy/go-json"

	fastskema "github.com/reoring/fastskema"
	g "github.com/reoring/fastskema/dsl"
	"github.com/reoring/fastskema/jsonschema"
)

// normalize marshals v to JSON and unmarshals back into interface{} to remove ordering effects.
func normalize(t *testing.T, v any) any {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func TestFromDescriptor_Primitives(t *testing.T) {
	cases := []struct {
		name string
		s    fastskema.Schema
		want map[string]any
	}{
		{"string", g.String().Min(1).Max(5).Email(), map[string]any{"type": "string", "minLength": 1, "maxLength": 5, "format": "email"}},
		{"int", g.Number().Int().Gt(0).Max(9), map[string]any{"type": "integer", "exclusiveMinimum": 0, "maximum": 9}},
		{"bool", g.Bool(), map[string]any{"type": "boolean"}},
		{"literal false", g.Literal(false), map[string]any{"const": false}},
		{"enum", g.Enum("a", "b"), map[string]any{"enum": []any{"a", "b"}}},
		{"never", g.Never(), map[string]any{"not": map[string]any{}}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			s, err := jsonschema.FromDescriptor(tc.s.Descriptor())
			if err != nil {
				t.Fatal(err)
			}
			if got, want := normalize(t, s), normalize(t, tc.want); !reflect.DeepEqual(got, want) {
				t.Fatalf("mismatch\n got=%v\nwant=%v", got, want)
			}
		})
	}
}

func TestFromDescriptor_AbsentKeys(t *testing.T) {
	obj := g.Object().
		Field("id", g.String()).
		Field("meta", g.Any()).
		Field("legacy", g.Undefined())
	s, err := jsonschema.FromDescriptor(obj.Descriptor())
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":     map[string]any{"type": "string"},
			"meta":   map[string]any{},
			"legacy": map[string]any{"not": map[string]any{}},
		},
		"required": []any{"id"},
	}
	if got := normalize(t, s); !reflect.DeepEqual(got, normalize(t, want)) {
		t.Fatalf("mismatch\n got=%v\nwant=%v", got, normalize(t, want))
	}
}

func TestFromDescriptor_Object(t *testing.T) {
	obj := g.Object().
		Field("id", g.String().UUID()).
		Field("nick", g.String().Optional()).
		Field("tags", g.Array(g.String()).Nonempty().Unique()).
		Field("role", g.Enum("admin", "user").Default("user")).
		Strict()
	s, err := jsonschema.Document(obj.Descriptor())
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"$schema": jsonschema.Draft,
		"type":    "object",
		"properties": map[string]any{
			"id":   map[string]any{"type": "string", "format": "uuid"},
			"nick": map[string]any{"type": "string"},
			"tags": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "minItems": 1, "uniqueItems": true},
			"role": map[string]any{"enum": []any{"admin", "user"}, "default": "user"},
		},
		"required":             []any{"id", "tags"},
		"additionalProperties": false,
	}
	if got := normalize(t, s); !reflect.DeepEqual(got, normalize(t, want)) {
		t.Fatalf("mismatch\n got=%v\nwant=%v", got, normalize(t, want))
	}
}

func TestFromDescriptor_Composites(t *testing.T) {
	du := g.DiscriminatedUnion("kind",
		g.Object().Field("kind", g.Literal("a")),
		g.Object().Field("kind", g.Literal("b")),
	)
	s, err := jsonschema.FromDescriptor(du.Descriptor())
	if err != nil {
		t.Fatal(err)
	}
	if len(s.OneOf) != 2 || s.Discriminator == nil || s.Discriminator.PropertyName != "kind" {
		t.Fatalf("discriminated union: %+v", s)
	}

	tup, err := jsonschema.FromDescriptor(g.Tuple(g.String(), g.Number()).Descriptor())
	if err != nil {
		t.Fatal(err)
	}
	if len(tup.PrefixItems) != 2 || *tup.MinItems != 2 || *tup.MaxItems != 2 {
		t.Fatalf("tuple: %+v", tup)
	}

	nullable, err := jsonschema.FromDescriptor(g.String().Nullable().Descriptor())
	if err != nil {
		t.Fatal(err)
	}
	if len(nullable.AnyOf) != 2 || nullable.AnyOf[1].Type != "null" {
		t.Fatalf("nullable: %+v", nullable)
	}

	reg := g.NewRegistry()
	ref, err := jsonschema.FromDescriptor(reg.Ref("node").Descriptor())
	if err != nil {
		t.Fatal(err)
	}
	if ref.Ref != "#/$defs/node" {
		t.Fatalf("ref: %+v", ref)
	}
}
