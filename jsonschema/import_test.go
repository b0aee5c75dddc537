package jsonschema_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	fastskema "github.com/reoring/fastskema"
	g "github.com/reoring/fastskema/dsl"
	"github.com/reoring/fastskema/jsonschema"
)

func mustImport(t *testing.T, doc string, opts jsonschema.ImportOptions) fastskema.Schema {
	t.Helper()
	d, _, err := jsonschema.Import([]byte(doc), opts)
	if err != nil {
		t.Fatal(err)
	}
	s, err := g.FromDescriptor(d)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func codes(t *testing.T, s fastskema.Schema, v any) []string {
	t.Helper()
	_, err := s.Parse(context.Background(), v)
	if err == nil {
		return nil
	}
	iss, ok := fastskema.AsIssues(err)
	if !ok {
		t.Fatalf("not issues: %v", err)
	}
	return iss.Codes()
}

func TestImport_Object(t *testing.T) {
	s := mustImport(t, `{
		"type": "object",
		"required": ["id", "tags"],
		"additionalProperties": false,
		"properties": {
			"id":   {"type": "string", "format": "uuid"},
			"age":  {"type": "integer", "minimum": 0},
			"tags": {"type": "array", "items": {"type": "string", "minLength": 1}, "minItems": 1},
			"role": {"enum": ["admin", "user"], "default": "user"}
		}
	}`, jsonschema.ImportOptions{})

	out, err := s.Parse(context.Background(), map[string]any{
		"id":   "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		"tags": []any{"a"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.(map[string]any)["role"] != "user" {
		t.Fatalf("default not applied: %v", out)
	}

	got := codes(t, s, map[string]any{"id": "x", "tags": []any{}, "age": 1.5, "extra": 1})
	want := map[string]bool{"invalid_string": true, "too_small": true, "invalid_type": true, "unrecognized_keys": true}
	for _, c := range got {
		if !want[c] {
			t.Fatalf("unexpected code %s in %v", c, got)
		}
	}
	if len(got) != 4 {
		t.Fatalf("codes=%v", got)
	}
}

func TestImport_Composition(t *testing.T) {
	s := mustImport(t, `
$defs:
  circle:
    type: object
    required: [kind, r]
    properties:
      kind: {const: circle}
      r: {type: number, exclusiveMinimum: 0}
  square:
    type: object
    required: [kind, side]
    properties:
      kind: {const: square}
      side: {type: number}
oneOf:
  - $ref: "#/$defs/circle"
  - $ref: "#/$defs/square"
discriminator:
  propertyName: kind
`, jsonschema.ImportOptions{})

	if c := codes(t, s, map[string]any{"kind": "circle", "r": 2.0}); c != nil {
		t.Fatalf("codes=%v", c)
	}
	if c := codes(t, s, map[string]any{"kind": "circle", "r": 0.0}); len(c) != 1 || c[0] != "too_small" {
		t.Fatalf("codes=%v", c)
	}
	if c := codes(t, s, map[string]any{"kind": "hex"}); len(c) != 1 || c[0] != "invalid_union_discriminator" {
		t.Fatalf("codes=%v", c)
	}
}

func TestImport_NullableAndTypeLists(t *testing.T) {
	s := mustImport(t, `{"type": "object", "required": ["a", "b"], "properties": {
		"a": {"type": ["string", "null"]},
		"b": {"type": "integer", "nullable": true}
	}}`, jsonschema.ImportOptions{})
	if c := codes(t, s, map[string]any{"a": nil, "b": nil}); c != nil {
		t.Fatalf("codes=%v", c)
	}
	if c := codes(t, s, map[string]any{"a": 1.0, "b": "x"}); len(c) != 2 {
		t.Fatalf("codes=%v", c)
	}
}

func TestImport_CRD(t *testing.T) {
	crd := `
kind: CustomResourceDefinition
spec:
  versions:
    - name: v1alpha1
      served: false
      schema:
        openAPIV3Schema: {type: string}
    - name: v1
      served: true
      schema:
        openAPIV3Schema:
          type: object
          x-kubernetes-preserve-unknown-fields: true
          properties:
            spec: {type: object}
`
	d, diag, err := jsonschema.Import([]byte(crd), jsonschema.ImportOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if d.Type != fastskema.TypeObject || d.UnknownKeys != "passthrough" || len(diag.Warnings) != 0 {
		t.Fatalf("d=%+v warnings=%v", d, diag.Warnings)
	}
}

func TestImport_Warnings(t *testing.T) {
	doc := `{"type": "object", "properties": {
		"n":    {"$ref": "#/$defs/node"},
		"mail": {"type": "string", "format": "idn-email"},
		"x":    {"type": "string", "contentEncoding": "base64"}
	}, "$defs": {"node": {"type": "object", "properties": {"next": {"$ref": "#/$defs/node"}}}}}`

	_, diag, err := jsonschema.Import([]byte(doc), jsonschema.ImportOptions{})
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(diag.Warnings, "\n")
	for _, frag := range []string{"cyclic $ref", `format "idn-email"`, `keyword "contentEncoding"`} {
		if !strings.Contains(joined, frag) {
			t.Fatalf("missing %q in\n%s", frag, joined)
		}
	}

	_, _, err = jsonschema.Import([]byte(doc), jsonschema.ImportOptions{Strict: true})
	if !errors.Is(err, jsonschema.ErrImport) {
		t.Fatalf("err=%v", err)
	}
}

func TestImport_ExportRoundTrip(t *testing.T) {
	orig := g.Object().
		Field("name", g.String().Min(2).Regex(`^[a-z]+$`)).
		Field("score", g.Number().Int().Max(10).Optional()).
		Strict()
	exported, err := jsonschema.Document(orig.Descriptor())
	if err != nil {
		t.Fatal(err)
	}
	d, diag, err := jsonschema.Import(exported, jsonschema.ImportOptions{})
	if err != nil || len(diag.Warnings) != 0 {
		t.Fatalf("err=%v warnings=%v", err, diag.Warnings)
	}
	s, err := g.FromDescriptor(d)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range []any{
		map[string]any{"name": "ab"},
		map[string]any{"name": "a"},
		map[string]any{"name": "ab", "score": 11.0},
		map[string]any{"name": "ab", "other": true},
	} {
		_, e1 := orig.Parse(context.Background(), v)
		_, e2 := s.Parse(context.Background(), v)
		if (e1 == nil) != (e2 == nil) {
			t.Fatalf("%v: built=%v imported=%v", v, e1, e2)
		}
	}
}
