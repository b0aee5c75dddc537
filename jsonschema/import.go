package jsonschema

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	fastskema "github.com/reoring/fastskema"
	"github.com/reoring/fastskema/internal/checks"
)

// ImportOptions controls how a JSON Schema document becomes a Descriptor.
type ImportOptions struct {
	// Unknown applies to objects that do not declare additionalProperties.
	// JSON Schema allows extra keys there, so the zero value strips them.
	Unknown fastskema.UnknownPolicy
	// Strict turns warnings (unsupported keywords, unresolved references)
	// into an error.
	Strict bool
}

// Diag carries non-fatal findings produced during import.
type Diag struct {
	Warnings []string
}

func (d *Diag) warnf(ptr, f string, a ...any) {
	d.Warnings = append(d.Warnings, ptr+": "+fmt.Sprintf(f, a...))
}

// ErrImport wraps every import failure.
var ErrImport = errors.New("jsonschema: import")

// Import compiles a JSON Schema (draft 2020-12 or OpenAPI v3 flavour) into a
// Descriptor. doc may be raw JSON or YAML bytes, a decoded map or a *Schema.
// A wrapping openAPIV3Schema key or a CustomResourceDefinition document is
// unwrapped first.
func Import(doc any, opts ImportOptions) (*fastskema.Descriptor, *Diag, error) {
	diag := &Diag{}
	root, err := toMap(doc)
	if err != nil {
		return nil, diag, fmt.Errorf("%w: %w", ErrImport, err)
	}
	if spec, ok := root["openAPIV3Schema"].(map[string]any); ok {
		root = spec
	} else if crd := unwrapCRD(root); crd != nil {
		root = crd
	}
	im := &importer{opts: opts, diag: diag, defs: map[string]map[string]any{}, active: map[string]bool{}}
	for _, key := range []string{"$defs", "definitions"} {
		if m, ok := root[key].(map[string]any); ok {
			for name, raw := range m {
				if s, ok := raw.(map[string]any); ok {
					im.defs["#/"+key+"/"+name] = s
				}
			}
		}
	}
	d, err := im.node(root, "")
	if err != nil {
		return nil, diag, fmt.Errorf("%w: %w", ErrImport, err)
	}
	if opts.Strict && len(diag.Warnings) > 0 {
		return nil, diag, fmt.Errorf("%w: %s", ErrImport, strings.Join(diag.Warnings, "; "))
	}
	return d, diag, nil
}

func toMap(doc any) (map[string]any, error) {
	switch t := doc.(type) {
	case nil:
		return nil, errors.New("nil schema")
	case map[string]any:
		return t, nil
	case []byte:
		var m map[string]any
		if err := json.Unmarshal(t, &m); err == nil {
			return m, nil
		}
		var y any
		if err := yaml.Unmarshal(t, &y); err != nil {
			return nil, fmt.Errorf("schema is neither JSON nor YAML: %w", err)
		}
		m, ok := stringKeys(y).(map[string]any)
		if !ok {
			return nil, errors.New("schema document is not an object")
		}
		return m, nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("cannot marshal %T: %w", doc, err)
		}
		var m map[string]any
		if err := json.Unmarshal(b, &m); err != nil {
			return nil, err
		}
		return m, nil
	}
}

// stringKeys normalizes YAML maps and integers so nested documents share
// the JSON shape.
func stringKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, x := range t {
			t[k] = stringKeys(x)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[fmt.Sprint(k)] = stringKeys(x)
		}
		return out
	case []any:
		for i, x := range t {
			t[i] = stringKeys(x)
		}
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	}
	return v
}

// unwrapCRD extracts spec.versions[].schema.openAPIV3Schema, preferring a
// served version, then the legacy spec.validation.openAPIV3Schema.
func unwrapCRD(root map[string]any) map[string]any {
	spec, ok := root["spec"].(map[string]any)
	if !ok {
		return nil
	}
	var first map[string]any
	vers, _ := spec["versions"].([]any)
	for _, v := range vers {
		vm, _ := v.(map[string]any)
		sch, _ := vm["schema"].(map[string]any)
		oas, ok := sch["openAPIV3Schema"].(map[string]any)
		if !ok {
			continue
		}
		if served, set := vm["served"].(bool); !set || served {
			return oas
		}
		if first == nil {
			first = oas
		}
	}
	if first != nil {
		return first
	}
	if val, ok := spec["validation"].(map[string]any); ok {
		if oas, ok := val["openAPIV3Schema"].(map[string]any); ok {
			return oas
		}
	}
	return nil
}

type importer struct {
	opts   ImportOptions
	diag   *Diag
	defs   map[string]map[string]any
	active map[string]bool
}

var ignoredKeywords = map[string]bool{
	"$schema": true, "$id": true, "$defs": true, "definitions": true, "$comment": true,
	"title": true, "examples": true, "example": true, "deprecated": true,
	"readOnly": true, "writeOnly": true, "x-kubernetes-preserve-unknown-fields": true,
}

func (im *importer) node(s map[string]any, ptr string) (*fastskema.Descriptor, error) {
	if ref, ok := s["$ref"].(string); ok {
		return im.ref(s, ref, ptr)
	}
	d, err := im.base(s, ptr)
	if err != nil {
		return nil, err
	}
	if all, ok := s["allOf"].([]any); ok {
		for i, raw := range all {
			sub, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s/allOf/%d: not a schema", ptr, i)
			}
			r, err := im.node(sub, fmt.Sprintf("%s/allOf/%d", ptr, i))
			if err != nil {
				return nil, err
			}
			d = intersect(d, r)
		}
	}
	if nullable, _ := s["nullable"].(bool); nullable {
		d = &fastskema.Descriptor{Type: fastskema.TypeNullable, Inner: d}
	}
	d = withDefault(d, s)
	if desc, ok := s["description"].(string); ok {
		d.Description = desc
	}
	for k := range s {
		if !known[k] && !ignoredKeywords[k] && !strings.HasPrefix(k, "x-") {
			im.diag.warnf(ptr, "keyword %q is not supported", k)
		}
	}
	return d, nil
}

var known = map[string]bool{
	"$ref": true, "type": true, "enum": true, "const": true, "description": true, "default": true,
	"nullable": true, "format": true, "pattern": true, "minLength": true, "maxLength": true,
	"minimum": true, "maximum": true, "exclusiveMinimum": true, "exclusiveMaximum": true, "multipleOf": true,
	"properties": true, "required": true, "additionalProperties": true, "propertyNames": true,
	"items": true, "prefixItems": true, "minItems": true, "maxItems": true, "uniqueItems": true,
	"oneOf": true, "anyOf": true, "allOf": true, "not": true, "discriminator": true,
}

func intersect(l, r *fastskema.Descriptor) *fastskema.Descriptor {
	if l.Type == fastskema.TypeUnknown {
		return r
	}
	return &fastskema.Descriptor{Type: fastskema.TypeIntersection, Left: l, Right: r}
}

// ref inlines a local definition. Sibling keywords are merged over the
// target, explicit ones winning. A reference cycle imports as unknown.
func (im *importer) ref(s map[string]any, ref, ptr string) (*fastskema.Descriptor, error) {
	target, ok := im.defs[ref]
	if !ok {
		im.diag.warnf(ptr, "$ref %q does not resolve to a local definition", ref)
		return &fastskema.Descriptor{Type: fastskema.TypeUnknown}, nil
	}
	if im.active[ref] {
		im.diag.warnf(ptr, "cyclic $ref %q imported as unknown", ref)
		return &fastskema.Descriptor{Type: fastskema.TypeUnknown}, nil
	}
	merged := make(map[string]any, len(target)+len(s))
	for k, v := range target {
		merged[k] = v
	}
	for k, v := range s {
		if k != "$ref" {
			merged[k] = v
		}
	}
	im.active[ref] = true
	defer delete(im.active, ref)
	return im.node(merged, ptr)
}

func (im *importer) base(s map[string]any, ptr string) (*fastskema.Descriptor, error) {
	if v, ok := s["const"]; ok {
		return &fastskema.Descriptor{Type: fastskema.TypeLiteral, Value: fastskema.ValuePtr(v)}, nil
	}
	if vs, ok := s["enum"].([]any); ok {
		return &fastskema.Descriptor{Type: fastskema.TypeEnum, Values: vs}, nil
	}
	if not, ok := s["not"].(map[string]any); ok {
		if len(not) != 0 {
			im.diag.warnf(ptr, "only the empty \"not\" schema is supported")
		}
		return &fastskema.Descriptor{Type: fastskema.TypeNever}, nil
	}
	for _, kw := range []string{"oneOf", "anyOf"} {
		if opts, ok := s[kw].([]any); ok {
			return im.union(s, kw, opts, ptr)
		}
	}

	switch t := s["type"].(type) {
	case string:
		return im.typed(t, s, ptr)
	case []any:
		var (
			opts     []*fastskema.Descriptor
			nullable bool
		)
		for _, x := range t {
			name, _ := x.(string)
			if name == "null" {
				nullable = true
				continue
			}
			d, err := im.typed(name, s, ptr)
			if err != nil {
				return nil, err
			}
			opts = append(opts, d)
		}
		var d *fastskema.Descriptor
		switch len(opts) {
		case 0:
			return &fastskema.Descriptor{Type: fastskema.TypeNull}, nil
		case 1:
			d = opts[0]
		default:
			d = &fastskema.Descriptor{Type: fastskema.TypeUnion, Options: opts}
		}
		if nullable {
			d = &fastskema.Descriptor{Type: fastskema.TypeNullable, Inner: d}
		}
		return d, nil
	case nil:
		switch {
		case s["properties"] != nil || s["additionalProperties"] != nil:
			return im.typed("object", s, ptr)
		case s["items"] != nil || s["prefixItems"] != nil:
			return im.typed("array", s, ptr)
		case s["pattern"] != nil || s["minLength"] != nil || s["maxLength"] != nil || s["format"] != nil:
			return im.typed("string", s, ptr)
		case s["minimum"] != nil || s["maximum"] != nil || s["multipleOf"] != nil:
			return im.typed("number", s, ptr)
		}
		if pk, _ := s["x-kubernetes-preserve-unknown-fields"].(bool); pk {
			return &fastskema.Descriptor{Type: fastskema.TypeAny}, nil
		}
		return &fastskema.Descriptor{Type: fastskema.TypeUnknown}, nil
	}
	return nil, fmt.Errorf("%s/type: unexpected %T", ptr, s["type"])
}

func (im *importer) union(s map[string]any, kw string, raw []any, ptr string) (*fastskema.Descriptor, error) {
	opts := make([]*fastskema.Descriptor, 0, len(raw))
	for i, r := range raw {
		sub, ok := r.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s/%s/%d: not a schema", ptr, kw, i)
		}
		d, err := im.node(sub, fmt.Sprintf("%s/%s/%d", ptr, kw, i))
		if err != nil {
			return nil, err
		}
		opts = append(opts, d)
	}
	if disc, ok := s["discriminator"].(map[string]any); ok {
		if prop, _ := disc["propertyName"].(string); prop != "" {
			return &fastskema.Descriptor{Type: fastskema.TypeDiscriminatedUnion, Discriminator: prop, Options: opts}, nil
		}
	}
	if kw == "oneOf" {
		im.diag.warnf(ptr, "oneOf without a discriminator imported as a first-match union")
	}
	return &fastskema.Descriptor{Type: fastskema.TypeUnion, Options: opts}, nil
}

func (im *importer) typed(t string, s map[string]any, ptr string) (*fastskema.Descriptor, error) {
	switch t {
	case "string":
		return im.stringNode(s, ptr), nil
	case "number", "integer":
		return numberNode(t, s), nil
	case "boolean":
		return &fastskema.Descriptor{Type: fastskema.TypeBoolean}, nil
	case "null":
		return &fastskema.Descriptor{Type: fastskema.TypeNull}, nil
	case "object":
		return im.object(s, ptr)
	case "array":
		return im.array(s, ptr)
	}
	return nil, fmt.Errorf("%s/type: unknown type %q", ptr, t)
}

func num(s map[string]any, key string) (*float64, bool) {
	switch v := s[key].(type) {
	case float64:
		return &v, true
	case int:
		f := float64(v)
		return &f, true
	case int64:
		f := float64(v)
		return &f, true
	case uint64:
		f := float64(v)
		return &f, true
	}
	return nil, false
}

func (im *importer) stringNode(s map[string]any, ptr string) *fastskema.Descriptor {
	d := &fastskema.Descriptor{Type: fastskema.TypeString}
	if n, ok := num(s, "minLength"); ok {
		d.Checks = append(d.Checks, fastskema.Check{Kind: "min", Number: n})
	}
	if n, ok := num(s, "maxLength"); ok {
		d.Checks = append(d.Checks, fastskema.Check{Kind: "max", Number: n})
	}
	if p, ok := s["pattern"].(string); ok {
		d.Checks = append(d.Checks, fastskema.Check{Kind: "regex", Text: p})
	}
	if f, ok := s["format"].(string); ok {
		if _, found := checks.LookupFormat(f); found {
			d.Checks = append(d.Checks, fastskema.Check{Kind: "format", Text: f})
		} else {
			im.diag.warnf(ptr, "format %q is not registered and is ignored", f)
		}
	}
	return d
}

func numberNode(t string, s map[string]any) *fastskema.Descriptor {
	d := &fastskema.Descriptor{Type: fastskema.TypeNumber}
	if t == "integer" {
		d.Checks = append(d.Checks, fastskema.Check{Kind: "int"})
	}
	// OpenAPI 3.0 spells exclusivity as a boolean next to minimum/maximum.
	exclMin, _ := s["exclusiveMinimum"].(bool)
	exclMax, _ := s["exclusiveMaximum"].(bool)
	if n, ok := num(s, "minimum"); ok {
		d.Checks = append(d.Checks, fastskema.Check{Kind: "min", Number: n, Exclusive: exclMin})
	}
	if n, ok := num(s, "exclusiveMinimum"); ok {
		d.Checks = append(d.Checks, fastskema.Check{Kind: "min", Number: n, Exclusive: true})
	}
	if n, ok := num(s, "maximum"); ok {
		d.Checks = append(d.Checks, fastskema.Check{Kind: "max", Number: n, Exclusive: exclMax})
	}
	if n, ok := num(s, "exclusiveMaximum"); ok {
		d.Checks = append(d.Checks, fastskema.Check{Kind: "max", Number: n, Exclusive: true})
	}
	if n, ok := num(s, "multipleOf"); ok {
		d.Checks = append(d.Checks, fastskema.Check{Kind: "multipleOf", Number: n})
	}
	return d
}

func withDefault(d *fastskema.Descriptor, s map[string]any) *fastskema.Descriptor {
	v, ok := s["default"]
	if !ok {
		return d
	}
	return &fastskema.Descriptor{Type: fastskema.TypeDefault, Inner: d, Default: fastskema.ValuePtr(v)}
}

func (im *importer) object(s map[string]any, ptr string) (*fastskema.Descriptor, error) {
	props, _ := s["properties"].(map[string]any)
	if props == nil {
		if ap, ok := s["additionalProperties"].(map[string]any); ok {
			val, err := im.node(ap, ptr+"/additionalProperties")
			if err != nil {
				return nil, err
			}
			rec := &fastskema.Descriptor{Type: fastskema.TypeRecord, ValueType: val}
			if pn, ok := s["propertyNames"].(map[string]any); ok {
				if rec.KeyType, err = im.node(pn, ptr+"/propertyNames"); err != nil {
					return nil, err
				}
			}
			return rec, nil
		}
	}

	required := map[string]bool{}
	if rs, ok := s["required"].([]any); ok {
		for _, r := range rs {
			if name, ok := r.(string); ok {
				required[name] = true
			}
		}
	}
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	d := &fastskema.Descriptor{Type: fastskema.TypeObject, UnknownKeys: im.opts.Unknown.String()}
	for _, name := range names {
		sub, ok := props[name].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s/properties/%s: not a schema", ptr, name)
		}
		c, err := im.node(sub, ptr+"/properties/"+name)
		if err != nil {
			return nil, err
		}
		if !required[name] && !checks.AcceptsUndefined(c) {
			c = &fastskema.Descriptor{Type: fastskema.TypeOptional, Inner: c}
		}
		d.Shape = append(d.Shape, fastskema.Property{Name: name, Schema: c})
	}
	for name := range required {
		if _, ok := props[name]; !ok {
			im.diag.warnf(ptr, "required key %q has no property schema", name)
		}
	}

	switch ap := s["additionalProperties"].(type) {
	case bool:
		if ap {
			d.UnknownKeys = fastskema.UnknownPassthrough.String()
		} else {
			d.UnknownKeys = fastskema.UnknownStrict.String()
		}
	case map[string]any:
		im.diag.warnf(ptr, "additionalProperties schema next to properties is not enforced; extra keys pass through")
		d.UnknownKeys = fastskema.UnknownPassthrough.String()
	}
	if pk, _ := s["x-kubernetes-preserve-unknown-fields"].(bool); pk {
		d.UnknownKeys = fastskema.UnknownPassthrough.String()
	}
	return d, nil
}

func (im *importer) array(s map[string]any, ptr string) (*fastskema.Descriptor, error) {
	var d *fastskema.Descriptor
	if prefix, ok := s["prefixItems"].([]any); ok {
		d = &fastskema.Descriptor{Type: fastskema.TypeTuple}
		for i, raw := range prefix {
			sub, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s/prefixItems/%d: not a schema", ptr, i)
			}
			c, err := im.node(sub, fmt.Sprintf("%s/prefixItems/%d", ptr, i))
			if err != nil {
				return nil, err
			}
			d.Items = append(d.Items, c)
		}
		if rest, ok := s["items"].(map[string]any); ok {
			c, err := im.node(rest, ptr+"/items")
			if err != nil {
				return nil, err
			}
			d.Rest = c
		} else if s["items"] != false {
			d.Rest = &fastskema.Descriptor{Type: fastskema.TypeUnknown}
		}
		return d, nil
	}

	elem := &fastskema.Descriptor{Type: fastskema.TypeUnknown}
	if it, ok := s["items"].(map[string]any); ok {
		c, err := im.node(it, ptr+"/items")
		if err != nil {
			return nil, err
		}
		elem = c
	}
	d = &fastskema.Descriptor{Type: fastskema.TypeArray, Element: elem}
	if n, ok := num(s, "minItems"); ok {
		d.Checks = append(d.Checks, fastskema.Check{Kind: "min", Number: n})
	}
	if n, ok := num(s, "maxItems"); ok {
		d.Checks = append(d.Checks, fastskema.Check{Kind: "max", Number: n})
	}
	if u, _ := s["uniqueItems"].(bool); u {
		d.Unique = true
	}
	return d, nil
}
