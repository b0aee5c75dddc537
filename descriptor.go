package fastskema

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Descriptor type tags.
const (
	TypeString             = "string"
	TypeNumber             = "number"
	TypeBoolean            = "boolean"
	TypeNull               = "null"
	TypeAny                = "any"
	TypeUnknown            = "unknown"
	TypeNever              = "never"
	TypeUndefined          = "undefined"
	TypeLiteral            = "literal"
	TypeEnum               = "enum"
	TypeObject             = "object"
	TypeArray              = "array"
	TypeTuple              = "tuple"
	TypeRecord             = "record"
	TypeUnion              = "union"
	TypeDiscriminatedUnion = "discriminatedUnion"
	TypeIntersection       = "intersection"
	TypeOptional           = "optional"
	TypeNullable           = "nullable"
	TypeNullish            = "nullish"
	TypeDefault            = "default"
	TypeEffects            = "effects"
	TypeLazy               = "lazy"
)

// Check is one declared constraint. Kind selects the rule (min, max, length,
// email, regex, int, multipleOf, trim, ...). Number carries bounds and
// lengths, Text carries patterns, prefixes and format names.
type Check struct {
	Kind      string   `json:"kind" yaml:"kind"`
	Number    *float64 `json:"number,omitempty" yaml:"number,omitempty"`
	Text      string   `json:"text,omitempty" yaml:"text,omitempty"`
	Exclusive bool     `json:"exclusive,omitempty" yaml:"exclusive,omitempty"`
	Message   string   `json:"message,omitempty" yaml:"message,omitempty"`
}

// N returns the numeric operand or 0.
func (c Check) N() float64 {
	if c.Number == nil {
		return 0
	}
	return *c.Number
}

// Property is one declared object key, kept in declaration order.
type Property struct {
	Name   string      `json:"name" yaml:"name"`
	Schema *Descriptor `json:"schema" yaml:"schema"`
}

// Descriptor is the immutable, serializable shape of a validator. It is
// produced once per node and drives introspection, JSON Schema export and
// translation to the accelerated backend.
type Descriptor struct {
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// string, number and array constraints
	Checks []Check `json:"checks,omitempty" yaml:"checks,omitempty"`
	Unique bool    `json:"unique,omitempty" yaml:"unique,omitempty"`

	// literal / enum
	Value  *any  `json:"value,omitempty" yaml:"value,omitempty"`
	Values []any `json:"values,omitempty" yaml:"values,omitempty"`

	// object
	Shape       []Property `json:"shape,omitempty" yaml:"shape,omitempty"`
	UnknownKeys string     `json:"unknownKeys,omitempty" yaml:"unknownKeys,omitempty"`

	// array / tuple / record
	Element   *Descriptor   `json:"element,omitempty" yaml:"element,omitempty"`
	Items     []*Descriptor `json:"items,omitempty" yaml:"items,omitempty"`
	Rest      *Descriptor   `json:"rest,omitempty" yaml:"rest,omitempty"`
	KeyType   *Descriptor   `json:"keyType,omitempty" yaml:"keyType,omitempty"`
	ValueType *Descriptor   `json:"valueType,omitempty" yaml:"valueType,omitempty"`

	// union / discriminated union / intersection
	Options       []*Descriptor `json:"options,omitempty" yaml:"options,omitempty"`
	Discriminator string        `json:"discriminator,omitempty" yaml:"discriminator,omitempty"`
	Diagnostics   bool          `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Left          *Descriptor   `json:"left,omitempty" yaml:"left,omitempty"`
	Right         *Descriptor   `json:"right,omitempty" yaml:"right,omitempty"`

	// modifiers and effects
	Inner   *Descriptor `json:"inner,omitempty" yaml:"inner,omitempty"`
	Default *any        `json:"default,omitempty" yaml:"default,omitempty"`
	Effect  string      `json:"effect,omitempty" yaml:"effect,omitempty"`
	Ref     string      `json:"ref,omitempty" yaml:"ref,omitempty"`
	// Opaque marks nodes backed by Go closures (refine, transform) that
	// cannot be rebuilt from the descriptor alone.
	Opaque bool `json:"opaque,omitempty" yaml:"opaque,omitempty"`
}

// ValuePtr boxes v for the Value and Default fields.
func ValuePtr(v any) *any { return &v }

// Children returns the direct child descriptors in a stable order.
func (d *Descriptor) Children() []*Descriptor {
	if d == nil {
		return nil
	}
	var out []*Descriptor
	for _, p := range d.Shape {
		out = append(out, p.Schema)
	}
	out = append(out, d.Items...)
	out = append(out, d.Options...)
	for _, c := range []*Descriptor{d.Element, d.Rest, d.KeyType, d.ValueType, d.Left, d.Right, d.Inner} {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits d and its descendants depth-first. Returning false from fn
// prunes the subtree.
func (d *Descriptor) Walk(fn func(*Descriptor) bool) {
	if d == nil || !fn(d) {
		return
	}
	for _, c := range d.Children() {
		c.Walk(fn)
	}
}

// Complexity counts 1 per node plus the complexity of every nested child.
func (d *Descriptor) Complexity() int {
	if d == nil {
		return 0
	}
	n := 1
	for _, c := range d.Children() {
		n += c.Complexity()
	}
	return n
}

// Depth returns the maximum nesting of container nodes (objects, arrays,
// tuples, records). Wrappers do not add depth.
func (d *Descriptor) Depth() int {
	if d == nil {
		return 0
	}
	best := 0
	for _, c := range d.Children() {
		best = max(best, c.Depth())
	}
	switch d.Type {
	case TypeObject, TypeArray, TypeTuple, TypeRecord:
		return best + 1
	default:
		return best
	}
}

// Translatable reports whether every node can be rebuilt from the descriptor
// alone, which is what the accelerated backend requires.
func (d *Descriptor) Translatable() bool {
	ok := true
	d.Walk(func(n *Descriptor) bool {
		if n.Opaque || n.Type == TypeLazy {
			ok = false
		}
		return ok
	})
	return ok
}

// Signature returns a stable shape key "type:hash" derived from the canonical
// JSON encoding.
func (d *Descriptor) Signature() string {
	if d == nil {
		return "nil"
	}
	b, err := json.Marshal(d)
	if err != nil {
		return d.Type + ":" + err.Error()
	}
	return d.Type + ":" + strconv.FormatUint(xxhash.Sum64(b), 16)
}

// Property looks up a declared object key.
func (d *Descriptor) Property(name string) (*Descriptor, bool) {
	if d == nil {
		return nil, false
	}
	for _, p := range d.Shape {
		if p.Name == name {
			return p.Schema, true
		}
	}
	return nil, false
}

// Unwrap strips optional/nullable/nullish/default wrappers.
func (d *Descriptor) Unwrap() *Descriptor {
	for d != nil {
		switch d.Type {
		case TypeOptional, TypeNullable, TypeNullish, TypeDefault:
			d = d.Inner
		default:
			return d
		}
	}
	return d
}

// ---- serialization ----

// EncodeDescriptorJSON renders d as JSON.
func EncodeDescriptorJSON(d *Descriptor) ([]byte, error) { return json.Marshal(d) }

// DecodeDescriptorJSON parses a JSON descriptor.
func DecodeDescriptorJSON(b []byte) (*Descriptor, error) {
	var d Descriptor
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("fastskema: decode descriptor: %w", err)
	}
	if err := d.validateTags(); err != nil {
		return nil, err
	}
	return &d, nil
}

// EncodeDescriptorYAML renders d as YAML.
func EncodeDescriptorYAML(d *Descriptor) ([]byte, error) { return yaml.Marshal(d) }

// DecodeDescriptorYAML parses a YAML descriptor.
func DecodeDescriptorYAML(b []byte) (*Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("fastskema: decode descriptor: %w", err)
	}
	normalizeYAMLDescriptor(&d)
	if err := d.validateTags(); err != nil {
		return nil, err
	}
	return &d, nil
}

func (d *Descriptor) validateTags() error {
	var bad error
	d.Walk(func(n *Descriptor) bool {
		if n.Type == "" {
			bad = fmt.Errorf("fastskema: descriptor node without type")
			return false
		}
		return bad == nil
	})
	return bad
}

// normalizeYAMLDescriptor rewrites yaml-decoded literal/default values so that
// nested maps are map[string]any, as JSON decoding would produce.
func normalizeYAMLDescriptor(d *Descriptor) {
	d.Walk(func(n *Descriptor) bool {
		if n.Value != nil {
			v := NormalizeYAML(*n.Value)
			n.Value = &v
		}
		if n.Default != nil {
			v := NormalizeYAML(*n.Default)
			n.Default = &v
		}
		for i := range n.Values {
			n.Values[i] = NormalizeYAML(n.Values[i])
		}
		return true
	})
}
