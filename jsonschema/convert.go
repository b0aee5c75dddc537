package jsonschema

import (
	"fmt"
	"regexp"

	fastskema "github.com/reoring/fastskema"
	"github.com/reoring/fastskema/internal/checks"
)

// FromDescriptor projects d onto JSON Schema. Refinements and transforms have
// no JSON Schema counterpart and project to their input schema; lazy
// references become $ref pointers into $defs.
func FromDescriptor(d *fastskema.Descriptor) (*Schema, error) {
	if d == nil {
		return nil, fmt.Errorf("jsonschema: nil descriptor")
	}
	s, err := convert(d)
	if err != nil {
		return nil, err
	}
	if d.Description != "" && s.Description == "" {
		s.Description = d.Description
	}
	return s, nil
}

// Document is FromDescriptor with the $schema dialect set.
func Document(d *fastskema.Descriptor) (*Schema, error) {
	s, err := FromDescriptor(d)
	if err != nil {
		return nil, err
	}
	s.Dialect = Draft
	return s, nil
}

func convert(d *fastskema.Descriptor) (*Schema, error) {
	switch d.Type {
	case fastskema.TypeString:
		return stringSchema(d)
	case fastskema.TypeNumber:
		return numberSchema(d)
	case fastskema.TypeBoolean, fastskema.TypeNull:
		return &Schema{Type: d.Type}, nil
	case fastskema.TypeAny, fastskema.TypeUnknown:
		return &Schema{}, nil
	case fastskema.TypeNever, fastskema.TypeUndefined:
		// undefined fields are left out of required, so only presence fails
		return &Schema{Not: &Schema{}}, nil
	case fastskema.TypeLiteral:
		var v any
		if d.Value != nil {
			v = *d.Value
		}
		return &Schema{Const: &v}, nil
	case fastskema.TypeEnum:
		return &Schema{Enum: append([]any(nil), d.Values...)}, nil
	case fastskema.TypeObject:
		return objectSchema(d)
	case fastskema.TypeArray:
		items, err := FromDescriptor(d.Element)
		if err != nil {
			return nil, err
		}
		s := &Schema{Type: "array", Items: items, UniqueItems: d.Unique}
		for _, c := range d.Checks {
			n := int(c.N())
			switch c.Kind {
			case "min":
				s.MinItems = &n
			case "nonempty":
				one := 1
				s.MinItems = &one
			case "max":
				s.MaxItems = &n
			case "length":
				s.MinItems, s.MaxItems = &n, &n
			}
		}
		return s, nil
	case fastskema.TypeTuple:
		s := &Schema{Type: "array"}
		for _, it := range d.Items {
			c, err := FromDescriptor(it)
			if err != nil {
				return nil, err
			}
			s.PrefixItems = append(s.PrefixItems, c)
		}
		n := len(d.Items)
		s.MinItems = &n
		if d.Rest != nil {
			rest, err := FromDescriptor(d.Rest)
			if err != nil {
				return nil, err
			}
			s.Items = rest
		} else {
			s.MaxItems = &n
		}
		return s, nil
	case fastskema.TypeRecord:
		val, err := FromDescriptor(d.ValueType)
		if err != nil {
			return nil, err
		}
		s := &Schema{Type: "object", AdditionalProperties: val}
		if d.KeyType != nil {
			if s.PropertyNames, err = FromDescriptor(d.KeyType); err != nil {
				return nil, err
			}
		}
		return s, nil
	case fastskema.TypeUnion, fastskema.TypeDiscriminatedUnion:
		opts := make([]*Schema, len(d.Options))
		for i, o := range d.Options {
			c, err := FromDescriptor(o)
			if err != nil {
				return nil, err
			}
			opts[i] = c
		}
		if d.Type == fastskema.TypeUnion {
			return &Schema{AnyOf: opts}, nil
		}
		return &Schema{OneOf: opts, Discriminator: &Discriminator{PropertyName: d.Discriminator}}, nil
	case fastskema.TypeIntersection:
		l, err := FromDescriptor(d.Left)
		if err != nil {
			return nil, err
		}
		r, err := FromDescriptor(d.Right)
		if err != nil {
			return nil, err
		}
		return &Schema{AllOf: []*Schema{l, r}}, nil
	case fastskema.TypeOptional:
		return FromDescriptor(d.Inner)
	case fastskema.TypeNullable, fastskema.TypeNullish:
		inner, err := FromDescriptor(d.Inner)
		if err != nil {
			return nil, err
		}
		return &Schema{AnyOf: []*Schema{inner, {Type: "null"}}}, nil
	case fastskema.TypeDefault:
		inner, err := FromDescriptor(d.Inner)
		if err != nil {
			return nil, err
		}
		if d.Default != nil {
			v := *d.Default
			inner.Default = &v
		}
		return inner, nil
	case fastskema.TypeEffects:
		return FromDescriptor(d.Inner)
	case fastskema.TypeLazy:
		return &Schema{Ref: "#/$defs/" + d.Ref}, nil
	}
	return nil, fmt.Errorf("jsonschema: unsupported descriptor type %q", d.Type)
}

func stringSchema(d *fastskema.Descriptor) (*Schema, error) {
	s := &Schema{Type: "string"}
	var patterns []string
	for _, c := range d.Checks {
		n := int(c.N())
		switch c.Kind {
		case "min":
			s.MinLength = &n
		case "nonempty":
			one := 1
			s.MinLength = &one
		case "max":
			s.MaxLength = &n
		case "length":
			s.MinLength, s.MaxLength = &n, &n
		case "regex":
			patterns = append(patterns, c.Text)
		case "startsWith":
			patterns = append(patterns, "^"+regexp.QuoteMeta(c.Text))
		case "endsWith":
			patterns = append(patterns, regexp.QuoteMeta(c.Text)+"$")
		case "includes":
			patterns = append(patterns, regexp.QuoteMeta(c.Text))
		case "email", "uuid", "hostname":
			s.Format = c.Kind
		case "url":
			s.Format = "uri"
		case "datetime":
			s.Format = "date-time"
		case "ip":
			s.Format = "ipv4"
		case "format":
			s.Format = c.Text
		}
	}
	for i, p := range patterns {
		if i == 0 {
			s.Pattern = p
			continue
		}
		s.AllOf = append(s.AllOf, &Schema{Pattern: p})
	}
	return s, nil
}

func numberSchema(d *fastskema.Descriptor) (*Schema, error) {
	s := &Schema{Type: "number"}
	for _, c := range d.Checks {
		v := c.N()
		switch c.Kind {
		case "int":
			s.Type = "integer"
		case "min":
			if c.Exclusive {
				s.ExclusiveMinimum = &v
			} else {
				s.Minimum = &v
			}
		case "max":
			if c.Exclusive {
				s.ExclusiveMaximum = &v
			} else {
				s.Maximum = &v
			}
		case "multipleOf":
			s.MultipleOf = &v
		}
	}
	return s, nil
}

func objectSchema(d *fastskema.Descriptor) (*Schema, error) {
	s := &Schema{Type: "object", Properties: make(map[string]*Schema, len(d.Shape))}
	for _, p := range d.Shape {
		c, err := FromDescriptor(p.Schema)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Name, err)
		}
		s.Properties[p.Name] = c
		if !checks.AcceptsUndefined(p.Schema) {
			s.Required = append(s.Required, p.Name)
		}
	}
	switch fastskema.ParseUnknownPolicy(d.UnknownKeys) {
	case fastskema.UnknownStrict:
		s.AdditionalProperties = false
	case fastskema.UnknownPassthrough:
		s.AdditionalProperties = true
	}
	return s, nil
}
