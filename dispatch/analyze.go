package dispatch

import (
	fastskema "github.com/reoring/fastskema"
)

// Analysis summarizes the performance profile of a schema shape.
type Analysis struct {
	Type         string `json:"type"`
	Complexity   int    `json:"complexity"`
	Depth        int    `json:"depth"`
	Signature    string `json:"signature"`
	Translatable bool   `json:"translatable"`
	HasPatterns  bool   `json:"hasPatterns"`

	// EstimatedCost is a relative per-validation cost in abstract units
	// (roughly microseconds on the interpreted backend).
	EstimatedCost   int      `json:"estimatedCost"`
	Backend         string   `json:"suggestedBackend"`
	Recommendations []string `json:"recommendations"`
}

// Analyze profiles d against cfg's thresholds.
func Analyze(d *fastskema.Descriptor, cfg Config) Analysis {
	a := Analysis{
		Type:          d.Type,
		Complexity:    d.Complexity(),
		Depth:         d.Depth(),
		Signature:     d.Signature(),
		Translatable:  d.Translatable(),
		HasPatterns:   hasPatterns(d),
		EstimatedCost: cost(d),
	}
	switch {
	case !a.Translatable:
		a.Backend = BackendInterpreted.String()
	case cfg.PreferAccelerated || a.Complexity >= cfg.ComplexityThreshold:
		a.Backend = BackendAccelerated.String()
	default:
		a.Backend = BackendAuto.String()
	}

	if a.Complexity > 100 {
		a.Recommendations = append(a.Recommendations, "Consider simplifying the schema for better performance")
	}
	if a.Depth > 5 {
		a.Recommendations = append(a.Recommendations, "Deep nesting detected - consider flattening the schema")
	}
	if a.HasPatterns {
		a.Recommendations = append(a.Recommendations, "Regex patterns detected - reuse the dispatcher so compiled patterns stay cached")
	}
	if a.Complexity > 50 && a.Depth > 3 {
		a.Recommendations = append(a.Recommendations, "Complex schema detected - consider batch validation for large datasets")
	}
	if !a.Translatable {
		a.Recommendations = append(a.Recommendations, "Refinements, transforms or lazy references keep this schema on the interpreted backend")
	}
	if len(a.Recommendations) == 0 {
		a.Recommendations = []string{"Schema is well-optimized for performance"}
	}
	return a
}

func hasPatterns(d *fastskema.Descriptor) bool {
	found := false
	d.Walk(func(n *fastskema.Descriptor) bool {
		for _, c := range n.Checks {
			if c.Kind == "regex" {
				found = true
			}
		}
		return !found
	})
	return found
}

func cost(d *fastskema.Descriptor) int {
	if d == nil {
		return 0
	}
	sum := func(ds []*fastskema.Descriptor) int {
		n := 0
		for _, c := range ds {
			n += cost(c)
		}
		return n
	}
	switch d.Type {
	case fastskema.TypeString:
		n := 1
		for _, c := range d.Checks {
			switch c.Kind {
			case "regex":
				n += 50
			case "min", "max", "length", "trim", "toLowerCase", "toUpperCase", "startsWith", "endsWith", "includes":
			default:
				n += 10
			}
		}
		return n
	case fastskema.TypeNumber:
		return 2
	case fastskema.TypeBoolean, fastskema.TypeNull, fastskema.TypeAny, fastskema.TypeUnknown,
		fastskema.TypeUndefined, fastskema.TypeLiteral, fastskema.TypeEnum:
		return 1
	case fastskema.TypeArray:
		return 10 + cost(d.Element)
	case fastskema.TypeObject:
		return 20 + sum(d.Children())
	case fastskema.TypeUnion:
		return 100 + sum(d.Options)
	case fastskema.TypeIntersection:
		return cost(d.Left) + cost(d.Right)
	}
	return 10 + sum(d.Children())
}
