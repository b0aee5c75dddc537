package fastskema

// UnknownPolicy controls how unknown object keys are handled.
type UnknownPolicy int

const (
	UnknownStrip       UnknownPolicy = iota // Drop unknown keys (default).
	UnknownStrict                           // Reject unknown keys with an unrecognized_keys issue.
	UnknownPassthrough                      // Copy unknown keys into the output unchanged.
)

// String returns the descriptor spelling of the policy.
func (p UnknownPolicy) String() string {
	switch p {
	case UnknownStrict:
		return "strict"
	case UnknownPassthrough:
		return "passthrough"
	default:
		return "strip"
	}
}

// ParseUnknownPolicy maps a descriptor spelling back to the policy. Unknown
// spellings resolve to UnknownStrip.
func ParseUnknownPolicy(s string) UnknownPolicy {
	switch s {
	case "strict":
		return UnknownStrict
	case "passthrough":
		return UnknownPassthrough
	default:
		return UnknownStrip
	}
}

// NumberMode dictates how numbers are materialized when decoding input.
type NumberMode int

const (
	NumberJSONNumber NumberMode = iota // Preserve json.Number (default).
	NumberFloat64                      // Fast mode (with potential precision loss).
)

// Severity expresses the severity level for input-layer findings.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

// Strictness configures enforcement for duplicate JSON keys.
type Strictness struct {
	OnDuplicateKey Severity
}

// ParseOpt bundles options for the input layer (ParseFrom and friends).
type ParseOpt struct {
	Strictness Strictness
	MaxDepth   int
	MaxBytes   int64
	FailFast   bool
}

// Modifier tags a wrapper node so that composites can ask how a child treats
// absent and null input without inspecting concrete wrapper types.
type Modifier int

const (
	ModPlain    Modifier = iota
	ModOptional          // accepts Undefined
	ModNullable          // accepts nil
	ModNullish           // accepts Undefined and nil
	ModDefault           // substitutes a value for Undefined
)

func (m Modifier) String() string {
	switch m {
	case ModOptional:
		return "optional"
	case ModNullable:
		return "nullable"
	case ModNullish:
		return "nullish"
	case ModDefault:
		return "default"
	default:
		return "plain"
	}
}

// AcceptsUndefined reports whether a node tagged with m may be fed Undefined
// when its key is absent from an object.
func (m Modifier) AcceptsUndefined() bool {
	return m == ModOptional || m == ModNullish || m == ModDefault
}

// Modified is implemented by wrapper nodes that carry a Modifier tag, and by
// leaf nodes that accept an absent key.
type Modified interface {
	Modifier() Modifier
}

// ModifierOf returns the modifier tag of s, or ModPlain for ordinary nodes.
func ModifierOf(s Schema) Modifier {
	if m, ok := s.(Modified); ok {
		return m.Modifier()
	}
	return ModPlain
}

type undefinedType struct{}

func (undefinedType) String() string { return "undefined" }

// Undefined stands for an absent value (a missing object key or an omitted
// root). nil is reserved for JSON null.
var Undefined any = undefinedType{}

// IsUndefined reports whether v is the Undefined sentinel.
func IsUndefined(v any) bool {
	_, ok := v.(undefinedType)
	return ok
}
