// Package fastskema is the core of a schema validation library with two
// interchangeable backends.
//
//   - Schema is the contract every validator node satisfies: Parse returns
//     the cleaned value or Issues, and Descriptor exposes the immutable shape.
//   - Issues is the stable error model (code, message, path as JSON Pointer).
//     Result is its wire form: {"success", "data", "error"}.
//   - Descriptor is the serializable shape used for introspection (Complexity,
//     Depth, Signature), JSON Schema export and translation to the accelerated
//     backend.
//   - ParseFrom/ParseJSON/StreamParse decode input through an enforcing token
//     source (duplicate keys, depth and size limits) before validation.
//
// Layout: the root package holds public types only. Validator nodes live in
// dsl/, the compiled backend in accel/, backend selection in dispatch/, bulk
// validation in batch/ and the command-line tool in cmd/fastskema.
//
// Typical usage:
//
//	s := g.Object().Field("name", g.String().Min(1))
//	v, err := fastskema.ParseJSON(ctx, s, data)
//	res := fastskema.SafeParse(ctx, s, input)
package fastskema
