// Package dsl provides the interpreted validator nodes of fastskema.
//
// Overview
//   - Primitives: String(), Number(), Bool(), Null(), Any(), Unknown(), Never(), Literal(v), Enum(vs...).
//   - Composites: Object().Field(...), Array(elem), Tuple(items...), Record(value),
//     Union(opts...), DiscriminatedUnion(field, branches...), Intersection(l, r).
//   - Modifiers: Optional/Nullable/Nullish/Default, available on every node as chain methods.
//   - Effects: Refine/RefineCtx/SuperRefine/Transform/Pipe, run only after the wrapped node succeeds.
//   - Recursion: a Registry arena with Define/Ref, or Lazy(getter) for one-off self references.
//   - Descriptors: every node reports a fastskema.Descriptor; FromDescriptor rebuilds nodes from one.
//
// Error model
//   - Every node returns fastskema.Issues. Composites prefix child paths with
//     the key or index, so issue paths are always relative to the root.
//   - Object keys are checked in declaration order, so issue order is stable.
//   - Unions report a single invalid_union issue; call Diagnostics() to keep
//     the per-option issues under Issue.Details.
//
// Example (quickstart)
//
//	package main
//
//	import (
//	    "context"
//
//	    "github.com/reoring/fastskema"
//	    g "github.com/reoring/fastskema/dsl"
//	)
//
//	func main() {
//	    ctx := context.Background()
//	    user := g.Object().
//	        Field("id", g.String().UUID()).
//	        Field("email", g.String().Email()).
//	        Field("age", g.Number().Int().Min(0).Optional()).
//	        Strict()
//
//	    res := fastskema.SafeParse(ctx, user, map[string]any{"id": "x", "email": "a@b.co"})
//	    _ = res.Issues // invalid_string at /id
//	}
//
// Example (recursive schema)
//
//	reg := g.NewRegistry()
//	reg.Define("node", g.Object().
//	    Field("value", g.Number()).
//	    Field("children", g.Array(reg.Ref("node")).Optional()))
//	node, _ := reg.Lookup("node")
//	_, err := fastskema.Parse(ctx, node, input)
//
// Example (cross-field validation)
//
//	signup := g.Object().
//	    Field("password", g.String().Min(8)).
//	    Field("confirm", g.String()).
//	    SuperRefine(func(v any, rc *g.RefineContext) {
//	        m := v.(map[string]any)
//	        if m["password"] != m["confirm"] {
//	            rc.Report(rc.Path().Field("confirm").Issue(fastskema.CodeCustom, "passwords do not match"))
//	        }
//	    })
package dsl
