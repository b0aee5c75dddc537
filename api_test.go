package fastskema_test

import (
	"context"
	"errors"
	"testing"
	"time"

	fastskema "github.com/reoring/fastskema"
	g "github.com/reoring/fastskema/dsl"
)

// panicky is a stub Schema whose Parse panics.
type panicky struct{}

func (panicky) Parse(context.Context, any) (any, error) { panic("boom") }
func (panicky) Descriptor() *fastskema.Descriptor       { return &fastskema.Descriptor{Type: "panicky", Opaque: true} }

// foreign returns a non-Issues error.
type foreign struct{}

func (foreign) Parse(context.Context, any) (any, error) { return nil, errors.New("disk on fire") }
func (foreign) Descriptor() *fastskema.Descriptor       { return &fastskema.Descriptor{Type: "foreign", Opaque: true} }

func TestSafeParse_NeverPanics(t *testing.T) {
	for name, s := range map[string]fastskema.Schema{"panic": panicky{}, "foreign": foreign{}, "nil": nil} {
		r := fastskema.SafeParse(context.Background(), s, 1)
		if r.Success || len(r.Error) != 1 || r.Error[0].Code != fastskema.CodeUnknownError {
			t.Fatalf("%s: %+v", name, r)
		}
	}
	if _, err := fastskema.Parse(context.Background(), foreign{}, 1); err == nil {
		t.Fatal("Parse should surface the failure")
	} else if _, ok := fastskema.AsIssues(err); !ok {
		t.Fatalf("Parse must return Issues, got %T", err)
	}
}

func TestParse_ObjectRequiredOptional(t *testing.T) {
	s := g.Object().Field("a", g.String()).Field("b", g.String().Optional())
	for _, in := range []any{map[string]any{}, map[string]any{"b": "x"}} {
		r := fastskema.SafeParse(context.Background(), s, in)
		if r.Success || len(r.Error) != 1 {
			t.Fatalf("in=%v r=%+v", in, r)
		}
		it := r.Error[0]
		if it.Code != fastskema.CodeInvalidType || it.Received != "undefined" || it.Message != "Required" {
			t.Fatalf("issue=%+v", it)
		}
		if !it.Path.Equal(fastskema.Path{"a"}) {
			t.Fatalf("path=%v", it.Path)
		}
	}
}

func TestParse_ArrayIndexing(t *testing.T) {
	r := fastskema.SafeParse(context.Background(), g.Array(g.Number().Min(0)), []any{1, -1, 2})
	if r.Success || len(r.Error) != 1 || !r.Error[0].Path.Equal(fastskema.Path{1}) {
		t.Fatalf("r=%+v", r)
	}
}

func TestParse_Idempotent(t *testing.T) {
	s := g.Object().
		Field("name", g.String().Trim().ToLowerCase()).
		Field("tags", g.Array(g.String()).Default([]any{}))
	ctx := context.Background()
	once := fastskema.MustParse(ctx, s, map[string]any{"name": "  ANN "})
	twice := fastskema.MustParse(ctx, s, once)
	a, b := once.(map[string]any), twice.(map[string]any)
	if a["name"] != "ann" || b["name"] != "ann" || len(b["tags"].([]any)) != 0 {
		t.Fatalf("once=%v twice=%v", once, twice)
	}
}

func TestIs(t *testing.T) {
	if !fastskema.Is(context.Background(), g.Bool(), true) || fastskema.Is(context.Background(), g.Bool(), "true") {
		t.Fatal("Is mismatch")
	}
}

func TestParseAsync(t *testing.T) {
	slow := g.String().RefineCtx(func(ctx context.Context, v any) error {
		select {
		case <-time.After(5 * time.Millisecond):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	r := <-fastskema.ParseAsync(context.Background(), slow, "x")
	if !r.Success || r.Data != "x" {
		t.Fatalf("r=%+v", r)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r = fastskema.SafeParseAsync(ctx, slow, "x")
	if r.Success || r.Error[0].Code != fastskema.CodeUnknownError {
		t.Fatalf("cancelled: %+v", r)
	}
}

func TestParseInto(t *testing.T) {
	type user struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}
	s := g.Object().Field("name", g.String().Trim()).Field("age", g.Number().Int())
	u, err := fastskema.ParseInto[user](context.Background(), s, map[string]any{"name": " ann ", "age": 3})
	if err != nil {
		t.Fatal(err)
	}
	if u != (user{Name: "ann", Age: 3}) {
		t.Fatalf("u=%+v", u)
	}
	if _, err := fastskema.ParseInto[user](context.Background(), s, map[string]any{}); err == nil {
		t.Fatal("expected issues")
	}
}

func TestFailFastContext(t *testing.T) {
	ctx := fastskema.WithFailFast(context.Background(), true)
	if !fastskema.IsFailFast(ctx) || fastskema.IsFailFast(context.Background()) {
		t.Fatal("fail-fast flag not carried")
	}
	s := g.Object().Field("a", g.String()).Field("b", g.String())
	r := fastskema.SafeParse(ctx, s, map[string]any{})
	if len(r.Error) != 1 {
		t.Fatalf("fail-fast should stop at the first issue: %v", r.Error)
	}
}
