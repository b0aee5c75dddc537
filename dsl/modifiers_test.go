package dsl_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	fastskema "github.com/reoring/fastskema"
	g "github.com/reoring/fastskema/dsl"
)

func TestModifiers_Tags(t *testing.T) {
	cases := []struct {
		s    fastskema.Schema
		want fastskema.Modifier
	}{
		{g.String(), fastskema.ModPlain},
		{g.String().Optional(), fastskema.ModOptional},
		{g.String().Nullable(), fastskema.ModNullable},
		{g.String().Nullish(), fastskema.ModNullish},
		{g.String().Default("x"), fastskema.ModDefault},
		{g.String().Optional().Refine(func(any) bool { return true }), fastskema.ModOptional},
	}
	for i, tc := range cases {
		if got := fastskema.ModifierOf(tc.s); got != tc.want {
			t.Fatalf("case %d: got %v want %v", i, got, tc.want)
		}
	}
}

func TestModifiers_NullAndUndefined(t *testing.T) {
	ctx := context.Background()
	if _, err := g.String().Nullable().Parse(ctx, nil); err != nil {
		t.Fatalf("nullable null: %v", err)
	}
	if _, err := g.String().Nullable().Parse(ctx, fastskema.Undefined); err == nil {
		t.Fatalf("nullable must reject undefined")
	}
	if _, err := g.String().Optional().Parse(ctx, nil); err == nil {
		t.Fatalf("optional must reject null")
	}
	for _, in := range []any{nil, fastskema.Undefined, "x"} {
		if _, err := g.String().Nullish().Parse(ctx, in); err != nil {
			t.Fatalf("nullish %#v: %v", in, err)
		}
	}
}

func TestDefault_ReentersValidation(t *testing.T) {
	ctx := context.Background()
	v, err := g.String().Trim().Default("  padded ").Parse(ctx, fastskema.Undefined)
	if err != nil || v != "padded" {
		t.Fatalf("v=%#v err=%v", v, err)
	}
	// a default that does not satisfy the inner schema fails
	if _, err := g.Number().Min(10).Default(1).Parse(ctx, fastskema.Undefined); err == nil {
		t.Fatalf("invalid default must fail")
	}
}

func TestDefault_IsNotShared(t *testing.T) {
	ctx := context.Background()
	s := g.Any().Default(map[string]any{"n": 1}).Transform(func(v any) (any, error) {
		v.(map[string]any)["n"] = 2
		return v, nil
	})
	_, _ = s.Parse(ctx, fastskema.Undefined)
	v, _ := s.Parse(ctx, fastskema.Undefined)
	if v.(map[string]any)["n"] != 2 {
		t.Fatalf("v=%v", v)
	}
	d := s.Descriptor().Inner.Default
	if (*d).(map[string]any)["n"] != 1 {
		t.Fatalf("declared default was mutated: %v", *d)
	}
}

func TestRefine(t *testing.T) {
	ctx := context.Background()
	even := g.Number().Refine(func(v any) bool { return int(v.(float64))%2 == 0 }, "must be even")
	if _, err := even.Parse(ctx, 4); err != nil {
		t.Fatal(err)
	}
	_, err := even.Parse(ctx, 3)
	iss, _ := fastskema.AsIssues(err)
	if len(iss) != 1 || iss[0].Code != fastskema.CodeCustom || iss[0].Message != "must be even" {
		t.Fatalf("issues=%v", iss)
	}
	// the predicate does not run when the inner schema fails
	called := false
	s := g.Number().Refine(func(any) bool { called = true; return true })
	_, _ = s.Parse(ctx, "x")
	if called {
		t.Fatalf("refine ran on invalid input")
	}
}

func TestRefineCtx_ObservesCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	slow := g.String().RefineCtx(func(ctx context.Context, _ any) error {
		<-ctx.Done()
		return ctx.Err()
	})
	res := fastskema.SafeParseAsync(ctx, slow, "x")
	if res.Success || res.Error[0].Code != fastskema.CodeUnknownError {
		t.Fatalf("res=%+v", res)
	}
}

func TestRefineCtx_ErrorBecomesCustom(t *testing.T) {
	ctx := context.Background()
	taken := g.String().RefineCtx(func(context.Context, any) error { return errors.New("username taken") })
	_, err := taken.Parse(ctx, "bob")
	iss, _ := fastskema.AsIssues(err)
	if iss[0].Code != fastskema.CodeCustom || iss[0].Message != "username taken" {
		t.Fatalf("issues=%v", iss)
	}
}

func TestSuperRefine_ReportsNestedPaths(t *testing.T) {
	ctx := context.Background()
	s := g.Object().
		Field("password", g.String()).
		Field("confirm", g.String()).
		SuperRefine(func(v any, rc *g.RefineContext) {
			m := v.(map[string]any)
			if m["password"] != m["confirm"] {
				rc.Report(rc.Path().Field("confirm").Issue(fastskema.CodeCustom, "passwords do not match"))
			}
			if len(m["password"].(string)) < 3 {
				rc.Addf("password shorter than %d", 3)
			}
		})
	outer := g.Object().Field("signup", s)
	_, err := outer.Parse(ctx, map[string]any{"signup": map[string]any{"password": "ab", "confirm": "cd"}})
	iss, _ := fastskema.AsIssues(err)
	if len(iss) != 2 {
		t.Fatalf("issues=%v", iss)
	}
	if iss[0].Path.Pointer() != "/signup/confirm" || iss[1].Path.Pointer() != "/signup" {
		t.Fatalf("paths=%v %v", iss[0].Path, iss[1].Path)
	}
}

func TestTransformAndPipe(t *testing.T) {
	ctx := context.Background()
	length := g.String().Transform(func(v any) (any, error) { return float64(len(v.(string))), nil })
	v, err := length.Pipe(g.Number().Max(3)).Parse(ctx, "abc")
	if err != nil || v != 3.0 {
		t.Fatalf("v=%#v err=%v", v, err)
	}
	_, err = length.Pipe(g.Number().Max(3)).Parse(ctx, "abcd")
	if got := codesOf(t, err); got[0] != fastskema.CodeTooBig {
		t.Fatalf("codes=%v", got)
	}

	failing := g.String().Transform(func(any) (any, error) { return nil, errors.New("boom") })
	_, err = failing.Parse(ctx, "x")
	iss, _ := fastskema.AsIssues(err)
	if iss[0].Code != fastskema.CodeCustom || !strings.Contains(iss[0].Message, "boom") {
		t.Fatalf("issues=%v", iss)
	}
}

func TestRefineFailureNeverTransforms(t *testing.T) {
	ctx := context.Background()
	ran := false
	s := g.String().
		Refine(func(v any) bool { return v != "bad" }).
		Transform(func(v any) (any, error) { ran = true; return v, nil })
	if _, err := s.Parse(ctx, "bad"); err == nil {
		t.Fatal("expected refine failure")
	}
	if ran {
		t.Fatal("transform ran after failed refine")
	}
}

func TestSafeParse_RecoversPanics(t *testing.T) {
	s := g.String().Transform(func(any) (any, error) { panic("kaboom") })
	res := fastskema.SafeParse(context.Background(), s, "x")
	if res.Success || len(res.Error) != 1 || res.Error[0].Code != fastskema.CodeUnknownError {
		t.Fatalf("res=%+v", res)
	}
}
