package batch_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	fastskema "github.com/reoring/fastskema"
	"github.com/reoring/fastskema/batch"
	g "github.com/reoring/fastskema/dsl"
)

func person() fastskema.Schema {
	return g.Object().Field("name", g.String().Min(1)).Field("age", g.Number().Int().Min(0))
}

func TestValidate_Isolation(t *testing.T) {
	items := []any{
		map[string]any{"name": "ann", "age": 3},
		map[string]any{"name": "", "age": -1},
		map[string]any{"name": "bob", "age": 40},
	}
	rs := batch.Validate(context.Background(), person(), items)
	if len(rs) != 3 {
		t.Fatalf("len=%d", len(rs))
	}
	if !rs[0].Success || !rs[2].Success {
		t.Fatalf("valid items failed: %+v %+v", rs[0], rs[2])
	}
	if rs[1].Success || len(rs[1].Error) != 2 {
		t.Fatalf("item 1: %+v", rs[1])
	}
	for _, it := range rs[1].Error {
		if len(it.Path) < 2 || it.Path[0] != 1 {
			t.Fatalf("path not index-prefixed: %v", it.Path)
		}
	}
	if got := rs[1].Error[0].Path.Pointer(); got != "/1/name" {
		t.Fatalf("pointer=%s", got)
	}
	sum := batch.Summarize(rs)
	if sum != (batch.Summary{Total: 3, Valid: 2, Invalid: 1}) {
		t.Fatalf("summary=%+v", sum)
	}
}

func TestValidate_ChunksAndWorkersKeepOrder(t *testing.T) {
	items := make([]any, 57)
	for i := range items {
		if i%5 == 0 {
			items[i] = "bad"
		} else {
			items[i] = float64(i)
		}
	}
	want := batch.Validate(context.Background(), g.Number(), items)
	for _, opts := range [][]batch.Option{
		{batch.WithChunkSize(4)},
		{batch.WithChunkSize(4), batch.WithWorkers(3)},
		{batch.WithChunkSize(0), batch.WithWorkers(8)},
	} {
		got := batch.Validate(context.Background(), g.Number(), items, opts...)
		for i := range items {
			if got[i].Success != want[i].Success {
				t.Fatalf("item %d differs", i)
			}
			if got[i].Success && got[i].Data != items[i] {
				t.Fatalf("item %d data=%v", i, got[i].Data)
			}
			if !got[i].Success && got[i].Error[0].Path[0] != i {
				t.Fatalf("item %d path=%v", i, got[i].Error[0].Path)
			}
		}
	}
}

func TestValidate_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	calls := 0
	stopAfterTwo := func(ctx context.Context, s fastskema.Schema, v any) fastskema.Result {
		calls++
		if calls == 2 {
			cancel()
		}
		return fastskema.SafeParse(ctx, s, v)
	}
	items := []any{"a", "b", "c", "d", "e"}
	rs := batch.Validate(ctx, g.String(), items, batch.WithChunkSize(2), batch.WithValidator(stopAfterTwo))
	if calls != 2 {
		t.Fatalf("validator ran %d times", calls)
	}
	if !rs[0].Success || !rs[1].Success {
		t.Fatal("first chunk should complete")
	}
	for i := 2; i < len(rs); i++ {
		if rs[i].Success || rs[i].Error[0].Code != fastskema.CodeUnknownError {
			t.Fatalf("item %d: %+v", i, rs[i])
		}
		if !errors.Is(rs[i].Error[0].Cause, context.Canceled) || rs[i].Error[0].Path[0] != i {
			t.Fatalf("item %d issue=%+v", i, rs[i].Error[0])
		}
	}
}

func TestParseMany(t *testing.T) {
	out, err := batch.ParseMany(context.Background(), g.String().Trim(), []any{" a", "b "})
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(out) != "[a b]" {
		t.Fatalf("out=%v", out)
	}
	_, err = batch.ParseMany(context.Background(), g.String(), []any{1, "ok", true})
	iss, ok := fastskema.AsIssues(err)
	if !ok || len(iss) != 2 {
		t.Fatalf("err=%v", err)
	}
	if iss[0].Path[0] != 0 || iss[1].Path[0] != 2 {
		t.Fatalf("paths=%v %v", iss[0].Path, iss[1].Path)
	}
}

func TestStream_Buffered(t *testing.T) {
	st := batch.NewStream(g.Number().Positive(), batch.WithChunkSize(2))
	ctx := context.Background()
	for _, v := range []any{1, -2, 3} {
		if _, done := st.Push(ctx, v); done {
			t.Fatal("buffered push must not validate")
		}
	}
	if st.Pending() != 3 {
		t.Fatalf("pending=%d", st.Pending())
	}
	rs := st.Flush(ctx)
	if len(rs) != 3 || rs[1].Success || rs[1].Error[0].Path[0] != 1 {
		t.Fatalf("flush=%+v", rs)
	}
	st.Push(ctx, -4)
	rs = st.Flush(ctx)
	if rs[0].Error[0].Path[0] != 3 {
		t.Fatalf("second flush should keep global indices: %v", rs[0].Error[0].Path)
	}
	if len(st.Results()) != 4 || st.Pending() != 0 {
		t.Fatalf("results=%d pending=%d", len(st.Results()), st.Pending())
	}
	if st.Flush(ctx) != nil {
		t.Fatal("empty flush returns nil")
	}
	st.Reset()
	if len(st.Results()) != 0 {
		t.Fatal("reset kept results")
	}
}

func TestStream_Eager(t *testing.T) {
	st := batch.NewStream(g.String().Email(), batch.WithEager())
	ctx := context.Background()
	r, done := st.Push(ctx, "a@b.co")
	if !done || !r.Success {
		t.Fatalf("r=%+v done=%v", r, done)
	}
	r, _ = st.Push(ctx, "nope")
	if r.Success || r.Error[0].Path[0] != 1 || r.Error[0].Code != fastskema.CodeInvalidString {
		t.Fatalf("r=%+v", r)
	}
	if len(st.Results()) != 2 {
		t.Fatal("eager results not recorded")
	}
}
