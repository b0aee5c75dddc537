package accel_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	fastskema "github.com/reoring/fastskema"
	"github.com/reoring/fastskema/accel"
	g "github.com/reoring/fastskema/dsl"
)

func readyEngine(t *testing.T) *accel.Engine {
	t.Helper()
	e := accel.New()
	if err := e.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return e
}

func TestEngine_NotReady(t *testing.T) {
	e := accel.New()
	_, err := e.Validate(context.Background(), g.String(), "x")
	if !errors.Is(err, accel.ErrNotReady) {
		t.Fatalf("err=%v", err)
	}
}

func TestEngine_InitTimeout(t *testing.T) {
	e := accel.New(accel.WithWarmup(func(ctx context.Context, _ *accel.Engine) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if err := e.Init(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err=%v", err)
	}
	if e.Ready() {
		t.Fatal("engine must stay unavailable after a timed out init")
	}
	if e.InitErr() == nil {
		t.Fatal("InitErr should record the failure")
	}
}

func TestEngine_InitFailure(t *testing.T) {
	boom := errors.New("no native module")
	e := accel.New(accel.WithWarmup(func(context.Context, *accel.Engine) error { return boom }))
	if err := e.Init(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
	if e.Ready() {
		t.Fatal("failed init must not mark the engine ready")
	}
}

func TestEngine_Unsupported(t *testing.T) {
	e := readyEngine(t)
	refined := g.String().Refine(func(any) bool { return true })
	if e.Supports(refined.Descriptor()) {
		t.Fatal("refinements are not translatable")
	}
	_, err := e.Validate(context.Background(), refined, "x")
	if !errors.Is(err, accel.ErrUnsupported) {
		t.Fatalf("err=%v", err)
	}
	reg := g.NewRegistry()
	if e.Supports(reg.Ref("x").Descriptor()) {
		t.Fatal("lazy refs are not translatable")
	}
	// a translatable descriptor with a bad check still fails to compile
	bad := &fastskema.Descriptor{Type: fastskema.TypeString, Checks: []fastskema.Check{{Kind: "palindrome"}}}
	if e.Supports(bad) {
		t.Fatal("unknown check kinds are unsupported")
	}
}

func TestEngine_CachesBySignature(t *testing.T) {
	e := readyEngine(t)
	mk := func() fastskema.Schema { return g.Object().Field("a", g.String().Min(2)) }
	for i := 0; i < 3; i++ {
		if _, err := e.Validate(context.Background(), mk(), map[string]any{"a": "xy"}); err != nil {
			t.Fatal(err)
		}
	}
	if e.Size() != 1 {
		t.Fatalf("same shape should compile once, size=%d", e.Size())
	}
	st := e.Stats()
	if st.Misses != 1 || st.Hits < 2 || st.Schemas != 3 {
		t.Fatalf("stats=%+v", st)
	}
	e.Reset()
	if e.Size() != 0 || e.Stats().Patterns != 0 || e.Stats().Schemas != 0 {
		t.Fatalf("reset left state: %+v", e.Stats())
	}
}

func TestEngine_ConcurrentCompile(t *testing.T) {
	e := readyEngine(t)
	s := g.Array(g.String().Regex(`^[a-z]+$`))
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := e.Validate(context.Background(), s, []any{"abc"})
			if err != nil || !r.Success {
				t.Errorf("r=%+v err=%v", r, err)
			}
		}()
	}
	wg.Wait()
	if e.Size() != 1 {
		t.Fatalf("size=%d", e.Size())
	}
}

func TestProgram_Run(t *testing.T) {
	e := readyEngine(t)
	p, err := e.Compile(g.Object().Field("n", g.Number().Int()).Descriptor())
	if err != nil {
		t.Fatal(err)
	}
	if p.Nodes() != 2 || p.Signature() == "" {
		t.Fatalf("nodes=%d sig=%q", p.Nodes(), p.Signature())
	}
	r := p.Run(context.Background(), map[string]any{"n": 1.5})
	if r.Success || r.Error[0].Path.Pointer() != "/n" {
		t.Fatalf("r=%+v", r)
	}
}
