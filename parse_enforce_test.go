package fastskema_test

import (
	"bytes"
	"context"
	"testing"

	fastskema "github.com/reoring/fastskema"
	g "github.com/reoring/fastskema/dsl"
)

func TestStreamParse_DuplicateKey_Error(t *testing.T) {
	jsb := []byte(`{"a":1,"a":2}`)
	opt := fastskema.ParseOpt{Strictness: fastskema.Strictness{OnDuplicateKey: fastskema.Error}}
	_, err := fastskema.StreamParse(context.Background(), g.Any(), bytes.NewReader(jsb), opt)
	iss, ok := fastskema.AsIssues(err)
	if !ok || len(iss) == 0 {
		t.Fatalf("expected Issues error, got: %v", err)
	}
	if iss[0].Code != fastskema.CodeDuplicateKey || iss[0].Path.Pointer() != "/a" {
		t.Fatalf("expected duplicate_key at /a, got: %v", iss)
	}
}

func TestStreamParse_DuplicateKey_NestedPath(t *testing.T) {
	jsb := []byte(`[{"a":1,"a":2}]`)
	opt := fastskema.ParseOpt{Strictness: fastskema.Strictness{OnDuplicateKey: fastskema.Error}}
	_, err := fastskema.StreamParse(context.Background(), g.Any(), bytes.NewReader(jsb), opt)
	iss, ok := fastskema.AsIssues(err)
	if !ok || len(iss) == 0 {
		t.Fatalf("expected Issues, got: %v", err)
	}
	if iss[0].Path.Pointer() != "/0/a" {
		t.Fatalf("expected path=/0/a, got: %s", iss[0].Path)
	}
}

func TestStreamParse_DuplicateKey_IgnoredByDefault(t *testing.T) {
	v, err := fastskema.ParseJSON(context.Background(), g.Record(g.Number()), []byte(`{"a":1,"a":2}`))
	if err != nil {
		t.Fatal(err)
	}
	if v.(map[string]any)["a"] != float64(2) {
		t.Fatalf("last value wins, got %v", v)
	}
}

func TestStreamParse_MaxDepth_Exceeded(t *testing.T) {
	// depth = 3 for { a: { b: { c: 1 } } }
	jsb := []byte(`{"a":{"b":{"c":1}}}`)
	_, err := fastskema.StreamParse(context.Background(), g.Any(), bytes.NewReader(jsb), fastskema.ParseOpt{MaxDepth: 2})
	iss, ok := fastskema.AsIssues(err)
	if !ok || len(iss) == 0 {
		t.Fatalf("expected error for max depth exceeded, got %v", err)
	}
	if iss[0].Path.Pointer() != "/a/b" {
		t.Fatalf("expected path=/a/b for max depth, got: %v", iss)
	}
}

func TestStreamParse_MaxBytes_Exceeded(t *testing.T) {
	data := append([]byte("{}"), bytes.Repeat([]byte("x"), 1024)...)
	_, err := fastskema.StreamParse(context.Background(), g.Any(), bytes.NewReader(data), fastskema.ParseOpt{MaxBytes: 2})
	iss, ok := fastskema.AsIssues(err)
	if !ok || len(iss) == 0 || iss[0].Code != fastskema.CodeTruncated {
		t.Fatalf("expected truncated issue, got: %v", err)
	}
	if len(iss[0].Path) != 0 {
		t.Fatalf("expected root path, got: %s", iss[0].Path)
	}
}

func TestParseJSON_Malformed(t *testing.T) {
	_, err := fastskema.ParseJSON(context.Background(), g.Any(), []byte(`{"a":`))
	iss, ok := fastskema.AsIssues(err)
	if !ok || iss[0].Code != fastskema.CodeParseError {
		t.Fatalf("expected parse_error, got: %v", err)
	}
}
