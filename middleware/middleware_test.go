package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	fastskema "github.com/reoring/fastskema"
	"github.com/reoring/fastskema/dispatch"
	g "github.com/reoring/fastskema/dsl"
	"github.com/reoring/fastskema/middleware"
)

func server(t *testing.T) http.Handler {
	t.Helper()
	d := dispatch.New()
	d.Start(context.Background())
	s := g.Object().
		Field("name", g.String().Min(1)).
		Field("qty", g.Number().Int().Default(1))
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, ok := middleware.ValueFromContext(r.Context())
		if !ok {
			t.Error("validated body missing from context")
		}
		_ = json.NewEncoder(w).Encode(v)
	})
	opt := middleware.DefaultParseOpt()
	opt.MaxBytes = 64
	return middleware.ValidateJSON(d, s, opt)(h)
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	return rec
}

func firstCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var res struct {
		Success bool `json:"success"`
		Error   []struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("body %q: %v", rec.Body.String(), err)
	}
	if res.Success || len(res.Error) == 0 {
		t.Fatalf("expected failure, got %s", rec.Body.String())
	}
	return res.Error[0].Code
}

func TestValidateJSON(t *testing.T) {
	h := server(t)

	rec := post(h, `{"name":"bolt","extra":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["name"] != "bolt" || got["qty"] != float64(1) || got["extra"] != nil {
		t.Fatalf("got=%v", got)
	}

	cases := []struct {
		body   string
		status int
		code   string
	}{
		{`{"name":""}`, http.StatusBadRequest, "too_small"},
		{`{"name":"a","name":"b"}`, http.StatusBadRequest, "duplicate_key"},
		{`{"name":`, http.StatusBadRequest, "parse_error"},
		{`{"name":"` + strings.Repeat("x", 80) + `"}`, http.StatusRequestEntityTooLarge, "truncated"},
	}
	for _, tc := range cases {
		rec := post(h, tc.body)
		if rec.Code != tc.status {
			t.Fatalf("%s: status=%d", tc.body, rec.Code)
		}
		if c := firstCode(t, rec); c != tc.code {
			t.Fatalf("%s: code=%s", tc.body, c)
		}
	}
}

func TestValueFromContext_Null(t *testing.T) {
	if _, ok := middleware.ValueFromContext(context.Background()); ok {
		t.Fatal("empty context reported a body")
	}

	d := dispatch.New()
	d.Start(context.Background())
	var (
		got    any
		stored bool
	)
	h := middleware.ValidateJSON(d, g.Object().Field("id", g.String()).Nullable(), middleware.DefaultParseOpt())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, stored = middleware.ValueFromContext(r.Context())
		}))
	rec := post(h, `null`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if !stored || got != nil {
		t.Fatalf("null body: v=%v ok=%v", got, stored)
	}
}

func TestValidateJSON_FailFast(t *testing.T) {
	d := dispatch.New()
	d.Start(context.Background())
	s := g.Object().
		Field("a", g.String()).
		Field("b", g.String()).
		Field("c", g.String())
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached with an invalid body")
	})
	count := func(opt fastskema.ParseOpt) int {
		rec := post(middleware.ValidateJSON(d, s, opt)(h), `{"a":1,"b":2,"c":3}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status=%d", rec.Code)
		}
		var res struct {
			Error []json.RawMessage `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatal(err)
		}
		return len(res.Error)
	}
	opt := middleware.DefaultParseOpt()
	if n := count(opt); n != 3 {
		t.Fatalf("collect all: %d issues", n)
	}
	opt.FailFast = true
	if n := count(opt); n != 1 {
		t.Fatalf("fail fast: %d issues", n)
	}
}
