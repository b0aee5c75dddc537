package dispatch_test

import (
	"strings"
	"testing"

	"github.com/reoring/fastskema/dispatch"
	g "github.com/reoring/fastskema/dsl"
)

func TestAnalyze(t *testing.T) {
	cfg := dispatch.DefaultConfig()

	simple := dispatch.Analyze(g.Object().Field("a", g.Bool()).Descriptor(), cfg)
	if simple.Complexity != 2 || simple.Depth != 1 || simple.HasPatterns || !simple.Translatable {
		t.Fatalf("simple=%+v", simple)
	}
	if simple.EstimatedCost != 21 || simple.Backend != "auto" {
		t.Fatalf("simple=%+v", simple)
	}
	if len(simple.Recommendations) != 1 || !strings.Contains(simple.Recommendations[0], "well-optimized") {
		t.Fatalf("recommendations=%v", simple.Recommendations)
	}

	patterned := dispatch.Analyze(g.Array(g.String().Regex(`^\d+$`)).Descriptor(), cfg)
	if !patterned.HasPatterns || patterned.EstimatedCost != 61 {
		t.Fatalf("patterned=%+v", patterned)
	}

	refined := dispatch.Analyze(g.String().Refine(func(any) bool { return true }).Descriptor(), cfg)
	if refined.Translatable || refined.Backend != "interpreted" {
		t.Fatalf("refined=%+v", refined)
	}
}
