package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
)

const personYAML = `
type: object
shape:
  - name: name
    schema:
      type: string
      checks:
        - {kind: min, number: 2}
  - name: age
    schema:
      type: number
      checks:
        - {kind: int}
`

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func run(t *testing.T, stdin string, args ...string) (map[string]any, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	if out.Len() == 0 {
		return nil, err
	}
	var doc map[string]any
	if uerr := json.Unmarshal(out.Bytes(), &doc); uerr != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", uerr, out.String())
	}
	return doc, err
}

func firstCode(t *testing.T, res map[string]any) string {
	t.Helper()
	iss, ok := res["error"].([]any)
	if !ok || len(iss) == 0 {
		t.Fatalf("no issues in %v", res)
	}
	return iss[0].(map[string]any)["code"].(string)
}

func TestValidate(t *testing.T) {
	schema := writeTemp(t, "person.yaml", personYAML)

	res, err := run(t, `{"name":"ann","age":3}`, "validate", "--schema", schema)
	if err != nil || res["success"] != true {
		t.Fatalf("res=%v err=%v", res, err)
	}

	res, err = run(t, `{"name":"a","age":3}`, "validate", "-s", schema, "--backend", "accelerated")
	if !errors.Is(err, errInvalid) || res["success"] != false {
		t.Fatalf("res=%v err=%v", res, err)
	}
	if code := firstCode(t, res); code != "too_small" {
		t.Fatalf("code=%s", code)
	}
}

func TestValidate_DuplicateKeys(t *testing.T) {
	schema := writeTemp(t, "person.yaml", personYAML)
	res, err := run(t, `{"name":"ann","name":"bob","age":1}`, "validate", "-s", schema)
	if !errors.Is(err, errInvalid) {
		t.Fatalf("err=%v", err)
	}
	if code := firstCode(t, res); code != "duplicate_key" {
		t.Fatalf("code=%s", code)
	}
}

func TestValidate_YAMLData(t *testing.T) {
	schema := writeTemp(t, "person.yaml", personYAML)
	data := writeTemp(t, "in.yaml", "name: ann\nage: 4\n")
	res, err := run(t, "", "validate", "-s", schema, "-d", data, "-b", "interpreted")
	if err != nil || res["success"] != true {
		t.Fatalf("res=%v err=%v", res, err)
	}
}

func TestValidate_Batch(t *testing.T) {
	schema := writeTemp(t, "person.yaml", personYAML)
	res, err := run(t, `[{"name":"ann","age":1},{"name":"bob","age":1.5}]`, "validate", "-s", schema, "--batch")
	if !errors.Is(err, errInvalid) {
		t.Fatalf("err=%v", err)
	}
	sum := res["summary"].(map[string]any)
	if sum["valid"] != float64(1) || sum["invalid"] != float64(1) {
		t.Fatalf("summary=%v", sum)
	}
	second := res["results"].([]any)[1].(map[string]any)
	path := second["error"].([]any)[0].(map[string]any)["path"].([]any)
	if path[0] != float64(1) || path[1] != "age" {
		t.Fatalf("path=%v", path)
	}

	_, err = run(t, `{"name":"ann"}`, "validate", "-s", schema, "--batch")
	if err == nil || errors.Is(err, errInvalid) {
		t.Fatalf("non-array batch input should be a usage error, got %v", err)
	}
}

func TestValidate_BadFlags(t *testing.T) {
	schema := writeTemp(t, "person.yaml", personYAML)
	if _, err := run(t, "{}", "validate", "-s", schema, "-b", "gpu"); err == nil || errors.Is(err, errInvalid) {
		t.Fatalf("err=%v", err)
	}
	if _, err := run(t, "{}", "validate"); err == nil {
		t.Fatal("missing --schema should fail")
	}
}

func TestExport(t *testing.T) {
	schema := writeTemp(t, "person.yaml", personYAML)
	doc, err := run(t, "", "export", "-s", schema)
	if err != nil {
		t.Fatal(err)
	}
	if doc["type"] != "object" || doc["$schema"] == nil {
		t.Fatalf("doc=%v", doc)
	}
	props := doc["properties"].(map[string]any)
	if props["name"].(map[string]any)["minLength"] != float64(2) {
		t.Fatalf("props=%v", props)
	}
}

func TestAnalyze(t *testing.T) {
	schema := writeTemp(t, "person.yaml", personYAML)
	doc, err := run(t, "", "analyze", "-s", schema)
	if err != nil {
		t.Fatal(err)
	}
	if doc["complexity"] != float64(3) || doc["translatable"] != true || doc["depth"] != float64(1) {
		t.Fatalf("doc=%v", doc)
	}
	if !strings.Contains(doc["signature"].(string), "object:") {
		t.Fatalf("signature=%v", doc["signature"])
	}
}

const widgetCRD = `
apiVersion: apiextensions.k8s.io/v1
kind: CustomResourceDefinition
spec:
  versions:
    - name: v1
      served: true
      schema:
        openAPIV3Schema:
          type: object
          required: [replicas]
          properties:
            replicas:
              type: integer
              minimum: 1
            image:
              type: string
`

func TestImport(t *testing.T) {
	crd := writeTemp(t, "crd.yaml", widgetCRD)
	doc, err := run(t, "", "import", "-f", crd, "--unknown", "strict")
	if err != nil {
		t.Fatal(err)
	}
	if doc["type"] != "object" || doc["unknownKeys"] != "strict" {
		t.Fatalf("doc=%v", doc)
	}

	b, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	schema := writeTemp(t, "widget.json", string(b))
	res, err := run(t, `{"replicas":0}`, "validate", "-s", schema)
	if !errors.Is(err, errInvalid) || firstCode(t, res) != "too_small" {
		t.Fatalf("res=%v err=%v", res, err)
	}

	if _, err := run(t, "", "import", "-f", crd, "--unknown", "keep"); err == nil {
		t.Fatal("bad --unknown should fail")
	}
}
