package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	fastskema "github.com/reoring/fastskema"
	g "github.com/reoring/fastskema/dsl"
)

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// loadDescriptor reads a descriptor file; .yaml and .yml are YAML, anything
// else is JSON.
func loadDescriptor(path string) (*fastskema.Descriptor, error) {
	if path == "" {
		return nil, fmt.Errorf("--schema is required")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if isYAML(path) {
		return fastskema.DecodeDescriptorYAML(b)
	}
	return fastskema.DecodeDescriptorJSON(b)
}

func loadSchema(path string) (fastskema.Schema, error) {
	d, err := loadDescriptor(path)
	if err != nil {
		return nil, err
	}
	s, err := g.FromDescriptor(d)
	if err != nil {
		return nil, fmt.Errorf("build schema from %s: %w", path, err)
	}
	return s, nil
}

// readData decodes the document at path ("" or "-" reads stdin). JSON input
// goes through the enforcing token decoder so duplicate keys are rejected.
func readData(stdin io.Reader, path string, maxDepth int) (any, error) {
	var (
		b   []byte
		err error
	)
	if path == "" || path == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	if isYAML(path) {
		return fastskema.DecodeYAML(b)
	}
	return fastskema.DecodeSource(fastskema.JSONBytes(b), fastskema.ParseOpt{
		Strictness: fastskema.Strictness{OnDuplicateKey: fastskema.Error},
		MaxDepth:   maxDepth,
	})
}
