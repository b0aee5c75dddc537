package fastskema

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	eng "github.com/reoring/fastskema/internal/engine"
)

// ParseFrom consumes tokens from src, builds a generic value and validates it
// with s. Input-layer failures (malformed JSON, duplicate keys under Error,
// depth and size caps) are reported as Issues before s runs.
func ParseFrom(ctx context.Context, s Schema, src Source, opts ...ParseOpt) (any, error) {
	if s == nil {
		return nil, Issues{NewIssue(CodeParseError, map[string]any{"detail": "nil schema"})}
	}
	opt := lastOpt(opts)
	if opt.FailFast {
		ctx = WithFailFast(ctx, true)
	}
	v, err := DecodeSource(src, opt)
	if err != nil {
		return nil, err
	}
	return Parse(ctx, s, v)
}

// ParseJSON is ParseFrom over a byte slice.
func ParseJSON(ctx context.Context, s Schema, data []byte, opts ...ParseOpt) (any, error) {
	return ParseFrom(ctx, s, JSONBytes(data), opts...)
}

// ParseYAML decodes a YAML document into the same generic shape as JSON input
// and validates it with s.
func ParseYAML(ctx context.Context, s Schema, data []byte) (any, error) {
	v, err := DecodeYAML(data)
	if err != nil {
		return nil, err
	}
	return Parse(ctx, s, v)
}

// StreamParse validates input read from r. When MaxBytes is set the size cap
// is applied while reading.
func StreamParse(ctx context.Context, s Schema, r io.Reader, opts ...ParseOpt) (any, error) {
	opt := lastOpt(opts)
	if opt.MaxBytes > 0 {
		data, err := io.ReadAll(io.LimitReader(r, opt.MaxBytes+1))
		if err != nil {
			return nil, Issues{NewIssue(CodeParseError, map[string]any{"detail": err.Error()})}
		}
		if int64(len(data)) > opt.MaxBytes {
			return nil, Issues{NewIssue(CodeTruncated, map[string]any{"detail": "max bytes exceeded"})}
		}
		return ParseFrom(ctx, s, JSONBytes(data), opts...)
	}
	return ParseFrom(ctx, s, JSONReader(r), opts...)
}

// DecodeSource builds a generic value from src under the enforcement options.
func DecodeSource(src Source, opt ParseOpt) (any, error) {
	enforced := engineTokenSource(src)
	if opt.Strictness.OnDuplicateKey != Ignore || opt.MaxDepth > 0 || opt.MaxBytes > 0 {
		enforced = engineTokenSource(EnforceSource(src, opt, nil))
	}
	conv := eng.AsJSONNumber
	if src.NumberMode() == NumberFloat64 {
		conv = eng.AsFloat64
	}
	v, err := eng.DecodeAny(enforced, conv)
	if err != nil {
		return nil, inputIssues(err)
	}
	return v, nil
}

// DecodeYAML decodes a YAML document into map[string]any / []any trees.
func DecodeYAML(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, Issues{NewIssue(CodeParseError, map[string]any{"detail": err.Error()})}
	}
	return NormalizeYAML(v), nil
}

// NormalizeYAML rewrites yaml-decoded values so they match JSON decoding:
// mappings become map[string]any and timestamps become RFC 3339 strings.
func NormalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = NormalizeYAML(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = NormalizeYAML(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = NormalizeYAML(e)
		}
		return out
	case time.Time:
		return t.Format(time.RFC3339Nano)
	default:
		return v
	}
}

func lastOpt(opts []ParseOpt) ParseOpt {
	if len(opts) == 0 {
		return ParseOpt{}
	}
	return opts[len(opts)-1]
}

func inputIssues(err error) Issues {
	if iss, ok := AsIssues(err); ok {
		return iss
	}
	var ie eng.IssueError
	if errors.As(err, &ie) {
		return Issues{fromSimpleIssue(ie.SimpleIssue)}
	}
	detail := err.Error()
	if errors.Is(err, io.EOF) {
		detail = "unexpected end of input"
	}
	it := NewIssue(CodeParseError, map[string]any{"detail": detail})
	it.Cause = err
	return Issues{it}
}
