package engine

// DuplicateStrictness controls duplicate key handling.
type DuplicateStrictness int

const (
	DupIgnore DuplicateStrictness = iota
	DupWarn
	DupError
)

// SimpleIssue is a minimal issue representation used by the input layer.
// Path holds string keys and int indexes from the document root.
type SimpleIssue struct {
	Code    string
	Path    []any
	Message string
}

// IssueError is a lightweight error carrying a SimpleIssue.
type IssueError struct{ SimpleIssue }

func (e IssueError) Error() string { return e.SimpleIssue.Message }

// EnforceOptions controls runtime enforcement behavior.
type EnforceOptions struct {
	OnDuplicate DuplicateStrictness
	MaxDepth    int
	MaxBytes    int64
	// IssueSink receives non-fatal findings (duplicate key warnings).
	IssueSink func(SimpleIssue)
	// FailFast turns every finding into an error.
	FailFast bool
}

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type enforceFrame struct {
	kind         containerKind
	keys         map[string]struct{}
	expectingKey bool
	path         []any
	nextIndex    int
	pendingKey   string
}

// WrapWithEnforcement returns a TokenSource that enforces duplicate key policy,
// maximum nesting depth, and maximum consumed bytes.
func WrapWithEnforcement(inner TokenSource, opt EnforceOptions) TokenSource {
	return &enforcingTokenSource{inner: inner, opt: opt}
}

type enforcingTokenSource struct {
	inner TokenSource
	opt   EnforceOptions
	stack []enforceFrame
	// consumed approximates the input size when the inner source cannot
	// report offsets.
	consumed int64
}

func (e *enforcingTokenSource) fail(si SimpleIssue) (Token, error) {
	if e.opt.IssueSink != nil {
		e.opt.IssueSink(si)
	}
	return Token{}, IssueError{si}
}

func (e *enforcingTokenSource) NextToken() (Token, error) {
	tok, err := e.inner.NextToken()
	if err != nil {
		return Token{}, err
	}
	path := e.pathForToken(tok)
	e.consumed += tokenWidth(tok)

	switch tok.Kind {
	case KindBeginObject, KindBeginArray:
		f := enforceFrame{kind: kindArray, path: path}
		if tok.Kind == KindBeginObject {
			f = enforceFrame{kind: kindObject, keys: make(map[string]struct{}), expectingKey: true, path: path}
		}
		e.stack = append(e.stack, f)
		if e.opt.MaxDepth > 0 && len(e.stack) > e.opt.MaxDepth {
			return e.fail(SimpleIssue{Code: "parse_error", Path: path, Message: "max depth exceeded"})
		}
	case KindEndObject, KindEndArray:
		if n := len(e.stack); n > 0 {
			e.stack = e.stack[:n-1]
		}
		e.valueDone()
	case KindKey:
		if n := len(e.stack); n > 0 {
			top := &e.stack[n-1]
			if top.kind == kindObject && top.expectingKey {
				if e.opt.OnDuplicate != DupIgnore {
					if _, ok := top.keys[tok.String]; ok {
						si := SimpleIssue{Code: "duplicate_key", Path: path, Message: "key '" + tok.String + "' duplicated"}
						if e.opt.OnDuplicate == DupError || e.opt.FailFast {
							return e.fail(si)
						}
						if e.opt.IssueSink != nil {
							e.opt.IssueSink(si)
						}
					}
				}
				top.keys[tok.String] = struct{}{}
				top.expectingKey = false
				top.pendingKey = tok.String
			}
		}
	default:
		e.valueDone()
	}

	if e.opt.MaxBytes > 0 {
		off := e.Location()
		if off < 0 {
			off = e.consumed
		}
		if off > e.opt.MaxBytes {
			return e.fail(SimpleIssue{Code: "truncated", Path: path, Message: "max bytes exceeded"})
		}
	}
	return tok, nil
}

func (e *enforcingTokenSource) valueDone() {
	if n := len(e.stack); n > 0 {
		top := &e.stack[n-1]
		if top.kind == kindObject && !top.expectingKey {
			top.expectingKey = true
			top.pendingKey = ""
		}
	}
}

// pathForToken returns the document path the token belongs to.
func (e *enforcingTokenSource) pathForToken(tok Token) []any {
	if len(e.stack) == 0 {
		return nil
	}
	top := &e.stack[len(e.stack)-1]
	switch tok.Kind {
	case KindKey:
		return appendSeg(top.path, tok.String)
	case KindEndObject, KindEndArray:
		return top.path
	}
	if top.kind == kindArray {
		p := appendSeg(top.path, top.nextIndex)
		top.nextIndex++
		return p
	}
	if !top.expectingKey {
		return appendSeg(top.path, top.pendingKey)
	}
	return top.path
}

func appendSeg(base []any, seg any) []any {
	out := make([]any, 0, len(base)+1)
	out = append(out, base...)
	return append(out, seg)
}

// tokenWidth is a lower bound on the encoded size of tok.
func tokenWidth(tok Token) int64 {
	switch tok.Kind {
	case KindKey:
		return int64(len(tok.String)) + 3
	case KindString:
		return int64(len(tok.String)) + 2
	case KindNumber:
		return int64(len(tok.Number))
	case KindBool:
		if tok.Bool {
			return 4
		}
		return 5
	case KindNull:
		return 4
	default:
		return 1
	}
}

func (e *enforcingTokenSource) Location() int64 { return e.inner.Location() }
