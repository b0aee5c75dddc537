package fastskema

import json "github.com/goccy/go-json"

// Result is the outcome of a non-raising validation. Exactly one branch is
// populated: Data when Success is true, Error otherwise.
type Result struct {
	Success bool
	Data    any
	Error   Issues
}

// Ok builds a successful Result.
func Ok(v any) Result { return Result{Success: true, Data: v} }

// Fail builds a failed Result. An empty issue list is replaced by a single
// unknown_error so that a failure always carries at least one issue.
func Fail(iss Issues) Result {
	if len(iss) == 0 {
		iss = Issues{NewIssue(CodeUnknownError, nil)}
	}
	return Result{Success: false, Error: iss}
}

// ResultOf folds a (value, error) pair into a Result.
func ResultOf(v any, err error) Result {
	if err != nil {
		return Fail(ToIssues(nil, err))
	}
	return Ok(v)
}

// Unwrap returns the (value, error) pair view of r.
func (r Result) Unwrap() (any, error) {
	if r.Success {
		return r.Data, nil
	}
	return nil, r.Error
}

type wireResult struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   Issues `json:"error,omitempty"`
}

// MarshalJSON renders {success, data} or {success: false, error}.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Success {
		data := r.Data
		if IsUndefined(data) {
			data = nil
		}
		return json.Marshal(struct {
			Success bool `json:"success"`
			Data    any  `json:"data"`
		}{true, data})
	}
	return json.Marshal(wireResult{Success: false, Error: r.Error})
}
