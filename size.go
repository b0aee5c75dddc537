package fastskema

import (
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
)

// EstimateSize approximates the JSON-encoded size of a decoded value in bytes
// without encoding it. Strings and numbers count their text, containers add
// their delimiters.
func EstimateSize(v any) int {
	switch t := v.(type) {
	case nil:
		return 4
	case string:
		return len(t) + 2
	case bool:
		if t {
			return 4
		}
		return 5
	case json.Number:
		return len(t)
	case float64:
		return len(strconv.FormatFloat(t, 'g', -1, 64))
	case int:
		return len(strconv.Itoa(t))
	case int64:
		return len(strconv.FormatInt(t, 10))
	case map[string]any:
		n := 2
		for k, e := range t {
			n += len(k) + 4 + EstimateSize(e)
		}
		return n
	case []any:
		n := 2
		for _, e := range t {
			n += EstimateSize(e) + 1
		}
		return n
	default:
		if IsUndefined(v) {
			return 0
		}
		return len(fmt.Sprint(v))
	}
}
