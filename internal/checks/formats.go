package checks

import (
	"net/netip"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// FormatFunc reports whether s conforms to a named string format.
type FormatFunc func(s string) bool

var (
	emailRe    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	urlRe      = regexp.MustCompile(`^https?://[^\s/$.?#].[^\s]*$`)
	hostnameRe = regexp.MustCompile(`^(?i)[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)*$`)
)

var (
	formatsMu sync.RWMutex
	formats   = map[string]FormatFunc{
		"email":        emailRe.MatchString,
		"url":          urlRe.MatchString,
		"uri":          isURI,
		"uuid":         isUUID,
		"date-time":    layouts(time.RFC3339),
		"date":         layouts(time.DateOnly),
		"time":         layouts(time.TimeOnly, "15:04:05.999999999", "15:04:05Z07:00", "15:04:05.999999999Z07:00"),
		"ipv4":         func(s string) bool { a, err := netip.ParseAddr(s); return err == nil && a.Is4() },
		"ipv6":         func(s string) bool { a, err := netip.ParseAddr(s); return err == nil && a.Is6() },
		"ip":           func(s string) bool { _, err := netip.ParseAddr(s); return err == nil },
		"hostname":     isHostname,
		"json-pointer": isJSONPointer,
		"regex":        func(s string) bool { _, err := regexp.Compile(s); return err == nil },
		"graphql":      isGraphQL,
	}
)

// RegisterFormat adds or replaces a named format. Both backends resolve
// formats through this catalog, so a registration is visible to both.
func RegisterFormat(name string, fn FormatFunc) {
	if name == "" || fn == nil {
		return
	}
	formatsMu.Lock()
	formats[name] = fn
	formatsMu.Unlock()
}

// LookupFormat returns the predicate registered under name.
func LookupFormat(name string) (FormatFunc, bool) {
	formatsMu.RLock()
	defer formatsMu.RUnlock()
	fn, ok := formats[name]
	return fn, ok
}

// FormatNames lists the registered formats, sorted.
func FormatNames() []string {
	formatsMu.RLock()
	defer formatsMu.RUnlock()
	out := make([]string, 0, len(formats))
	for k := range formats {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func layouts(ls ...string) FormatFunc {
	return func(s string) bool {
		for _, l := range ls {
			if _, err := time.Parse(l, s); err == nil {
				return true
			}
		}
		return false
	}
}

func isUUID(s string) bool {
	// uuid.Parse also accepts urn: and braced forms
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

func isURI(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != ""
}

func isHostname(s string) bool {
	return len(s) <= 253 && hostnameRe.MatchString(s)
}

func isJSONPointer(s string) bool {
	if s == "" {
		return true
	}
	if s[0] != '/' {
		return false
	}
	for i := strings.IndexByte(s, '~'); i >= 0; i = strings.IndexByte(s, '~') {
		if i+1 >= len(s) || (s[i+1] != '0' && s[i+1] != '1') {
			return false
		}
		s = s[i+2:]
	}
	return true
}

func isGraphQL(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	_, err := parser.ParseQuery(&ast.Source{Input: s})
	return err == nil
}
