package checks

import (
	"regexp"
	"sync"
)

// PatternCache memoizes compiled regular expressions. It is safe for
// concurrent use.
type PatternCache struct {
	mu sync.Mutex
	m  map[string]*regexp.Regexp
}

// NewPatternCache returns an empty cache.
func NewPatternCache() *PatternCache { return &PatternCache{m: map[string]*regexp.Regexp{}} }

// Get compiles pattern once and returns the shared *regexp.Regexp.
func (c *PatternCache) Get(pattern string) (*regexp.Regexp, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if re, ok := c.m[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	if c.m == nil {
		c.m = map[string]*regexp.Regexp{}
	}
	c.m[pattern] = re
	return re, nil
}

// Len reports the number of cached patterns.
func (c *PatternCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

// Reset drops every cached pattern.
func (c *PatternCache) Reset() {
	c.mu.Lock()
	c.m = map[string]*regexp.Regexp{}
	c.mu.Unlock()
}
