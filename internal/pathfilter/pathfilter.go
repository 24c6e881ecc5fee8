// Package pathfilter matches key paths built during traversal against a
// user supplied regular expression.
package pathfilter

import (
	"regexp"
)

// Filter is a compiled, case-insensitive path pattern. The zero value and a
// nil *Filter match every path.
type Filter struct {
	pattern string
	re      *regexp.Regexp
}

// Compile compiles pattern. An empty pattern yields a Filter that matches
// everything.
func Compile(pattern string) (*Filter, error) {
	f := &Filter{pattern: pattern}
	if pattern == "" {
		return f, nil
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, err
	}
	f.re = re
	return f, nil
}

// Matches reports whether path matches anywhere.
func (f *Filter) Matches(path string) bool {
	if f == nil || f.re == nil {
		return true
	}
	return f.re.MatchString(path)
}

// Empty reports whether f matches everything.
func (f *Filter) Empty() bool {
	return f == nil || f.re == nil
}

func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.pattern
}
