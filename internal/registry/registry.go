// Package registry implements the feed registry (C6): lookup of a user's
// declared feeds by name-prefix, with mutually-exclusive include/exclude
// regex filtering.
package registry

import (
	"fmt"
	"regexp"
)

// GetFeeds filters all by include or exclude (mutually exclusive; passing
// both is a configuration error), anchoring each regex at the start of
// nameOf(feed) by wrapping it in "^(?:...)", since regexp's own
// MatchString is unanchored. The result is asserted
// non-empty — an empty result after filtering is itself a configuration
// error, since it almost always means a typo in the filter.
func GetFeeds[T any](all []T, nameOf func(T) string, include, exclude string) ([]T, error) {
	if include != "" && exclude != "" {
		return nil, fmt.Errorf("registry: include and exclude are mutually exclusive")
	}

	var pattern *regexp.Regexp
	var want bool // true: pattern must match to keep; false: pattern must NOT match to keep
	switch {
	case include != "":
		re, err := regexp.Compile("^(?:" + include + ")")
		if err != nil {
			return nil, fmt.Errorf("registry: invalid include regex %q: %w", include, err)
		}
		pattern, want = re, true
	case exclude != "":
		re, err := regexp.Compile("^(?:" + exclude + ")")
		if err != nil {
			return nil, fmt.Errorf("registry: invalid exclude regex %q: %w", exclude, err)
		}
		pattern, want = re, false
	}

	var out []T
	for _, f := range all {
		if pattern == nil {
			out = append(out, f)
			continue
		}
		matched := pattern.MatchString(nameOf(f))
		if matched == want {
			out = append(out, f)
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("registry: no feeds matched (include=%q exclude=%q)", include, exclude)
	}
	return out, nil
}
