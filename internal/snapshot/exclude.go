package snapshot

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// excludeRule is a parsed exclusion rule with its matching strategy.
// A rule containing glob metacharacters is a pattern; anything else is an
// exact path, resolved to absolute form at construction time.
type excludeRule struct {
	raw       string
	exact     string // absolute slash-normalized path, exact rules only
	pattern   bool
	matchPath bool // patterns only: true = match full path; false = match basename
}

// ExcludeMatcher evaluates exclusion rules against absolute,
// slash-normalized candidate paths. Rules are evaluated in caller-supplied
// order; the first match wins; no match means "not excluded".
type ExcludeMatcher struct {
	rules []excludeRule
}

// NewExcludeMatcher parses raw rule strings. Blank rules are skipped.
// Exact-path rules are resolved to absolute paths immediately so that
// relative rules are anchored to the working directory of the caller.
func NewExcludeMatcher(rawRules []string) (*ExcludeMatcher, error) {
	var rules []excludeRule
	for _, raw := range rawRules {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.ContainsAny(raw, "*?[") {
			rules = append(rules, excludeRule{
				raw:       raw,
				pattern:   true,
				matchPath: strings.Contains(raw, "/"),
			})
			continue
		}
		abs, err := filepath.Abs(raw)
		if err != nil {
			return nil, fmt.Errorf("resolving exclude rule %q: %w", raw, err)
		}
		rules = append(rules, excludeRule{raw: raw, exact: filepath.ToSlash(abs)})
	}
	return &ExcludeMatcher{rules: rules}, nil
}

// Match reports whether the given absolute, slash-normalized path is
// excluded. Patterns without '/' are tested against the basename; patterns
// with '/' against the full path.
func (m *ExcludeMatcher) Match(absSlashPath string) bool {
	if len(m.rules) == 0 {
		return false
	}

	base := path.Base(absSlashPath)

	for _, r := range m.rules {
		if !r.pattern {
			if absSlashPath == r.exact {
				return true
			}
			continue
		}
		candidate := base
		if r.matchPath {
			candidate = absSlashPath
		}
		matched, err := path.Match(r.raw, candidate)
		if err != nil {
			// Malformed pattern, treat as non-matching.
			continue
		}
		if matched {
			return true
		}
	}
	return false
}
