package pck

import (
	"strings"

	"github.com/gobwas/glob"
)

// GlobList is a compiled, case-insensitive set of glob patterns parsed from
// a comma-separated list (the format presets use for include/exclude
// filters). Matching is tried against both the path as given and, if it
// carries a "res://" prefix, the bare form with that prefix stripped (and
// vice versa), so a user pattern like "foo.txt" matches "res://foo.txt".
type GlobList struct {
	patterns []glob.Glob
}

// CompileGlobList parses a comma-separated glob list. An empty or
// whitespace-only list compiles to an empty GlobList that matches nothing.
func CompileGlobList(commaSeparated string) (GlobList, error) {
	var gl GlobList
	for _, raw := range strings.Split(commaSeparated, ",") {
		p := strings.TrimSpace(raw)
		if p == "" {
			continue
		}
		g, err := glob.Compile(strings.ToLower(p))
		if err != nil {
			return GlobList{}, err
		}
		gl.patterns = append(gl.patterns, g)
	}
	return gl, nil
}

// Empty reports whether the list has no patterns.
func (gl GlobList) Empty() bool {
	return len(gl.patterns) == 0
}

// Match reports whether path matches any pattern in the list, comparing
// case-insensitively against both the given form and the "res://"-toggled
// form.
func (gl GlobList) Match(path string) bool {
	if len(gl.patterns) == 0 {
		return false
	}
	candidates := []string{strings.ToLower(path)}
	if alt := toggleResPrefix(path); alt != path {
		candidates = append(candidates, strings.ToLower(alt))
	}
	for _, g := range gl.patterns {
		for _, c := range candidates {
			if g.Match(c) {
				return true
			}
		}
	}
	return false
}

const resPrefix = "res://"

// toggleResPrefix returns path with the "res://" prefix added if absent, or
// removed if present.
func toggleResPrefix(path string) string {
	if strings.HasPrefix(path, resPrefix) {
		return strings.TrimPrefix(path, resPrefix)
	}
	return resPrefix + path
}

// ApplyFilter mutates set in place: when exclude is false, every path in
// universe matching list is inserted into set; when exclude is true, every
// matching path already in set is removed. universe is the candidate
// superset to scan (e.g. the full resource tree for an include pass, or the
// current set's own keys for an exclude pass).
func ApplyFilter(set map[string]bool, universe []string, list GlobList, exclude bool) {
	if list.Empty() {
		return
	}
	for _, p := range universe {
		if !list.Match(p) {
			continue
		}
		if exclude {
			delete(set, p)
		} else {
			set[p] = true
		}
	}
}
