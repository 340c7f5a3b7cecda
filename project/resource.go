package project

import "strings"

// ResPrefix is the project-root prefix every resource path nominally
// carries.
const ResPrefix = "res://"

// ResourcePath is an opaque resource identifier. Filter matching (see
// pck.GlobList) compares both the prefixed and unprefixed forms, so callers
// rarely need to care which form a given ResourcePath is in.
type ResourcePath string

// Bare returns the path with any "res://" prefix removed.
func (p ResourcePath) Bare() string {
	return strings.TrimPrefix(string(p), ResPrefix)
}

// WithPrefix returns the path with "res://" added if it isn't already
// present.
func (p ResourcePath) WithPrefix() ResourcePath {
	if strings.HasPrefix(string(p), ResPrefix) {
		return p
	}
	return ResourcePath(ResPrefix + string(p))
}
