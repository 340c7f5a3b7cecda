package project

import (
	"fmt"
	"sort"
	"strings"
)

const (
	typeTextFile    = "TextFile"
	typePackedScene = "PackedScene"
)

// ResourceInfo describes one resource as the editor's filesystem model
// would report it: its type tag and its declared dependencies.
type ResourceInfo struct {
	Path         ResourcePath
	Type         string
	Dependencies []ResourcePath
}

// ResourceFS is the project resource tree the walker enumerates. It is the
// collaborator boundary spec §1 calls "resource importing itself... out of
// scope": the core only ever reads already-imported metadata through this
// interface.
type ResourceFS interface {
	// Walk calls fn once per resource in the project. fn returning an
	// error stops the walk and that error is returned.
	Walk(fn func(ResourceInfo) error) error
	// Get looks up one resource by path.
	Get(path ResourcePath) (ResourceInfo, bool)
	// Autoloads returns the project's autoload entries verbatim
	// (including any leading "*" singleton marker).
	Autoloads() []string
}

// Walk enumerates the resource set for preset's export_filter, per spec
// §4.4: wholesale enumeration, wholesale minus a selection, or a selected
// seed closed over transitive dependencies. Autoloads are always added.
func Walk(fs ResourceFS, preset *Preset) ([]ResourcePath, error) {
	var result map[ResourcePath]bool

	switch preset.ExportFilter {
	case AllResources, ExcludeSelectedResources:
		result = map[ResourcePath]bool{}
		err := fs.Walk(func(ri ResourceInfo) error {
			if ri.Type == typeTextFile {
				return nil
			}
			result[ri.Path] = true
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("project: walking resources: %w", err)
		}
		if preset.ExportFilter == ExcludeSelectedResources {
			for p := range preset.SelectedFiles {
				delete(result, p)
			}
		}

	case SelectedResources, SelectedScenes:
		seed := map[ResourcePath]bool{}
		for p := range preset.SelectedFiles {
			if preset.ExportFilter == SelectedScenes {
				ri, ok := fs.Get(p)
				if !ok || ri.Type != typePackedScene {
					// Boundary behavior: a non-scene seed under
					// SELECTED_SCENES is silently dropped, its
					// dependencies never walked.
					continue
				}
			}
			seed[p] = true
		}
		result = closeDependencies(fs, seed)

	default:
		return nil, ErrUnknownExportFilter
	}

	addAutoloads(fs, result)

	paths := make([]ResourcePath, 0, len(result))
	for p := range result {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })
	return paths, nil
}

// closeDependencies computes the transitive closure of seed over each
// resource's declared Dependencies.
func closeDependencies(fs ResourceFS, seed map[ResourcePath]bool) map[ResourcePath]bool {
	closure := make(map[ResourcePath]bool, len(seed))
	queue := make([]ResourcePath, 0, len(seed))
	for p := range seed {
		closure[p] = true
		queue = append(queue, p)
	}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		ri, ok := fs.Get(p)
		if !ok {
			continue
		}
		for _, dep := range ri.Dependencies {
			if !closure[dep] {
				closure[dep] = true
				queue = append(queue, dep)
			}
		}
	}
	return closure
}

// addAutoloads adds every autoload entry to set, stripping the leading "*"
// singleton marker (spec §4.4).
func addAutoloads(fs ResourceFS, set map[ResourcePath]bool) {
	for _, a := range fs.Autoloads() {
		a = strings.TrimPrefix(a, "*")
		set[ResourcePath(a)] = true
	}
}
