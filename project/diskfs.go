package project

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DiskProject is a ResourceFS and FileSource backed by a real project
// directory on disk. It treats every file under root as a resource except
// .import sidecars and anything inside a directory whose name starts with
// ".", classifying PackedScene and
// TextFile types by extension — the two cases Walk's filter logic branches
// on (spec §4.4).
//
// Dependency tracking and autoloads require scene-graph knowledge this CLI
// does not parse; DiskProject reports no dependencies and no autoloads, so
// SelectedResources/SelectedScenes degrade to "just the selected files"
// rather than their transitive closure. A caller that needs full closure
// support supplies its own ResourceFS.
type DiskProject struct {
	root      string
	resources []ResourceInfo
}

// NewDiskProject scans root once, building the resource list Walk will
// enumerate over.
func NewDiskProject(root string) (*DiskProject, error) {
	dp := &DiskProject{root: root}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".import") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rp := ResourcePath(ResPrefix + filepath.ToSlash(rel))
		dp.resources = append(dp.resources, ResourceInfo{Path: rp, Type: classify(rel)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dp, nil
}

func classify(rel string) string {
	switch filepath.Ext(rel) {
	case ".tscn":
		return typePackedScene
	case ".txt", ".md", ".cfg":
		return typeTextFile
	default:
		return "Resource"
	}
}

func (dp *DiskProject) Walk(fn func(ResourceInfo) error) error {
	for _, ri := range dp.resources {
		if err := fn(ri); err != nil {
			return err
		}
	}
	return nil
}

func (dp *DiskProject) Get(path ResourcePath) (ResourceInfo, bool) {
	for _, ri := range dp.resources {
		if ri.Path == path {
			return ri, true
		}
	}
	return ResourceInfo{}, false
}

// Autoloads always returns nil: DiskProject does not parse project.godot's
// [autoload] section.
func (dp *DiskProject) Autoloads() []string { return nil }

func (dp *DiskProject) abs(path ResourcePath) string {
	return filepath.Join(dp.root, filepath.FromSlash(path.Bare()))
}

// ReadFile implements FileSource by reading directly from disk.
func (dp *DiskProject) ReadFile(path ResourcePath) ([]byte, error) {
	return os.ReadFile(dp.abs(path))
}

// OpenImportSidecar implements FileSource, looking for "<path>.import" next
// to the resource.
func (dp *DiskProject) OpenImportSidecar(path ResourcePath) (io.ReadCloser, bool, error) {
	f, err := os.Open(dp.abs(path) + ".import")
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return f, true, nil
}

// GenericPlatform is a minimal Platform usable from the command line when no
// editor-side platform implementation is available: it derives feature tags
// from the preset's platform id and breaks remap ties alphabetically.
type GenericPlatform struct {
	ID string
}

func (p *GenericPlatform) GetPresetFeatures(preset *Preset) []string {
	return strings.Split(strings.ToLower(p.ID), "/")
}

func (p *GenericPlatform) GetPlatformFeatures() []string { return p.GetPresetFeatures(nil) }

func (p *GenericPlatform) GetExportOptions() []ExportOption { return nil }

// ResolvePlatformFeaturePriorities picks the alphabetically-first candidate;
// a real platform orders these by actual runtime preference (e.g. texture
// compression quality).
func (p *GenericPlatform) ResolvePlatformFeaturePriorities(candidates map[string]bool) string {
	best := ""
	for c := range candidates {
		if best == "" || c < best {
			best = c
		}
	}
	return best
}

func (p *GenericPlatform) CanExport(preset *Preset) error { return nil }

func (p *GenericPlatform) ExportProject(preset *Preset, outPath string) error { return nil }
