package project

import (
	"path/filepath"
	"strings"

	"github.com/gdpack/gdpack/pck"
)

// ExportFilter selects which resources a build considers, per spec §3.
type ExportFilter int

const (
	AllResources ExportFilter = iota
	SelectedScenes
	SelectedResources
	ExcludeSelectedResources
)

func (f ExportFilter) String() string {
	switch f {
	case AllResources:
		return "all_resources"
	case SelectedScenes:
		return "selected_scenes"
	case SelectedResources:
		return "selected_resources"
	case ExcludeSelectedResources:
		return "exclude_selected_resources"
	default:
		return "unknown"
	}
}

var exportFilterNames = map[string]ExportFilter{
	"all_resources":              AllResources,
	"selected_scenes":            SelectedScenes,
	"selected_resources":         SelectedResources,
	"exclude_selected_resources": ExcludeSelectedResources,
}

// Preset is the immutable build configuration for one export run (spec
// §3). Nothing in it may change once a build has started.
type Preset struct {
	Name           string
	PlatformID     string
	ExportFilter   ExportFilter
	SelectedFiles  map[ResourcePath]bool
	IncludeFilter  string
	ExcludeFilter  string
	CustomFeatures string

	EncPck       bool
	EncDirectory bool
	EncInFilter  string
	EncExFilter  string

	ScriptEncryptionKey string
	ExportPath          string

	// LegacyRemap selects the dead, `if (true)`-guarded legacy overlay
	// mode: when true, the driver writes path_remap/remapped_paths into
	// project.binary instead of emitting .remap stub files. Defaults to
	// false (see DESIGN.md's Open Question decision for spec §9).
	LegacyRemap bool

	// Options carries per-platform export settings as raw strings, read
	// from the preset.<i>.options config section or bundle field.
	Options map[string]string
}

// Validate enforces the enc_directory ⇒ enc_pck invariant. gdpack rejects
// the combination at validation time rather than silently permitting a
// directory-encrypted, body-plaintext pack (see DESIGN.md's Open Question
// decision for spec §3/§9).
func (p *Preset) Validate() error {
	if p.EncDirectory && !p.EncPck {
		return ErrDirectoryEncryptionNeedsPack
	}
	if _, ok := exportFilterNames[p.ExportFilter.String()]; !ok {
		return ErrUnknownExportFilter
	}
	return nil
}

// RebaseExportPath stores ExportPath relative to projectRoot, rebasing an
// absolute input on assignment (spec §3).
func (p *Preset) RebaseExportPath(projectRoot string) {
	if !filepath.IsAbs(p.ExportPath) {
		return
	}
	if rel, err := filepath.Rel(projectRoot, p.ExportPath); err == nil {
		p.ExportPath = rel
	}
}

// Key decodes ScriptEncryptionKey via the lenient C3 decoder.
func (p *Preset) Key() [32]byte {
	return pck.DecodeKey(p.ScriptEncryptionKey)
}

func (p *Preset) encIncludeFilter() (pck.GlobList, error) {
	return pck.CompileGlobList(p.EncInFilter)
}

func (p *Preset) encExcludeFilter() (pck.GlobList, error) {
	return pck.CompileGlobList(p.EncExFilter)
}

// FeatureSet is an immutable tag set, preserved both as an unordered set
// and as the ordered vector scripted plugins observe: platform-derived
// features first, then debug/release, then custom tags (spec §3).
type FeatureSet struct {
	ordered []string
	set     map[string]bool
}

// NewFeatureSet builds a FeatureSet in the order spec §3 mandates.
func NewFeatureSet(platformFeatures []string, debug bool, customFeatures string) FeatureSet {
	ordered := make([]string, 0, len(platformFeatures)+4)
	ordered = append(ordered, platformFeatures...)
	if debug {
		ordered = append(ordered, "debug")
	} else {
		ordered = append(ordered, "release")
	}
	for _, f := range strings.Split(customFeatures, ",") {
		f = strings.TrimSpace(f)
		if f != "" {
			ordered = append(ordered, f)
		}
	}
	set := make(map[string]bool, len(ordered))
	for _, f := range ordered {
		set[f] = true
	}
	return FeatureSet{ordered: ordered, set: set}
}

// Has reports whether tag is active.
func (fs FeatureSet) Has(tag string) bool { return fs.set[tag] }

// Ordered returns a copy of the feature vector in construction order.
func (fs FeatureSet) Ordered() []string {
	out := make([]string, len(fs.ordered))
	copy(out, fs.ordered)
	return out
}
