package project

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// ImportSidecar is the parsed form of a P.import file: which importer
// produced P, the default remap target, and any feature-gated remap
// targets (spec §4.5).
type ImportSidecar struct {
	Importer      string
	DefaultRemap  string
	FeatureRemaps map[string]string // feature -> remapped path
}

// ParseImportSidecar parses a .import file, reusing the same sectioned
// key-value grammar export_presets.cfg uses (parseSectionedConfig):
// "[remap]" section, "path" and "path.<feature>" keys.
func ParseImportSidecar(r io.Reader) (ImportSidecar, error) {
	_, sections, err := parseSectionedConfig(r)
	if err != nil {
		return ImportSidecar{}, fmt.Errorf("project: parsing import sidecar: %w", err)
	}
	sc := ImportSidecar{FeatureRemaps: map[string]string{}}
	remap := sections["remap"]
	if remap == nil {
		return sc, nil
	}
	sc.Importer = remap["importer"]
	for k, v := range remap {
		switch {
		case k == "path":
			sc.DefaultRemap = v
		case strings.HasPrefix(k, "path."):
			sc.FeatureRemaps[strings.TrimPrefix(k, "path.")] = v
		}
	}
	return sc, nil
}

// ImportResolution is the outcome of resolving one .import sidecar against
// an active feature set.
type ImportResolution struct {
	// Keep is true when importer == "keep": the original path is emitted
	// verbatim and no remap logic applies.
	Keep bool
	// Paths lists the remapped bodies to emit, in order: the default
	// remap (if present) followed by each surviving feature-gated remap.
	Paths []ResourcePath
}

// ResolveImport implements spec §4.5's remap-selection rule: default remap
// always wins a slot, each feature-gated remap whose feature is active
// wins a slot unless more than one is simultaneously active, in which case
// the platform breaks the tie to a single feature.
func ResolveImport(sc ImportSidecar, active FeatureSet, platform Platform) (ImportResolution, error) {
	if sc.Importer == "keep" {
		return ImportResolution{Keep: true}, nil
	}

	var gated []string
	for feat := range sc.FeatureRemaps {
		if active.Has(feat) {
			gated = append(gated, feat)
		}
	}
	sort.Strings(gated)

	if len(gated) > 1 {
		candidates := make(map[string]bool, len(gated))
		for _, f := range gated {
			candidates[f] = true
		}
		chosen := platform.ResolvePlatformFeaturePriorities(candidates)
		gated = []string{chosen}
	}

	var paths []ResourcePath
	if sc.DefaultRemap != "" {
		paths = append(paths, ResourcePath(sc.DefaultRemap))
	}
	for _, f := range gated {
		if target, ok := sc.FeatureRemaps[f]; ok {
			paths = append(paths, ResourcePath(target))
		}
	}
	return ImportResolution{Paths: paths}, nil
}
