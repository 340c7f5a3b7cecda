package project

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gdpack/gdpack/pck"
)

// ProgressFunc pumps caller UI and reports cancellation: returning true
// requests the build stop at the next opportunity (spec §4.9/§5).
type ProgressFunc func(path ResourcePath, index, total int) (cancel bool)

// FileSource reads plaintext bytes from the project filesystem — the
// already-imported files plus .import sidecars. Resource importing itself
// is out of scope (spec §1); this is the collaborator boundary.
type FileSource interface {
	ReadFile(path ResourcePath) ([]byte, error)
	OpenImportSidecar(path ResourcePath) (io.ReadCloser, bool, error)
}

// SaveFn is the sink a Driver feeds every resolved payload to: either
// pck.PackWriter.Add or pck.ZipWriter.Add, adapted to this signature.
type SaveFn func(path string, data []byte, idx, total int, encIn, encEx pck.GlobList, key [32]byte) error

// Driver orchestrates C4 (walk) → C5/C6 (remap or plugin) → the SaveFn
// (C8/C9), and synthesizes the derived artifacts listed in spec §4.9
// step 3.
type Driver struct {
	FS        FileSource
	ResFS     ResourceFS
	Platform  Platform
	Plugins   []ExportPlugin
	Listener  Listener
	Progress  ProgressFunc
	Artifacts ArtifactSource
}

type remapStub struct {
	original ResourcePath
	target   ResourcePath
}

func (d *Driver) emit(ev fmt.Stringer) {
	if d.Listener != nil {
		d.Listener(ev)
	}
}

// Compile runs one full export for preset, writing every resolved payload
// through save. It returns the shared objects plugins registered along the
// way (these are copied alongside the final binary, not placed in the
// archive).
func (d *Driver) Compile(preset *Preset, debug bool, outPath string, flags uint32, save SaveFn) (sharedObjects []SharedObject, err error) {
	if err := preset.Validate(); err != nil {
		return nil, err
	}
	encIn, err := preset.encIncludeFilter()
	if err != nil {
		return nil, fmt.Errorf("project: compiling encryption include filter: %w", err)
	}
	encEx, err := preset.encExcludeFilter()
	if err != nil {
		return nil, fmt.Errorf("project: compiling encryption exclude filter: %w", err)
	}
	key := preset.Key()

	features := NewFeatureSet(d.Platform.GetPresetFeatures(preset), debug, preset.CustomFeatures)

	paths, err := Walk(d.ResFS, preset)
	if err != nil {
		return nil, fmt.Errorf("project: walking resources: %w", err)
	}
	d.emit(EventWalkStarted{Filter: preset.ExportFilter.String(), Count: len(paths)})

	paths, err = applyDriverFilters(d.ResFS, paths, preset)
	if err != nil {
		return nil, err
	}

	total := len(paths)
	if total < 1 {
		return nil, ErrParameterRange
	}

	var remapStubs []remapStub

	contexts := make([]*PluginContext, len(d.Plugins))
	scopes := make([]*pluginScope, 0, len(d.Plugins))
	defer func() {
		for i := len(scopes) - 1; i >= 0; i-- {
			if cerr := scopes[i].Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
	}()

	for i, p := range d.Plugins {
		ctx := &PluginContext{}
		contexts[i] = ctx
		scope, err := beginPluginScope(p, ctx, features, debug, outPath, flags)
		if err != nil {
			return nil, &EncryptionSetupError{Err: err}
		}
		scopes = append(scopes, scope)

		// Side effects registered during Begin are emitted now, with
		// progress index 0 (spec §4.9 step 1), before any per-file work.
		for _, so := range ctx.state.sharedObjects {
			sharedObjects = append(sharedObjects, so)
		}
		for _, ef := range ctx.state.extraFiles {
			if err := save(ef.Path.Bare(), ef.Data, 0, total, encIn, encEx, key); err != nil {
				return sharedObjects, err
			}
		}
		ctx.reset()
	}

	for idx, rp := range paths {
		idx++ // 1-based, matches spec's "increment a running index"
		if d.Progress != nil && d.Progress(rp, idx, total) {
			return sharedObjects, ErrSkip
		}

		sidecar, hasSidecar, err := d.openSidecar(rp)
		if err != nil {
			d.emit(ExportMessage{Severity: "warning", Category: "RemapError", Text: err.Error()})
			continue
		}

		if hasSidecar {
			emitted, err := d.processRemap(rp, sidecar, features, save, idx, total, encIn, encEx, key)
			if err != nil {
				return sharedObjects, err
			}
			d.emit(EventRemapResolved{Path: string(rp), Emitted: emitted})
			continue
		}

		data, err := d.FS.ReadFile(rp)
		if err != nil {
			return sharedObjects, fmt.Errorf("project: reading %s: %w", rp, err)
		}

		ri, _ := d.ResFS.Get(rp)
		suppressed, extra, plugSO := d.runPlugins(contexts, rp, FileType(ri.Type), features)
		sharedObjects = append(sharedObjects, plugSO...)

		for _, ef := range extra {
			if err := save(ef.Path.Bare(), ef.Data, idx, total, encIn, encEx, key); err != nil {
				return sharedObjects, err
			}
			if ef.Remap {
				remapStubs = append(remapStubs, remapStub{original: rp, target: ef.Path})
			}
		}

		if !suppressed {
			if err := save(rp.Bare(), data, idx, total, encIn, encEx, key); err != nil {
				return sharedObjects, err
			}
		}

		d.emit(EventFileProcessed{Path: string(rp), Index: idx, Total: total})
	}

	if !preset.LegacyRemap {
		for _, stub := range remapStubs {
			content := remapStubContent(stub.target)
			stubPath := stub.original.Bare() + ".remap"
			if err := save(stubPath, []byte(content), total, total, encIn, encEx, key); err != nil {
				return sharedObjects, err
			}
		}
	}

	if err := d.emitArtifacts(preset, features, remapStubs, save, total, encIn, encEx, key); err != nil {
		return sharedObjects, err
	}

	d.emit(EventPackFinalized{Path: outPath, Entries: total})
	return sharedObjects, nil
}

// emitArtifacts synthesizes and saves the derived, non-resource payloads
// spec §4.9 step 3 lists, in order, skipping whatever the ArtifactSource
// doesn't provide. In legacy mode the .remap stubs emitted above are
// replaced by a path_remap/remapped_paths overlay inside project.binary.
func (d *Driver) emitArtifacts(preset *Preset, features FeatureSet, remapStubs []remapStub, save SaveFn, total int, encIn, encEx pck.GlobList, key [32]byte) error {
	if d.Artifacts == nil {
		return nil
	}

	if path, data, ok := d.Artifacts.ProjectIcon(); ok {
		if err := save(path.Bare(), data, total, total, encIn, encEx, key); err != nil {
			return err
		}
	}
	if path, data, ok := d.Artifacts.BootSplash(); ok {
		if err := save(path.Bare(), data, total, total, encIn, encEx, key); err != nil {
			return err
		}
	}
	if data, ok := d.Artifacts.ResourceUIDCache(); ok {
		if err := save(".godot/uid_cache.bin", data, total, total, encIn, encEx, key); err != nil {
			return err
		}
	}
	if data, ok := d.Artifacts.ExtensionList(); ok {
		if err := save(".godot/extension_list.cfg", data, total, total, encIn, encEx, key); err != nil {
			return err
		}
	}
	if path, data, ok := d.Artifacts.TextServerData(); ok {
		if err := save(path.Bare(), data, total, total, encIn, encEx, key); err != nil {
			return err
		}
	}

	settings := d.Artifacts.Settings()
	if preset.LegacyRemap {
		settings.RemappedPaths = map[ResourcePath][]ResourcePath{}
		for _, stub := range remapStubs {
			settings.RemappedPaths[stub.original] = append(settings.RemappedPaths[stub.original], stub.target)
		}
	}
	body, err := renderProjectBinary(settings, features, preset.LegacyRemap)
	if err != nil {
		return fmt.Errorf("project: rendering project.binary: %w", err)
	}
	return save("project.binary", []byte(body), total, total, encIn, encEx, key)
}

// processRemap resolves a single .import sidecar and saves every resulting
// body (spec §4.5): the remapped payloads on a "keep" importer bypasses
// remap logic entirely and emits the original path verbatim.
func (d *Driver) processRemap(rp ResourcePath, sidecar ImportSidecar, features FeatureSet, save SaveFn, idx, total int, encIn, encEx pck.GlobList, key [32]byte) ([]string, error) {
	res, err := ResolveImport(sidecar, features, d.Platform)
	if err != nil {
		return nil, &RemapError{Path: string(rp), Err: err}
	}

	var emitted []string
	if res.Keep {
		if err := d.readAndSave(rp, save, idx, total, encIn, encEx, key); err != nil {
			return nil, err
		}
		return append(emitted, string(rp)), nil
	}

	for _, remapped := range res.Paths {
		if err := d.readAndSave(remapped, save, idx, total, encIn, encEx, key); err != nil {
			return nil, err
		}
		emitted = append(emitted, string(remapped))
	}
	importPath := ResourcePath(string(rp) + ".import")
	if err := d.readAndSave(importPath, save, idx, total, encIn, encEx, key); err != nil {
		return nil, err
	}
	emitted = append(emitted, string(importPath))
	return emitted, nil
}

func (d *Driver) readAndSave(path ResourcePath, save SaveFn, idx, total int, encIn, encEx pck.GlobList, key [32]byte) error {
	data, err := d.FS.ReadFile(path)
	if err != nil {
		return fmt.Errorf("project: reading %s: %w", path, err)
	}
	return save(path.Bare(), data, idx, total, encIn, encEx, key)
}

func (d *Driver) openSidecar(rp ResourcePath) (ImportSidecar, bool, error) {
	r, ok, err := d.FS.OpenImportSidecar(rp)
	if err != nil {
		return ImportSidecar{}, false, fmt.Errorf("project: opening import sidecar for %s: %w", rp, err)
	}
	if !ok {
		return ImportSidecar{}, false, nil
	}
	defer r.Close()
	sc, err := ParseImportSidecar(r)
	if err != nil {
		return ImportSidecar{}, true, &RemapError{Path: string(rp), Err: err}
	}
	return sc, true, nil
}

// runPlugins dispatches one file through every plugin in order (C6),
// clearing each plugin's PluginContext afterward (spec §4.6). It reports
// whether the original path should be suppressed: either a plugin called
// Skip(), or a plugin registered a remap=true extra file redirecting it.
func (d *Driver) runPlugins(contexts []*PluginContext, path ResourcePath, ft FileType, features FeatureSet) (suppressed bool, extra []ExtraFile, shared []SharedObject) {
	for i, p := range d.Plugins {
		ctx := contexts[i]
		ctx.reset()
		p.ExportFile(ctx, path, ft, features)
		if ctx.state.skipped {
			suppressed = true
			d.emit(EventPluginSkipped{Plugin: p.Name(), Path: string(path)})
		}
		for _, ef := range ctx.state.extraFiles {
			extra = append(extra, ef)
			if ef.Remap {
				suppressed = true
			}
		}
		shared = append(shared, ctx.state.sharedObjects...)
	}
	return suppressed, extra, shared
}

// applyDriverFilters applies the fixed filter order spec §4.2 mandates:
// +*.icns, +*.ico, +include_filter, -exclude_filter, -*.import. Include
// passes scan the whole resource tree, so they can add files Walk left out.
func applyDriverFilters(resFS ResourceFS, paths []ResourcePath, preset *Preset) ([]ResourcePath, error) {
	set := make(map[string]bool, len(paths))
	universe := make([]string, len(paths))
	for i, p := range paths {
		set[string(p)] = true
		universe[i] = string(p)
	}
	err := resFS.Walk(func(ri ResourceInfo) error {
		if !set[string(ri.Path)] {
			universe = append(universe, string(ri.Path))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("project: walking resources for filters: %w", err)
	}

	steps := []struct {
		list    string
		exclude bool
	}{
		{"*.icns", false},
		{"*.ico", false},
		{preset.IncludeFilter, false},
		{preset.ExcludeFilter, true},
		{"*.import", true},
	}
	for _, s := range steps {
		gl, err := pck.CompileGlobList(s.list)
		if err != nil {
			return nil, fmt.Errorf("project: compiling filter %q: %w", s.list, err)
		}
		pck.ApplyFilter(set, universe, gl, s.exclude)
	}

	out := make([]ResourcePath, 0, len(set))
	for p := range set {
		out = append(out, ResourcePath(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// remapStubContent renders a .remap stub's content per spec §6.3.
func remapStubContent(target ResourcePath) string {
	return fmt.Sprintf("[remap]\n\npath=\"%s\"\n", escapeC(string(target)))
}

func escapeC(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
