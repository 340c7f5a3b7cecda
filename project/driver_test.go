package project

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/gdpack/gdpack/pck"
)

type fakeArtifactSource struct {
	icon     []byte
	settings ProjectSettings
}

func (a *fakeArtifactSource) ProjectIcon() (ResourcePath, []byte, bool) {
	if a.icon == nil {
		return "", nil, false
	}
	return "res://icon.png", a.icon, true
}
func (a *fakeArtifactSource) BootSplash() (ResourcePath, []byte, bool)     { return "", nil, false }
func (a *fakeArtifactSource) ResourceUIDCache() ([]byte, bool)             { return nil, false }
func (a *fakeArtifactSource) ExtensionList() ([]byte, bool)                { return nil, false }
func (a *fakeArtifactSource) TextServerData() (ResourcePath, []byte, bool) { return "", nil, false }
func (a *fakeArtifactSource) Settings() ProjectSettings                    { return a.settings }

type fakeFileSource struct {
	files    map[string][]byte
	sidecars map[string]string
}

func (f *fakeFileSource) ReadFile(path ResourcePath) ([]byte, error) {
	data, ok := f.files[string(path)]
	if !ok {
		return nil, errors.New("no such file: " + string(path))
	}
	return data, nil
}

func (f *fakeFileSource) OpenImportSidecar(path ResourcePath) (io.ReadCloser, bool, error) {
	src, ok := f.sidecars[string(path)]
	if !ok {
		return nil, false, nil
	}
	return io.NopCloser(strings.NewReader(src)), true, nil
}

type savedEntry struct {
	path string
	data []byte
}

func recordingSave(dst *[]savedEntry) SaveFn {
	return func(path string, data []byte, idx, total int, encIn, encEx pck.GlobList, key [32]byte) error {
		*dst = append(*dst, savedEntry{path: path, data: append([]byte(nil), data...)})
		return nil
	}
}

func driverFixture() (*Driver, *fakeFileSource) {
	fs := &fakeFileSource{
		files: map[string][]byte{
			"res://main.tscn": []byte("scene"),
			"res://tex.png":   []byte("pngdata"),
			"res://plain.txt": []byte("plain"),
		},
	}
	resFS := &fakeFS{
		resources: []ResourceInfo{
			{Path: "res://main.tscn", Type: typePackedScene},
			{Path: "res://tex.png", Type: "Texture"},
			{Path: "res://plain.txt", Type: "GDScript"},
		},
	}
	d := &Driver{
		FS:       fs,
		ResFS:    resFS,
		Platform: &fakePlatform{},
	}
	return d, fs
}

func TestDriverCompileSavesEveryResource(t *testing.T) {
	d, _ := driverFixture()
	preset := &Preset{Name: "p", ExportFilter: AllResources}

	var saved []savedEntry
	_, err := d.Compile(preset, false, "out.pck", 0, recordingSave(&saved))
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]bool{"main.tscn": true, "tex.png": true, "plain.txt": true}
	if len(saved) != len(want) {
		t.Fatalf("saved %d entries, want %d: %+v", len(saved), len(want), saved)
	}
	for _, e := range saved {
		if !want[e.path] {
			t.Fatalf("unexpected saved path %s", e.path)
		}
	}
}

func TestDriverCompileRejectsEmptyResourceSet(t *testing.T) {
	d, fs := driverFixture()
	fs.files = map[string][]byte{}
	d.ResFS = &fakeFS{}
	preset := &Preset{Name: "p", ExportFilter: AllResources}

	var saved []savedEntry
	_, err := d.Compile(preset, false, "out.pck", 0, recordingSave(&saved))
	if err != ErrParameterRange {
		t.Fatalf("got %v, want ErrParameterRange", err)
	}
}

func TestDriverCompileHonorsCancellation(t *testing.T) {
	d, _ := driverFixture()
	preset := &Preset{Name: "p", ExportFilter: AllResources}
	d.Progress = func(path ResourcePath, index, total int) bool { return true }

	var saved []savedEntry
	_, err := d.Compile(preset, false, "out.pck", 0, recordingSave(&saved))
	if err != ErrSkip {
		t.Fatalf("got %v, want ErrSkip", err)
	}
	if len(saved) != 0 {
		t.Fatalf("expected no saves once cancelled immediately, got %v", saved)
	}
}

func TestDriverCompileResolvesRemapSidecar(t *testing.T) {
	d, fs := driverFixture()
	fs.files["res://.godot/imported/tex.ctex"] = []byte("ctex-body")
	fs.files["res://tex.png.import"] = []byte("import-meta")
	fs.sidecars = map[string]string{
		"res://tex.png": "[remap]\nimporter=\"texture\"\npath=\"res://.godot/imported/tex.ctex\"\n",
	}
	preset := &Preset{Name: "p", ExportFilter: AllResources}

	var saved []savedEntry
	_, err := d.Compile(preset, false, "out.pck", 0, recordingSave(&saved))
	if err != nil {
		t.Fatal(err)
	}
	found := map[string]bool{}
	for _, e := range saved {
		found[e.path] = true
	}
	if !found[".godot/imported/tex.ctex"] || !found["tex.png.import"] {
		t.Fatalf("missing remap outputs: %+v", saved)
	}
	if found["tex.png"] {
		t.Fatal("original remapped path should not be saved verbatim")
	}
}

func TestDriverCompileKeepImporterBypassesRemap(t *testing.T) {
	d, fs := driverFixture()
	fs.sidecars = map[string]string{
		"res://tex.png": "[remap]\nimporter=\"keep\"\n",
	}
	preset := &Preset{Name: "p", ExportFilter: AllResources}

	var saved []savedEntry
	_, err := d.Compile(preset, false, "out.pck", 0, recordingSave(&saved))
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, e := range saved {
		if e.path == "tex.png" {
			found = true
		}
	}
	if !found {
		t.Fatal("keep importer should emit the original path verbatim")
	}
}

func TestDriverCompilePluginSkipSuppressesFile(t *testing.T) {
	d, _ := driverFixture()
	plugin := &recordingPlugin{
		name: "skipper",
		onFile: func(ctx *PluginContext, path ResourcePath) {
			if path == "res://plain.txt" {
				ctx.Skip()
			}
		},
	}
	d.Plugins = []ExportPlugin{plugin}
	preset := &Preset{Name: "p", ExportFilter: AllResources}

	var saved []savedEntry
	_, err := d.Compile(preset, false, "out.pck", 0, recordingSave(&saved))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range saved {
		if e.path == "plain.txt" {
			t.Fatal("plain.txt should have been suppressed by the plugin")
		}
	}
	if plugin.beginCalls != 1 || plugin.endCalls != 1 {
		t.Fatalf("begin/end calls = %d/%d, want 1/1", plugin.beginCalls, plugin.endCalls)
	}
}

func TestDriverCompilePluginBeginExtraFileEmittedAtIndexZero(t *testing.T) {
	d, _ := driverFixture()
	plugin := &recordingPlugin{
		name: "header",
		onBegin: func(ctx *PluginContext) {
			ctx.AddFile("res://generated/header.h", []byte("header"), false)
		},
	}
	d.Plugins = []ExportPlugin{plugin}
	preset := &Preset{Name: "p", ExportFilter: AllResources}

	var saved []savedEntry
	_, err := d.Compile(preset, false, "out.pck", 0, recordingSave(&saved))
	if err != nil {
		t.Fatal(err)
	}
	if len(saved) == 0 || saved[0].path != "generated/header.h" {
		t.Fatalf("expected begin-time extra file first, got %+v", saved)
	}
}

func TestDriverCompileRemapExtraFileSynthesizesStub(t *testing.T) {
	d, _ := driverFixture()
	plugin := &recordingPlugin{
		name: "translator",
		onFile: func(ctx *PluginContext, path ResourcePath) {
			if path == "res://plain.txt" {
				ctx.AddFile("res://plain.translated.txt", []byte("translated"), true)
			}
		},
	}
	d.Plugins = []ExportPlugin{plugin}
	preset := &Preset{Name: "p", ExportFilter: AllResources}

	var saved []savedEntry
	_, err := d.Compile(preset, false, "out.pck", 0, recordingSave(&saved))
	if err != nil {
		t.Fatal(err)
	}
	var stub *savedEntry
	for i, e := range saved {
		if e.path == "plain.txt.remap" {
			stub = &saved[i]
		}
		if e.path == "plain.txt" {
			t.Fatal("remapped original should be suppressed")
		}
	}
	if stub == nil {
		t.Fatalf("expected a .remap stub, got %+v", saved)
	}
	if !strings.Contains(string(stub.data), `path="res://plain.translated.txt"`) {
		t.Fatalf("stub content = %q", stub.data)
	}
}

func TestDriverCompileEmitsArtifactsAndProjectBinary(t *testing.T) {
	d, _ := driverFixture()
	d.Artifacts = &fakeArtifactSource{
		icon:     []byte("iconbytes"),
		settings: ProjectSettings{ApplicationName: "Demo", MainScene: "res://main.tscn"},
	}
	preset := &Preset{Name: "p", ExportFilter: AllResources, CustomFeatures: "mygame"}

	var saved []savedEntry
	_, err := d.Compile(preset, false, "out.pck", 0, recordingSave(&saved))
	if err != nil {
		t.Fatal(err)
	}

	byPath := map[string][]byte{}
	for _, e := range saved {
		byPath[e.path] = e.data
	}
	if string(byPath["icon.png"]) != "iconbytes" {
		t.Fatalf("icon not saved: %+v", saved)
	}
	binary, ok := byPath["project.binary"]
	if !ok {
		t.Fatalf("project.binary not saved: %+v", saved)
	}
	if !strings.Contains(string(binary), `config/name="Demo"`) {
		t.Fatalf("project.binary missing app name: %q", binary)
	}
	if !strings.Contains(string(binary), `"mygame"`) {
		t.Fatalf("project.binary missing custom feature overlay: %q", binary)
	}
}

func TestDriverCompileLegacyRemapOverlaysProjectBinaryInsteadOfStubs(t *testing.T) {
	d, _ := driverFixture()
	plugin := &recordingPlugin{
		name: "translator",
		onFile: func(ctx *PluginContext, path ResourcePath) {
			if path == "res://plain.txt" {
				ctx.AddFile("res://plain.translated.txt", []byte("translated"), true)
			}
		},
	}
	d.Plugins = []ExportPlugin{plugin}
	d.Artifacts = &fakeArtifactSource{settings: ProjectSettings{ApplicationName: "Demo"}}
	preset := &Preset{Name: "p", ExportFilter: AllResources, LegacyRemap: true}

	var saved []savedEntry
	_, err := d.Compile(preset, false, "out.pck", 0, recordingSave(&saved))
	if err != nil {
		t.Fatal(err)
	}

	var binary []byte
	for _, e := range saved {
		if e.path == "plain.txt.remap" {
			t.Fatal("legacy mode should not emit .remap stubs")
		}
		if e.path == "project.binary" {
			binary = e.data
		}
	}
	if binary == nil {
		t.Fatal("project.binary not saved")
	}
	if !strings.Contains(string(binary), `path="res://plain.txt"`) ||
		!strings.Contains(string(binary), `"res://plain.translated.txt"`) {
		t.Fatalf("project.binary missing legacy remap overlay: %q", binary)
	}
}
