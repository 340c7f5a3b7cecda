package project

import (
	"reflect"
	"testing"
)

type fakeFS struct {
	resources []ResourceInfo
	autoloads []string
}

func (f *fakeFS) Walk(fn func(ResourceInfo) error) error {
	for _, ri := range f.resources {
		if err := fn(ri); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeFS) Get(path ResourcePath) (ResourceInfo, bool) {
	for _, ri := range f.resources {
		if ri.Path == path {
			return ri, true
		}
	}
	return ResourceInfo{}, false
}

func (f *fakeFS) Autoloads() []string { return f.autoloads }

func sampleFS() *fakeFS {
	return &fakeFS{
		resources: []ResourceInfo{
			{Path: "res://scene.tscn", Type: typePackedScene, Dependencies: []ResourcePath{"res://tex.png"}},
			{Path: "res://tex.png", Type: "Texture"},
			{Path: "res://notes.txt", Type: typeTextFile},
			{Path: "res://singleton.gd", Type: "GDScript"},
		},
		autoloads: []string{"*res://singleton.gd"},
	}
}

func TestWalkAllResourcesExcludesTextFilesAndAddsAutoloads(t *testing.T) {
	fs := sampleFS()
	p := &Preset{ExportFilter: AllResources}
	paths, err := Walk(fs, p)
	if err != nil {
		t.Fatal(err)
	}
	want := []ResourcePath{"res://scene.tscn", "res://singleton.gd", "res://tex.png"}
	if !reflect.DeepEqual(paths, want) {
		t.Fatalf("got %v, want %v", paths, want)
	}
}

func TestWalkExcludeSelectedResources(t *testing.T) {
	fs := sampleFS()
	p := &Preset{
		ExportFilter:  ExcludeSelectedResources,
		SelectedFiles: map[ResourcePath]bool{"res://tex.png": true},
	}
	paths, err := Walk(fs, p)
	if err != nil {
		t.Fatal(err)
	}
	for _, pth := range paths {
		if pth == "res://tex.png" {
			t.Fatal("res://tex.png should have been excluded")
		}
	}
}

func TestWalkSelectedResourcesClosesDependencies(t *testing.T) {
	fs := sampleFS()
	p := &Preset{
		ExportFilter:  SelectedResources,
		SelectedFiles: map[ResourcePath]bool{"res://scene.tscn": true},
	}
	paths, err := Walk(fs, p)
	if err != nil {
		t.Fatal(err)
	}
	want := map[ResourcePath]bool{"res://scene.tscn": true, "res://tex.png": true, "res://singleton.gd": true}
	if len(paths) != len(want) {
		t.Fatalf("got %v, want members of %v", paths, want)
	}
	for _, pth := range paths {
		if !want[pth] {
			t.Fatalf("unexpected path %s", pth)
		}
	}
}

func TestWalkSelectedScenesDropsNonSceneSeeds(t *testing.T) {
	fs := sampleFS()
	p := &Preset{
		ExportFilter:  SelectedScenes,
		SelectedFiles: map[ResourcePath]bool{"res://tex.png": true},
	}
	paths, err := Walk(fs, p)
	if err != nil {
		t.Fatal(err)
	}
	for _, pth := range paths {
		if pth == "res://tex.png" {
			t.Fatal("non-scene seed should have been dropped, its dependencies never walked")
		}
	}
}

func TestWalkUnknownFilterErrors(t *testing.T) {
	fs := sampleFS()
	p := &Preset{ExportFilter: ExportFilter(99)}
	if _, err := Walk(fs, p); err != ErrUnknownExportFilter {
		t.Fatalf("got %v, want ErrUnknownExportFilter", err)
	}
}
