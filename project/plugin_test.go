package project

import (
	"errors"
	"testing"
)

type recordingPlugin struct {
	name       string
	beginCalls int
	endCalls   int
	endErr     error
	onBegin    func(ctx *PluginContext)
	onFile     func(ctx *PluginContext, path ResourcePath)
}

func (p *recordingPlugin) Name() string { return p.name }

func (p *recordingPlugin) Begin(ctx *PluginContext, features FeatureSet, debug bool, outPath string, flags uint32) error {
	p.beginCalls++
	if p.onBegin != nil {
		p.onBegin(ctx)
	}
	return nil
}

func (p *recordingPlugin) ExportFile(ctx *PluginContext, path ResourcePath, fileType FileType, features FeatureSet) {
	if p.onFile != nil {
		p.onFile(ctx, path)
	}
}

func (p *recordingPlugin) End() error {
	p.endCalls++
	return p.endErr
}

func TestPluginScopeClosesExactlyOnce(t *testing.T) {
	p := &recordingPlugin{name: "test"}
	ctx := &PluginContext{}
	scope, err := beginPluginScope(p, ctx, FeatureSet{}, false, "out", 0)
	if err != nil {
		t.Fatal(err)
	}
	if p.beginCalls != 1 {
		t.Fatalf("begin calls = %d", p.beginCalls)
	}
	if err := scope.Close(); err != nil {
		t.Fatal(err)
	}
	if err := scope.Close(); err != nil {
		t.Fatal(err)
	}
	if p.endCalls != 1 {
		t.Fatalf("end calls = %d, want exactly 1", p.endCalls)
	}
}

func TestPluginScopeCloseWrapsEndError(t *testing.T) {
	wantErr := errors.New("boom")
	p := &recordingPlugin{name: "test", endErr: wantErr}
	ctx := &PluginContext{}
	scope, err := beginPluginScope(p, ctx, FeatureSet{}, false, "out", 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := scope.Close(); !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want wrapped %v", err, wantErr)
	}
}

func TestPluginContextResetClearsState(t *testing.T) {
	ctx := &PluginContext{}
	ctx.AddFile("res://extra.txt", []byte("x"), true)
	ctx.AddSharedObject(SharedObject{Path: "lib.so"})
	ctx.Skip()
	ctx.reset()
	if len(ctx.state.extraFiles) != 0 || len(ctx.state.sharedObjects) != 0 || ctx.state.skipped {
		t.Fatal("reset did not clear state")
	}
}
