package project

import "fmt"

// FileType is the editor's resource type tag for a given file, passed
// through to plugins so they can decide whether to act on it.
type FileType string

// ExtraFile is a file a plugin registers for inclusion alongside (or
// instead of) the path it was invoked for.
type ExtraFile struct {
	Path  ResourcePath
	Data  []byte
	Remap bool
}

// SharedObject is a native artifact forwarded to the driver's
// shared-object sink rather than placed inside the archive (spec §3).
type SharedObject struct {
	Path   string
	Tags   []string
	Target string
}

// PluginContext is the callback surface export_file/export_begin use to
// register side effects (spec §6.5: add_file, add_shared_object, skip).
// The driver owns one PluginContext per plugin and resets it between
// calls, per spec §4.6's "plugin state must be cleared per file."
type PluginContext struct {
	state pluginState
}

type pluginState struct {
	extraFiles    []ExtraFile
	sharedObjects []SharedObject
	skipped       bool
}

// AddFile registers an extra file. remap=true suppresses the path the
// plugin was invoked for and later causes a .remap stub to be synthesized
// redirecting it to path.
func (c *PluginContext) AddFile(path ResourcePath, data []byte, remap bool) {
	c.state.extraFiles = append(c.state.extraFiles, ExtraFile{Path: path, Data: data, Remap: remap})
}

// AddSharedObject registers a native artifact to copy alongside the final
// binary.
func (c *PluginContext) AddSharedObject(so SharedObject) {
	c.state.sharedObjects = append(c.state.sharedObjects, so)
}

// Skip marks the current path as not to be stored.
func (c *PluginContext) Skip() {
	c.state.skipped = true
}

func (c *PluginContext) reset() {
	c.state = pluginState{}
}

// ExportPlugin is the closed capability interface spec §9 calls for:
// "a capability interface {begin, export_file, end}... closed variants,
// not open inheritance." The native/script-hosted distinction collapses
// to whichever concrete type forwards to a scripting bridge; both satisfy
// this one interface.
type ExportPlugin interface {
	// Name identifies the plugin in diagnostics and events.
	Name() string
	// Begin is called once before enumeration starts. Side effects
	// registered on ctx here (extra files, shared objects) are emitted
	// with progress index 0, before any per-file work (spec §4.9 step 1).
	Begin(ctx *PluginContext, features FeatureSet, debug bool, outPath string, flags uint32) error
	// ExportFile is called once per path the driver hands to the plugin
	// pipeline (C6). Side effects are registered on ctx.
	ExportFile(ctx *PluginContext, path ResourcePath, fileType FileType, features FeatureSet)
	// End is called exactly once after enumeration, regardless of
	// outcome (spec §4.6, §9's scoped-notifier guidance).
	End() error
}

// pluginScope guarantees End() runs exactly once, on every exit path,
// mirroring spec §9's "model as a guard object whose destruction/drop/defer
// semantics fire export_end."
type pluginScope struct {
	plugin ExportPlugin
	ended  bool
}

func beginPluginScope(p ExportPlugin, ctx *PluginContext, features FeatureSet, debug bool, outPath string, flags uint32) (*pluginScope, error) {
	if err := p.Begin(ctx, features, debug, outPath, flags); err != nil {
		return nil, fmt.Errorf("project: plugin %s: export_begin: %w", p.Name(), err)
	}
	return &pluginScope{plugin: p}, nil
}

// Close calls End() if it has not already run. Safe to call multiple
// times; safe to defer unconditionally.
func (s *pluginScope) Close() error {
	if s.ended {
		return nil
	}
	s.ended = true
	if err := s.plugin.End(); err != nil {
		return fmt.Errorf("project: plugin %s: export_end: %w", s.plugin.Name(), err)
	}
	return nil
}
