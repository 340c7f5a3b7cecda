package project

// ExportOption is one per-platform export setting exposed to the UI layer;
// the core only ever passes these through.
type ExportOption struct {
	Name  string
	Value any
}

// Platform is the closed capability interface the driver calls into for
// everything spec §1 treats as an external collaborator: per-platform
// export template copying, executable signing, and feature-priority
// resolution. gdpack never inherits from or extends this interface — a
// platform is always one concrete implementation handed to a Driver.
type Platform interface {
	// GetPresetFeatures returns the platform-derived feature tags for
	// preset, before debug/release and custom tags are appended.
	GetPresetFeatures(preset *Preset) []string
	// GetPlatformFeatures returns the full set of feature tags this
	// platform can ever produce, independent of any one preset.
	GetPlatformFeatures() []string
	// GetExportOptions lists the platform-specific export settings the
	// UI should surface for this platform.
	GetExportOptions() []ExportOption
	// ResolvePlatformFeaturePriorities breaks a tie between multiple
	// simultaneously-active feature-gated remaps, returning the single
	// feature that should win.
	ResolvePlatformFeaturePriorities(candidates map[string]bool) string
	// CanExport reports whether preset is exportable on this platform
	// right now (e.g. missing export template).
	CanExport(preset *Preset) error
	// ExportProject performs the platform-specific packaging step after
	// the core's PCK/ZIP has been produced (codesigning, template
	// patching, etc.) — a pass-through the core never inspects.
	ExportProject(preset *Preset, outPath string) error
}
