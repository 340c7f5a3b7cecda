package project

import (
	"errors"
	"fmt"
)

var (
	// ErrDirectoryEncryptionNeedsPack is returned by Preset.Validate when
	// EncDirectory is set without EncPck (see DESIGN.md's Open Question
	// decision for spec §3's enc_directory ⇒ enc_pck invariant).
	ErrDirectoryEncryptionNeedsPack = errors.New("project: encrypt_directory requires encrypt_pck")
	// ErrSkip is returned by Driver.Compile when the progress callback
	// requests cancellation.
	ErrSkip = errors.New("project: build cancelled by progress callback")
	// ErrParameterRange is returned when a build would enumerate zero
	// files.
	ErrParameterRange = errors.New("project: total must be >= 1")
	// ErrUnknownExportFilter is returned for a Preset.ExportFilter value
	// outside the closed enum.
	ErrUnknownExportFilter = errors.New("project: unknown export_filter value")
	// ErrTemplateMissing signals a missing per-platform export template;
	// fatal to the containing export driver, not to this package.
	ErrTemplateMissing = errors.New("project: export template not found")
)

// ConfigError wraps a malformed preset: logged by the caller, and the
// preset is skipped at load time rather than aborting the whole config.
type ConfigError struct {
	Preset string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("project: preset %q: %s", e.Preset, e.Reason)
}

// RemapError wraps a failure to parse or resolve a .import sidecar. The
// driver logs it and continues with the next resource (best-effort, per
// spec §7).
type RemapError struct {
	Path string
	Err  error
}

func (e *RemapError) Error() string {
	return fmt.Sprintf("project: resolving remap for %s: %v", e.Path, e.Err)
}

func (e *RemapError) Unwrap() error { return e.Err }

// EncryptionSetupError wraps a failure to initialize a plugin scope or the
// AES writer: fatal, surfaces to the caller as CANT_CREATE in spec terms.
type EncryptionSetupError struct {
	Err error
}

func (e *EncryptionSetupError) Error() string {
	return fmt.Sprintf("project: encryption setup: %v", e.Err)
}

func (e *EncryptionSetupError) Unwrap() error { return e.Err }
