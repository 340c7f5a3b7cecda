package project

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.yaml.in/yaml/v3"
)

// parseSectionedConfig parses the editor's ConfigFile dialect: "[section]"
// headers followed by key="quoted value" or key=bareword lines. It is the
// same lenient, line-oriented shape the teacher's deb/util.go control-file
// readers use — split, trim, skip what doesn't parse instead of aborting —
// adapted from "Key: value" lines to "key=value" ones. Shared by both the
// preset config (this file) and the .import sidecar parser.
func parseSectionedConfig(r io.Reader) (order []string, sections map[string]map[string]string, err error) {
	sections = map[string]map[string]string{}
	section := ""
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(line[1 : len(line)-1])
			if _, ok := sections[section]; !ok {
				sections[section] = map[string]string{}
				order = append(order, section)
			}
			continue
		}
		idx := strings.Index(line, "=")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		val := unquoteConfigValue(strings.TrimSpace(line[idx+1:]))
		if _, ok := sections[section]; !ok {
			sections[section] = map[string]string{}
			order = append(order, section)
		}
		sections[section][key] = val
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("project: reading config: %w", err)
	}
	return order, sections, nil
}

func unquoteConfigValue(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return configUnescaper.Replace(v[1 : len(v)-1])
	}
	return v
}

// configUnescaper reverses escapeConfigValue.
var configUnescaper = strings.NewReplacer(`\\`, `\`, `\"`, `"`)

func escapeConfigValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `"`, `\"`)
}

// preset.<i> field keys, per spec §6.4.
const (
	keyName           = "name"
	keyPlatform       = "platform"
	keyExportFilter   = "export_filter"
	keyIncludeFilter  = "include_filter"
	keyExcludeFilter  = "exclude_filter"
	keyCustomFeatures = "custom_features"
	keySelectedFiles  = "selected_files"
	keyEncPck         = "encrypt_pck"
	keyEncDirectory   = "encrypt_directory"
	keyEncInFilter    = "encryption_include_filters"
	keyEncExFilter    = "encryption_exclude_filters"
	keyScriptKey      = "script_encryption_key"
	keyExportPath     = "export_path"
	keyLegacyRemap    = "legacy_remap"
)

// ParsePresetConfig parses the sectioned export_presets.cfg format: a
// "preset.<i>" section per preset plus an optional "preset.<i>.options"
// section for per-platform settings. A malformed preset is a ConfigError:
// it is skipped rather than aborting the whole file (spec §7).
func ParsePresetConfig(r io.Reader) ([]Preset, []error) {
	order, sections, err := parseSectionedConfig(r)
	if err != nil {
		return nil, []error{err}
	}

	byIndex := map[string]*Preset{}
	var indices []string
	var errs []error

	for _, name := range order {
		rest, ok := strings.CutPrefix(name, "preset.")
		if !ok {
			continue
		}
		if idx, isOptions := strings.CutSuffix(rest, ".options"); isOptions {
			p, ok := byIndex[idx]
			if !ok {
				continue
			}
			if p.Options == nil {
				p.Options = map[string]string{}
			}
			for k, v := range sections[name] {
				p.Options[k] = v
			}
			continue
		}

		preset, err := presetFromFields(sections[name])
		if err != nil {
			errs = append(errs, &ConfigError{Preset: rest, Reason: err.Error()})
			continue
		}
		byIndex[rest] = &preset
		indices = append(indices, rest)
	}

	sort.Slice(indices, func(i, j int) bool {
		a, _ := strconv.Atoi(indices[i])
		b, _ := strconv.Atoi(indices[j])
		return a < b
	})

	presets := make([]Preset, 0, len(indices))
	for _, idx := range indices {
		presets = append(presets, *byIndex[idx])
	}
	return presets, errs
}

func presetFromFields(fields map[string]string) (Preset, error) {
	name, ok := fields[keyName]
	if !ok || name == "" {
		return Preset{}, fmt.Errorf("missing %q", keyName)
	}
	filter, ok := exportFilterNames[fields[keyExportFilter]]
	if !ok {
		return Preset{}, fmt.Errorf("unknown export_filter %q", fields[keyExportFilter])
	}

	p := Preset{
		Name:                name,
		PlatformID:          fields[keyPlatform],
		ExportFilter:        filter,
		IncludeFilter:       fields[keyIncludeFilter],
		ExcludeFilter:       fields[keyExcludeFilter],
		CustomFeatures:      fields[keyCustomFeatures],
		EncPck:              fields[keyEncPck] == "true",
		EncDirectory:        fields[keyEncDirectory] == "true",
		EncInFilter:         fields[keyEncInFilter],
		EncExFilter:         fields[keyEncExFilter],
		ScriptEncryptionKey: fields[keyScriptKey],
		ExportPath:          fields[keyExportPath],
		LegacyRemap:         fields[keyLegacyRemap] == "true",
	}
	if sel := fields[keySelectedFiles]; sel != "" {
		p.SelectedFiles = map[ResourcePath]bool{}
		for _, s := range strings.Split(sel, ",") {
			if s = strings.TrimSpace(s); s != "" {
				p.SelectedFiles[ResourcePath(s)] = true
			}
		}
	}
	if err := p.Validate(); err != nil {
		return Preset{}, err
	}
	return p, nil
}

// WritePresetConfig serializes presets back to the sectioned format, in
// slice order, as "preset.0", "preset.1", ....
func WritePresetConfig(w io.Writer, presets []Preset) error {
	for i, p := range presets {
		fmt.Fprintf(w, "[preset.%d]\n\n", i)
		fmt.Fprintf(w, "%s=\"%s\"\n", keyName, escapeConfigValue(p.Name))
		fmt.Fprintf(w, "%s=\"%s\"\n", keyPlatform, escapeConfigValue(p.PlatformID))
		fmt.Fprintf(w, "%s=\"%s\"\n", keyExportFilter, p.ExportFilter.String())
		if len(p.SelectedFiles) > 0 {
			paths := make([]string, 0, len(p.SelectedFiles))
			for sp := range p.SelectedFiles {
				paths = append(paths, string(sp))
			}
			sort.Strings(paths)
			fmt.Fprintf(w, "%s=\"%s\"\n", keySelectedFiles, escapeConfigValue(strings.Join(paths, ",")))
		}
		fmt.Fprintf(w, "%s=\"%s\"\n", keyIncludeFilter, escapeConfigValue(p.IncludeFilter))
		fmt.Fprintf(w, "%s=\"%s\"\n", keyExcludeFilter, escapeConfigValue(p.ExcludeFilter))
		fmt.Fprintf(w, "%s=\"%s\"\n", keyCustomFeatures, escapeConfigValue(p.CustomFeatures))
		fmt.Fprintf(w, "%s=%t\n", keyEncPck, p.EncPck)
		fmt.Fprintf(w, "%s=%t\n", keyEncDirectory, p.EncDirectory)
		fmt.Fprintf(w, "%s=\"%s\"\n", keyEncInFilter, escapeConfigValue(p.EncInFilter))
		fmt.Fprintf(w, "%s=\"%s\"\n", keyEncExFilter, escapeConfigValue(p.EncExFilter))
		fmt.Fprintf(w, "%s=\"%s\"\n", keyScriptKey, escapeConfigValue(p.ScriptEncryptionKey))
		fmt.Fprintf(w, "%s=\"%s\"\n", keyExportPath, escapeConfigValue(p.ExportPath))
		if p.LegacyRemap {
			fmt.Fprintf(w, "%s=%t\n", keyLegacyRemap, p.LegacyRemap)
		}
		fmt.Fprintln(w)
		if len(p.Options) > 0 {
			fmt.Fprintf(w, "[preset.%d.options]\n\n", i)
			keys := make([]string, 0, len(p.Options))
			for k := range p.Options {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(w, "%s=\"%s\"\n", k, escapeConfigValue(p.Options[k]))
			}
			fmt.Fprintln(w)
		}
	}
	return nil
}

// ConfigStore owns export_presets.cfg, loading it on demand and debouncing
// writes (~0.8s, spec §6.4) so a burst of UI edits coalesces into one
// write.
type ConfigStore struct {
	path     string
	debounce time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewConfigStore returns a store backed by the file at path, with the
// spec-mandated debounce interval.
func NewConfigStore(path string) *ConfigStore {
	return &ConfigStore{path: path, debounce: 800 * time.Millisecond}
}

// Load reads and parses the preset config, ignoring individually malformed
// presets (each is also returned as a ConfigError for the caller to log).
func (cs *ConfigStore) Load() ([]Preset, []error, error) {
	f, err := os.Open(cs.path)
	if err != nil {
		return nil, nil, fmt.Errorf("project: opening preset config: %w", err)
	}
	defer f.Close()
	presets, errs := ParsePresetConfig(f)
	return presets, errs, nil
}

// ScheduleSave debounces a write of presets: a call within the debounce
// window of a prior call replaces the pending write rather than queuing
// another one.
func (cs *ConfigStore) ScheduleSave(presets []Preset) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.timer != nil {
		cs.timer.Stop()
	}
	cs.timer = time.AfterFunc(cs.debounce, func() {
		_ = cs.SaveNow(presets)
	})
}

// SaveNow writes presets immediately, bypassing the debounce.
func (cs *ConfigStore) SaveNow(presets []Preset) error {
	f, err := os.Create(cs.path)
	if err != nil {
		return fmt.Errorf("project: creating preset config: %w", err)
	}
	defer f.Close()
	return WritePresetConfig(f, presets)
}

// PresetBundle is a whole-config alternative to export_presets.cfg for
// scripted/CI use: a YAML document listing every preset. Grounded on
// manifest/repository.go's unmarshal-by-extension loader, narrowed to YAML
// only since gdpack has no JSON-configured call site.
type PresetBundle struct {
	Presets []BundlePreset `yaml:"presets"`
}

// BundlePreset mirrors Preset's fields in the bundle's wire format.
type BundlePreset struct {
	Name                string   `yaml:"name"`
	Platform            string   `yaml:"platform"`
	ExportFilter        string   `yaml:"export_filter"`
	SelectedFiles       []string `yaml:"selected_files,omitempty"`
	IncludeFilter       string   `yaml:"include_filter,omitempty"`
	ExcludeFilter       string   `yaml:"exclude_filter,omitempty"`
	CustomFeatures      string   `yaml:"custom_features,omitempty"`
	EncPck              bool     `yaml:"encrypt_pck,omitempty"`
	EncDirectory        bool     `yaml:"encrypt_directory,omitempty"`
	EncInFilter         string   `yaml:"encryption_include_filters,omitempty"`
	EncExFilter         string   `yaml:"encryption_exclude_filters,omitempty"`
	ScriptEncryptionKey string   `yaml:"script_encryption_key,omitempty"`
	ExportPath          string   `yaml:"export_path"`
	LegacyRemap         bool     `yaml:"legacy_remap,omitempty"`
}

// LoadPresetBundle reads and validates a PresetBundle from path.
func LoadPresetBundle(path string) ([]Preset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("project: opening preset bundle: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	var bundle PresetBundle
	if err := dec.Decode(&bundle); err != nil {
		return nil, fmt.Errorf("project: decoding preset bundle: %w", err)
	}

	presets := make([]Preset, 0, len(bundle.Presets))
	for _, bp := range bundle.Presets {
		filter, ok := exportFilterNames[bp.ExportFilter]
		if !ok {
			return nil, &ConfigError{Preset: bp.Name, Reason: fmt.Sprintf("unknown export_filter %q", bp.ExportFilter)}
		}
		p := Preset{
			Name:                bp.Name,
			PlatformID:          bp.Platform,
			ExportFilter:        filter,
			IncludeFilter:       bp.IncludeFilter,
			ExcludeFilter:       bp.ExcludeFilter,
			CustomFeatures:      bp.CustomFeatures,
			EncPck:              bp.EncPck,
			EncDirectory:        bp.EncDirectory,
			EncInFilter:         bp.EncInFilter,
			EncExFilter:         bp.EncExFilter,
			ScriptEncryptionKey: bp.ScriptEncryptionKey,
			ExportPath:          bp.ExportPath,
			LegacyRemap:         bp.LegacyRemap,
		}
		if len(bp.SelectedFiles) > 0 {
			p.SelectedFiles = map[ResourcePath]bool{}
			for _, s := range bp.SelectedFiles {
				p.SelectedFiles[ResourcePath(s)] = true
			}
		}
		if err := p.Validate(); err != nil {
			return nil, &ConfigError{Preset: p.Name, Reason: err.Error()}
		}
		presets = append(presets, p)
	}
	return presets, nil
}
