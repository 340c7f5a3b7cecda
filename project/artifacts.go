package project

import (
	"sort"
	"strings"
)

// ArtifactSource supplies the derived, non-resource payloads spec §4.9 step
// 3 lists. Every method's second return reports whether that artifact
// applies to this build; the driver skips whatever isn't present rather
// than treating absence as an error. A nil ArtifactSource skips all of
// them, matching a minimal project with no icon, no splash, and no
// extensions.
type ArtifactSource interface {
	// ProjectIcon and BootSplash return the project's icon/splash image
	// bytes and the path they should be stored at. These bypass the
	// .import system entirely (spec §4.9 step 3).
	ProjectIcon() (path ResourcePath, data []byte, ok bool)
	BootSplash() (path ResourcePath, data []byte, ok bool)
	// ResourceUIDCache returns the serialized resource-UID cache.
	ResourceUIDCache() (data []byte, ok bool)
	// ExtensionList returns the native-extension list config file body.
	ExtensionList() (data []byte, ok bool)
	// TextServerData returns support data for the active text server,
	// either read from a user-provided resource or regenerated.
	TextServerData() (path ResourcePath, data []byte, ok bool)
	// Settings returns the project settings to serialize into
	// project.binary, overlaid with the active feature set.
	Settings() ProjectSettings
}

// ProjectSettings is the subset of project.godot settings gdpack needs to
// reproduce in the synthesized project.binary: enough to round-trip
// application identity and the custom_features/legacy remap overlays spec
// §4.9 step 3 calls for.
type ProjectSettings struct {
	ApplicationName string
	MainScene       ResourcePath
	// RemappedPaths is only consulted when Preset.LegacyRemap is set: the
	// legacy path_remap/remapped_paths overlay, original path to its
	// feature-gated replacements, superseding the normal .remap stubs.
	RemappedPaths map[ResourcePath][]ResourcePath
}

var projectBinaryEngine = mustProjectBinaryEngine()

func mustProjectBinaryEngine() *templateEngine {
	eng, err := newTemplateEngine(map[string]string{
		"project.binary": projectBinaryTemplate,
	})
	if err != nil {
		panic(err)
	}
	return eng
}

const projectBinaryTemplate = `[application]

config/name="{{.Name}}"
{{- if .MainScene}}
run/main_scene="{{.MainScene}}"
{{- end}}

[_overlay]

custom_features=PackedStringArray({{.Features}})
{{- if .LegacyRemap}}

[path_remap]

{{.RemapLines}}
{{- end}}
`

type projectBinaryData struct {
	Name        string
	MainScene   string
	Features    string
	LegacyRemap bool
	RemapLines  string
}

// renderProjectBinary serializes settings into project.binary's text form,
// overlaid with the active feature vector and, when legacy is true, the
// legacy path_remap/remapped_paths table instead of .remap stubs (spec §9's
// open question on the dead `if (true)`-guarded legacy mode).
func renderProjectBinary(settings ProjectSettings, features FeatureSet, legacy bool) (string, error) {
	quoted := make([]string, 0, len(features.Ordered()))
	for _, f := range features.Ordered() {
		quoted = append(quoted, `"`+f+`"`)
	}

	data := projectBinaryData{
		Name:        settings.ApplicationName,
		MainScene:   string(settings.MainScene),
		Features:    strings.Join(quoted, ", "),
		LegacyRemap: legacy,
	}
	if legacy {
		originals := make([]string, 0, len(settings.RemappedPaths))
		for orig := range settings.RemappedPaths {
			originals = append(originals, string(orig))
		}
		sort.Strings(originals)
		var lines []string
		for _, orig := range originals {
			targets := settings.RemappedPaths[ResourcePath(orig)]
			quotedTargets := make([]string, len(targets))
			for i, t := range targets {
				quotedTargets[i] = `"` + string(t) + `"`
			}
			lines = append(lines, `path="`+orig+`"`)
			lines = append(lines, "remapped_paths=PackedStringArray("+strings.Join(quotedTargets, ", ")+")")
		}
		data.RemapLines = strings.Join(lines, "\n")
	}

	return projectBinaryEngine.render("project.binary", data)
}
