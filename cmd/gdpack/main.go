// Command gdpack drives the packaging core from the command line: walking a
// project directory, resolving presets, and emitting a .pck or .zip archive
// (optionally embedded into an executable).
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gdpack/gdpack/pck"
	"github.com/gdpack/gdpack/project"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "export":
		runExport(os.Args[2:])
	case "presets":
		runPresets(os.Args[2:])
	case "inspect":
		runInspect(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: gdpack <command> [flags]")
	fmt.Println("\nCommands:")
	fmt.Println("  export   Build a .pck or .zip for one export preset")
	fmt.Println("  presets  List presets found in export_presets.cfg")
	fmt.Println("  inspect  Print the directory of a .pck, embedded or standalone")
}

// runExport executes the 'export' subcommand.
func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)

	var projectDir string
	fs.StringVar(&projectDir, "project", ".", "Project root directory")
	var presetsPath string
	fs.StringVar(&presetsPath, "presets", "export_presets.cfg", "Path to export_presets.cfg, relative to -project")
	var presetName string
	fs.StringVar(&presetName, "preset", "", "Preset name to export (required)")
	var out string
	fs.StringVar(&out, "out", "", "Output archive path (required)")
	var format string
	fs.StringVar(&format, "format", "pck", "Output format: pck or zip")
	var debug bool
	fs.BoolVar(&debug, "debug", false, "Export with the debug feature tag active")
	var embedInto string
	fs.StringVar(&embedInto, "embed", "", "Append the .pck to this executable instead of writing -out standalone")

	fs.Parse(args)

	if presetName == "" || out == "" {
		log.Fatal("--preset and --out are required")
	}

	presets, errs, err := loadPresets(projectDir, presetsPath)
	if err != nil {
		log.Fatalf("loading presets: %v", err)
	}
	for _, e := range errs {
		log.Printf("warning: %v", e)
	}

	preset := findPreset(presets, presetName)
	if preset == nil {
		log.Fatalf("no such preset: %s", presetName)
	}
	preset.RebaseExportPath(projectDir)

	dp, err := project.NewDiskProject(projectDir)
	if err != nil {
		log.Fatalf("scanning project: %v", err)
	}

	driver := &project.Driver{
		FS:       dp,
		ResFS:    dp,
		Platform: &project.GenericPlatform{ID: preset.PlatformID},
		Listener: logListener,
		Progress: func(path project.ResourcePath, idx, total int) bool {
			fmt.Printf("[%d/%d] %s\n", idx, total, path)
			return false
		},
	}

	switch format {
	case "pck":
		if err := exportPck(driver, preset, debug, out, embedInto); err != nil {
			log.Fatalf("export failed: %v", err)
		}
	case "zip":
		if err := exportZip(driver, preset, debug, out); err != nil {
			log.Fatalf("export failed: %v", err)
		}
	default:
		log.Fatalf("unknown format %q, want pck or zip", format)
	}

	fmt.Println("export complete:", out)
}

func exportPck(driver *project.Driver, preset *project.Preset, debug bool, out, embedInto string) error {
	encIn, err := pck.CompileGlobList(preset.EncInFilter)
	if err != nil {
		return fmt.Errorf("compiling encryption include filter: %w", err)
	}
	encEx, err := pck.CompileGlobList(preset.EncExFilter)
	if err != nil {
		return fmt.Errorf("compiling encryption exclude filter: %w", err)
	}

	pw, err := pck.NewPackWriter(pck.PackOptions{
		EncPck:           preset.EncPck,
		EncDirectory:     preset.EncDirectory,
		Key:              preset.Key(),
		EncIncludeFilter: encIn,
		EncExcludeFilter: encEx,
	})
	if err != nil {
		return fmt.Errorf("creating pack writer: %w", err)
	}
	defer pw.Abort()

	save := func(path string, data []byte, idx, total int, encIn, encEx pck.GlobList, key [32]byte) error {
		return pw.Add(path, data)
	}
	if _, err := driver.Compile(preset, debug, out, 0, save); err != nil {
		return err
	}

	if embedInto != "" {
		f, err := os.OpenFile(embedInto, os.O_RDWR, 0)
		if err != nil {
			return fmt.Errorf("opening executable to embed into: %w", err)
		}
		defer f.Close()
		pos, err := f.Seek(0, io.SeekEnd)
		if err != nil {
			return err
		}
		if _, _, err := pck.EmbedPCK(f, uint64(pos), pw); err != nil {
			return fmt.Errorf("embedding pck: %w", err)
		}
		return nil
	}

	dst, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	defer dst.Close()
	_, err = pw.Finalize(dst)
	return err
}

func exportZip(driver *project.Driver, preset *project.Preset, debug bool, out string) error {
	dst, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	defer dst.Close()

	zw := pck.NewZipWriter(dst)
	save := func(path string, data []byte, idx, total int, encIn, encEx pck.GlobList, key [32]byte) error {
		return zw.Add(path, data)
	}
	if _, err := driver.Compile(preset, debug, out, 0, save); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// runPresets executes the 'presets' subcommand.
func runPresets(args []string) {
	fs := flag.NewFlagSet("presets", flag.ExitOnError)
	var projectDir string
	fs.StringVar(&projectDir, "project", ".", "Project root directory")
	var presetsPath string
	fs.StringVar(&presetsPath, "presets", "export_presets.cfg", "Path to export_presets.cfg, relative to -project")
	fs.Parse(args)

	presets, errs, err := loadPresets(projectDir, presetsPath)
	if err != nil {
		log.Fatalf("loading presets: %v", err)
	}
	for _, e := range errs {
		log.Printf("warning: %v", e)
	}
	for _, p := range presets {
		fmt.Printf("%-30s platform=%-20s filter=%s\n", p.Name, p.PlatformID, p.ExportFilter)
	}
}

// runInspect executes the 'inspect' subcommand.
func runInspect(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	var keyHex string
	fs.StringVar(&keyHex, "key", "", "Hex-encoded AES-256 key, if the directory is encrypted")
	fs.Parse(args)

	rest := fs.Args()
	if len(rest) != 1 {
		log.Fatal("usage: gdpack inspect [-key HEX] <file.pck or executable>")
	}

	f, err := os.Open(rest[0])
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		log.Fatal(err)
	}

	key := pck.DecodeKey(keyHex)
	base := int64(0)
	if embedPos, _, embedErr := pck.LocateEmbedded(f, info.Size()); embedErr == nil {
		base = int64(embedPos)
	}
	r, err := pck.OpenPCK(f, base, key)
	if err != nil {
		log.Fatalf("opening pck: %v", err)
	}

	entries := r.Entries()
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	for _, e := range entries {
		flags := ""
		if e.Encrypted() {
			flags = " [encrypted]"
		}
		fmt.Printf("%10d  %s%s\n", e.Size, e.Path, flags)
	}
	fmt.Printf("%d entries\n", len(entries))
}

func loadPresets(projectDir, presetsPath string) ([]project.Preset, []error, error) {
	if strings.HasSuffix(presetsPath, ".yaml") || strings.HasSuffix(presetsPath, ".yml") {
		presets, err := project.LoadPresetBundle(filepath.Join(projectDir, presetsPath))
		return presets, nil, err
	}
	return project.NewConfigStore(filepath.Join(projectDir, presetsPath)).Load()
}

func findPreset(presets []project.Preset, name string) *project.Preset {
	for i := range presets {
		if presets[i].Name == name {
			return &presets[i]
		}
	}
	return nil
}

func logListener(ev fmt.Stringer) {
	switch ev.(type) {
	case project.ExportMessage:
		log.Println(ev.String())
	}
}
