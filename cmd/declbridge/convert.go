package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/declbridge/declbridge/internal/config"
	"github.com/declbridge/declbridge/internal/declpath"
	"github.com/declbridge/declbridge/internal/decltree"
	"github.com/declbridge/declbridge/internal/diagnostics"
	"github.com/declbridge/declbridge/internal/exportstore"
	"github.com/declbridge/declbridge/internal/frontend"
	"github.com/declbridge/declbridge/internal/pipeline"
	"github.com/declbridge/declbridge/internal/printer"
)

var (
	flagDump      bool
	flagLocations bool
	flagCache     string
)

var convertCmd = &cobra.Command{
	Use:   "convert <bundle.json>...",
	Short: "Convert parser bundles into resolved declaration trees",
	Long:  "Reads one JSON bundle per library from the external parser, runs the conversion pipeline over the project's dependency graph, and reports diagnostics.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runConvert,
}

func init() {
	convertCmd.Flags().BoolVar(&flagDump, "dump", false, "print the resolved tree of every library")
	convertCmd.Flags().BoolVar(&flagLocations, "dump-locations", false, "annotate dumped declarations with locations")
	convertCmd.Flags().StringVar(&flagCache, "cache", "", "export cache database path (default: manifest cache setting)")
}

func runConvert(cmd *cobra.Command, args []string) error {
	zapLogger, err := buildLogger()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer zapLogger.Sync()
	logger := diagnostics.NewZapAdapter(zapLogger.Sugar())

	project, err := loadProject()
	if err != nil {
		return err
	}

	var inputs []frontend.LibraryInput
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read bundle: %w", err)
		}
		input, err := frontend.DecodeLibrary(data)
		if err != nil {
			return fmt.Errorf("bundle %s: %w", path, err)
		}
		inputs = append(inputs, input)
	}

	converter := pipeline.NewConverter(logger)
	if project != nil {
		converter.LibraryOptions = optionsFromManifest(project)
	}

	results, err := converter.Run(cmd.Context(), inputs)
	if err != nil {
		return err
	}

	var libraries []string
	for name := range results {
		libraries = append(libraries, name)
	}
	sort.Strings(libraries)

	failed := 0
	for _, name := range libraries {
		res := results[name]
		reportDiagnostics(res)
		if res.Aborted != nil {
			failed++
			continue
		}
		if flagDump {
			p := printer.New()
			p.ShowLocations = flagLocations
			fmt.Printf("// library %s\n%s\n", name, p.Print(res.Tree))
		}
	}

	if cachePath := resolveCachePath(project); cachePath != "" {
		if err := persistExports(cachePath, inputs, results); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d libraries failed to convert", failed, len(results))
	}
	return nil
}

func loadProject() (*config.Project, error) {
	path := flagManifest
	if path == "" {
		if _, err := os.Stat(config.DefaultManifestName); err != nil {
			return nil, nil
		}
		path = config.DefaultManifestName
	}
	project, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return project, nil
}

func optionsFromManifest(project *config.Project) func(string) pipeline.Options {
	return func(library string) pipeline.Options {
		opts := pipeline.Options{
			ExpansionCap: project.ExpansionCap,
			Normalize:    project.Normalize,
		}
		if lib, ok := project.LibraryByName(library); ok {
			for _, target := range lib.PreferredCycleTargets {
				opts.PreferredCycleTargets = append(opts.PreferredCycleTargets, declpath.ParseQName(target))
			}
		}
		return opts
	}
}

func resolveCachePath(project *config.Project) string {
	if flagCache != "" {
		return flagCache
	}
	if project != nil {
		return project.CachePath
	}
	return ""
}

func reportDiagnostics(res *pipeline.Result) {
	for _, d := range res.Diagnostics {
		line := d.Error()
		if d.Severity == diagnostics.SeverityError {
			line = colorize(line, ansiRed, os.Stderr)
		} else {
			line = colorize(line, ansiYellow, os.Stderr)
		}
		fmt.Fprintf(os.Stderr, "%s: %s\n", res.Library, line)
	}
	if res.Aborted != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", res.Library, colorize(res.Aborted.Error(), ansiRed, os.Stderr))
	}
}

func persistExports(cachePath string, inputs []frontend.LibraryInput, results map[string]*pipeline.Result) error {
	store, err := exportstore.Open(cachePath)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		return err
	}

	hashes := make(map[string]string, len(inputs))
	for _, in := range inputs {
		hashes[in.Name] = in.SourceHash
	}

	for name, res := range results {
		if res.Aborted != nil || res.Scope == nil {
			continue
		}
		var entries []exportstore.Entry
		index := res.Scope.Exports()
		for _, exported := range index.Names() {
			for _, d := range index.Get(exported) {
				entries = append(entries, exportstore.Entry{
					Name: exported,
					Kind: declKind(d),
					Path: entryPath(name, d),
				})
			}
		}
		if err := store.Put(name, hashes[name], entries); err != nil {
			return err
		}
	}
	return nil
}

func declKind(d decltree.Declaration) string {
	switch d.(type) {
	case *decltree.Class:
		return "class"
	case *decltree.Interface:
		return "interface"
	case *decltree.TypeAlias:
		return "alias"
	case *decltree.Enum:
		return "enum"
	case *decltree.Function:
		return "function"
	case *decltree.Variable:
		return "variable"
	case *decltree.Namespace:
		return "namespace"
	case *decltree.Module:
		return "module"
	default:
		return "declaration"
	}
}

func entryPath(library string, d decltree.Declaration) string {
	if loc := d.Info().Location; loc.IsPresent() {
		return loc.String()
	}
	return library + "::" + d.DeclName()
}

var exportsCmd = &cobra.Command{
	Use:   "exports <library>",
	Short: "List a library's cached export surface",
	Args:  cobra.ExactArgs(1),
	RunE:  runExports,
}

func runExports(cmd *cobra.Command, args []string) error {
	project, err := loadProject()
	if err != nil {
		return err
	}
	cachePath := resolveCachePath(project)
	if cachePath == "" {
		return fmt.Errorf("no export cache configured; pass --cache or set cache in the manifest")
	}

	store, err := exportstore.Open(cachePath)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, hash, ok, err := store.Get(args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("library %q is not in the cache", args[0])
	}

	short := hash
	if len(short) > 12 {
		short = short[:12]
	}
	fmt.Printf("library %s (sources %s)\n", args[0], short)
	for _, e := range entries {
		fmt.Printf("  %-10s %-24s %s\n", e.Kind, e.Name, e.Path)
	}
	return nil
}
