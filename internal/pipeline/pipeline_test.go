package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/declbridge/declbridge/internal/declpath"
	"github.com/declbridge/declbridge/internal/decltree"
	"github.com/declbridge/declbridge/internal/diagnostics"
	"github.com/declbridge/declbridge/internal/frontend"
)

func info() *decltree.DeclInfo { return &decltree.DeclInfo{} }

func fileOf(library string, members ...decltree.Declaration) *decltree.SourceFile {
	return &decltree.SourceFile{DeclInfo: info(), Library: library, FileName: library + ".d.ts", Members: members}
}

func record() *decltree.Interface {
	return &decltree.Interface{DeclInfo: info(), Name: "R", Members: []decltree.Member{
		decltree.Property{Name: "a", Type: decltree.Ref("number")},
		decltree.Property{Name: "b", Type: decltree.Ref("string")},
	}}
}

func pickFunction() *decltree.Function {
	return &decltree.Function{DeclInfo: info(), Name: "pick", Signature: decltree.Signature{
		TypeParams: []decltree.TypeParam{{Name: "K", Constraint: decltree.KeysOf{Operand: decltree.Ref("R")}}},
		Params:     []decltree.Param{{Name: "key", Type: decltree.Ref("K")}},
		Return:     decltree.IndexedAccess{Object: decltree.Ref("R"), Index: decltree.Ref("K")},
	}}
}

func TestFullChainSingleLibrary(t *testing.T) {
	a := &decltree.TypeAlias{DeclInfo: info(), Name: "A",
		Target: decltree.Object{Members: []decltree.Member{decltree.Property{Name: "b", Type: decltree.Ref("B")}}}}
	b := &decltree.TypeAlias{DeclInfo: info(), Name: "B",
		Target: decltree.Object{Members: []decltree.Member{decltree.Property{Name: "a", Type: decltree.Ref("A")}}}}

	ctx := NewPipelineContext("lib",
		[]*decltree.SourceFile{fileOf("lib", record(), pickFunction(), a, b)},
		nil, Options{}, nil)
	out := Default().Run(ctx)

	if out.Aborted != nil {
		t.Fatalf("aborted: %v", out.Aborted)
	}

	var fns []*decltree.Function
	var ifaces, aliases int
	for _, m := range out.Tree.Members {
		switch d := m.(type) {
		case *decltree.Function:
			fns = append(fns, d)
		case *decltree.Interface:
			ifaces++
		case *decltree.TypeAlias:
			aliases++
		}
	}

	// The generic function expands into one overload per key of R.
	if len(fns) != 2 {
		t.Fatalf("functions after expansion = %d, want 2 overloads", len(fns))
	}
	for _, fn := range fns {
		if len(fn.Signature.TypeParams) != 0 {
			t.Errorf("overload %s still generic", fn.Signature.String())
		}
		if _, stuck := fn.Signature.Return.(decltree.IndexedAccess); stuck {
			t.Errorf("overload return not reduced: %s", fn.Signature.Return)
		}
	}

	// The A/B alias cycle breaks: one side becomes an interface. R stays.
	if ifaces != 2 || aliases != 1 {
		t.Errorf("after cycle break: %d interfaces, %d aliases; want 2 and 1", ifaces, aliases)
	}

	// Every named declaration carries a present location in this library.
	for _, m := range out.Tree.Members {
		loc := m.Info().Location
		if !loc.IsPresent() {
			t.Fatalf("%s has no location", m.DeclName())
		}
		if loc.Library() != "lib" {
			t.Errorf("%s located in %q", m.DeclName(), loc.Library())
		}
	}
}

func TestLocationStageRuntimeRules(t *testing.T) {
	mod := &decltree.Module{DeclInfo: info(), Name: "m", Members: []decltree.Declaration{
		&decltree.Variable{DeclInfo: info(), Name: "v", Type: decltree.Ref("number")},
	}}
	iface := &decltree.Interface{DeclInfo: info(), Name: "I"}
	fn := &decltree.Function{DeclInfo: info(), Name: "f"}

	ctx := NewPipelineContext("lib", []*decltree.SourceFile{fileOf("lib", mod, iface, fn)}, nil, Options{}, nil)
	out := New(&FlattenProcessor{}, &LocationProcessor{}).Run(ctx)

	find := func(name string) decltree.Declaration {
		for _, m := range out.Tree.Members {
			if m.DeclName() == name {
				return m
			}
		}
		t.Fatalf("%s missing", name)
		return nil
	}

	if got := find("I").Info().Runtime; got != declpath.RuntimeNone {
		t.Errorf("interface runtime = %s, want none", got)
	}
	if got := find("f").Info().Runtime; got != declpath.RuntimeGlobal {
		t.Errorf("ambient function runtime = %s, want global", got)
	}
	outMod := find("m").(*decltree.Module)
	if got := outMod.Members[0].Info().Runtime; got != declpath.RuntimeModule {
		t.Errorf("module member runtime = %s, want module", got)
	}
	if got := outMod.Members[0].Info().Location; !got.Equal(declpath.NewLocation("lib", declpath.NewQName("m", "v"))) {
		t.Errorf("module member location = %s", got)
	}
}

func TestModuleExpansionReplacesStatements(t *testing.T) {
	circle := &decltree.Class{DeclInfo: info(), Name: "Circle"}
	mod := &decltree.Module{DeclInfo: info(), Name: "geometry", Members: []decltree.Declaration{circle}}
	exp := &decltree.Export{DeclInfo: info(),
		Bindings: []decltree.ExportBinding{{Name: "Circle", Alias: "Disc"}}, From: "geometry"}
	badImport := &decltree.Import{DeclInfo: info(), From: "missing",
		Bindings: []decltree.ImportBinding{{Name: "X"}}}

	ctx := NewPipelineContext("lib", []*decltree.SourceFile{fileOf("lib", mod, exp, badImport)}, nil, Options{}, nil)
	out := New(&FlattenProcessor{}, &ModuleExpansionProcessor{}).Run(ctx)

	var gotClass *decltree.Class
	for _, m := range out.Tree.Members {
		if c, ok := m.(*decltree.Class); ok {
			gotClass = c
		}
		if _, isImport := m.(*decltree.Import); isImport {
			t.Error("import statement survived expansion")
		}
		if _, isExport := m.(*decltree.Export); isExport {
			t.Error("export statement survived expansion")
		}
	}
	if gotClass == nil || gotClass.Name != "Disc" {
		t.Fatalf("re-exported class = %#v, want renamed Disc", gotClass)
	}
	if gotClass.Info().Runtime != declpath.RuntimeModule {
		t.Errorf("re-exported class runtime = %s, want module", gotClass.Info().Runtime)
	}

	var sawUnresolvedImport bool
	for _, d := range out.Collector.All() {
		if d.Code == diagnostics.CodeImportUnresolved {
			sawUnresolvedImport = true
		}
	}
	if !sawUnresolvedImport {
		t.Error("unresolved import produced no diagnostic")
	}
}

func TestImportedParentResolves(t *testing.T) {
	base := &decltree.Interface{DeclInfo: info(), Name: "Base"}
	mod := &decltree.Module{DeclInfo: info(), Name: "m", Members: []decltree.Declaration{base}}
	imp := &decltree.Import{DeclInfo: info(), From: "m",
		Bindings: []decltree.ImportBinding{{Name: "Base"}}}
	c := &decltree.Class{DeclInfo: info(), Name: "C", Extends: []decltree.Type{decltree.Ref("Base")}}

	ctx := NewPipelineContext("lib", []*decltree.SourceFile{fileOf("lib", mod, imp, c)}, nil, Options{}, nil)
	out := Default().Run(ctx)

	if out.Aborted != nil {
		t.Fatalf("aborted: %v", out.Aborted)
	}
	for _, d := range out.Collector.All() {
		if d.Code == diagnostics.CodeParentUnresolved {
			t.Errorf("imported parent did not resolve: %s", d.Message)
		}
	}
	// The import bound a name during resolution; the final tree carries none.
	for _, m := range out.Tree.Members {
		if _, isImport := m.(*decltree.Import); isImport {
			t.Error("import statement survived the full chain")
		}
	}
}

func TestWildcardImportedParentResolves(t *testing.T) {
	base := &decltree.Interface{DeclInfo: info(), Name: "Base"}
	mod := &decltree.Module{DeclInfo: info(), Name: "m", Members: []decltree.Declaration{base}}
	imp := &decltree.Import{DeclInfo: info(), From: "m", NamespaceAlias: "geo"}
	c := &decltree.Class{DeclInfo: info(), Name: "C",
		Extends: []decltree.Type{decltree.Ref("geo.Base")}}

	ctx := NewPipelineContext("lib", []*decltree.SourceFile{fileOf("lib", mod, imp, c)}, nil, Options{}, nil)
	out := Default().Run(ctx)

	if out.Aborted != nil {
		t.Fatalf("aborted: %v", out.Aborted)
	}
	for _, d := range out.Collector.All() {
		if d.Code == diagnostics.CodeParentUnresolved {
			t.Errorf("wildcard-imported parent did not resolve: %s", d.Message)
		}
	}
}

func TestImportBindingsValidatedAgainstModuleSurface(t *testing.T) {
	base := &decltree.Interface{DeclInfo: info(), Name: "Base"}
	mod := &decltree.Module{DeclInfo: info(), Name: "m", Members: []decltree.Declaration{base}}
	imp := &decltree.Import{DeclInfo: info(), From: "m",
		Bindings: []decltree.ImportBinding{{Name: "Base"}, {Name: "Ghost"}}}

	ctx := NewPipelineContext("lib", []*decltree.SourceFile{fileOf("lib", mod, imp)}, nil, Options{}, nil)
	out := New(&FlattenProcessor{}, &ModuleExpansionProcessor{}).Run(ctx)

	var kept *decltree.Import
	for _, m := range out.Tree.Members {
		if i, ok := m.(*decltree.Import); ok {
			kept = i
		}
	}
	if kept == nil || len(kept.Bindings) != 1 || kept.Bindings[0].Name != "Base" {
		t.Fatalf("validated import = %#v, want only the provided Base binding", kept)
	}

	var ghosted bool
	for _, d := range out.Collector.All() {
		if d.Code == diagnostics.CodeExportUnresolved {
			ghosted = true
		}
	}
	if !ghosted {
		t.Error("binding of an unprovided name produced no diagnostic")
	}
}

func TestInheritanceCheckReportsUnresolvedParents(t *testing.T) {
	base := &decltree.Interface{DeclInfo: info(), Name: "Base"}
	good := &decltree.Class{DeclInfo: info(), Name: "Good", Extends: []decltree.Type{decltree.Ref("Base")}}
	bad := &decltree.Class{DeclInfo: info(), Name: "Bad", Extends: []decltree.Type{decltree.Ref("Ghost")}}

	ctx := NewPipelineContext("lib", []*decltree.SourceFile{fileOf("lib", base, good, bad)}, nil, Options{}, nil)
	out := New(&FlattenProcessor{}, &LocationProcessor{}, &InheritanceCheckProcessor{}).Run(ctx)

	var unresolved int
	for _, d := range out.Collector.All() {
		if d.Code == diagnostics.CodeParentUnresolved {
			unresolved++
		}
	}
	if unresolved != 1 {
		t.Errorf("unresolved-parent diagnostics = %d, want 1 (Ghost only)", unresolved)
	}
}

type violatingProcessor struct{}

func (*violatingProcessor) Name() string { return "violate" }
func (*violatingProcessor) Process(ctx *PipelineContext) *PipelineContext {
	var loc declpath.Location
	loc.Library() // forces an absent location
	return ctx
}

type markerProcessor struct{ ran *bool }

func (*markerProcessor) Name() string { return "marker" }
func (m *markerProcessor) Process(ctx *PipelineContext) *PipelineContext {
	*m.ran = true
	return ctx
}

func TestContractViolationAbortsLibrary(t *testing.T) {
	ran := false
	ctx := NewPipelineContext("lib", []*decltree.SourceFile{fileOf("lib")}, nil, Options{}, nil)
	out := New(&FlattenProcessor{}, &violatingProcessor{}, &markerProcessor{ran: &ran}).Run(ctx)

	if out.Aborted == nil {
		t.Fatal("contract violation did not abort the run")
	}
	if ran {
		t.Error("stages kept running after the abort")
	}
	var sawViolation bool
	for _, d := range out.Collector.All() {
		if d.Code == diagnostics.CodeContractViolated {
			sawViolation = true
		}
	}
	if !sawViolation {
		t.Error("abort recorded no diagnostic")
	}
}

func TestConverterResolvesAcrossLibraries(t *testing.T) {
	core := frontend.LibraryInput{
		Name:  "core",
		Files: []*decltree.SourceFile{fileOf("core", record())},
	}
	app := frontend.LibraryInput{
		Name:         "app",
		Dependencies: []string{"core"},
		Files: []*decltree.SourceFile{fileOf("app",
			&decltree.Variable{DeclInfo: info(), Name: "x",
				Type: decltree.IndexedAccess{Object: decltree.Ref("core.R"), Index: decltree.StrLit("a")}},
		)},
	}

	results, err := NewConverter(nil).Run(context.Background(), []frontend.LibraryInput{app, core})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	for name, res := range results {
		if res.Aborted != nil {
			t.Fatalf("%s aborted: %v", name, res.Aborted)
		}
		if res.Scope == nil {
			t.Fatalf("%s has no finalized scope", name)
		}
	}

	v := results["app"].Tree.Members[0].(*decltree.Variable)
	if !decltree.TypeEqual(v.Type, decltree.Ref("number")) {
		t.Errorf("cross-library projection = %s, want number", v.Type)
	}
}

func TestConverterRejectsBadGraphs(t *testing.T) {
	a := frontend.LibraryInput{Name: "a", Dependencies: []string{"b"}}
	b := frontend.LibraryInput{Name: "b", Dependencies: []string{"a"}}
	if _, err := NewConverter(nil).Run(context.Background(), []frontend.LibraryInput{a, b}); err == nil ||
		!strings.Contains(err.Error(), "cycle") {
		t.Errorf("dependency cycle error = %v", err)
	}

	lonely := frontend.LibraryInput{Name: "x", Dependencies: []string{"ghost"}}
	if _, err := NewConverter(nil).Run(context.Background(), []frontend.LibraryInput{lonely}); err == nil ||
		!strings.Contains(err.Error(), "unknown library") {
		t.Errorf("unknown dependency error = %v", err)
	}
}
