package scopes

import (
	"testing"

	"github.com/declbridge/declbridge/internal/declpath"
	"github.com/declbridge/declbridge/internal/decltree"
)

func info() *decltree.DeclInfo { return &decltree.DeclInfo{} }

// buildScope assembles:
//
//	lib exports: ns { Inner { Deep } }, Top
//	dep "ext" exports: External
func buildScope(t *testing.T) *Scope {
	t.Helper()

	deep := &decltree.Interface{DeclInfo: info(), Name: "Deep"}
	inner := &decltree.Namespace{DeclInfo: info(), Name: "Inner", Members: []decltree.Declaration{deep}}
	ns := &decltree.Namespace{DeclInfo: info(), Name: "ns", Members: []decltree.Declaration{inner}}
	top := &decltree.Interface{DeclInfo: info(), Name: "Top"}

	exports := NewExportIndex("lib")
	exports.Add("ns", ns)
	exports.Add("Top", top)

	depExports := NewExportIndex("ext")
	depExports.Add("External", &decltree.Interface{DeclInfo: info(), Name: "External"})
	dep := New("ext", depExports, nil, nil)

	return New("lib", exports, map[string]*Scope{"ext": dep}, nil)
}

func TestLookupThroughExportIndex(t *testing.T) {
	s := buildScope(t)

	results := s.Lookup(declpath.ParseQName("ns.Inner.Deep"))
	if len(results) != 1 {
		t.Fatalf("lookup returned %d results, want 1", len(results))
	}
	if results[0].Decl.DeclName() != "Deep" {
		t.Errorf("resolved %s, want Deep", results[0].Decl.DeclName())
	}
	// Scope at discovery has Inner innermost.
	if results[0].Scope.Innermost().DeclName() != "Inner" {
		t.Errorf("scope at discovery is %q, want Inner", results[0].Scope.Innermost().DeclName())
	}
}

func TestLookupInnermostFirst(t *testing.T) {
	s := buildScope(t)

	shadow := &decltree.Interface{DeclInfo: info(), Name: "Top"}
	local := &decltree.Namespace{DeclInfo: info(), Name: "local", Members: []decltree.Declaration{shadow}}
	pushed := s.Push(local)

	results := pushed.Lookup(declpath.ParseQName("Top"))
	if len(results) != 1 || results[0].Decl != decltree.Declaration(shadow) {
		t.Error("innermost container did not shadow the export index")
	}
	// The original scope is unaffected by Push.
	if s.Depth() != 0 {
		t.Error("Push mutated the source scope")
	}
}

func TestLookupDependency(t *testing.T) {
	s := buildScope(t)
	results := s.Lookup(declpath.ParseQName("ext.External"))
	if len(results) != 1 {
		t.Fatalf("dependency lookup returned %d results, want 1", len(results))
	}
	if results[0].Scope.Library() != "ext" {
		t.Errorf("result scope library = %s, want ext", results[0].Scope.Library())
	}
}

func TestLookupNotFoundIsEmptyNotError(t *testing.T) {
	s := buildScope(t)
	if got := s.Lookup(declpath.ParseQName("nope.Nothing")); len(got) != 0 {
		t.Errorf("lookup of unknown name = %v, want empty", got)
	}
}

func TestLookupMultipleResults(t *testing.T) {
	exports := NewExportIndex("lib")
	exports.Add("f", &decltree.Function{DeclInfo: info(), Name: "f"})
	exports.Add("f", &decltree.Function{DeclInfo: info(), Name: "f"})
	s := New("lib", exports, nil, nil)

	if got := s.Lookup(declpath.ParseQName("f")); len(got) != 2 {
		t.Errorf("overloads: got %d results, want 2", len(got))
	}
}

func TestCacheMemoizes(t *testing.T) {
	s := buildScope(t)
	cache := NewCache()
	name := declpath.ParseQName("ns.Inner.Deep")

	first := cache.Lookup(s, name)
	second := cache.Lookup(s, name)
	if len(first) != 1 || len(second) != 1 {
		t.Fatal("cached lookups disagree with direct lookup")
	}
	hits, misses := cache.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("cache stats = %d hits / %d misses, want 1/1", hits, misses)
	}

	// Distinct scope values with identical content are distinct cache keys.
	other := buildScope(t)
	cache.Lookup(other, name)
	if _, misses := cache.Stats(); misses != 2 {
		t.Error("scope identity not part of the cache key")
	}
}

func TestLoopDetectorDerivation(t *testing.T) {
	base := NewLoopDetector()
	name := declpath.ParseQName("lib.A")

	d1, ok := base.Entering(name)
	if !ok {
		t.Fatal("first Entering refused")
	}
	if _, ok := d1.Entering(name); ok {
		t.Error("re-entering an in-progress name must fail fast")
	}
	// The original detector is untouched.
	if base.InProgress(name) {
		t.Error("Entering mutated its receiver")
	}
	// Sibling derivations are independent.
	d2, _ := base.Entering(declpath.ParseQName("lib.B"))
	if d2.InProgress(name) {
		t.Error("sibling detector sees unrelated in-progress name")
	}
}

func TestLookupThroughImports(t *testing.T) {
	base := &decltree.Interface{DeclInfo: info(), Name: "Base"}
	dflt := &decltree.Class{DeclInfo: info(), Name: declpath.DefaultExportName}
	mod := &decltree.Module{DeclInfo: info(), Name: "m", Members: []decltree.Declaration{base, dflt}}
	named := &decltree.Import{DeclInfo: info(), From: "m",
		Bindings: []decltree.ImportBinding{{Name: "Base", Alias: "B"}}}
	wildcard := &decltree.Import{DeclInfo: info(), From: "m", NamespaceAlias: "geo"}
	byDefault := &decltree.Import{DeclInfo: info(), From: "m", DefaultAlias: "D"}
	file := &decltree.SourceFile{DeclInfo: info(), Library: "lib",
		Members: []decltree.Declaration{mod, named, wildcard, byDefault}}

	s := New("lib", nil, nil, nil).Push(file)

	if got := s.Lookup(declpath.ParseQName("B")); len(got) != 1 || got[0].Decl != decltree.Declaration(base) {
		t.Errorf("aliased binding did not resolve in the source module: %v", got)
	}
	if got := s.Lookup(declpath.ParseQName("geo.Base")); len(got) != 1 || got[0].Decl != decltree.Declaration(base) {
		t.Errorf("namespace alias did not resolve a qualified name: %v", got)
	}
	// The bare namespace alias denotes the module itself.
	if got := s.Lookup(declpath.ParseQName("geo")); len(got) != 1 || got[0].Decl != decltree.Declaration(mod) {
		t.Errorf("bare namespace alias = %v, want the module", got)
	}
	if got := s.Lookup(declpath.ParseQName("D")); len(got) != 1 || got[0].Decl != decltree.Declaration(dflt) {
		t.Errorf("default alias did not resolve the default export: %v", got)
	}
	// An aliased binding hides the original name.
	if got := s.Lookup(declpath.ParseQName("Base")); len(got) != 0 {
		t.Errorf("original name leaked past its alias: %v", got)
	}
}

func TestLookupThroughMutualImportsTerminates(t *testing.T) {
	modA := &decltree.Module{DeclInfo: info(), Name: "a", Members: []decltree.Declaration{
		&decltree.Import{DeclInfo: info(), From: "b", Bindings: []decltree.ImportBinding{{Name: "X"}}},
	}}
	modB := &decltree.Module{DeclInfo: info(), Name: "b", Members: []decltree.Declaration{
		&decltree.Import{DeclInfo: info(), From: "a", Bindings: []decltree.ImportBinding{{Name: "X"}}},
	}}
	imp := &decltree.Import{DeclInfo: info(), From: "a", Bindings: []decltree.ImportBinding{{Name: "X"}}}
	file := &decltree.SourceFile{DeclInfo: info(), Library: "lib",
		Members: []decltree.Declaration{modA, modB, imp}}

	s := New("lib", nil, nil, nil).Push(file)
	if got := s.Lookup(declpath.ParseQName("X")); len(got) != 0 {
		t.Errorf("name bounced between mutual imports resolved to %v, want nothing", got)
	}
}

func TestLookupModule(t *testing.T) {
	mod := &decltree.Module{DeclInfo: info(), Name: "events", Members: nil}
	exports := NewExportIndex("lib")
	exports.Add("events", mod)
	s := New("lib", exports, nil, nil)

	got, at, ok := s.LookupModule("events")
	if !ok || got != mod {
		t.Fatal("module not found through export index")
	}
	if at.Library() != "lib" {
		t.Errorf("module scope library = %s, want lib", at.Library())
	}
}
