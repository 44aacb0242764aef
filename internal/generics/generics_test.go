package generics

import (
	"fmt"
	"testing"

	"github.com/declbridge/declbridge/internal/decltree"
	"github.com/declbridge/declbridge/internal/diagnostics"
	"github.com/declbridge/declbridge/internal/indexed"
	"github.com/declbridge/declbridge/internal/scopes"
)

func info() *decltree.DeclInfo { return &decltree.DeclInfo{} }

func scopeOver(decls ...decltree.Declaration) *scopes.Scope {
	idx := scopes.NewExportIndex("lib")
	for _, d := range decls {
		idx.Add(d.DeclName(), d)
	}
	return scopes.New("lib", idx, nil, nil)
}

func record() *decltree.Interface {
	return &decltree.Interface{DeclInfo: info(), Name: "R", Members: []decltree.Member{
		decltree.Property{Name: "a", Type: decltree.Ref("number")},
		decltree.Property{Name: "b", Type: decltree.Ref("string")},
	}}
}

// keysOfSignature is method<K extends keyof R>(key: K, value: R[K]): void
func keysOfSignature() decltree.Signature {
	return decltree.Signature{
		TypeParams: []decltree.TypeParam{{Name: "K", Constraint: decltree.KeysOf{Operand: decltree.Ref("R")}}},
		Params: []decltree.Param{
			{Name: "key", Type: decltree.Ref("K")},
			{Name: "value", Type: decltree.IndexedAccess{Object: decltree.Ref("R"), Index: decltree.Ref("K")}},
		},
	}
}

func newExpander() *Expander {
	return NewExpander(indexed.NewReducer(nil, nil), nil)
}

func TestKeySetExpansion(t *testing.T) {
	sigs, ok := newExpander().ExpandSignature(scopeOver(record()), keysOfSignature())
	if !ok {
		t.Fatal("eligible signature did not expand")
	}
	if len(sigs) != 2 {
		t.Fatalf("expanded to %d overloads, want 2 (one per record key)", len(sigs))
	}
	for _, sig := range sigs {
		if len(sig.TypeParams) != 0 {
			t.Errorf("overload still generic: %s", sig)
		}
	}
	// First overload: key "a", projection replaced by the member type.
	if !decltree.TypeEqual(sigs[0].Params[0].Type, decltree.StrLit("a")) {
		t.Errorf("first overload key = %s, want \"a\"", sigs[0].Params[0].Type)
	}
	if !decltree.TypeEqual(sigs[0].Params[1].Type, decltree.Ref("number")) {
		t.Errorf("first overload value = %s, want number", sigs[0].Params[1].Type)
	}
	if !decltree.TypeEqual(sigs[1].Params[1].Type, decltree.Ref("string")) {
		t.Errorf("second overload value = %s, want string", sigs[1].Params[1].Type)
	}
}

func TestUnionBoundExpansion(t *testing.T) {
	sig := decltree.Signature{
		TypeParams: []decltree.TypeParam{{Name: "K", Constraint: decltree.Union{
			Members: []decltree.Type{decltree.StrLit("on"), decltree.StrLit("off")},
		}}},
		Params: []decltree.Param{{Name: "mode", Type: decltree.Ref("K")}},
	}
	sigs, ok := newExpander().ExpandSignature(scopeOver(), sig)
	if !ok || len(sigs) != 2 {
		t.Fatalf("union bound expanded to %d overloads, want 2", len(sigs))
	}
	if !decltree.TypeEqual(sigs[1].Params[0].Type, decltree.StrLit("off")) {
		t.Errorf("second overload = %s, want \"off\"", sigs[1].Params[0].Type)
	}
}

func TestSkipConditions(t *testing.T) {
	e := newExpander()
	scope := scopeOver(record())

	tests := []struct {
		name string
		sig  decltree.Signature
	}{
		{
			name: "no type parameters",
			sig:  decltree.Signature{Params: []decltree.Param{{Name: "x", Type: decltree.Ref("string")}}},
		},
		{
			name: "two type parameters",
			sig: decltree.Signature{
				TypeParams: []decltree.TypeParam{
					{Name: "K", Constraint: decltree.KeysOf{Operand: decltree.Ref("R")}},
					{Name: "V"},
				},
				Params: []decltree.Param{{Name: "key", Type: decltree.Ref("K")}},
			},
		},
		{
			name: "bound not finite",
			sig: decltree.Signature{
				TypeParams: []decltree.TypeParam{{Name: "K", Constraint: decltree.KeysOf{Operand: decltree.Ref("Unknown")}}},
				Params:     []decltree.Param{{Name: "key", Type: decltree.Ref("K")}},
			},
		},
		{
			name: "parameter list never mentions K",
			sig: decltree.Signature{
				TypeParams: []decltree.TypeParam{{Name: "K", Constraint: decltree.KeysOf{Operand: decltree.Ref("R")}}},
				Params:     []decltree.Param{{Name: "x", Type: decltree.Ref("string")}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := e.ExpandSignature(scope, tt.sig); ok {
				t.Error("signature expanded, want untouched")
			}
		})
	}
}

func TestCapSkipsOversizedBounds(t *testing.T) {
	var members []decltree.Type
	for i := 0; i < DefaultCap+1; i++ {
		members = append(members, decltree.StrLit(fmt.Sprintf("k%d", i)))
	}
	sig := decltree.Signature{
		TypeParams: []decltree.TypeParam{{Name: "K", Constraint: decltree.Union{Members: members}}},
		Params:     []decltree.Param{{Name: "key", Type: decltree.Ref("K")}},
	}
	e := newExpander()
	e.Collector = diagnostics.NewCollector("lib", nil)
	if _, ok := e.ExpandSignature(scopeOver(), sig); ok {
		t.Error("bound over the cap expanded, want untouched")
	}
	var capped bool
	for _, d := range e.Collector.All() {
		if d.Code == diagnostics.CodeExpansionCapped {
			capped = true
		}
	}
	if !capped {
		t.Error("cap skip recorded no diagnostic")
	}
}

func TestRewriteTreeExpandsMethodsAndFunctions(t *testing.T) {
	rec := record()
	iface := &decltree.Interface{DeclInfo: info(), Name: "Store", Members: []decltree.Member{
		decltree.Method{Name: "get", Signature: keysOfSignature()},
		decltree.Property{Name: "size", Type: decltree.Ref("number")},
	}}
	fn := &decltree.Function{DeclInfo: info(), Name: "pick", Signature: keysOfSignature()}
	file := &decltree.SourceFile{DeclInfo: info(), Library: "lib", Members: []decltree.Declaration{rec, iface, fn}}

	idx := scopes.NewExportIndex("lib")
	idx.Add("R", rec)
	scope := scopes.New("lib", idx, nil, nil)

	out := newExpander().RewriteTree(file, scope)

	gotIface := out.ContainerMembers()[1].(*decltree.Interface)
	if len(gotIface.Members) != 3 {
		t.Errorf("interface has %d members after expansion, want 2 overloads + property", len(gotIface.Members))
	}

	var fnCount int
	for _, m := range out.ContainerMembers() {
		if f, ok := m.(*decltree.Function); ok && f.Name == "pick" {
			fnCount++
			if len(f.Signature.TypeParams) != 0 {
				t.Error("expanded free function still generic")
			}
		}
	}
	if fnCount != 2 {
		t.Errorf("free function expanded to %d declarations, want 2", fnCount)
	}
}
