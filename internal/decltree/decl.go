package decltree

import (
	"github.com/declbridge/declbridge/internal/declpath"
)

// Declaration is the base interface for all declaration tree nodes.
// The set of implementations is closed: class, interface, type alias, enum,
// function, variable, namespace, module, augmented module, global block,
// import and export.
type Declaration interface {
	declNode()
	// DeclName returns the declared name, or "" for unnamed declarations
	// (global blocks, imports, exports).
	DeclName() string
	// Info returns the shared per-declaration data. Never nil on a node
	// produced by this package's constructors.
	Info() *DeclInfo
}

// DeclInfo carries the fields every declaration has: leading comments, the
// declaration location, and the runtime location computed late in the
// pipeline. Nodes embed a pointer so shallow copies can re-point it.
type DeclInfo struct {
	Comments []string
	Location declpath.Location
	Runtime  declpath.RuntimeLocation
}

func (d *DeclInfo) Info() *DeclInfo { return d }

// CloneInfo returns a copy of the info block. Rewriting visitors call this
// before changing location or comments so sibling references stay untouched.
func (d *DeclInfo) CloneInfo() *DeclInfo {
	if d == nil {
		return &DeclInfo{}
	}
	cp := *d
	cp.Comments = append([]string(nil), d.Comments...)
	return &cp
}

// Container is implemented by declarations that hold an ordered,
// name-addressable member sequence. Names are not required to be unique;
// declaration merging happens in the flatten stage.
type Container interface {
	Declaration
	ContainerMembers() []Declaration
	// WithMembers returns a copy of the container with its member list
	// replaced wholesale. The receiver is unchanged.
	WithMembers(members []Declaration) Container
}

// Class declaration. Extends holds at most one named reference in the source
// language, Implements any number; both are kept as type nodes so generic
// arguments survive until inheritance resolution.
type Class struct {
	*DeclInfo
	Name       string
	TypeParams []TypeParam
	Extends    []Type
	Implements []Type
	Members    []Member
	Abstract   bool
}

func (c *Class) declNode()        {}
func (c *Class) DeclName() string { return c.Name }

// Interface declaration.
type Interface struct {
	*DeclInfo
	Name       string
	TypeParams []TypeParam
	Extends    []Type
	Members    []Member
}

func (i *Interface) declNode()        {}
func (i *Interface) DeclName() string { return i.Name }

// TypeAlias declaration: Name<TypeParams> = Target.
type TypeAlias struct {
	*DeclInfo
	Name       string
	TypeParams []TypeParam
	Target     Type
}

func (a *TypeAlias) declNode()        {}
func (a *TypeAlias) DeclName() string { return a.Name }

// EnumEntry is one named constant inside an enum.
type EnumEntry struct {
	Name  string
	Value *Literal // nil when the source leaves the value implicit
}

// Enum declaration.
type Enum struct {
	*DeclInfo
	Name    string
	Entries []EnumEntry
	Const   bool
}

func (e *Enum) declNode()        {}
func (e *Enum) DeclName() string { return e.Name }

// Function declaration at container level.
type Function struct {
	*DeclInfo
	Name      string
	Signature Signature
}

func (f *Function) declNode()        {}
func (f *Function) DeclName() string { return f.Name }

// Variable declaration at container level.
type Variable struct {
	*DeclInfo
	Name     string
	Type     Type
	Const    bool
	Readonly bool
}

func (v *Variable) declNode()        {}
func (v *Variable) DeclName() string { return v.Name }

// Namespace declaration.
type Namespace struct {
	*DeclInfo
	Name    string
	Members []Declaration
}

func (n *Namespace) declNode()                      {}
func (n *Namespace) DeclName() string               { return n.Name }
func (n *Namespace) ContainerMembers() []Declaration { return n.Members }
func (n *Namespace) WithMembers(members []Declaration) Container {
	cp := *n
	cp.Members = members
	return &cp
}

// Module declaration (a quoted ambient module).
type Module struct {
	*DeclInfo
	Name    string
	Members []Declaration
}

func (m *Module) declNode()                      {}
func (m *Module) DeclName() string               { return m.Name }
func (m *Module) ContainerMembers() []Declaration { return m.Members }
func (m *Module) WithMembers(members []Declaration) Container {
	cp := *m
	cp.Members = members
	return &cp
}

// AugmentedModule re-opens an existing module to add members.
type AugmentedModule struct {
	*DeclInfo
	Name    string
	Members []Declaration
}

func (m *AugmentedModule) declNode()                      {}
func (m *AugmentedModule) DeclName() string               { return m.Name }
func (m *AugmentedModule) ContainerMembers() []Declaration { return m.Members }
func (m *AugmentedModule) WithMembers(members []Declaration) Container {
	cp := *m
	cp.Members = members
	return &cp
}

// GlobalBlock is a `declare global` region. Unnamed; all global blocks in a
// flattened tree merge regardless of position.
type GlobalBlock struct {
	*DeclInfo
	Members []Declaration
}

func (g *GlobalBlock) declNode()                      {}
func (g *GlobalBlock) DeclName() string               { return "" }
func (g *GlobalBlock) ContainerMembers() []Declaration { return g.Members }
func (g *GlobalBlock) WithMembers(members []Declaration) Container {
	cp := *g
	cp.Members = members
	return &cp
}

// ImportBinding is one name bound by an import, with an optional local alias.
type ImportBinding struct {
	Name  string
	Alias string // "" when not renamed
}

// LocalName returns the name the binding is visible under.
func (b ImportBinding) LocalName() string {
	if b.Alias != "" {
		return b.Alias
	}
	return b.Name
}

// Import declaration. Exactly one of the binding forms is populated:
// named Bindings, a NamespaceAlias (import * as X), or a DefaultAlias.
type Import struct {
	*DeclInfo
	From           string
	Bindings       []ImportBinding
	NamespaceAlias string
	DefaultAlias   string
}

func (i *Import) declNode()        {}
func (i *Import) DeclName() string { return "" }

// BoundNames lists every local name the import introduces.
func (i *Import) BoundNames() []string {
	var names []string
	for _, b := range i.Bindings {
		names = append(names, b.LocalName())
	}
	if i.NamespaceAlias != "" {
		names = append(names, i.NamespaceAlias)
	}
	if i.DefaultAlias != "" {
		names = append(names, i.DefaultAlias)
	}
	return names
}

// ExportBinding is one name exported, with an optional rename.
type ExportBinding struct {
	Name  string
	Alias string // "" when not renamed
}

// ExportedName returns the name the binding is exported under.
func (b ExportBinding) ExportedName() string {
	if b.Alias != "" {
		return b.Alias
	}
	return b.Name
}

// Export declaration covering the source language's export statement forms:
// named exports (with optional rename and optional From module), default
// export, wildcard re-export, namespace re-export (export * as ns from),
// and inline export of a declared tree.
type Export struct {
	*DeclInfo
	Bindings       []ExportBinding
	From           string // "" for local exports
	Wildcard       bool   // export * from From
	NamespaceAlias string // export * as NamespaceAlias from From
	Default        bool   // export default <name or tree>
	Decl           Declaration // inline export: the declared tree itself
}

func (e *Export) declNode()        {}
func (e *Export) DeclName() string { return "" }

// SourceFile is the root of one parsed file's declaration tree.
type SourceFile struct {
	*DeclInfo
	Library    string
	FileName   string
	Directives []string
	Members    []Declaration
}

func (f *SourceFile) declNode()                      {}
func (f *SourceFile) DeclName() string               { return f.FileName }
func (f *SourceFile) ContainerMembers() []Declaration { return f.Members }
func (f *SourceFile) WithMembers(members []Declaration) Container {
	cp := *f
	cp.Members = members
	return &cp
}

// MembersNamed returns, in order, the container members declared under name.
func MembersNamed(c Container, name string) []Declaration {
	var out []Declaration
	for _, m := range c.ContainerMembers() {
		if m.DeclName() == name {
			out = append(out, m)
		}
	}
	return out
}

// WithInfo returns a shallow copy of a declaration re-pointed at info. The
// receiver and its old info block stay untouched, so siblings sharing the
// block are unaffected.
func WithInfo(d Declaration, info *DeclInfo) Declaration {
	switch dd := d.(type) {
	case *Class:
		cp := *dd
		cp.DeclInfo = info
		return &cp
	case *Interface:
		cp := *dd
		cp.DeclInfo = info
		return &cp
	case *TypeAlias:
		cp := *dd
		cp.DeclInfo = info
		return &cp
	case *Enum:
		cp := *dd
		cp.DeclInfo = info
		return &cp
	case *Function:
		cp := *dd
		cp.DeclInfo = info
		return &cp
	case *Variable:
		cp := *dd
		cp.DeclInfo = info
		return &cp
	case *Namespace:
		cp := *dd
		cp.DeclInfo = info
		return &cp
	case *Module:
		cp := *dd
		cp.DeclInfo = info
		return &cp
	case *AugmentedModule:
		cp := *dd
		cp.DeclInfo = info
		return &cp
	case *GlobalBlock:
		cp := *dd
		cp.DeclInfo = info
		return &cp
	case *Import:
		cp := *dd
		cp.DeclInfo = info
		return &cp
	case *Export:
		cp := *dd
		cp.DeclInfo = info
		return &cp
	case *SourceFile:
		cp := *dd
		cp.DeclInfo = info
		return &cp
	default:
		return d
	}
}
