package pipeline

import (
	"github.com/declbridge/declbridge/internal/config"
	"github.com/declbridge/declbridge/internal/cycles"
	"github.com/declbridge/declbridge/internal/declpath"
	"github.com/declbridge/declbridge/internal/decltree"
	"github.com/declbridge/declbridge/internal/diagnostics"
	"github.com/declbridge/declbridge/internal/flatten"
	"github.com/declbridge/declbridge/internal/generics"
	"github.com/declbridge/declbridge/internal/indexed"
	"github.com/declbridge/declbridge/internal/inherit"
	"github.com/declbridge/declbridge/internal/modexp"
	"github.com/declbridge/declbridge/internal/scopes"
	"github.com/declbridge/declbridge/internal/transform"
)

// FlattenProcessor merges the library's per-file trees into one and
// establishes the base scope the later stages resolve against.
type FlattenProcessor struct{}

func (*FlattenProcessor) Name() string { return "flatten" }

func (*FlattenProcessor) Process(ctx *PipelineContext) *PipelineContext {
	ctx.Tree = flatten.Flatten(ctx.Files)
	ctx.Scope = scopes.New(ctx.Library, nil, ctx.Deps, ctx.Logger())
	ctx.Logger().Info("flattened library",
		"library", ctx.Library, "files", len(ctx.Files), "members", len(ctx.Tree.Members))
	return ctx
}

// ModuleExpansionProcessor replaces import and export statements with the
// concrete declarations they resolve to, stamped with module-resident
// locations.
type ModuleExpansionProcessor struct{}

func (*ModuleExpansionProcessor) Name() string { return "modexp" }

func (*ModuleExpansionProcessor) Process(ctx *PipelineContext) *PipelineContext {
	expander := modexp.NewExpander(ctx.Cache, ctx.Logger())
	expander.Collector = ctx.Collector
	rw := &moduleExpander{
		expander:  expander,
		collector: ctx.Collector,
	}
	seed := expandCtx{scope: ctx.Scope, owner: ctx.RootLocation()}
	ctx.Tree = transform.Apply[expandCtx](rw, seed, ctx.Tree).(*decltree.SourceFile)
	return ctx
}

type expandCtx struct {
	scope *scopes.Scope
	owner declpath.Location
}

type moduleExpander struct {
	transform.Identity[expandCtx]
	expander  *modexp.Expander
	collector *diagnostics.Collector
}

func (m *moduleExpander) ChildContext(ctx expandCtx, c decltree.Container) expandCtx {
	next := expandCtx{scope: ctx.scope.Push(c), owner: ctx.owner}
	if _, isFile := c.(*decltree.SourceFile); !isFile {
		if name := c.DeclName(); name != "" {
			next.owner = ctx.owner.Add(name)
		}
	}
	return next
}

func (m *moduleExpander) RewriteMembers(ctx expandCtx, _ decltree.Container, members []decltree.Declaration) []decltree.Declaration {
	var out []decltree.Declaration
	for _, member := range members {
		switch stmt := member.(type) {
		case *decltree.Import:
			expanded, loop := m.expander.ExpandImportee(stmt.From, ctx.scope, scopes.NewLoopDetector())
			if expanded.IsEmpty() {
				m.collector.Add(diagnostics.NewWarning(diagnostics.CodeImportUnresolved,
					ctx.owner, "import source %q not found", stmt.From))
				continue
			}
			// Import statements bind names for resolution; the validated
			// statement stays in the tree until the final stage strips it.
			if valid, ok := m.validated(ctx, stmt, expanded.Whole, loop); ok {
				out = append(out, valid)
			}
		case *decltree.Export:
			decls := m.expander.ExpandExport(ctx.scope, stmt, scopes.NewLoopDetector(), ctx.owner)
			if len(decls) == 0 && !vacuousExport(stmt) {
				m.collector.Add(diagnostics.NewWarning(diagnostics.CodeExportUnresolved,
					ctx.owner, "export statement resolved to nothing"))
			}
			out = append(out, decls...)
		default:
			out = append(out, member)
		}
	}
	return out
}

// vacuousExport reports whether an export statement legitimately names
// nothing, like `export {}`.
func vacuousExport(e *decltree.Export) bool {
	return e.Decl == nil && e.From == "" && !e.Wildcard && len(e.Bindings) == 0
}

// validated filters an import's bindings down to the names its source module
// actually provides, warning about the rest. An import left binding nothing
// is dropped.
func (m *moduleExpander) validated(ctx expandCtx, stmt *decltree.Import, whole *modexp.WholeModule, loop scopes.LoopDetector) (*decltree.Import, bool) {
	provided := m.expander.ProvidedNames(whole, loop)

	wanted := make(map[string]bool)
	for _, b := range stmt.Bindings {
		if provided[b.Name] {
			wanted[b.LocalName()] = true
		} else {
			m.collector.Add(diagnostics.NewWarning(diagnostics.CodeExportUnresolved,
				ctx.owner, "module %q does not provide imported name %q", stmt.From, b.Name))
		}
	}
	if stmt.NamespaceAlias != "" {
		wanted[stmt.NamespaceAlias] = true
	}
	if stmt.DefaultAlias != "" {
		if provided[declpath.DefaultExportName] {
			wanted[stmt.DefaultAlias] = true
		} else {
			m.collector.Add(diagnostics.NewWarning(diagnostics.CodeExportUnresolved,
				ctx.owner, "module %q has no default export", stmt.From))
		}
	}
	return modexp.ValidImport(wanted, stmt)
}

// LocationProcessor stamps every declaration with its present location and
// computes its runtime location from the container it sits in.
type LocationProcessor struct{}

func (*LocationProcessor) Name() string { return "locations" }

func (*LocationProcessor) Process(ctx *PipelineContext) *PipelineContext {
	seed := locCtx{owner: ctx.RootLocation(), runtime: declpath.RuntimeGlobal}
	ctx.Tree = transform.Apply[locCtx](&locator{}, seed, ctx.Tree).(*decltree.SourceFile)
	return ctx
}

type locCtx struct {
	owner   declpath.Location
	runtime declpath.RuntimeLocation
}

type locator struct {
	transform.Identity[locCtx]
}

func (l *locator) ChildContext(ctx locCtx, c decltree.Container) locCtx {
	next := ctx
	switch c.(type) {
	case *decltree.SourceFile:
		return next
	case *decltree.GlobalBlock:
		next.runtime = declpath.RuntimeGlobal
		return next
	case *decltree.Module, *decltree.AugmentedModule:
		next.runtime = declpath.RuntimeModule
	}
	if name := c.DeclName(); name != "" {
		next.owner = ctx.owner.Add(name)
	}
	return next
}

func (l *locator) Enter(ctx locCtx, d decltree.Declaration) decltree.Declaration {
	if _, isFile := d.(*decltree.SourceFile); isFile {
		return d
	}
	name := d.DeclName()
	if name == "" {
		return d
	}
	info := d.Info()
	location := info.Location
	if !location.IsPresent() {
		location = ctx.owner.Add(name)
	}
	runtime := combineRuntime(info.Runtime, declaredRuntime(d, ctx.runtime))
	if location.Equal(info.Location) && runtime == info.Runtime {
		return d
	}
	cp := info.CloneInfo()
	cp.Location = location
	cp.Runtime = runtime
	return decltree.WithInfo(d, cp)
}

// declaredRuntime is the runtime location a declaration gets from its
// surroundings: type-only declarations have no runtime presence at all.
func declaredRuntime(d decltree.Declaration, ambient declpath.RuntimeLocation) declpath.RuntimeLocation {
	switch d.(type) {
	case *decltree.Interface, *decltree.TypeAlias:
		return declpath.RuntimeNone
	default:
		return ambient
	}
}

// combineRuntime merges an already-stamped runtime location with the ambient
// one. A declaration reachable both from a module and the global surface is
// resident in both.
func combineRuntime(existing, ambient declpath.RuntimeLocation) declpath.RuntimeLocation {
	switch {
	case existing == declpath.RuntimeNone:
		return ambient
	case existing == ambient || ambient == declpath.RuntimeNone:
		return existing
	case existing == declpath.RuntimeBoth || ambient == declpath.RuntimeBoth:
		return declpath.RuntimeBoth
	default:
		return declpath.RuntimeBoth
	}
}

// InheritanceCheckProcessor resolves every class and interface parent chain
// and reports references that resolve to nothing. The resolved chains are
// recomputed on demand by consumers; this stage exists so unresolved parents
// surface as diagnostics during conversion, not at emit time.
type InheritanceCheckProcessor struct{}

func (*InheritanceCheckProcessor) Name() string { return "inherit" }

func (*InheritanceCheckProcessor) Process(ctx *PipelineContext) *PipelineContext {
	resolver := inherit.NewResolver(ctx.Cache, ctx.Logger())
	checker := &inheritChecker{resolver: resolver, collector: ctx.Collector}
	transform.Apply[*scopes.Scope](checker, ctx.Scope, ctx.Tree)
	return ctx
}

type inheritChecker struct {
	transform.Identity[*scopes.Scope]
	resolver  *inherit.Resolver
	collector *diagnostics.Collector
}

func (c *inheritChecker) ChildContext(scope *scopes.Scope, container decltree.Container) *scopes.Scope {
	return scope.Push(container)
}

func (c *inheritChecker) Enter(scope *scopes.Scope, d decltree.Declaration) decltree.Declaration {
	switch d.(type) {
	case *decltree.Class, *decltree.Interface:
		resolution := c.resolver.ResolveParents(scope, d)
		for _, ref := range resolution.Unresolved {
			c.collector.Add(diagnostics.NewWarning(diagnostics.CodeParentUnresolved,
				d.Info().Location, "parent %s of %s did not resolve", ref.String(), d.DeclName()))
		}
	}
	return d
}

// GenericExpansionProcessor expands bounded generic signatures into concrete
// overloads.
type GenericExpansionProcessor struct{}

func (*GenericExpansionProcessor) Name() string { return "generics" }

func (*GenericExpansionProcessor) Process(ctx *PipelineContext) *PipelineContext {
	reducer := indexed.NewReducer(ctx.Cache, ctx.Logger())
	expander := generics.NewExpander(reducer, ctx.Logger())
	expander.Collector = ctx.Collector
	if ctx.Options.ExpansionCap > 0 {
		expander.Cap = ctx.Options.ExpansionCap
	}
	ctx.Tree = expander.RewriteTree(ctx.Tree, ctx.Scope).(*decltree.SourceFile)
	return ctx
}

// IndexedReductionProcessor reduces remaining member projections.
type IndexedReductionProcessor struct{}

func (*IndexedReductionProcessor) Name() string { return "indexed" }

func (*IndexedReductionProcessor) Process(ctx *PipelineContext) *PipelineContext {
	reducer := indexed.NewReducer(ctx.Cache, ctx.Logger())
	ctx.Tree = reducer.RewriteTree(ctx.Tree, ctx.Scope, ctx.Collector).(*decltree.SourceFile)
	return ctx
}

// CycleProcessor finds structural reference cycles and realizes one member
// of each as an interface.
type CycleProcessor struct{}

func (*CycleProcessor) Name() string { return "cycles" }

func (*CycleProcessor) Process(ctx *PipelineContext) *PipelineContext {
	graph := cycles.BuildGraph(ctx.Tree)
	groups := graph.FindGroups()
	ctx.CycleGroups = groups
	if len(groups) == 0 {
		return ctx
	}

	instructions := cycles.BreakCircularGroups(graph, groups, ctx.Options.PreferredCycleTargets)
	for _, ins := range instructions {
		ctx.Collector.Add(diagnostics.NewWarning(diagnostics.CodeCycleBroken,
			declpath.NewLocation(ctx.Library, ins.Target),
			"reference cycle of %d type definitions broken at %s", len(ins.Circular), ins.Target))
	}
	ctx.Tree = cycles.Rewrite(ctx.Tree, instructions).(*decltree.SourceFile)
	return ctx
}

// NormalizeProcessor runs the configured alias/interface normalization
// direction over the final tree.
type NormalizeProcessor struct{}

func (*NormalizeProcessor) Name() string { return "normalize" }

func (*NormalizeProcessor) Process(ctx *PipelineContext) *PipelineContext {
	// Imports only bind names during resolution; the final tree carries none.
	ctx.Tree = transform.Apply[struct{}](importStripper{}, struct{}{}, ctx.Tree).(*decltree.SourceFile)
	switch ctx.Options.Normalize {
	case config.NormalizeAliases:
		ctx.Tree = cycles.AliasesToInterfaces(ctx.Tree, ctx.CycleGroups).(*decltree.SourceFile)
	case config.NormalizeInterfaces:
		ctx.Tree = cycles.InterfacesToAliases(ctx.Tree).(*decltree.SourceFile)
	}
	return ctx
}

type importStripper struct {
	transform.Identity[struct{}]
}

func (importStripper) RewriteMembers(_ struct{}, _ decltree.Container, members []decltree.Declaration) []decltree.Declaration {
	var out []decltree.Declaration
	for _, m := range members {
		if _, isImport := m.(*decltree.Import); !isImport {
			out = append(out, m)
		}
	}
	return out
}
