package pipeline

import (
	"github.com/declbridge/declbridge/internal/cycles"
	"github.com/declbridge/declbridge/internal/declpath"
	"github.com/declbridge/declbridge/internal/decltree"
	"github.com/declbridge/declbridge/internal/diagnostics"
	"github.com/declbridge/declbridge/internal/scopes"
)

// Options tune one library's conversion.
type Options struct {
	ExpansionCap          int
	Normalize             string
	PreferredCycleTargets []declpath.QName
}

// PipelineContext carries one library's conversion state between stages.
// Stages read and replace Tree and Scope; everything else is fixed at
// construction.
type PipelineContext struct {
	Library   string
	Files     []*decltree.SourceFile
	Deps      map[string]*scopes.Scope
	Options   Options
	Collector *diagnostics.Collector
	Cache     *scopes.Cache

	// Tree and Scope are established by the flatten stage. Scope is the
	// library's frameless base scope; tree walks push container frames as
	// they descend.
	Tree  *decltree.SourceFile
	Scope *scopes.Scope

	// CycleGroups is recorded by the cycle stage for the normalization stage.
	CycleGroups []cycles.Group

	// Aborted is the contract violation that stopped the run, or nil.
	Aborted error
}

// NewPipelineContext builds the initial context for one library. deps maps
// dependency names to their finalized scopes.
func NewPipelineContext(library string, files []*decltree.SourceFile, deps map[string]*scopes.Scope, opts Options, logger diagnostics.Logger) *PipelineContext {
	if logger == nil {
		logger = diagnostics.NewNopLogger()
	}
	return &PipelineContext{
		Library:   library,
		Files:     files,
		Deps:      deps,
		Options:   opts,
		Collector: diagnostics.NewCollector(library, logger),
		Cache:     scopes.NewCache(),
	}
}

// Logger returns the logger behind the collector.
func (c *PipelineContext) Logger() diagnostics.Logger { return c.Collector.Logger() }

// RootLocation is the library's top-level declaration location.
func (c *PipelineContext) RootLocation() declpath.Location {
	return declpath.NewLocation(c.Library, declpath.NewQName())
}

// FinalScope builds the finalized scope of the converted library: its
// top-level declarations become the export index dependents resolve against.
func (c *PipelineContext) FinalScope() *scopes.Scope {
	index := scopes.FromContainer(c.Library, c.Tree)
	return scopes.New(c.Library, index, c.Deps, c.Logger())
}
