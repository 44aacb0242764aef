package pipeline

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/declbridge/declbridge/internal/declpath"
	"github.com/declbridge/declbridge/internal/decltree"
	"github.com/declbridge/declbridge/internal/diagnostics"
	"github.com/declbridge/declbridge/internal/frontend"
	"github.com/declbridge/declbridge/internal/scopes"
)

// Result is one library's conversion outcome.
type Result struct {
	Library     string
	Tree        *decltree.SourceFile
	Scope       *scopes.Scope
	Diagnostics []*diagnostics.Diagnostic
	Aborted     error
}

// Converter schedules libraries over their dependency graph and runs the
// stage chain on each. Libraries with no dependency relation convert
// concurrently; a library starts only after every dependency's scope is
// finalized.
type Converter struct {
	Logger diagnostics.Logger

	// LibraryOptions supplies per-library options; nil means defaults.
	LibraryOptions func(library string) Options
}

// NewConverter builds a converter.
func NewConverter(logger diagnostics.Logger) *Converter {
	if logger == nil {
		logger = diagnostics.NewNopLogger()
	}
	return &Converter{Logger: logger}
}

// Run converts every input library. The returned map has one Result per
// input; a non-nil error means the project could not be scheduled at all.
func (c *Converter) Run(ctx context.Context, inputs []frontend.LibraryInput) (map[string]*Result, error) {
	byName := make(map[string]frontend.LibraryInput, len(inputs))
	for _, in := range inputs {
		if in.Name == "" {
			return nil, fmt.Errorf("library with empty name")
		}
		if _, dup := byName[in.Name]; dup {
			return nil, fmt.Errorf("duplicate library %q", in.Name)
		}
		byName[in.Name] = in
	}
	for _, in := range inputs {
		for _, dep := range in.Dependencies {
			if _, ok := byName[dep]; !ok {
				return nil, fmt.Errorf("library %q depends on unknown library %q", in.Name, dep)
			}
		}
	}
	if cycle := findDependencyCycle(inputs); len(cycle) > 0 {
		return nil, fmt.Errorf("dependency cycle: %v", cycle)
	}

	done := make(map[string]chan struct{}, len(inputs))
	for _, in := range inputs {
		done[in.Name] = make(chan struct{})
	}

	var mu sync.Mutex
	finalized := make(map[string]*scopes.Scope, len(inputs))
	results := make(map[string]*Result, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	for _, in := range inputs {
		input := in
		g.Go(func() error {
			defer close(done[input.Name])

			for _, dep := range input.Dependencies {
				select {
				case <-done[dep]:
				case <-gctx.Done():
					return gctx.Err()
				}
			}

			mu.Lock()
			deps := make(map[string]*scopes.Scope, len(input.Dependencies))
			missing := ""
			for _, dep := range input.Dependencies {
				scope, ok := finalized[dep]
				if !ok {
					missing = dep
					break
				}
				deps[dep] = scope
			}
			mu.Unlock()

			result := &Result{Library: input.Name}
			if missing != "" {
				collector := diagnostics.NewCollector(input.Name, c.Logger)
				collector.Add(diagnostics.NewError(diagnostics.CodeDependencyMissing,
					declpath.NoLocation(), "dependency %q was not converted", missing))
				result.Diagnostics = collector.All()
				result.Aborted = fmt.Errorf("dependency %q was not converted", missing)
			} else {
				result = c.convertLibrary(input, deps)
			}

			mu.Lock()
			results[input.Name] = result
			if result.Aborted == nil {
				finalized[input.Name] = result.Scope
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("convert project: %w", err)
	}
	return results, nil
}

func (c *Converter) convertLibrary(input frontend.LibraryInput, deps map[string]*scopes.Scope) *Result {
	opts := Options{}
	if c.LibraryOptions != nil {
		opts = c.LibraryOptions(input.Name)
	}
	pctx := NewPipelineContext(input.Name, input.Files, deps, opts, c.Logger)
	pctx = Default().Run(pctx)

	result := &Result{
		Library:     input.Name,
		Tree:        pctx.Tree,
		Diagnostics: pctx.Collector.All(),
		Aborted:     pctx.Aborted,
	}
	if pctx.Aborted == nil {
		result.Scope = pctx.FinalScope()
		hits, misses := pctx.Cache.Stats()
		c.Logger.Info("library converted",
			"library", input.Name, "cacheHits", hits, "cacheMisses", misses,
			"diagnostics", len(result.Diagnostics))
	} else {
		c.Logger.Error("library conversion aborted",
			"library", input.Name, "reason", pctx.Aborted.Error())
	}
	return result
}

// findDependencyCycle returns some cycle among the declared dependencies, or
// nil.
func findDependencyCycle(inputs []frontend.LibraryInput) []string {
	depsOf := make(map[string][]string, len(inputs))
	for _, in := range inputs {
		depsOf[in.Name] = in.Dependencies
	}

	const (
		unvisited = 0
		visiting  = 1
		finished  = 2
	)
	state := make(map[string]int, len(inputs))
	var stack []string
	var cycle []string

	var visit func(name string) bool
	visit = func(name string) bool {
		state[name] = visiting
		stack = append(stack, name)
		for _, dep := range depsOf[name] {
			switch state[dep] {
			case visiting:
				for i, s := range stack {
					if s == dep {
						cycle = append([]string(nil), stack[i:]...)
						return true
					}
				}
			case unvisited:
				if visit(dep) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = finished
		return false
	}

	for _, in := range inputs {
		if state[in.Name] == unvisited && visit(in.Name) {
			return cycle
		}
	}
	return nil
}
