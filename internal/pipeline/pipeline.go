// Package pipeline chains the per-library conversion stages and schedules
// libraries across their dependency graph.
package pipeline

import (
	"github.com/declbridge/declbridge/internal/declpath"
	"github.com/declbridge/declbridge/internal/diagnostics"
)

// Processor is one conversion stage.
type Processor interface {
	Name() string
	Process(ctx *PipelineContext) *PipelineContext
}

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline. Stages keep running after recorded diagnostics
// so one pass collects everything; a contract violation aborts the library,
// because it means an earlier stage is broken, not the input.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = runStage(processor, ctx)
		if ctx.Aborted != nil {
			break
		}
	}
	return ctx
}

func runStage(processor Processor, ctx *PipelineContext) (out *PipelineContext) {
	defer func() {
		if r := recover(); r != nil {
			violation, ok := r.(declpath.ContractViolation)
			if !ok {
				panic(r)
			}
			ctx.Collector.Add(diagnostics.NewError(diagnostics.CodeContractViolated,
				declpath.NoLocation(), "stage %s: %s", processor.Name(), violation.Reason))
			ctx.Aborted = violation
			out = ctx
		}
	}()
	return processor.Process(ctx)
}

// Default returns the full stage chain in conversion order.
func Default() *Pipeline {
	return New(
		&FlattenProcessor{},
		&ModuleExpansionProcessor{},
		&LocationProcessor{},
		&InheritanceCheckProcessor{},
		&GenericExpansionProcessor{},
		&IndexedReductionProcessor{},
		&CycleProcessor{},
		&NormalizeProcessor{},
	)
}
