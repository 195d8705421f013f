package ir

import (
	"fmt"
	"strings"

	"github.com/tliron/commonlog"
)

// This file contains the optimization pipeline. Passes rewrite the module in
// place and are rerun until an iteration changes nothing or the iteration
// cap is reached. Stopping at the cap is always safe: every pass leaves a
// valid program behind, just not a fully reduced one.

var optLog = commonlog.GetLogger("sysyc.opt")

// DefaultMaxIterations bounds the fixpoint loop.
const DefaultMaxIterations = 10

// OptimizationPass represents a single optimization pass
type OptimizationPass interface {
	Name() string
	Apply(m *Module) bool
	Description() string
}

// PipelineOptions configures a pipeline run.
type PipelineOptions struct {
	Enabled        bool
	MaxIterations  int
	VerifyEachPass bool
	DisabledPasses []string
}

func DefaultPipelineOptions() PipelineOptions {
	return PipelineOptions{Enabled: true, MaxIterations: DefaultMaxIterations}
}

// PipelineStats describes what a run did.
type PipelineStats struct {
	Iterations         int
	Converged          bool
	InstructionsBefore int
	InstructionsAfter  int
	Changes            map[string]int // iterations in which each pass changed something
}

type scheduledPass struct {
	pass OptimizationPass
	once bool
}

// OptimizationPipeline manages and executes optimization passes
type OptimizationPipeline struct {
	passes []scheduledPass
	opts   PipelineOptions
}

// NewOptimizationPipeline creates the standard pass sequence.
func NewOptimizationPipeline(opts PipelineOptions) *OptimizationPipeline {
	p := &OptimizationPipeline{opts: opts}
	p.AddPass(&ConstantFolding{})
	p.AddPass(&AlgebraicSimplification{})
	p.AddPass(&LocalValueNumbering{})
	p.AddPass(&BranchSimplification{})
	p.AddPass(&TrimAfterTerminator{})
	p.AddPass(&BlockMerging{})
	p.AddOncePass(&StoreLoadForwarding{})
	p.AddPass(&DeadStoreElimination{})
	p.AddPass(&DeadResultElimination{})
	p.AddPass(&UnreachableBlockElimination{})
	return p
}

// AddPass adds a pass that runs in every iteration.
func (p *OptimizationPipeline) AddPass(pass OptimizationPass) {
	p.passes = append(p.passes, scheduledPass{pass: pass})
}

// AddOncePass adds a pass that runs in the first iteration only.
func (p *OptimizationPipeline) AddOncePass(pass OptimizationPass) {
	p.passes = append(p.passes, scheduledPass{pass: pass, once: true})
}

func (p *OptimizationPipeline) Passes() []OptimizationPass {
	out := make([]OptimizationPass, len(p.passes))
	for i, sp := range p.passes {
		out[i] = sp.pass
	}
	return out
}

func (p *OptimizationPipeline) disabled(name string) bool {
	for _, d := range p.opts.DisabledPasses {
		if strings.EqualFold(d, name) {
			return true
		}
	}
	return false
}

// Run executes the pipeline on m. It only fails when VerifyEachPass is set
// and a pass leaves the graph inconsistent.
func (p *OptimizationPipeline) Run(m *Module) (*PipelineStats, error) {
	stats := &PipelineStats{
		InstructionsBefore: m.InstructionCount(),
		Changes:            make(map[string]int),
	}
	limit := p.opts.MaxIterations
	if limit <= 0 {
		limit = DefaultMaxIterations
	}

	for iter := 0; iter < limit; iter++ {
		before := m.InstructionCount()
		changed := false

		for _, sp := range p.passes {
			name := sp.pass.Name()
			if (sp.once && iter > 0) || p.disabled(name) {
				continue
			}
			if sp.pass.Apply(m) {
				changed = true
				stats.Changes[name]++
				optLog.Debugf("iteration %d: %s changed the module (%d instructions)", iter+1, name, m.InstructionCount())
			}
			if p.opts.VerifyEachPass {
				if err := VerifyModule(m); err != nil {
					stats.Iterations = iter + 1
					stats.InstructionsAfter = m.InstructionCount()
					return stats, fmt.Errorf("invariant broken after %s in iteration %d: %w", name, iter+1, err)
				}
			}
		}
		RebuildUseLists(m)

		stats.Iterations = iter + 1
		if !changed && m.InstructionCount() == before {
			stats.Converged = true
			break
		}
	}

	stats.InstructionsAfter = m.InstructionCount()
	optLog.Infof("optimized %d -> %d instructions in %d iterations (converged: %t)",
		stats.InstructionsBefore, stats.InstructionsAfter, stats.Iterations, stats.Converged)
	return stats, nil
}

// Optimize runs the default pipeline on m.
func Optimize(m *Module) (*PipelineStats, error) {
	return NewOptimizationPipeline(DefaultPipelineOptions()).Run(m)
}

// Helper functions shared by passes

func applyToFunctions(m *Module, run func(fn *Function) bool) bool {
	changed := false
	for _, fn := range m.Functions {
		if run(fn) {
			changed = true
		}
	}
	return changed
}

// snapshot copies a block's instruction list so passes can delete while iterating.
func snapshot(b *BasicBlock) []Instruction {
	out := make([]Instruction, len(b.Instructions))
	copy(out, b.Instructions)
	return out
}

// replaceInstruction redirects all uses of inst's result to v, then deletes inst.
func replaceInstruction(inst Instruction, v Value) {
	ReplaceAllUsesWith(inst.Result(), v)
	if b := inst.Block(); b != nil {
		b.Remove(inst)
	}
}
