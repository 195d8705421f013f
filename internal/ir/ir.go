package ir

import (
	"github.com/tliron/commonlog"

	"sysyc/grammar"
	"sysyc/internal/errors"
)

var log = commonlog.GetLogger("sysyc.ir")

// BuildModule lowers a parsed translation unit to IR.
func BuildModule(unit *grammar.CompUnit) *Module {
	return NewBuilder().Build(unit)
}

// Result is what one compilation produces.
type Result struct {
	Module      *Module
	Stats       *PipelineStats
	Diagnostics []errors.CompilerError
}

// Compile lowers unit and, unless opts disable it, optimizes the result.
// Lowering warnings are returned even when optimization fails.
func Compile(unit *grammar.CompUnit, opts PipelineOptions) (*Result, error) {
	b := NewBuilder()
	res := &Result{Module: b.Build(unit), Diagnostics: b.Diagnostics()}
	if !opts.Enabled {
		n := res.Module.InstructionCount()
		res.Stats = &PipelineStats{InstructionsBefore: n, InstructionsAfter: n}
		return res, nil
	}
	stats, err := NewOptimizationPipeline(opts).Run(res.Module)
	res.Stats = stats
	return res, err
}
