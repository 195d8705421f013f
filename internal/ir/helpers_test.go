package ir

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"sysyc/grammar"
)

// ============================================================================
// Shared test helpers
// ============================================================================

func mustParse(t *testing.T, src string) *grammar.CompUnit {
	t.Helper()
	unit, err := grammar.ParseString("test.sy", src)
	require.NoError(t, err)
	return unit
}

// lower parses and lowers src without optimizing it.
func lower(t *testing.T, src string) *Module {
	t.Helper()
	m := BuildModule(mustParse(t, src))
	require.NoError(t, VerifyModule(m))
	return m
}

// optimize runs the default pipeline, checking invariants after every pass.
func optimize(t *testing.T, m *Module) *PipelineStats {
	t.Helper()
	opts := DefaultPipelineOptions()
	opts.VerifyEachPass = true
	stats, err := NewOptimizationPipeline(opts).Run(m)
	require.NoError(t, err)
	require.NoError(t, VerifyModule(m))
	return stats
}

func instructionsOf[T Instruction](fn *Function) []T {
	var out []T
	for _, b := range fn.Blocks {
		for _, inst := range b.Instructions {
			if typed, ok := inst.(T); ok {
				out = append(out, typed)
			}
		}
	}
	return out
}

func callees(fn *Function) []string {
	var names []string
	for _, call := range instructionsOf[*CallInst](fn) {
		names = append(names, call.Callee)
	}
	return names
}

func blockLabels(fn *Function) []string {
	labels := make([]string, len(fn.Blocks))
	for i, b := range fn.Blocks {
		labels[i] = b.Label
	}
	return labels
}

func texts(b *BasicBlock) []string {
	out := make([]string, len(b.Instructions))
	for i, inst := range b.Instructions {
		out[i] = inst.String()
	}
	return out
}

// newTestFunction returns a function with an entry block and n i32 params.
func newTestFunction(params int) (*Function, *BasicBlock) {
	fn := NewFunction("f", I32)
	for i := 0; i < params; i++ {
		fn.AddParam(I32)
	}
	entry := fn.AddBlock(fn.NewBlock("entry"))
	return fn, entry
}

func moduleOf(fns ...*Function) *Module {
	m := NewModule()
	m.Functions = fns
	return m
}

// ============================================================================
// A small IR interpreter used to check that optimization preserves behavior
// ============================================================================

type memory struct {
	cells []interface{}
}

type pointer struct {
	mem *memory
	off int
}

type interpreter struct {
	t       *testing.T
	module  *Module
	globals map[*Global]*memory
	input   []int64
	out     strings.Builder
	steps   int
}

func newInterpreter(t *testing.T, m *Module, input ...int64) *interpreter {
	in := &interpreter{t: t, module: m, globals: make(map[*Global]*memory), input: input}
	for _, g := range m.Globals {
		n := 1
		if at, ok := g.Storage.(*ArrayType); ok {
			n = at.Len
		}
		cells := make([]interface{}, n)
		if g.Kind == GlobalString {
			for i := 0; i < len(g.Content); i++ {
				cells[i] = int64(g.Content[i])
			}
			cells[len(g.Content)] = int64(0)
		} else {
			for i, v := range g.Init {
				if i < n {
					cells[i] = v
				}
			}
		}
		in.globals[g] = &memory{cells: cells}
	}
	return in
}

// run executes main and returns its exit value and everything it printed.
func (in *interpreter) run() (int64, string) {
	main := in.module.Function("main")
	require.NotNil(in.t, main)
	ret := in.call(main, nil)
	return asInt(ret), in.out.String()
}

func asInt(v interface{}) int64 {
	if v == nil {
		return 0
	}
	return v.(int64)
}

func (in *interpreter) call(fn *Function, args []interface{}) interface{} {
	t := in.t
	regs := make(map[Value]interface{})
	for i, p := range fn.Params {
		regs[p] = args[i]
	}
	eval := func(v Value) interface{} {
		switch v := v.(type) {
		case *ConstantInt:
			return v.Value
		case *Global:
			return pointer{mem: in.globals[v]}
		}
		val, ok := regs[v]
		if !ok {
			t.Fatalf("%s: read of undefined %s", fn.Name, v.Ref())
		}
		return val
	}

	block := fn.Entry()
	for {
		var next *BasicBlock
	instructions:
		for _, inst := range block.Instructions {
			in.steps++
			if in.steps > 1000000 {
				t.Fatalf("step limit exceeded in %s", fn.Name)
			}
			switch i := inst.(type) {
			case *AllocaInst:
				n := 1
				if at, ok := i.Allocated.(*ArrayType); ok {
					n = at.Len
				}
				regs[i.Result()] = pointer{mem: &memory{cells: make([]interface{}, n)}}
			case *LoadInst:
				p := eval(i.Ptr()).(pointer)
				v := p.mem.cells[p.off]
				if v == nil {
					v = int64(0)
				}
				regs[i.Result()] = v
			case *StoreInst:
				p := eval(i.Ptr()).(pointer)
				p.mem.cells[p.off] = eval(i.Value())
			case *GEPInst:
				p := eval(i.Base()).(pointer)
				regs[i.Result()] = pointer{mem: p.mem, off: p.off + int(asInt(eval(i.Offset())))}
			case *BinaryInst:
				regs[i.Result()] = interpBinary(t, i.Op, asInt(eval(i.Left())), asInt(eval(i.Right())), bitsOf(i.Result().Type()))
			case *ICmpInst:
				a, b := asInt(eval(i.Left())), asInt(eval(i.Right()))
				var r bool
				switch i.Pred {
				case PredEQ:
					r = a == b
				case PredNE:
					r = a != b
				case PredSLT:
					r = a < b
				case PredSGT:
					r = a > b
				case PredSLE:
					r = a <= b
				case PredSGE:
					r = a >= b
				}
				if r {
					regs[i.Result()] = int64(1)
				} else {
					regs[i.Result()] = int64(0)
				}
			case *ZExtInst:
				regs[i.Result()] = asInt(eval(i.Source()))
			case *CallInst:
				callArgs := make([]interface{}, 0, len(i.Args()))
				for _, a := range i.Args() {
					callArgs = append(callArgs, eval(a))
				}
				result := in.callNamed(i.Callee, callArgs)
				if i.Result() != nil {
					regs[i.Result()] = result
				}
			case *BrInst:
				next = i.Target().Block
				break instructions
			case *CondBrInst:
				if asInt(eval(i.Cond())) != 0 {
					next = i.True().Block
				} else {
					next = i.False().Block
				}
				break instructions
			case *RetInst:
				if v := i.Value(); v != nil {
					return eval(v)
				}
				return nil
			default:
				t.Fatalf("cannot interpret %q", inst)
			}
		}
		if next == nil {
			t.Fatalf("%s: control fell off block %s", fn.Name, block.Label)
		}
		block = next
	}
}

func (in *interpreter) callNamed(name string, args []interface{}) interface{} {
	switch name {
	case "getint":
		require.NotEmpty(in.t, in.input, "getint with no input left")
		v := in.input[0]
		in.input = in.input[1:]
		return v
	case "putint":
		fmt.Fprintf(&in.out, "%d", asInt(args[0]))
		return nil
	case "putch":
		in.out.WriteByte(byte(asInt(args[0])))
		return nil
	case "putstr":
		p := args[0].(pointer)
		for k := p.off; asInt(p.mem.cells[k]) != 0; k++ {
			in.out.WriteByte(byte(asInt(p.mem.cells[k])))
		}
		return nil
	}
	fn := in.module.Function(name)
	require.NotNil(in.t, fn, "call to unknown function %s", name)
	return in.call(fn, args)
}

func interpBinary(t *testing.T, op BinaryOp, a, b int64, bits int) int64 {
	if bits == 1 {
		require.Equal(t, OpXor, op, "only xor is expected on i1")
		return (a ^ b) & 1
	}
	x, y := int32(a), int32(b)
	switch op {
	case OpAdd:
		return int64(x + y)
	case OpSub:
		return int64(x - y)
	case OpMul:
		return int64(x * y)
	case OpSDiv:
		require.NotZero(t, y, "division by zero")
		return int64(x / y)
	case OpSRem:
		require.NotZero(t, y, "remainder by zero")
		return int64(x % y)
	case OpXor:
		return int64(x ^ y)
	}
	t.Fatalf("unknown op %s", op)
	return 0
}
