package ir

import (
	"fmt"
	"sort"
	"strings"
)

// LocalValueNumbering removes repeated pure computations within a block.
// Later duplicates are deleted and their uses redirected to the first.
type LocalValueNumbering struct{}

func (p *LocalValueNumbering) Name() string { return "local-value-numbering" }
func (p *LocalValueNumbering) Description() string {
	return "Eliminates common subexpressions within each basic block"
}

func (p *LocalValueNumbering) Apply(m *Module) bool {
	return applyToFunctions(m, p.run)
}

func (p *LocalValueNumbering) run(fn *Function) bool {
	changed := false
	for _, b := range fn.Blocks {
		available := make(map[string]*Register)
		for _, inst := range snapshot(b) {
			if inst.Block() == nil {
				continue
			}
			key, ok := expressionKey(inst)
			if !ok {
				continue
			}
			if earlier, seen := available[key]; seen {
				optLog.Debugf("%s: %q duplicates %s", fn.Name, inst, earlier.Ref())
				replaceInstruction(inst, earlier)
				changed = true
				continue
			}
			available[key] = inst.Result()
		}
	}
	return changed
}

// expressionKey identifies a pure instruction by opcode, predicate, result
// type and operand identities, with operands sorted for commutative opcodes.
func expressionKey(inst Instruction) (string, bool) {
	if !IsPure(inst) || inst.Result() == nil {
		return "", false
	}

	var opcode string
	commutative := false
	switch i := inst.(type) {
	case *BinaryInst:
		opcode = string(i.Op)
		commutative = i.Op.Commutative()
	case *ICmpInst:
		opcode = "icmp " + string(i.Pred)
		commutative = i.Pred.Commutative()
	case *ZExtInst:
		opcode = "zext"
	case *GEPInst:
		opcode = "gep"
	default:
		return "", false
	}

	ops := inst.Operands()
	keys := make([]string, len(ops))
	for i, op := range ops {
		keys[i] = valueKey(op)
	}
	if commutative {
		sort.Strings(keys)
	}
	return fmt.Sprintf("%s:%s:%s", opcode, inst.Result().Type(), strings.Join(keys, ",")), true
}
