package ir

// ConstantFolding replaces pure arithmetic, compares and extensions whose
// operands are all constants with the computed constant.
type ConstantFolding struct{}

func (p *ConstantFolding) Name() string { return "constant-folding" }
func (p *ConstantFolding) Description() string {
	return "Evaluates operations on constant operands at compile time"
}

func (p *ConstantFolding) Apply(m *Module) bool {
	return applyToFunctions(m, p.run)
}

func (p *ConstantFolding) run(fn *Function) bool {
	changed := false
	for _, b := range fn.Blocks {
		for _, inst := range snapshot(b) {
			if inst.Block() == nil {
				continue
			}
			if c, ok := foldInstruction(inst); ok {
				optLog.Debugf("%s: folded %q to %s", fn.Name, inst, c.Ref())
				replaceInstruction(inst, c)
				changed = true
			}
		}
	}
	return changed
}

// foldInstruction computes the constant result of inst, if it has one.
// Division and remainder by zero are never folded.
func foldInstruction(inst Instruction) (*ConstantInt, bool) {
	switch i := inst.(type) {
	case *BinaryInst:
		l, lok := i.Left().(*ConstantInt)
		r, rok := i.Right().(*ConstantInt)
		if !lok || !rok {
			return nil, false
		}
		v, ok := computeBinaryOp(i.Op, l.Signed(), r.Signed())
		if !ok {
			return nil, false
		}
		return NewConstant(v, bitsOf(i.Result().Type())), true

	case *ICmpInst:
		l, lok := i.Left().(*ConstantInt)
		r, rok := i.Right().(*ConstantInt)
		if !lok || !rok {
			return nil, false
		}
		return boolConstant(comparePredicate(i.Pred, l.Signed(), r.Signed())), true

	case *ZExtInst:
		c, ok := i.Source().(*ConstantInt)
		if !ok {
			return nil, false
		}
		unsigned := c.Value
		if c.Bits < 64 {
			unsigned &= (int64(1) << uint(c.Bits)) - 1
		}
		return NewConstant(unsigned, bitsOf(i.Result().Type())), true
	}
	return nil, false
}

// computeBinaryOp evaluates op on sign-extended operands. The caller
// truncates the result to the instruction width.
func computeBinaryOp(op BinaryOp, a, b int64) (int64, bool) {
	switch op {
	case OpAdd:
		return a + b, true
	case OpSub:
		return a - b, true
	case OpMul:
		return a * b, true
	case OpSDiv:
		if b == 0 {
			return 0, false
		}
		return a / b, true
	case OpSRem:
		if b == 0 {
			return 0, false
		}
		return a % b, true
	case OpXor:
		return a ^ b, true
	}
	return 0, false
}

func comparePredicate(pred Predicate, a, b int64) bool {
	switch pred {
	case PredEQ:
		return a == b
	case PredNE:
		return a != b
	case PredSLT:
		return a < b
	case PredSGT:
		return a > b
	case PredSLE:
		return a <= b
	case PredSGE:
		return a >= b
	}
	return false
}

func boolConstant(v bool) *ConstantInt {
	if v {
		return NewConstant(1, 1)
	}
	return NewConstant(0, 1)
}

func bitsOf(t Type) int {
	if it, ok := t.(*IntType); ok {
		return it.Bits
	}
	return 32
}

func isConstValue(v Value, n int64) bool {
	c, ok := v.(*ConstantInt)
	return ok && c.Value == n
}

// AlgebraicSimplification applies identity and absorbing-element rewrites
// that hold whether or not the other operand is constant.
type AlgebraicSimplification struct{}

func (p *AlgebraicSimplification) Name() string { return "algebraic-simplification" }
func (p *AlgebraicSimplification) Description() string {
	return "Rewrites x+0, x*1, x-x, x*0 and similar identities"
}

func (p *AlgebraicSimplification) Apply(m *Module) bool {
	return applyToFunctions(m, p.run)
}

func (p *AlgebraicSimplification) run(fn *Function) bool {
	changed := false
	for _, b := range fn.Blocks {
		for _, inst := range snapshot(b) {
			if inst.Block() == nil {
				continue
			}
			if v, ok := simplifyInstruction(inst); ok {
				optLog.Debugf("%s: simplified %q to %s", fn.Name, inst, v.Ref())
				replaceInstruction(inst, v)
				changed = true
			}
		}
	}
	return changed
}

func simplifyInstruction(inst Instruction) (Value, bool) {
	switch i := inst.(type) {
	case *BinaryInst:
		l, r := i.Left(), i.Right()
		zero := NewConstant(0, bitsOf(i.Result().Type()))
		switch i.Op {
		case OpAdd:
			if isConstValue(r, 0) {
				return l, true
			}
			if isConstValue(l, 0) {
				return r, true
			}
		case OpSub:
			if isConstValue(r, 0) {
				return l, true
			}
			if sameValue(l, r) {
				return zero, true
			}
		case OpMul:
			if isConstValue(l, 0) || isConstValue(r, 0) {
				return zero, true
			}
			if isConstValue(r, 1) {
				return l, true
			}
			if isConstValue(l, 1) {
				return r, true
			}
		case OpXor:
			if isConstValue(r, 0) {
				return l, true
			}
			if isConstValue(l, 0) {
				return r, true
			}
			if sameValue(l, r) {
				return zero, true
			}
		case OpSDiv:
			if isConstValue(r, 1) {
				return l, true
			}
		case OpSRem:
			if isConstValue(r, 1) {
				return zero, true
			}
		}

	case *ICmpInst:
		if sameValue(i.Left(), i.Right()) {
			return boolConstant(i.Pred.Reflexive()), true
		}
	}
	return nil, false
}
