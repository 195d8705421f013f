package ir

import (
	"sysyc/grammar"
	"sysyc/internal/errors"
)

var (
	addOps = map[string]BinaryOp{"+": OpAdd, "-": OpSub}
	mulOps = map[string]BinaryOp{"*": OpMul, "/": OpSDiv, "%": OpSRem}
	relOps = map[string]Predicate{"<": PredSLT, ">": PredSGT, "<=": PredSLE, ">=": PredSGE}
	eqOps  = map[string]Predicate{"==": PredEQ, "!=": PredNE}
)

// Binary chains arrive right-recursive. Each builder below walks the chain
// and folds it left to right, evaluating operands in source order.

func (b *Builder) buildExp(e *grammar.Exp) Value {
	return b.buildAdd(e.Add)
}

func (b *Builder) buildAdd(e *grammar.AddExp) Value {
	acc := b.buildMul(e.Mul)
	for cur := e; cur.Rest != nil; cur = cur.Rest {
		rhs := b.buildMul(cur.Rest.Mul)
		acc = b.emitBinary(addOps[cur.Op], acc, rhs)
	}
	return acc
}

func (b *Builder) buildMul(e *grammar.MulExp) Value {
	acc := b.buildUnary(e.Unary)
	for cur := e; cur.Rest != nil; cur = cur.Rest {
		rhs := b.buildUnary(cur.Rest.Unary)
		acc = b.emitBinary(mulOps[cur.Op], acc, rhs)
	}
	return acc
}

func (b *Builder) buildUnary(e *grammar.UnaryExp) Value {
	switch {
	case e.Call != nil:
		return b.buildCall(e.Call)
	case e.Primary != nil:
		return b.buildPrimary(e.Primary)
	}

	v := b.buildUnary(e.Operand)
	switch e.Op {
	case "-":
		return b.emitBinary(OpSub, NewConstant(0, 32), v)
	case "!":
		flipped := b.emitBinary(OpXor, b.toBool(v), NewConstant(1, 1))
		return b.widen(flipped)
	}
	return v
}

func (b *Builder) buildPrimary(p *grammar.PrimaryExp) Value {
	switch {
	case p.Paren != nil:
		return b.buildExp(p.Paren)
	case p.Number != nil:
		return NewConstant(*p.Number, 32)
	}
	return b.buildLValValue(p.LVal)
}

// buildLValValue loads the value named by l. Const scalars and const array
// elements with constant indices become immediates. A partially indexed
// array yields the sub-array address instead of a load.
func (b *Builder) buildLValValue(l *grammar.LVal) Value {
	sym := b.lookup(l.Name)
	if sym != nil && sym.isConst {
		if !sym.isArray() {
			return NewConstant(sym.constVals[0], 32)
		}
		if v, ok := b.constElement(sym, l.Indices); ok {
			return NewConstant(v, 32)
		}
	}
	addr, partial := b.buildLValAddress(l)
	if partial {
		return addr
	}
	return b.emit(b.fn.NewLoad(addr)).Result()
}

// buildLValAddress computes the address named by l as base + offset. The
// second result reports whether l indexes fewer dimensions than declared.
func (b *Builder) buildLValAddress(l *grammar.LVal) (Value, bool) {
	sym := b.lookup(l.Name)
	if sym == nil || sym.addr == nil {
		// indices still run for their side effects
		for _, idx := range l.Indices {
			b.buildExp(idx)
		}
		return b.placeholder(l), false
	}

	if !sym.isArray() {
		if g, ok := sym.addr.(*Global); ok {
			return b.emit(b.fn.NewGEP(g, NewConstant(0, 32))).Result(), false
		}
		return sym.addr, false
	}

	base := sym.addr
	if sym.kind == storageParam {
		base = b.emit(b.fn.NewLoad(sym.addr)).Result()
	}
	indices := make([]Value, len(l.Indices))
	for i, idx := range l.Indices {
		indices[i] = b.buildExp(idx)
	}
	offset := b.linearize(indices, sym.dims)
	addr := b.emit(b.fn.NewGEP(base, offset)).Result()
	return addr, len(l.Indices) < len(sym.dims)
}

// linearize turns indices into a row-major element offset.
func (b *Builder) linearize(indices []Value, dims []int) Value {
	var offset Value
	for i, idx := range indices {
		stride := 1
		if i+1 <= len(dims) {
			for _, d := range dims[i+1:] {
				stride *= d
			}
		}
		term := idx
		if stride != 1 {
			term = b.emitBinary(OpMul, idx, NewConstant(int64(stride), 32))
		}
		if offset == nil {
			offset = term
		} else {
			offset = b.emitBinary(OpAdd, offset, term)
		}
	}
	if offset == nil {
		return NewConstant(0, 32)
	}
	return offset
}

func (b *Builder) buildCall(c *grammar.CallExp) Value {
	sig, ok := b.funcs[c.Name]
	if !ok {
		b.report(errors.UndeclaredFunction(c.Name, c.Pos, b.functionNames()))
		sig = &funcSig{ret: I32}
	}

	args := make([]Value, 0, len(c.Args))
	for _, a := range c.Args {
		if addr, ok := b.arrayArgument(a); ok {
			args = append(args, addr)
			continue
		}
		args = append(args, b.buildExp(a))
	}

	call := b.emit(b.fn.NewCall(c.Name, sig.ret, args...))
	if call.Result() == nil {
		return NewConstant(0, 32)
	}
	return call.Result()
}

// arrayArgument recognizes an argument that names an array, whole or
// partially indexed, and returns its address.
func (b *Builder) arrayArgument(e *grammar.Exp) (Value, bool) {
	add := e.Add
	if add.Rest != nil || add.Mul.Rest != nil {
		return nil, false
	}
	primary := add.Mul.Unary.Primary
	if primary == nil || primary.LVal == nil {
		return nil, false
	}
	sym := b.lookup(primary.LVal.Name)
	if sym == nil || !sym.isArray() || len(primary.LVal.Indices) >= len(sym.dims) {
		return nil, false
	}
	addr, _ := b.buildLValAddress(primary.LVal)
	return addr, true
}

// ===== Conditions =====

func (b *Builder) buildCond(c *grammar.Cond) Value {
	return b.buildLOr(c.LOr)
}

func (b *Builder) buildLOr(e *grammar.LOrExp) Value {
	if e.Rest == nil {
		return b.buildLAnd(e.And)
	}
	return b.shortCircuit("lor", false,
		func() Value { return b.buildLAnd(e.And) },
		func() Value { return b.buildLOr(e.Rest) })
}

func (b *Builder) buildLAnd(e *grammar.LAndExp) Value {
	if e.Rest == nil {
		return b.buildEq(e.Eq)
	}
	return b.shortCircuit("land", true,
		func() Value { return b.buildEq(e.Eq) },
		func() Value { return b.buildLAnd(e.Rest) })
}

// shortCircuit stores the left operand in an i1 slot and only evaluates
// the right operand when the left does not decide the result.
func (b *Builder) shortCircuit(prefix string, isAnd bool, left, right func() Value) Value {
	slot := b.allocaEntry(I1)
	lhs := left()
	b.emit(b.fn.NewStore(lhs, slot))

	id := b.nextLabelID()
	rhsBlock := b.newBlock(prefix+"_rhs", id)
	endBlock := b.newBlock(prefix+"_end", id)
	if isAnd {
		b.emit(b.fn.NewCondBr(lhs, rhsBlock, endBlock))
	} else {
		b.emit(b.fn.NewCondBr(lhs, endBlock, rhsBlock))
	}

	b.startBlock(rhsBlock)
	rhs := right()
	b.emit(b.fn.NewStore(rhs, slot))
	b.emit(b.fn.NewBr(endBlock))

	b.startBlock(endBlock)
	return b.emit(b.fn.NewLoad(slot)).Result()
}

func (b *Builder) buildEq(e *grammar.EqExp) Value {
	acc := b.buildRel(e.Rel)
	for cur := e; cur.Rest != nil; cur = cur.Rest {
		rhs := b.buildRel(cur.Rest.Rel)
		lhs := acc
		if !IsBool(lhs.Type()) || !IsBool(rhs.Type()) {
			lhs, rhs = b.widen(lhs), b.widen(rhs)
		}
		acc = b.emit(b.fn.NewICmp(eqOps[cur.Op], lhs, rhs)).Result()
	}
	return b.toBool(acc)
}

func (b *Builder) buildRel(e *grammar.RelExp) Value {
	acc := b.buildAdd(e.Add)
	for cur := e; cur.Rest != nil; cur = cur.Rest {
		rhs := b.buildAdd(cur.Rest.Add)
		acc = b.emit(b.fn.NewICmp(relOps[cur.Op], b.widen(acc), rhs)).Result()
	}
	return acc
}

// toBool converts an integer to i1 by comparing against zero.
func (b *Builder) toBool(v Value) Value {
	if IsBool(v.Type()) {
		return v
	}
	return b.emit(b.fn.NewICmp(PredNE, v, NewConstant(0, 32))).Result()
}

// widen zero-extends an i1 to i32.
func (b *Builder) widen(v Value) Value {
	if !IsBool(v.Type()) {
		return v
	}
	return b.emit(b.fn.NewZExt(v, I32)).Result()
}

func (b *Builder) emitBinary(op BinaryOp, left, right Value) Value {
	return b.emit(b.fn.NewBinary(op, left, right)).Result()
}
