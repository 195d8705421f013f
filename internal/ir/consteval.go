package ir

import (
	"sysyc/grammar"
	"sysyc/internal/errors"
)

// Compile-time evaluation of dimensions and of const, global and static
// initializers. Division or remainder by zero evaluates to 0.

func (b *Builder) evalDims(dims []*grammar.ConstExp) []int {
	out := make([]int, len(dims))
	for i, d := range dims {
		v, ok := b.tryEvalAdd(d.Add)
		if !ok || v < 0 {
			b.report(errors.NonConstantDimension(d.String(), d.Pos))
			v = 0
		}
		out[i] = int(v)
	}
	return out
}

// evalConstInit flattens a const initializer into exactly n values.
func (b *Builder) evalConstInit(init *grammar.ConstInitVal, n int) []int64 {
	vals := make([]int64, n)
	if init == nil {
		return vals
	}
	var exps []*grammar.ConstExp
	if init.List != nil {
		exps = init.List.Elems
	} else {
		exps = []*grammar.ConstExp{init.Value}
	}
	for i, e := range exps {
		if i >= n {
			break
		}
		vals[i] = b.evalOrZero(e.Add)
	}
	return vals
}

// evalStaticInit flattens the initializer of a global or static variable.
func (b *Builder) evalStaticInit(init *grammar.InitVal, n int) []int64 {
	vals := make([]int64, n)
	if init == nil {
		return vals
	}
	for i, e := range initElems(init) {
		if i >= n {
			break
		}
		vals[i] = b.evalOrZero(e.Add)
	}
	return vals
}

func (b *Builder) evalOrZero(e *grammar.AddExp) int64 {
	v, ok := b.tryEvalAdd(e)
	if !ok {
		b.report(errors.NonConstantInitializer(e.String(), e.Pos))
		return 0
	}
	return v
}

// constElement reads an element of a const array when every index is constant.
func (b *Builder) constElement(sym *symbol, indices []*grammar.Exp) (int64, bool) {
	if len(indices) != len(sym.dims) {
		return 0, false
	}
	offset := 0
	for i, idx := range indices {
		v, ok := b.tryEvalAdd(idx.Add)
		if !ok || v < 0 || int(v) >= sym.dims[i] {
			return 0, false
		}
		stride := 1
		for _, d := range sym.dims[i+1:] {
			stride *= d
		}
		offset += int(v) * stride
	}
	if offset >= len(sym.constVals) {
		return 0, false
	}
	return sym.constVals[offset], true
}

func (b *Builder) tryEvalAdd(e *grammar.AddExp) (int64, bool) {
	acc, ok := b.tryEvalMul(e.Mul)
	for cur := e; ok && cur.Rest != nil; cur = cur.Rest {
		var rhs int64
		if rhs, ok = b.tryEvalMul(cur.Rest.Mul); !ok {
			break
		}
		acc = evalBinary(addOps[cur.Op], acc, rhs)
	}
	return acc, ok
}

func (b *Builder) tryEvalMul(e *grammar.MulExp) (int64, bool) {
	acc, ok := b.tryEvalUnary(e.Unary)
	for cur := e; ok && cur.Rest != nil; cur = cur.Rest {
		var rhs int64
		if rhs, ok = b.tryEvalUnary(cur.Rest.Unary); !ok {
			break
		}
		acc = evalBinary(mulOps[cur.Op], acc, rhs)
	}
	return acc, ok
}

func (b *Builder) tryEvalUnary(e *grammar.UnaryExp) (int64, bool) {
	switch {
	case e.Call != nil:
		return 0, false
	case e.Primary != nil:
		return b.tryEvalPrimary(e.Primary)
	}
	v, ok := b.tryEvalUnary(e.Operand)
	if !ok {
		return 0, false
	}
	switch e.Op {
	case "-":
		return int64(int32(-v)), true
	case "!":
		if v == 0 {
			return 1, true
		}
		return 0, true
	}
	return v, true
}

func (b *Builder) tryEvalPrimary(p *grammar.PrimaryExp) (int64, bool) {
	switch {
	case p.Paren != nil:
		return b.tryEvalAdd(p.Paren.Add)
	case p.Number != nil:
		return int64(int32(*p.Number)), true
	}
	sym := b.lookup(p.LVal.Name)
	if sym == nil || !sym.isConst {
		return 0, false
	}
	if !sym.isArray() {
		return sym.constVals[0], true
	}
	return b.constElement(sym, p.LVal.Indices)
}

// evalBinary computes op with 32-bit wraparound. Division by zero yields 0.
func evalBinary(op BinaryOp, a, c int64) int64 {
	x, y := int32(a), int32(c)
	switch op {
	case OpAdd:
		return int64(x + y)
	case OpSub:
		return int64(x - y)
	case OpMul:
		return int64(x * y)
	case OpSDiv:
		if y == 0 {
			return 0
		}
		return int64(x / y)
	case OpSRem:
		if y == 0 {
			return 0
		}
		return int64(x % y)
	case OpXor:
		return int64(x ^ y)
	}
	return 0
}
