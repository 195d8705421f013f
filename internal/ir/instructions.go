package ir

import (
	"fmt"
	"strings"
)

// Instruction is the closed set of IR operations. Every kind embeds
// instrBase, which owns the operand slots and keeps user lists in sync.
type Instruction interface {
	ID() int
	Result() *Register
	Operands() []Value
	Operand(i int) Value
	SetOperand(i int, v Value)
	Block() *BasicBlock
	IsTerminator() bool
	Effects() Effect
	String() string
	base() *instrBase
}

type instrBase struct {
	id     int
	result *Register
	ops    []Value
	block  *BasicBlock
	self   Instruction
}

func (b *instrBase) ID() int              { return b.id }
func (b *instrBase) Result() *Register    { return b.result }
func (b *instrBase) Operand(i int) Value  { return b.ops[i] }
func (b *instrBase) Block() *BasicBlock   { return b.block }
func (b *instrBase) IsTerminator() bool   { return false }
func (b *instrBase) base() *instrBase     { return b }
func (b *instrBase) Operands() []Value {
	out := make([]Value, len(b.ops))
	copy(out, b.ops)
	return out
}

// SetOperand rewrites one operand slot, moving the user entry from the old
// value to the new one.
func (b *instrBase) SetOperand(i int, v Value) {
	if old, ok := b.ops[i].(UsedValue); ok {
		old.removeUser(b.self)
	}
	b.ops[i] = v
	if u, ok := v.(UsedValue); ok {
		u.addUser(b.self)
	}
}

func (b *instrBase) resultPrefix() string {
	if b.result == nil {
		return ""
	}
	return b.result.Ref() + " = "
}

// initInstr wires the instruction into its result register and operand user lists.
func (fn *Function) initInstr(self Instruction, result Type, ops ...Value) *instrBase {
	b := self.base()
	fn.nextInst++
	b.id = fn.nextInst
	b.self = self
	b.ops = ops
	if result != nil {
		b.result = fn.newRegister(result)
		b.result.Def = self
	}
	attachOperands(self)
	return b
}

// BinaryOp is an integer arithmetic opcode
type BinaryOp string

const (
	OpAdd  BinaryOp = "add"
	OpSub  BinaryOp = "sub"
	OpMul  BinaryOp = "mul"
	OpSDiv BinaryOp = "sdiv"
	OpSRem BinaryOp = "srem"
	OpXor  BinaryOp = "xor"
)

// Commutative reports whether operand order is irrelevant.
func (op BinaryOp) Commutative() bool {
	return op == OpAdd || op == OpMul || op == OpXor
}

// Predicate is an icmp condition
type Predicate string

const (
	PredEQ  Predicate = "eq"
	PredNE  Predicate = "ne"
	PredSLT Predicate = "slt"
	PredSGT Predicate = "sgt"
	PredSLE Predicate = "sle"
	PredSGE Predicate = "sge"
)

func (p Predicate) Commutative() bool {
	return p == PredEQ || p == PredNE
}

// Reflexive is the result of comparing a value with itself.
func (p Predicate) Reflexive() bool {
	return p == PredEQ || p == PredSLE || p == PredSGE
}

// ===== Memory =====

// AllocaInst reserves a stack slot of type Allocated.
type AllocaInst struct {
	instrBase
	Allocated Type
}

func (fn *Function) NewAlloca(t Type) *AllocaInst {
	inst := &AllocaInst{Allocated: t}
	fn.initInstr(inst, &PointerType{Elem: t})
	return inst
}

func (i *AllocaInst) String() string {
	return fmt.Sprintf("%salloca %s, align 4", i.resultPrefix(), i.Allocated)
}

type LoadInst struct {
	instrBase
}

func (fn *Function) NewLoad(ptr Value) *LoadInst {
	inst := &LoadInst{}
	fn.initInstr(inst, elemOf(ptr.Type()), ptr)
	return inst
}

func (i *LoadInst) Ptr() Value { return i.ops[0] }

func (i *LoadInst) String() string {
	return fmt.Sprintf("%sload %s, %s %s, align 4", i.resultPrefix(), i.result.Type(), i.Ptr().Type(), i.Ptr().Ref())
}

// StoreInst writes Value() to Ptr(). Operand 0 is the value, operand 1 the address.
type StoreInst struct {
	instrBase
}

func (fn *Function) NewStore(val, ptr Value) *StoreInst {
	inst := &StoreInst{}
	fn.initInstr(inst, nil, val, ptr)
	return inst
}

func (i *StoreInst) Value() Value { return i.ops[0] }
func (i *StoreInst) Ptr() Value   { return i.ops[1] }

func (i *StoreInst) String() string {
	return fmt.Sprintf("store %s %s, %s %s, align 4", i.Value().Type(), i.Value().Ref(), i.Ptr().Type(), i.Ptr().Ref())
}

// GEPInst computes Base() plus Offset() elements. A base pointing at an
// array yields a pointer to its element type.
type GEPInst struct {
	instrBase
}

func (fn *Function) NewGEP(base, offset Value) *GEPInst {
	inst := &GEPInst{}
	fn.initInstr(inst, &PointerType{Elem: elemOf(base.Type())}, base, offset)
	return inst
}

func (i *GEPInst) Base() Value   { return i.ops[0] }
func (i *GEPInst) Offset() Value { return i.ops[1] }

func (i *GEPInst) String() string {
	baseType := i.Base().Type()
	var pointee Type = I32
	if pt, ok := baseType.(*PointerType); ok {
		pointee = pt.Elem
	}
	offset := i.Offset().Type().String() + " " + i.Offset().Ref()
	if _, isArray := pointee.(*ArrayType); isArray {
		return fmt.Sprintf("%sgetelementptr inbounds %s, %s %s, i32 0, %s", i.resultPrefix(), pointee, baseType, i.Base().Ref(), offset)
	}
	return fmt.Sprintf("%sgetelementptr inbounds %s, %s %s, %s", i.resultPrefix(), pointee, baseType, i.Base().Ref(), offset)
}

// ===== Arithmetic and comparison =====

type BinaryInst struct {
	instrBase
	Op BinaryOp
}

func (fn *Function) NewBinary(op BinaryOp, left, right Value) *BinaryInst {
	inst := &BinaryInst{Op: op}
	fn.initInstr(inst, left.Type(), left, right)
	return inst
}

func (i *BinaryInst) Left() Value  { return i.ops[0] }
func (i *BinaryInst) Right() Value { return i.ops[1] }

func (i *BinaryInst) String() string {
	return fmt.Sprintf("%s%s %s %s, %s", i.resultPrefix(), i.Op, i.result.Type(), i.Left().Ref(), i.Right().Ref())
}

type ICmpInst struct {
	instrBase
	Pred Predicate
}

func (fn *Function) NewICmp(pred Predicate, left, right Value) *ICmpInst {
	inst := &ICmpInst{Pred: pred}
	fn.initInstr(inst, I1, left, right)
	return inst
}

func (i *ICmpInst) Left() Value  { return i.ops[0] }
func (i *ICmpInst) Right() Value { return i.ops[1] }

func (i *ICmpInst) String() string {
	return fmt.Sprintf("%sicmp %s %s %s, %s", i.resultPrefix(), i.Pred, i.Left().Type(), i.Left().Ref(), i.Right().Ref())
}

// ZExtInst widens a 1-bit value to a full-width integer.
type ZExtInst struct {
	instrBase
}

func (fn *Function) NewZExt(v Value, to Type) *ZExtInst {
	inst := &ZExtInst{}
	fn.initInstr(inst, to, v)
	return inst
}

func (i *ZExtInst) Source() Value { return i.ops[0] }

func (i *ZExtInst) String() string {
	return fmt.Sprintf("%szext %s %s to %s", i.resultPrefix(), i.Source().Type(), i.Source().Ref(), i.result.Type())
}

// ===== Control flow =====

type BrInst struct {
	instrBase
}

func (fn *Function) NewBr(target *BasicBlock) *BrInst {
	inst := &BrInst{}
	fn.initInstr(inst, nil, target.Ref())
	return inst
}

func (i *BrInst) Target() *Label     { return i.ops[0].(*Label) }
func (i *BrInst) IsTerminator() bool { return true }

func (i *BrInst) String() string {
	return "br label " + i.Target().Ref()
}

// CondBrInst branches on a 1-bit condition to exactly two labels.
type CondBrInst struct {
	instrBase
}

func (fn *Function) NewCondBr(cond Value, ifTrue, ifFalse *BasicBlock) *CondBrInst {
	inst := &CondBrInst{}
	fn.initInstr(inst, nil, cond, ifTrue.Ref(), ifFalse.Ref())
	return inst
}

func (i *CondBrInst) Cond() Value        { return i.ops[0] }
func (i *CondBrInst) True() *Label       { return i.ops[1].(*Label) }
func (i *CondBrInst) False() *Label      { return i.ops[2].(*Label) }
func (i *CondBrInst) IsTerminator() bool { return true }

func (i *CondBrInst) String() string {
	return fmt.Sprintf("br i1 %s, label %s, label %s", i.Cond().Ref(), i.True().Ref(), i.False().Ref())
}

// RetInst returns from the function, with no operand for void functions.
type RetInst struct {
	instrBase
}

func (fn *Function) NewRet(v Value) *RetInst {
	inst := &RetInst{}
	if v == nil {
		fn.initInstr(inst, nil)
	} else {
		fn.initInstr(inst, nil, v)
	}
	return inst
}

func (i *RetInst) Value() Value {
	if len(i.ops) == 0 {
		return nil
	}
	return i.ops[0]
}

func (i *RetInst) IsTerminator() bool { return true }

func (i *RetInst) String() string {
	if v := i.Value(); v != nil {
		return fmt.Sprintf("ret %s %s", v.Type(), v.Ref())
	}
	return "ret void"
}

// PhiInst merges values by incoming block. Lowering never emits it; block
// merging refuses to splice blocks that contain one. Operands alternate
// value, label.
type PhiInst struct {
	instrBase
}

func (fn *Function) NewPhi(t Type) *PhiInst {
	inst := &PhiInst{}
	fn.initInstr(inst, t)
	return inst
}

func (i *PhiInst) AddIncoming(v Value, from *BasicBlock) {
	i.ops = append(i.ops, v, from.Ref())
	if u, ok := v.(UsedValue); ok {
		u.addUser(i)
	}
}

func (i *PhiInst) String() string {
	pairs := make([]string, 0, len(i.ops)/2)
	for k := 0; k+1 < len(i.ops); k += 2 {
		pairs = append(pairs, fmt.Sprintf("[ %s, %s ]", i.ops[k].Ref(), i.ops[k+1].Ref()))
	}
	return fmt.Sprintf("%sphi %s %s", i.resultPrefix(), i.result.Type(), strings.Join(pairs, ", "))
}

// ===== Calls =====

// CallInst calls a module function or runtime routine by name. Result is
// nil for void callees.
type CallInst struct {
	instrBase
	Callee  string
	RetType Type
}

func (fn *Function) NewCall(callee string, ret Type, args ...Value) *CallInst {
	inst := &CallInst{Callee: callee, RetType: ret}
	var result Type
	if _, void := ret.(*VoidType); !void {
		result = ret
	}
	fn.initInstr(inst, result, args...)
	return inst
}

func (i *CallInst) Args() []Value { return i.Operands() }

func (i *CallInst) String() string {
	return fmt.Sprintf("%scall %s @%s(%s)", i.resultPrefix(), i.RetType, i.Callee, operandRefs(i.ops))
}
