package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is anything usable as an instruction operand.
type Value interface {
	Type() Type
	// Ref renders the value as it appears in operand position.
	Ref() string
}

// UsedValue is a value that tracks the instructions using it.
type UsedValue interface {
	Value
	Users() []Instruction
	HasUsers() bool
	addUser(inst Instruction)
	removeUser(inst Instruction)
	clearUsers()
}

// useList holds one entry per operand slot that refers to the owning value,
// so an instruction using a value twice appears twice.
type useList struct {
	users []Instruction
}

func (u *useList) Users() []Instruction {
	out := make([]Instruction, len(u.users))
	copy(out, u.users)
	return out
}

// HasUsers reports whether any live instruction uses the value.
func (u *useList) HasUsers() bool { return len(u.users) > 0 }

func (u *useList) addUser(inst Instruction) {
	u.users = append(u.users, inst)
}

func (u *useList) removeUser(inst Instruction) {
	for i, user := range u.users {
		if user == inst {
			u.users = append(u.users[:i], u.users[i+1:]...)
			return
		}
	}
}

func (u *useList) clearUsers() {
	u.users = nil
}

// ConstantInt is an immediate integer tagged with its bit width.
type ConstantInt struct {
	Value int64
	Bits  int
}

// NewConstant returns an immediate truncated to the given width. 1-bit
// constants hold 0 or 1.
func NewConstant(value int64, bits int) *ConstantInt {
	return &ConstantInt{Value: truncate(value, bits), Bits: bits}
}

func truncate(v int64, bits int) int64 {
	switch bits {
	case 1:
		return v & 1
	case 8:
		return int64(int8(v))
	case 32:
		return int64(int32(v))
	}
	return v
}

func (c *ConstantInt) Type() Type { return &IntType{Bits: c.Bits} }

func (c *ConstantInt) Ref() string {
	if c.Bits == 1 {
		if c.Value != 0 {
			return "true"
		}
		return "false"
	}
	return strconv.FormatInt(c.Value, 10)
}

// Signed returns the two's-complement value, so i1 true is -1.
func (c *ConstantInt) Signed() int64 {
	if c.Bits == 1 && c.Value != 0 {
		return -1
	}
	return c.Value
}

// Register is the result of exactly one instruction.
type Register struct {
	ID   int
	Name string
	Def  Instruction
	typ  Type
	useList
}

func (r *Register) Type() Type  { return r.typ }
func (r *Register) Ref() string { return "%" + r.Name }

// Param is a function parameter. It behaves like a register with no
// defining instruction.
type Param struct {
	Index int
	Name  string
	typ   Type
	useList
}

func (p *Param) Type() Type  { return p.typ }
func (p *Param) Ref() string { return "%" + p.Name }

// GlobalKind distinguishes module-level storage
type GlobalKind int

const (
	GlobalVariable GlobalKind = iota
	GlobalConstant
	GlobalString
)

// Global is module-level storage. As an operand it is the address of that
// storage and is only read or written through an address computation.
type Global struct {
	Name    string
	Kind    GlobalKind
	Storage Type    // i32, [N x i32] or [N x i8]
	Init    []int64 // scalar or flattened array initializer, zero-extended to the storage length
	Content string  // decoded bytes for GlobalString, without the trailing NUL
}

func (g *Global) Type() Type  { return &PointerType{Elem: g.Storage} }
func (g *Global) Ref() string { return "@" + g.Name }

// Label names a basic block and appears only as a branch target.
type Label struct {
	Block *BasicBlock
}

func (l *Label) Type() Type  { return &LabelType{} }
func (l *Label) Ref() string { return "%" + l.Block.Label }

// Name returns the label text of the target block.
func (l *Label) Name() string { return l.Block.Label }

// sameValue reports whether two operands denote the same value: identical
// registers, params, globals or labels, or constants of equal width and value.
func sameValue(a, b Value) bool {
	if a == b {
		return true
	}
	ca, ok1 := a.(*ConstantInt)
	cb, ok2 := b.(*ConstantInt)
	if ok1 && ok2 {
		return ca.Bits == cb.Bits && ca.Value == cb.Value
	}
	la, ok1 := a.(*Label)
	lb, ok2 := b.(*Label)
	if ok1 && ok2 {
		return la.Block == lb.Block
	}
	return false
}

// valueKey is an identity key for value numbering.
func valueKey(v Value) string {
	switch v := v.(type) {
	case *ConstantInt:
		return fmt.Sprintf("c%d:%d", v.Bits, v.Value)
	case *Register:
		return "r" + strconv.Itoa(v.ID)
	case *Param:
		return "p" + strconv.Itoa(v.Index)
	case *Global:
		return "g" + v.Name
	case *Label:
		return "l" + v.Name()
	}
	return "?" + v.Ref()
}

// ReplaceAllUsesWith redirects every use of old to replacement. It is the
// only way passes rewrite operands, and it keeps both user lists exact.
func ReplaceAllUsesWith(old UsedValue, replacement Value) int {
	if Value(old) == replacement {
		return 0
	}
	count := 0
	for _, user := range old.Users() {
		base := user.base()
		for i, op := range base.ops {
			if op == Value(old) {
				user.SetOperand(i, replacement)
				count++
			}
		}
	}
	return count
}

// DetachOperands removes inst from the user list of each of its operands.
// It must run before an instruction is dropped from the graph.
func DetachOperands(inst Instruction) {
	for _, op := range inst.base().ops {
		if u, ok := op.(UsedValue); ok {
			u.removeUser(inst)
		}
	}
}

// attachOperands registers inst as a user of each of its operands.
func attachOperands(inst Instruction) {
	for _, op := range inst.base().ops {
		if u, ok := op.(UsedValue); ok {
			u.addUser(inst)
		}
	}
}

func operandRefs(ops []Value) string {
	refs := make([]string, len(ops))
	for i, op := range ops {
		refs[i] = op.Type().String() + " " + op.Ref()
	}
	return strings.Join(refs, ", ")
}
