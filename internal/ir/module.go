package ir

import (
	"fmt"
)

// BasicBlock is a labelled straight-line sequence ending in one terminator.
type BasicBlock struct {
	Label        string
	Instructions []Instruction
	Parent       *Function
	ref          *Label
}

// Ref returns the label value naming this block.
func (b *BasicBlock) Ref() *Label {
	if b.ref == nil {
		b.ref = &Label{Block: b}
	}
	return b.ref
}

// Terminator returns the last instruction if it is a terminator.
func (b *BasicBlock) Terminator() Instruction {
	if len(b.Instructions) == 0 {
		return nil
	}
	last := b.Instructions[len(b.Instructions)-1]
	if !last.IsTerminator() {
		return nil
	}
	return last
}

// HasTerminator reports whether any instruction in the block terminates it.
func (b *BasicBlock) HasTerminator() bool {
	for _, inst := range b.Instructions {
		if inst.IsTerminator() {
			return true
		}
	}
	return false
}

func (b *BasicBlock) Append(inst Instruction) Instruction {
	inst.base().block = b
	b.Instructions = append(b.Instructions, inst)
	return inst
}

// InsertAt places inst before position i.
func (b *BasicBlock) InsertAt(i int, inst Instruction) {
	inst.base().block = b
	b.Instructions = append(b.Instructions, nil)
	copy(b.Instructions[i+1:], b.Instructions[i:])
	b.Instructions[i] = inst
}

func (b *BasicBlock) indexOf(inst Instruction) int {
	for i, candidate := range b.Instructions {
		if candidate == inst {
			return i
		}
	}
	return -1
}

// Remove detaches inst from its operands and drops it from the block.
func (b *BasicBlock) Remove(inst Instruction) {
	idx := b.indexOf(inst)
	if idx < 0 {
		return
	}
	DetachOperands(inst)
	b.Instructions = append(b.Instructions[:idx], b.Instructions[idx+1:]...)
	inst.base().block = nil
}

// Replace swaps old for replacement in place. The old instruction is detached.
func (b *BasicBlock) Replace(old, replacement Instruction) {
	idx := b.indexOf(old)
	if idx < 0 {
		return
	}
	DetachOperands(old)
	old.base().block = nil
	replacement.base().block = b
	b.Instructions[idx] = replacement
}

// Function is an ordered list of blocks, entry block first.
type Function struct {
	Name    string
	RetType Type
	Params  []*Param
	Blocks  []*BasicBlock

	nextReg  int
	nextInst int
}

func NewFunction(name string, ret Type) *Function {
	return &Function{Name: name, RetType: ret}
}

func (fn *Function) newRegister(t Type) *Register {
	id := fn.nextReg
	fn.nextReg++
	return &Register{ID: id, Name: fmt.Sprintf("t%d", id), typ: t}
}

func (fn *Function) AddParam(t Type) *Param {
	p := &Param{Index: len(fn.Params), Name: fmt.Sprintf("arg%d", len(fn.Params)), typ: t}
	fn.Params = append(fn.Params, p)
	return p
}

// NewBlock creates a block owned by fn without placing it in the layout.
func (fn *Function) NewBlock(label string) *BasicBlock {
	return &BasicBlock{Label: label, Parent: fn}
}

// AddBlock appends b to the block layout.
func (fn *Function) AddBlock(b *BasicBlock) *BasicBlock {
	b.Parent = fn
	fn.Blocks = append(fn.Blocks, b)
	return b
}

// RemoveBlock drops b from the layout after detaching all its instructions.
func (fn *Function) RemoveBlock(b *BasicBlock) {
	for _, inst := range b.Instructions {
		DetachOperands(inst)
		inst.base().block = nil
	}
	b.Instructions = nil
	for i, candidate := range fn.Blocks {
		if candidate == b {
			fn.Blocks = append(fn.Blocks[:i], fn.Blocks[i+1:]...)
			break
		}
	}
	b.Parent = nil
}

func (fn *Function) Entry() *BasicBlock {
	if len(fn.Blocks) == 0 {
		return nil
	}
	return fn.Blocks[0]
}

func (fn *Function) BlockByLabel(label string) *BasicBlock {
	for _, b := range fn.Blocks {
		if b.Label == label {
			return b
		}
	}
	return nil
}

func (fn *Function) InstructionCount() int {
	n := 0
	for _, b := range fn.Blocks {
		n += len(b.Instructions)
	}
	return n
}

// RuntimeFunc is an externally provided routine such as putint.
type RuntimeFunc struct {
	Name    string
	RetType Type
	Params  []Type
}

// Module is one compilation unit: runtime declarations, globals and functions.
type Module struct {
	Runtime   []*RuntimeFunc
	Globals   []*Global
	Functions []*Function
}

func NewModule() *Module {
	return &Module{}
}

func (m *Module) AddGlobal(g *Global) *Global {
	m.Globals = append(m.Globals, g)
	return g
}

func (m *Module) Global(name string) *Global {
	for _, g := range m.Globals {
		if g.Name == name {
			return g
		}
	}
	return nil
}

func (m *Module) Function(name string) *Function {
	for _, fn := range m.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

func (m *Module) InstructionCount() int {
	n := 0
	for _, fn := range m.Functions {
		n += fn.InstructionCount()
	}
	return n
}

func (m *Module) BlockCount() int {
	n := 0
	for _, fn := range m.Functions {
		n += len(fn.Blocks)
	}
	return n
}
