package ir

import (
	"fmt"
	"sort"

	"sysyc/grammar"
	"sysyc/internal/errors"
)

// storageKind says where a named variable lives
type storageKind int

const (
	storageLocal storageKind = iota
	storageParam
	storageGlobal
	storageStatic
)

// symbol is one declared name in scope.
type symbol struct {
	name      string
	kind      storageKind
	dims      []int   // empty for scalars; an array parameter has dims[0] == 0
	addr      Value   // alloca register, parameter slot, or *Global
	isConst   bool
	constVals []int64 // flattened values of const declarations
}

func (s *symbol) isArray() bool { return len(s.dims) > 0 }

// funcSig is what a call site needs to know about its callee.
type funcSig struct {
	ret    Type
	params []Type
}

// loopTargets are the jump targets of break and continue.
type loopTargets struct {
	breakTo    *BasicBlock
	continueTo *BasicBlock
}

// Builder lowers a parsed translation unit into a Module.
type Builder struct {
	module *Module

	fn          *Function
	entry       *BasicBlock
	block       *BasicBlock
	allocaIndex int

	scopes       []map[string]*symbol
	globals      map[string]*symbol
	funcs        map[string]*funcSig
	loops        []loopTargets
	strings      map[string]*Global
	placeholders map[string]Value

	labelCounter  int
	stringCounter int

	lastJump    string // keyword of the most recent return, break or continue
	diagnostics []errors.CompilerError
}

// NewBuilder creates a builder for a single module.
func NewBuilder() *Builder {
	return &Builder{
		module:  NewModule(),
		globals: make(map[string]*symbol),
		funcs:   make(map[string]*funcSig),
		strings: make(map[string]*Global),
	}
}

// Build lowers unit. Lowering never fails: references it cannot resolve
// degrade to placeholder storage and are reported as warnings.
func (b *Builder) Build(unit *grammar.CompUnit) *Module {
	b.declareRuntime()

	for _, decl := range unit.Decls {
		b.buildGlobalDecl(decl)
	}

	for _, f := range unit.Funcs {
		b.funcs[f.Name] = b.signatureOf(f)
	}
	if unit.Main != nil {
		b.funcs["main"] = &funcSig{ret: I32}
	}

	for _, f := range unit.Funcs {
		ret := Type(I32)
		if f.Type == "void" {
			ret = Void
		}
		b.buildFunction(f.Name, ret, f.Params, f.Body)
	}
	if unit.Main != nil {
		b.buildFunction("main", I32, nil, unit.Main.Body)
	}

	return b.module
}

func (b *Builder) declareRuntime() {
	b.module.Runtime = []*RuntimeFunc{
		{Name: "getint", RetType: I32},
		{Name: "putint", RetType: Void, Params: []Type{I32}},
		{Name: "putch", RetType: Void, Params: []Type{I32}},
		{Name: "putstr", RetType: Void, Params: []Type{I8Ptr}},
	}
	for _, rt := range b.module.Runtime {
		b.funcs[rt.Name] = &funcSig{ret: rt.RetType, params: rt.Params}
	}
}

func (b *Builder) signatureOf(f *grammar.FuncDef) *funcSig {
	sig := &funcSig{ret: I32}
	if f.Type == "void" {
		sig.ret = Void
	}
	for _, p := range f.Params {
		if p.Array {
			sig.params = append(sig.params, I32Ptr)
		} else {
			sig.params = append(sig.params, I32)
		}
	}
	return sig
}

// ===== Functions =====

func (b *Builder) buildFunction(name string, ret Type, params []*grammar.FuncFParam, body *grammar.Block) {
	fn := NewFunction(name, ret)
	b.fn = fn
	b.entry = fn.AddBlock(fn.NewBlock("entry"))
	b.block = b.entry
	b.allocaIndex = 0
	b.loops = nil
	b.placeholders = make(map[string]Value)

	b.pushScope()
	for _, p := range params {
		if p.Array {
			arg := fn.AddParam(I32Ptr)
			slot := b.allocaEntry(I32Ptr)
			b.emit(fn.NewStore(arg, slot))
			dims := append([]int{0}, b.evalDims(p.Dims)...)
			b.declare(&symbol{name: p.Name, kind: storageParam, dims: dims, addr: slot})
			continue
		}
		arg := fn.AddParam(I32)
		slot := b.allocaEntry(I32)
		b.emit(fn.NewStore(arg, slot))
		b.declare(&symbol{name: p.Name, kind: storageLocal, addr: slot})
	}

	b.buildBlockItems(body.Items)

	if !b.terminated() {
		if _, void := ret.(*VoidType); void {
			b.emit(fn.NewRet(nil))
		} else {
			b.emit(fn.NewRet(NewConstant(0, 32)))
		}
	}
	b.popScope()

	b.module.Functions = append(b.module.Functions, fn)
	log.Debugf("lowered function %s: %d blocks, %d instructions", name, len(fn.Blocks), fn.InstructionCount())
}

// ===== Scopes =====

func (b *Builder) pushScope() {
	b.scopes = append(b.scopes, make(map[string]*symbol))
}

func (b *Builder) popScope() {
	b.scopes = b.scopes[:len(b.scopes)-1]
}

func (b *Builder) declare(sym *symbol) {
	if len(b.scopes) == 0 {
		b.globals[sym.name] = sym
		return
	}
	b.scopes[len(b.scopes)-1][sym.name] = sym
}

func (b *Builder) lookup(name string) *symbol {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		if sym, ok := b.scopes[i][name]; ok {
			return sym
		}
	}
	return b.globals[name]
}

// ===== Declarations =====

func (b *Builder) buildGlobalDecl(decl *grammar.Decl) {
	if decl.Const != nil {
		for _, def := range decl.Const.Defs {
			dims := b.evalDims(def.Dims)
			vals := b.evalConstInit(def.Init, totalElems(dims))
			sym := &symbol{name: def.Name, kind: storageGlobal, dims: dims, isConst: true, constVals: vals}
			if len(dims) > 0 {
				sym.addr = b.module.AddGlobal(&Global{
					Name:    def.Name,
					Kind:    GlobalConstant,
					Storage: &ArrayType{Len: totalElems(dims), Elem: I32},
					Init:    vals,
				})
			}
			b.declare(sym)
		}
		return
	}
	for _, def := range decl.Var.Defs {
		dims := b.evalDims(def.Dims)
		g := b.module.AddGlobal(&Global{
			Name:    def.Name,
			Kind:    GlobalVariable,
			Storage: storageType(dims),
			Init:    b.evalStaticInit(def.Init, totalElems(dims)),
		})
		b.declare(&symbol{name: def.Name, kind: storageGlobal, dims: dims, addr: g})
	}
}

func (b *Builder) buildLocalDecl(decl *grammar.Decl) {
	if decl.Const != nil {
		for _, def := range decl.Const.Defs {
			dims := b.evalDims(def.Dims)
			vals := b.evalConstInit(def.Init, totalElems(dims))
			sym := &symbol{name: def.Name, kind: storageLocal, dims: dims, isConst: true, constVals: vals}
			if len(dims) > 0 {
				slot := b.allocaEntry(storageType(dims))
				for i, v := range vals {
					b.storeElement(slot, i, NewConstant(v, 32))
				}
				sym.addr = slot
			}
			b.declare(sym)
		}
		return
	}

	for _, def := range decl.Var.Defs {
		dims := b.evalDims(def.Dims)
		if decl.Var.Static {
			g := b.module.AddGlobal(&Global{
				Name:    b.staticName(def.Name),
				Kind:    GlobalVariable,
				Storage: storageType(dims),
				Init:    b.evalStaticInit(def.Init, totalElems(dims)),
			})
			b.declare(&symbol{name: def.Name, kind: storageStatic, dims: dims, addr: g})
			continue
		}

		slot := b.allocaEntry(storageType(dims))
		b.declare(&symbol{name: def.Name, kind: storageLocal, dims: dims, addr: slot})
		if def.Init == nil {
			continue
		}
		if len(dims) == 0 {
			var v Value = NewConstant(0, 32)
			if e := initScalar(def.Init); e != nil {
				v = b.buildExp(e)
			}
			b.emit(b.fn.NewStore(v, slot))
			continue
		}
		elems := initElems(def.Init)
		n := totalElems(dims)
		for i := 0; i < n; i++ {
			var v Value = NewConstant(0, 32)
			if i < len(elems) {
				v = b.buildExp(elems[i])
			}
			b.storeElement(slot, i, v)
		}
	}
}

// staticName returns a module-unique global name for a function-local static.
func (b *Builder) staticName(name string) string {
	for {
		b.labelCounter++
		candidate := fmt.Sprintf("static_%s_%s_%d", b.fn.Name, name, b.labelCounter)
		if b.module.Global(candidate) == nil && b.globals[candidate] == nil {
			return candidate
		}
	}
}

func (b *Builder) storeElement(base Value, index int, v Value) {
	addr := b.emit(b.fn.NewGEP(base, NewConstant(int64(index), 32))).Result()
	b.emit(b.fn.NewStore(v, addr))
}

func initScalar(init *grammar.InitVal) *grammar.Exp {
	if init.Value != nil {
		return init.Value
	}
	if len(init.List.Elems) > 0 {
		return init.List.Elems[0]
	}
	return nil
}

func initElems(init *grammar.InitVal) []*grammar.Exp {
	if init.List != nil {
		return init.List.Elems
	}
	return []*grammar.Exp{init.Value}
}

func storageType(dims []int) Type {
	if len(dims) == 0 {
		return I32
	}
	return &ArrayType{Len: totalElems(dims), Elem: I32}
}

func totalElems(dims []int) int {
	if len(dims) == 0 {
		return 1
	}
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}

// ===== Emission helpers =====

func (b *Builder) emit(inst Instruction) Instruction {
	return b.block.Append(inst)
}

func (b *Builder) terminated() bool {
	return b.block.Terminator() != nil
}

// allocaEntry reserves a stack slot at the top of the entry block, so every
// alloca dominates every use regardless of where the declaration appears.
func (b *Builder) allocaEntry(t Type) Value {
	inst := b.fn.NewAlloca(t)
	b.entry.InsertAt(b.allocaIndex, inst)
	b.allocaIndex++
	return inst.Result()
}

func (b *Builder) nextLabelID() int {
	id := b.labelCounter
	b.labelCounter++
	return id
}

func (b *Builder) newBlock(prefix string, id int) *BasicBlock {
	return b.fn.NewBlock(fmt.Sprintf("%s_%d", prefix, id))
}

func (b *Builder) startBlock(bb *BasicBlock) {
	b.fn.AddBlock(bb)
	b.block = bb
}

// Diagnostics returns the warnings collected while lowering, in source order.
func (b *Builder) Diagnostics() []errors.CompilerError {
	return b.diagnostics
}

func (b *Builder) report(d errors.CompilerError) {
	log.Warningf("%s", d.Error())
	b.diagnostics = append(b.diagnostics, d)
}

// placeholder stands in for storage of a name that failed to resolve.
func (b *Builder) placeholder(l *grammar.LVal) Value {
	if slot, ok := b.placeholders[l.Name]; ok {
		return slot
	}
	b.report(errors.UnresolvedSymbol(l.Name, b.fn.Name, l.Pos, b.namesInScope()))
	slot := b.allocaEntry(I32)
	b.placeholders[l.Name] = slot
	return slot
}

func (b *Builder) namesInScope() []string {
	var names []string
	for _, scope := range b.scopes {
		for name := range scope {
			names = append(names, name)
		}
	}
	for name := range b.globals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (b *Builder) functionNames() []string {
	names := make([]string, 0, len(b.funcs))
	for name := range b.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// stringConstant returns the global holding s, creating it on first use.
func (b *Builder) stringConstant(s string) *Global {
	if g, ok := b.strings[s]; ok {
		return g
	}
	g := b.module.AddGlobal(&Global{
		Name:    fmt.Sprintf(".str_%d", b.stringCounter),
		Kind:    GlobalString,
		Storage: &ArrayType{Len: len(s) + 1, Elem: I8},
		Content: s,
	})
	b.stringCounter++
	b.strings[s] = g
	return g
}
