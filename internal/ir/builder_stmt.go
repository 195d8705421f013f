package ir

import (
	"strings"

	"sysyc/grammar"
	"sysyc/internal/errors"
)

// buildBlockItems lowers items in order and stops at the first terminator;
// anything after a return, break or continue in the same block is dead.
func (b *Builder) buildBlockItems(items []*grammar.BlockItem) {
	for _, item := range items {
		if b.terminated() {
			b.report(errors.UnreachableCode(b.lastJump, item.Pos))
			return
		}
		if item.Decl != nil {
			b.buildLocalDecl(item.Decl)
			continue
		}
		b.buildStmt(item.Stmt)
	}
}

func (b *Builder) buildStmt(s *grammar.Stmt) {
	switch {
	case s.If != nil:
		b.buildIf(s.If)
	case s.For != nil:
		b.buildFor(s.For)
	case s.Break:
		if len(b.loops) == 0 {
			b.report(errors.JumpOutsideLoop("break", s.Pos))
			return
		}
		b.lastJump = "break"
		b.emit(b.fn.NewBr(b.loops[len(b.loops)-1].breakTo))
	case s.Continue:
		if len(b.loops) == 0 {
			b.report(errors.JumpOutsideLoop("continue", s.Pos))
			return
		}
		b.lastJump = "continue"
		b.emit(b.fn.NewBr(b.loops[len(b.loops)-1].continueTo))
	case s.Return != nil:
		b.lastJump = "return"
		b.buildReturn(s.Return)
	case s.Printf != nil:
		b.buildPrintf(s.Printf)
	case s.Block != nil:
		b.pushScope()
		b.buildBlockItems(s.Block.Items)
		b.popScope()
	case s.Assign != nil:
		b.buildAssign(s.Assign.Target, s.Assign.GetInt, s.Assign.Value)
	case s.Expr != nil:
		if s.Expr.Value != nil {
			b.buildExp(s.Expr.Value)
		}
	}
}

// buildAssign evaluates the right-hand side before the target address.
func (b *Builder) buildAssign(target *grammar.LVal, getInt bool, value *grammar.Exp) {
	var v Value
	if getInt {
		v = b.emit(b.fn.NewCall("getint", I32)).Result()
	} else {
		v = b.buildExp(value)
	}
	addr, _ := b.buildLValAddress(target)
	b.emit(b.fn.NewStore(v, addr))
}

func (b *Builder) buildIf(s *grammar.IfStmt) {
	cond := b.buildCond(s.Cond)

	id := b.nextLabelID()
	thenBlock := b.newBlock("if_then", id)
	endBlock := b.newBlock("if_end", id)
	var elseBlock *BasicBlock
	if s.Else != nil {
		elseBlock = b.newBlock("if_else", id)
		b.emit(b.fn.NewCondBr(cond, thenBlock, elseBlock))
	} else {
		b.emit(b.fn.NewCondBr(cond, thenBlock, endBlock))
	}

	b.startBlock(thenBlock)
	b.buildScopedStmt(s.Then)
	if !b.terminated() {
		b.emit(b.fn.NewBr(endBlock))
	}

	if elseBlock != nil {
		b.startBlock(elseBlock)
		b.buildScopedStmt(s.Else)
		if !b.terminated() {
			b.emit(b.fn.NewBr(endBlock))
		}
	}

	b.startBlock(endBlock)
}

// buildFor lowers to cond, body, cont and end blocks. continue jumps to
// cont, which runs the step and returns to cond.
func (b *Builder) buildFor(s *grammar.ForLoop) {
	if s.Init != nil {
		b.buildForStmt(s.Init)
	}

	id := b.nextLabelID()
	condBlock := b.newBlock("for_cond", id)
	bodyBlock := b.newBlock("for_body", id)
	contBlock := b.newBlock("for_cont", id)
	endBlock := b.newBlock("for_end", id)

	b.emit(b.fn.NewBr(condBlock))
	b.startBlock(condBlock)
	if s.Cond != nil {
		cond := b.buildCond(s.Cond)
		b.emit(b.fn.NewCondBr(cond, bodyBlock, endBlock))
	} else {
		b.emit(b.fn.NewBr(bodyBlock))
	}

	b.startBlock(bodyBlock)
	b.loops = append(b.loops, loopTargets{breakTo: endBlock, continueTo: contBlock})
	b.buildScopedStmt(s.Body)
	b.loops = b.loops[:len(b.loops)-1]
	if !b.terminated() {
		b.emit(b.fn.NewBr(contBlock))
	}

	b.startBlock(contBlock)
	if s.Step != nil {
		b.buildForStmt(s.Step)
	}
	b.emit(b.fn.NewBr(condBlock))

	b.startBlock(endBlock)
}

func (b *Builder) buildForStmt(s *grammar.ForStmt) {
	for _, a := range s.Assigns {
		b.buildAssign(a.Target, false, a.Value)
	}
}

// buildScopedStmt lowers the body of an if or for, which opens a scope
// even when it is a single statement.
func (b *Builder) buildScopedStmt(s *grammar.Stmt) {
	b.pushScope()
	b.buildStmt(s)
	b.popScope()
}

func (b *Builder) buildReturn(s *grammar.ReturnStmt) {
	if _, void := b.fn.RetType.(*VoidType); void {
		if s.Value != nil {
			b.buildExp(s.Value)
		}
		b.emit(b.fn.NewRet(nil))
		return
	}
	var v Value = NewConstant(0, 32)
	if s.Value != nil {
		v = b.buildExp(s.Value)
	}
	b.emit(b.fn.NewRet(v))
}

// formatSegment is either literal text or the index of a %d argument.
type formatSegment struct {
	text string
	arg  int
}

// splitFormat breaks a quoted printf format into literal and %d segments,
// decoding \n.
func splitFormat(raw string) []formatSegment {
	raw = strings.TrimSuffix(strings.TrimPrefix(raw, `"`), `"`)
	var segments []formatSegment
	var text strings.Builder
	arg := 0
	flush := func() {
		if text.Len() > 0 {
			segments = append(segments, formatSegment{text: text.String(), arg: -1})
			text.Reset()
		}
	}
	for i := 0; i < len(raw); i++ {
		switch {
		case raw[i] == '%' && i+1 < len(raw) && raw[i+1] == 'd':
			flush()
			segments = append(segments, formatSegment{arg: arg})
			arg++
			i++
		case raw[i] == '\\' && i+1 < len(raw) && raw[i+1] == 'n':
			text.WriteByte('\n')
			i++
		default:
			text.WriteByte(raw[i])
		}
	}
	flush()
	return segments
}

// buildPrintf evaluates every argument first, in source order, and only
// then emits the output calls.
func (b *Builder) buildPrintf(s *grammar.PrintfStmt) {
	args := make([]Value, len(s.Args))
	for i, a := range s.Args {
		args[i] = b.buildExp(a)
	}

	segments := splitFormat(s.Format)
	placeholders := 0
	for _, seg := range segments {
		if seg.arg >= 0 {
			placeholders++
		}
	}
	if placeholders != len(args) {
		b.report(errors.PrintfArguments(placeholders, len(args), s.Pos))
	}

	for _, seg := range segments {
		if seg.arg >= 0 {
			if seg.arg < len(args) {
				b.emit(b.fn.NewCall("putint", Void, args[seg.arg]))
			}
			continue
		}
		if len(seg.text) == 1 {
			b.emit(b.fn.NewCall("putch", Void, NewConstant(int64(seg.text[0]), 32)))
			continue
		}
		str := b.stringConstant(seg.text)
		ptr := b.emit(b.fn.NewGEP(str, NewConstant(0, 32))).Result()
		b.emit(b.fn.NewCall("putstr", Void, ptr))
	}
}
