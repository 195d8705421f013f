package ir

import (
	mapset "github.com/deckarep/golang-set"
)

// Control-flow edges are always derived from terminators on demand.

// Successors returns the blocks named by b's terminator, in operand order.
func Successors(b *BasicBlock) []*BasicBlock {
	term := b.Terminator()
	if term == nil {
		return nil
	}
	var succs []*BasicBlock
	for _, op := range term.Operands() {
		if l, ok := op.(*Label); ok {
			succs = append(succs, l.Block)
		}
	}
	return succs
}

// Predecessors maps each block to the blocks branching to it. A block
// appears once per edge, so a conditional branch with identical targets
// counts twice.
func Predecessors(fn *Function) map[*BasicBlock][]*BasicBlock {
	preds := make(map[*BasicBlock][]*BasicBlock, len(fn.Blocks))
	for _, b := range fn.Blocks {
		for _, s := range Successors(b) {
			preds[s] = append(preds[s], b)
		}
	}
	return preds
}

// Reachable returns the set of blocks reachable from the entry block.
func Reachable(fn *Function) mapset.Set {
	seen := mapset.NewThreadUnsafeSet()
	entry := fn.Entry()
	if entry == nil {
		return seen
	}
	worklist := []*BasicBlock{entry}
	seen.Add(entry)
	for len(worklist) > 0 {
		b := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, s := range Successors(b) {
			if s.Parent != fn || seen.Contains(s) {
				continue
			}
			seen.Add(s)
			worklist = append(worklist, s)
		}
	}
	return seen
}
