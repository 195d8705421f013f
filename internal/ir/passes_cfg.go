package ir

// BranchSimplification turns a conditional branch into an unconditional
// one when both targets are the same block or the condition is constant.
type BranchSimplification struct{}

func (p *BranchSimplification) Name() string { return "branch-simplification" }
func (p *BranchSimplification) Description() string {
	return "Collapses conditional branches with a constant condition or identical targets"
}

func (p *BranchSimplification) Apply(m *Module) bool {
	return applyToFunctions(m, p.run)
}

func (p *BranchSimplification) run(fn *Function) bool {
	changed := false
	for _, b := range fn.Blocks {
		cb, ok := b.Terminator().(*CondBrInst)
		if !ok {
			continue
		}
		var target *BasicBlock
		if cb.True().Name() == cb.False().Name() {
			target = cb.True().Block
		} else if c, ok := cb.Cond().(*ConstantInt); ok {
			if c.Value != 0 {
				target = cb.True().Block
			} else {
				target = cb.False().Block
			}
		}
		if target == nil {
			continue
		}
		optLog.Debugf("%s: %q becomes a jump to %s", fn.Name, cb, target.Label)
		b.Replace(cb, fn.NewBr(target))
		changed = true
	}
	return changed
}

// TrimAfterTerminator deletes instructions that follow a block's first
// terminator.
type TrimAfterTerminator struct{}

func (p *TrimAfterTerminator) Name() string { return "trim-after-terminator" }
func (p *TrimAfterTerminator) Description() string {
	return "Removes dead instructions after a block's first terminator"
}

func (p *TrimAfterTerminator) Apply(m *Module) bool {
	return applyToFunctions(m, p.run)
}

func (p *TrimAfterTerminator) run(fn *Function) bool {
	changed := false
	for _, b := range fn.Blocks {
		for idx, inst := range b.Instructions {
			if !inst.IsTerminator() {
				continue
			}
			if idx < len(b.Instructions)-1 {
				dead := append([]Instruction(nil), b.Instructions[idx+1:]...)
				for _, d := range dead {
					b.Remove(d)
				}
				optLog.Debugf("%s: trimmed %d instructions after terminator in %s", fn.Name, len(dead), b.Label)
				changed = true
			}
			break
		}
	}
	return changed
}

// BlockMerging splices a block into its only predecessor when that
// predecessor reaches it through an unconditional branch.
type BlockMerging struct{}

func (p *BlockMerging) Name() string { return "block-merging" }
func (p *BlockMerging) Description() string {
	return "Merges straight-line chains of blocks"
}

func (p *BlockMerging) Apply(m *Module) bool {
	return applyToFunctions(m, p.run)
}

func (p *BlockMerging) run(fn *Function) bool {
	changed := false
	for p.mergeOne(fn) {
		changed = true
	}
	return changed
}

// mergeOne performs a single merge, recomputing predecessors from scratch.
func (p *BlockMerging) mergeOne(fn *Function) bool {
	if len(fn.Blocks) < 2 {
		return false
	}
	preds := Predecessors(fn)
	for _, blk := range fn.Blocks[1:] {
		ps := preds[blk]
		if len(ps) != 1 || ps[0] == blk {
			continue
		}
		pred := ps[0]
		br, ok := pred.Terminator().(*BrInst)
		if !ok || hasPhi(blk) || phiReferences(fn, blk) {
			continue
		}

		optLog.Debugf("%s: merging %s into %s", fn.Name, blk.Label, pred.Label)
		pred.Remove(br)
		moved := blk.Instructions
		blk.Instructions = nil
		for _, inst := range moved {
			pred.Append(inst)
		}
		fn.RemoveBlock(blk)
		return true
	}
	return false
}

func hasPhi(b *BasicBlock) bool {
	for _, inst := range b.Instructions {
		if _, ok := inst.(*PhiInst); ok {
			return true
		}
	}
	return false
}

// phiReferences reports whether any phi names b as an incoming block.
func phiReferences(fn *Function, b *BasicBlock) bool {
	for _, blk := range fn.Blocks {
		for _, inst := range blk.Instructions {
			phi, ok := inst.(*PhiInst)
			if !ok {
				continue
			}
			for _, op := range phi.Operands() {
				if l, ok := op.(*Label); ok && l.Block == b {
					return true
				}
			}
		}
	}
	return false
}

// UnreachableBlockElimination deletes blocks that cannot be reached from
// the entry block.
type UnreachableBlockElimination struct{}

func (p *UnreachableBlockElimination) Name() string { return "unreachable-block-elimination" }
func (p *UnreachableBlockElimination) Description() string {
	return "Removes blocks unreachable from the entry block"
}

func (p *UnreachableBlockElimination) Apply(m *Module) bool {
	return applyToFunctions(m, p.run)
}

func (p *UnreachableBlockElimination) run(fn *Function) bool {
	reachable := Reachable(fn)
	var dead []*BasicBlock
	for _, b := range fn.Blocks {
		if !reachable.Contains(b) {
			dead = append(dead, b)
		}
	}
	for _, b := range dead {
		optLog.Debugf("%s: removing unreachable block %s", fn.Name, b.Label)
		fn.RemoveBlock(b)
	}
	return len(dead) > 0
}

// DeadResultElimination deletes side-effect-free instructions whose
// results are unused, repeating until nothing more becomes dead.
type DeadResultElimination struct{}

func (p *DeadResultElimination) Name() string { return "dead-result-elimination" }
func (p *DeadResultElimination) Description() string {
	return "Removes pure instructions whose results are never used"
}

func (p *DeadResultElimination) Apply(m *Module) bool {
	return applyToFunctions(m, p.run)
}

func (p *DeadResultElimination) run(fn *Function) bool {
	changed := false
	for {
		removed := false
		for _, b := range fn.Blocks {
			for i := len(b.Instructions) - 1; i >= 0; i-- {
				inst := b.Instructions[i]
				if removableWhenUnused(inst) && !inst.Result().HasUsers() {
					b.Remove(inst)
					removed = true
				}
			}
		}
		if !removed {
			return changed
		}
		changed = true
	}
}
