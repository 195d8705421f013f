package ir

// This file implements the Effects() method for all instruction kinds.
// Effects drive which instructions value numbering may merge and which
// unused results may be deleted.

// Effect is a bit set of side effects
type Effect uint8

const (
	EffectNone     Effect = 0
	EffectRead     Effect = 1 << iota // reads memory
	EffectWrite                       // writes memory
	EffectAllocate                    // reserves a stack slot
	EffectControl                     // transfers control
	EffectCall                        // calls out of the function
)

func (e Effect) Has(other Effect) bool { return e&other != 0 }

func (i *AllocaInst) Effects() Effect { return EffectAllocate }
func (i *LoadInst) Effects() Effect   { return EffectRead }
func (i *StoreInst) Effects() Effect  { return EffectWrite }
func (i *GEPInst) Effects() Effect    { return EffectNone }
func (i *BinaryInst) Effects() Effect { return EffectNone }
func (i *ICmpInst) Effects() Effect   { return EffectNone }
func (i *ZExtInst) Effects() Effect   { return EffectNone }
func (i *PhiInst) Effects() Effect    { return EffectNone }
func (i *BrInst) Effects() Effect     { return EffectControl }
func (i *CondBrInst) Effects() Effect { return EffectControl }
func (i *RetInst) Effects() Effect    { return EffectControl }

// CallInst effects: the callee is opaque, so assume it may touch any memory
func (i *CallInst) Effects() Effect { return EffectCall | EffectRead | EffectWrite }

// IsPure reports whether inst computes its result from its operands alone.
// Phi is excluded since its value depends on the incoming edge.
func IsPure(inst Instruction) bool {
	if _, phi := inst.(*PhiInst); phi {
		return false
	}
	return inst.Effects() == EffectNone
}

// removableWhenUnused reports whether deleting inst is unobservable once
// its result has no users.
func removableWhenUnused(inst Instruction) bool {
	if inst.Result() == nil {
		return false
	}
	return inst.Effects()&^(EffectRead|EffectAllocate) == EffectNone
}
