package ir

import (
	mapset "github.com/deckarep/golang-set"
)

// A stack slot is promotable when it holds a scalar and every user loads
// from it or stores into it directly. Such a slot never escapes, so calls
// and address computations cannot touch it.

func isPromotable(a *AllocaInst) bool {
	if _, isArray := a.Allocated.(*ArrayType); isArray {
		return false
	}
	slot := a.Result()
	for _, user := range slot.Users() {
		switch u := user.(type) {
		case *LoadInst:
			if u.Ptr() != Value(slot) {
				return false
			}
		case *StoreInst:
			if u.Ptr() != Value(slot) || u.Value() == Value(slot) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// promotableSlots returns the result registers of every promotable alloca.
func promotableSlots(fn *Function) mapset.Set {
	slots := mapset.NewThreadUnsafeSet()
	for _, b := range fn.Blocks {
		for _, inst := range b.Instructions {
			if a, ok := inst.(*AllocaInst); ok && isPromotable(a) {
				slots.Add(a.Result())
			}
		}
	}
	return slots
}

// promotableTarget returns the slot addressed by ptr if it is promotable.
func promotableTarget(slots mapset.Set, ptr Value) (*Register, bool) {
	r, ok := ptr.(*Register)
	if !ok || !slots.Contains(r) {
		return nil, false
	}
	return r, true
}

// StoreLoadForwarding replaces loads from promotable slots with the value
// last stored, or last loaded, in the same block. A call forgets everything
// known in its block.
type StoreLoadForwarding struct{}

func (p *StoreLoadForwarding) Name() string { return "store-load-forwarding" }
func (p *StoreLoadForwarding) Description() string {
	return "Forwards stored values to later loads of the same stack slot within a block"
}

func (p *StoreLoadForwarding) Apply(m *Module) bool {
	return applyToFunctions(m, p.run)
}

func (p *StoreLoadForwarding) run(fn *Function) bool {
	slots := promotableSlots(fn)
	if slots.Cardinality() == 0 {
		return false
	}
	changed := false
	for _, b := range fn.Blocks {
		known := make(map[*Register]Value)
		for _, inst := range snapshot(b) {
			if inst.Block() == nil {
				continue
			}
			switch i := inst.(type) {
			case *StoreInst:
				if slot, ok := promotableTarget(slots, i.Ptr()); ok {
					known[slot] = i.Value()
				}
			case *LoadInst:
				slot, ok := promotableTarget(slots, i.Ptr())
				if !ok {
					continue
				}
				if v, ok := known[slot]; ok {
					optLog.Debugf("%s: forwarding %s into %q", fn.Name, v.Ref(), i)
					replaceInstruction(i, v)
					changed = true
					continue
				}
				known[slot] = i.Result()
			case *CallInst:
				known = make(map[*Register]Value)
			}
		}
	}
	return changed
}

// DeadStoreElimination deletes stores to promotable slots that are
// overwritten in the same block before any load or call, and deletes
// promotable slots that are never loaded together with all their stores.
type DeadStoreElimination struct{}

func (p *DeadStoreElimination) Name() string { return "dead-store-elimination" }
func (p *DeadStoreElimination) Description() string {
	return "Removes overwritten stores and stack slots that are never read"
}

func (p *DeadStoreElimination) Apply(m *Module) bool {
	return applyToFunctions(m, p.run)
}

func (p *DeadStoreElimination) run(fn *Function) bool {
	slots := promotableSlots(fn)
	if slots.Cardinality() == 0 {
		return false
	}
	changed := false

	for _, b := range fn.Blocks {
		pending := make(map[*Register]*StoreInst)
		for _, inst := range snapshot(b) {
			if inst.Block() == nil {
				continue
			}
			switch i := inst.(type) {
			case *StoreInst:
				slot, ok := promotableTarget(slots, i.Ptr())
				if !ok {
					continue
				}
				if prev, ok := pending[slot]; ok {
					optLog.Debugf("%s: %q is overwritten by %q", fn.Name, prev, i)
					b.Remove(prev)
					changed = true
				}
				pending[slot] = i
			case *LoadInst:
				if slot, ok := promotableTarget(slots, i.Ptr()); ok {
					delete(pending, slot)
				}
			case *CallInst:
				pending = make(map[*Register]*StoreInst)
			}
		}
	}

	for _, b := range fn.Blocks {
		for _, inst := range snapshot(b) {
			a, ok := inst.(*AllocaInst)
			if !ok || inst.Block() == nil || !slots.Contains(a.Result()) || hasLoad(a.Result()) {
				continue
			}
			for _, user := range a.Result().Users() {
				if ub := user.Block(); ub != nil {
					ub.Remove(user)
				}
			}
			optLog.Debugf("%s: removing write-only slot %s", fn.Name, a.Result().Ref())
			b.Remove(a)
			changed = true
		}
	}
	return changed
}

func hasLoad(slot *Register) bool {
	for _, user := range slot.Users() {
		if _, ok := user.(*LoadInst); ok {
			return true
		}
	}
	return false
}
