package ir

import (
	"errors"
	"fmt"
)

// Verify checks the structural invariants of fn: block shape, parent
// links, branch targets, and agreement between user lists and operands.
// It returns nil or one error per violation joined together.
func Verify(fn *Function) error {
	var errs []error
	fail := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("%s: "+format, append([]interface{}{fn.Name}, args...)...))
	}

	blocks := make(map[*BasicBlock]bool, len(fn.Blocks))
	for _, b := range fn.Blocks {
		blocks[b] = true
	}
	live := make(map[Instruction]bool)
	for _, b := range fn.Blocks {
		for _, inst := range b.Instructions {
			live[inst] = true
		}
	}
	params := make(map[*Param]bool, len(fn.Params))
	for _, p := range fn.Params {
		params[p] = true
	}

	expected := make(map[UsedValue]map[Instruction]int)
	track := func(v UsedValue) {
		if _, ok := expected[v]; !ok {
			expected[v] = make(map[Instruction]int)
		}
	}
	for _, p := range fn.Params {
		track(p)
	}

	for _, b := range fn.Blocks {
		if b.Parent != fn {
			fail("block %s has wrong parent", b.Label)
		}
		if len(b.Instructions) == 0 {
			fail("block %s is empty", b.Label)
			continue
		}
		for idx, inst := range b.Instructions {
			if inst.Block() != b {
				fail("instruction %q in %s has wrong parent block", inst, b.Label)
			}
			last := idx == len(b.Instructions)-1
			if inst.IsTerminator() && !last {
				fail("block %s has instruction after terminator %q", b.Label, inst)
			}
			if last && !inst.IsTerminator() {
				fail("block %s does not end in a terminator", b.Label)
			}
			if r := inst.Result(); r != nil {
				track(r)
				if r.Def != inst {
					fail("result %s of %q points at another definition", r.Ref(), inst)
				}
			}
			for _, op := range inst.Operands() {
				switch v := op.(type) {
				case *Label:
					if !blocks[v.Block] {
						fail("%q targets block %s outside the function", inst, v.Name())
					}
				case *Register:
					if v.Def == nil || !live[v.Def] {
						fail("%q uses %s whose definition is gone", inst, v.Ref())
					}
				case *Param:
					if !params[v] {
						fail("%q uses foreign parameter %s", inst, v.Ref())
					}
				}
				if u, ok := op.(UsedValue); ok {
					track(u)
					expected[u][inst]++
				}
			}
		}
	}

	for v, want := range expected {
		got := make(map[Instruction]int)
		for _, user := range v.Users() {
			if !live[user] {
				fail("%s lists dead user %q", v.Ref(), user)
				continue
			}
			got[user]++
		}
		for user, n := range want {
			if got[user] != n {
				fail("%s is used %d times by %q but its user list has %d", v.Ref(), n, user, got[user])
			}
		}
		for user, n := range got {
			if want[user] == 0 {
				fail("%s lists %q as user %d times without being an operand", v.Ref(), user, n)
			}
		}
	}

	return errors.Join(errs...)
}

// VerifyModule runs Verify on every function of m.
func VerifyModule(m *Module) error {
	var errs []error
	for _, fn := range m.Functions {
		if err := Verify(fn); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RebuildUseLists recomputes every user list of m from the live operands.
func RebuildUseLists(m *Module) {
	for _, fn := range m.Functions {
		for _, p := range fn.Params {
			p.clearUsers()
		}
		for _, b := range fn.Blocks {
			for _, inst := range b.Instructions {
				if r := inst.Result(); r != nil {
					r.clearUsers()
				}
			}
		}
		for _, b := range fn.Blocks {
			for _, inst := range b.Instructions {
				attachOperands(inst)
			}
		}
	}
}
