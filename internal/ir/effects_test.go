package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEffects(t *testing.T) {
	fn, _ := newTestFunction(1)
	p := fn.Params[0]
	slot := fn.NewAlloca(I32)
	exit := fn.AddBlock(fn.NewBlock("exit"))

	tests := []struct {
		name      string
		inst      Instruction
		pure      bool
		removable bool
	}{
		{"alloca", slot, false, true},
		{"load", fn.NewLoad(slot.Result()), false, true},
		{"store", fn.NewStore(p, slot.Result()), false, false},
		{"gep", fn.NewGEP(slot.Result(), NewConstant(0, 32)), true, true},
		{"binary", fn.NewBinary(OpSDiv, p, NewConstant(2, 32)), true, true},
		{"icmp", fn.NewICmp(PredSGT, p, NewConstant(2, 32)), true, true},
		{"zext", fn.NewZExt(NewConstant(0, 1), I32), true, true},
		{"phi", fn.NewPhi(I32), false, true},
		{"call with result", fn.NewCall("getint", I32), false, false},
		{"void call", fn.NewCall("putint", Void, p), false, false},
		{"branch", fn.NewBr(exit), false, false},
		{"return", fn.NewRet(p), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.pure, IsPure(tt.inst))
			assert.Equal(t, tt.removable, removableWhenUnused(tt.inst))
		})
	}
}

func TestCallEffects(t *testing.T) {
	fn, _ := newTestFunction(0)
	e := fn.NewCall("f", I32).Effects()

	assert.True(t, e.Has(EffectCall))
	assert.True(t, e.Has(EffectRead))
	assert.True(t, e.Has(EffectWrite))
	assert.False(t, e.Has(EffectControl))
}
