package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyAcceptsWellFormedFunction(t *testing.T) {
	fn, _, _, _, _, _ := diamond()
	require.NoError(t, Verify(fn))
}

func TestVerifyRejectsMissingTerminator(t *testing.T) {
	fn, entry := newTestFunction(1)
	entry.Append(fn.NewBinary(OpAdd, fn.Params[0], NewConstant(1, 32)))

	err := Verify(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not end in a terminator")
}

func TestVerifyRejectsInstructionAfterTerminator(t *testing.T) {
	fn, entry := newTestFunction(1)
	entry.Append(fn.NewRet(fn.Params[0]))
	entry.Append(fn.NewRet(NewConstant(0, 32)))

	err := Verify(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after terminator")
}

func TestVerifyRejectsEmptyBlock(t *testing.T) {
	fn, entry := newTestFunction(0)
	entry.Append(fn.NewRet(NewConstant(0, 32)))
	fn.AddBlock(fn.NewBlock("empty"))

	err := Verify(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestVerifyRejectsForeignBranchTarget(t *testing.T) {
	fn, entry := newTestFunction(0)
	other := NewFunction("g", Void)
	elsewhere := other.AddBlock(other.NewBlock("elsewhere"))
	entry.Append(fn.NewBr(elsewhere))

	err := Verify(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside the function")
}

func TestVerifyRejectsStaleUserList(t *testing.T) {
	fn, entry := newTestFunction(1)
	add := entry.Append(fn.NewBinary(OpAdd, fn.Params[0], NewConstant(1, 32)))
	entry.Append(fn.NewRet(add.Result()))

	fn.Params[0].addUser(add)

	err := Verify(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user list has 2")
}

func TestVerifyRejectsDanglingUse(t *testing.T) {
	fn, entry := newTestFunction(1)
	add := entry.Append(fn.NewBinary(OpAdd, fn.Params[0], NewConstant(1, 32)))
	entry.Append(fn.NewRet(add.Result()))

	// Dropping the definition without redirecting its uses leaves the
	// return reading a register that no longer exists.
	entry.Remove(add)

	err := Verify(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "definition is gone")
}

func TestRebuildUseListsRepairsCorruption(t *testing.T) {
	fn, entry := newTestFunction(1)
	add := entry.Append(fn.NewBinary(OpAdd, fn.Params[0], fn.Params[0]))
	entry.Append(fn.NewRet(add.Result()))
	m := moduleOf(fn)

	fn.Params[0].clearUsers()
	add.Result().addUser(add)
	require.Error(t, VerifyModule(m))

	RebuildUseLists(m)
	require.NoError(t, VerifyModule(m))
	assert.Len(t, fn.Params[0].Users(), 2)
}
