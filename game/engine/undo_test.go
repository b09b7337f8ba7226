package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUndo_RevertsPushAsOneAction(t *testing.T) {
	state := createTestGameState(t, "#####\n#@$.#\n#####")
	require.Equal(t, MovedWithPush, state.AttemptMove(Right))
	require.True(t, state.IsWinning())

	require.NoError(t, state.Undo())

	assert.Equal(t, Position{X: 1, Y: 1}, state.Hero.Position())
	assert.Equal(t, Position{X: 2, Y: 1}, state.Crates[0].Position())
	assert.False(t, state.Crates[0].OnGoal)
	assert.False(t, state.IsWinning())
	assert.Equal(t, 0, state.StepCount)
	assert.Equal(t, 0, state.History.Len())
	assert.False(t, state.History.CanUndo())
}

func TestUndo_EmptyHistory(t *testing.T) {
	state := createTestGameState(t, "#####\n#@$.#\n#####")
	before := RenderText(state)

	err := state.Undo()
	assert.ErrorIs(t, err, ErrNothingToUndo)
	assert.Equal(t, before, RenderText(state))
	assert.Equal(t, 0, state.StepCount)
}

func TestUndo_OneActionPerCall(t *testing.T) {
	state := createTestGameState(t, "######\n#@ $.#\n######")

	require.Equal(t, Moved, state.AttemptMove(Right))
	require.Equal(t, MovedWithPush, state.AttemptMove(Right))
	require.Equal(t, 3, state.History.Len())
	require.Equal(t, 2, state.StepCount)

	require.NoError(t, state.Undo())
	assert.Equal(t, Position{X: 2, Y: 1}, state.Hero.Position())
	assert.Equal(t, Position{X: 3, Y: 1}, state.Crates[0].Position())
	assert.Equal(t, 1, state.History.Len(), "the earlier hero step stays in place")
	assert.Equal(t, 1, state.StepCount)

	require.NoError(t, state.Undo())
	assert.Equal(t, Position{X: 1, Y: 1}, state.Hero.Position())
	assert.Equal(t, 0, state.History.Len())
	assert.Equal(t, 0, state.StepCount)
}

func TestUndo_ConsecutiveSteps(t *testing.T) {
	state := createTestGameState(t, "######\n#@   #\n# $. #\n######")

	require.Equal(t, Moved, state.AttemptMove(Right))
	require.Equal(t, Moved, state.AttemptMove(Right))

	require.NoError(t, state.Undo())
	assert.Equal(t, Position{X: 2, Y: 1}, state.Hero.Position())
	assert.Equal(t, 1, state.History.Len())
	assert.Equal(t, 1, state.StepCount)
}

func TestUndo_RestoresOnGoalFlagOfCrateThatLeftGoal(t *testing.T) {
	state := createTestGameState(t, "######\n#@*  #\n#  $.#\n######")

	require.Equal(t, MovedWithPush, state.AttemptMove(Right))
	require.False(t, state.Crates[0].OnGoal)

	require.NoError(t, state.Undo())
	assert.True(t, state.Crates[0].OnGoal)
}

func TestUndo_WinMonotonicity(t *testing.T) {
	state := createTestGameState(t, "#######\n#@$. *#\n#######")

	require.False(t, state.IsWinning())
	require.Equal(t, MovedWithPush, state.AttemptMove(Right))
	require.True(t, state.IsWinning())

	require.NoError(t, state.Undo())
	assert.False(t, state.IsWinning(), "undoing the last satisfying push must clear the win")
}

func TestUndo_CorruptHistoryIsRejected(t *testing.T) {
	state := createTestGameState(t, "#####\n#@$.#\n#####")
	state.History.Push(MoveRecord{Entity: state.Crates[0], DX: 1, DY: 0})
	before := RenderText(state)

	err := state.Undo()
	assert.ErrorIs(t, err, ErrCorruptHistory)
	assert.Equal(t, before, RenderText(state))
	assert.Equal(t, 1, state.History.Len())
}

func TestHistory_LIFO(t *testing.T) {
	var h History
	hero := NewEntity(Hero, 0, 0)
	crate := NewEntity(Crate, 1, 0)

	_, ok := h.Pop()
	assert.False(t, ok)
	_, ok = h.Peek()
	assert.False(t, ok)

	h.Push(MoveRecord{Entity: crate, DX: 1})
	h.Push(MoveRecord{Entity: hero, DX: 1})

	top, ok := h.Peek()
	require.True(t, ok)
	assert.Same(t, hero, top.Entity)
	assert.Equal(t, 2, h.Len())

	first, _ := h.Pop()
	second, _ := h.Pop()
	assert.Same(t, hero, first.Entity)
	assert.Same(t, crate, second.Entity)

	h.Push(MoveRecord{Entity: hero})
	h.Clear()
	assert.False(t, h.CanUndo())
}
