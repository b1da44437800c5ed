package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lockstep/internal/ir"
)

func TestLocal_StepBeforeInit(t *testing.T) {
	l := newLocal(t)
	_, err := l.Step(context.Background())
	require.ErrorIs(t, err, ErrNotInitialized)
	assert.True(t, IsContractError(err))
}

func TestLocal_OneResultPerAlgorithm(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()
	require.NoError(t, l.Init(ctx, []int{5, 3, 1, 4, 2}, ir.AllAlgorithms()))

	batch, err := l.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, ir.AllAlgorithms(), batch.IDs())

	want := ir.StepResult{Ops: []ir.Op{ir.Compare(0, 1), ir.Swap(0, 1)}}
	assert.True(t, want.Equal(batch[ir.Bubble]))
	assert.True(t, ir.StepResult{Ops: []ir.Op{ir.PivotAt(4)}}.Equal(batch[ir.Quick]))
}

func TestLocal_DoneEnginesRepeatTheirTail(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()
	require.NoError(t, l.Init(ctx, []int{1}, []ir.AlgorithmID{ir.Bubble}))

	for k := 0; k < 3; k++ {
		batch, err := l.Step(ctx)
		require.NoError(t, err)
		want := ir.StepResult{Ops: []ir.Op{ir.Mark(ir.RoleSorted, 0)}, Done: true}
		assert.True(t, want.Equal(batch[ir.Bubble]), "call %d", k)
	}
}

func TestLocal_InitUnknownKeepsPreviousEngines(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()
	require.NoError(t, l.Init(ctx, []int{2, 1}, []ir.AlgorithmID{ir.Bubble}))

	err := l.Init(ctx, []int{2, 1}, []ir.AlgorithmID{ir.Quick, "bogo"})
	require.Error(t, err)
	assert.True(t, IsContractError(err))
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)

	batch, err := l.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ir.AlgorithmID{ir.Bubble}, batch.IDs())
}

func TestLocal_InitRejectsDuplicates(t *testing.T) {
	l := newLocal(t)
	err := l.Init(context.Background(), []int{1}, []ir.AlgorithmID{ir.Quick, ir.Quick})
	assert.True(t, IsContractError(err))
}

func TestLocal_InitCopiesInput(t *testing.T) {
	l := newLocal(t)
	values := []int{3, 2, 1}
	require.NoError(t, l.Init(context.Background(), values, []ir.AlgorithmID{ir.Selection}))
	values[0] = 100

	results := collect(t, l)
	assert.Equal(t, []int{1, 2, 3}, ir.Replay([]int{3, 2, 1}, results[ir.Selection]))
}

func TestLocal_Close(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()
	require.NoError(t, l.Init(ctx, []int{1, 2}, ir.AllAlgorithms()))
	require.NoError(t, l.Close())

	_, err := l.Step(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	assert.True(t, IsChannelError(err))
	assert.ErrorIs(t, l.Init(ctx, []int{1}, ir.AllAlgorithms()), ErrClosed)
}

func TestLocal_CancelledContext(t *testing.T) {
	l := newLocal(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Init(ctx, []int{1}, ir.AllAlgorithms()), context.Canceled)
}

func TestLocal_TryStep(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	_, ok, err := l.TryStep(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNotInitialized, "contract errors still surface")

	require.NoError(t, l.Init(ctx, []int{2, 1}, []ir.AlgorithmID{ir.Insertion}))
	batch, ok, err := l.TryStep(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, batch, 1)

	require.NoError(t, l.Close())
	batch, ok, err = l.TryStep(ctx)
	assert.NoError(t, err)
	assert.False(t, ok, "a closed driver drops the tick")
	assert.Nil(t, batch)
}
