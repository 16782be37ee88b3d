package metadata_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/partsim/memutils/metadata"
	"github.com/vkngwrapper/partsim/process"
)

func TestSplitWithRemainder(t *testing.T) {
	arena := process.NewArena(1)
	handle := arena.Add(process.New(1, 0, 300, 5))

	hole := metadata.NewFreePartition(100, 1000)
	occupied, remainder, hasRemainder := hole.Split(handle, 300)

	require.True(t, hasRemainder)
	require.Equal(t, 100, occupied.Offset())
	require.Equal(t, 300, occupied.Size())
	require.Equal(t, handle, occupied.Occupant())
	require.False(t, occupied.IsFree())

	require.Equal(t, 400, remainder.Offset())
	require.Equal(t, 700, remainder.Size())
	require.True(t, remainder.IsFree())

	require.Equal(t, "[100 P1 300]", occupied.Format(arena))
	require.Equal(t, "[400 Hole 700]", remainder.Format(arena))
}

func TestSplitExactFit(t *testing.T) {
	hole := metadata.NewFreePartition(0, 250)
	occupied, _, hasRemainder := hole.Split(process.Handle(3), 250)

	require.False(t, hasRemainder)
	require.Equal(t, 0, occupied.Offset())
	require.Equal(t, 250, occupied.Size())
}

func TestSplitContractViolations(t *testing.T) {
	hole := metadata.NewFreePartition(0, 100)

	require.Panics(t, func() {
		hole.Split(process.Handle(1), 101)
	})
	require.Panics(t, func() {
		hole.Split(process.Handle(1), 0)
	})
	require.Panics(t, func() {
		hole.Split(process.NoProcess, 10)
	})

	occupied, _, _ := hole.Split(process.Handle(1), 10)
	require.Panics(t, func() {
		occupied.Split(process.Handle(2), 5)
	})
}

func TestMerge(t *testing.T) {
	left := metadata.NewFreePartition(100, 200)
	right := metadata.NewFreePartition(300, 50)

	left.Merge(right)
	require.Equal(t, 100, left.Offset())
	require.Equal(t, 250, left.Size())
	require.True(t, left.IsFree())
}

func TestMergeContractViolations(t *testing.T) {
	hole := metadata.NewFreePartition(0, 100)
	occupied, remainder, _ := hole.Split(process.Handle(1), 40)

	require.Panics(t, func() {
		occupied.Merge(remainder)
	})

	gap := metadata.NewFreePartition(0, 10)
	require.Panics(t, func() {
		gap.Merge(metadata.NewFreePartition(11, 10))
	})

	before := metadata.NewFreePartition(0, 40)
	require.Panics(t, func() {
		before.Merge(occupied)
	})
}

func TestPartitionTickFreesEndedOccupant(t *testing.T) {
	arena := process.NewArena(1)
	handle := arena.Add(process.New(9, 0, 100, 2))

	hole := metadata.NewFreePartition(0, 100)
	occupied, _, _ := hole.Split(handle, 100)

	require.Equal(t, process.NoProcess, occupied.Tick(arena))
	require.False(t, occupied.IsFree())
	require.Equal(t, 1, arena.MustGet(handle).RemainingRuntime())

	require.Equal(t, handle, occupied.Tick(arena))
	require.True(t, occupied.IsFree())
	require.True(t, arena.MustGet(handle).HasEnded())

	require.Equal(t, process.NoProcess, occupied.Tick(arena))
}

func TestPartitionTickZeroRuntime(t *testing.T) {
	arena := process.NewArena(1)
	handle := arena.Add(process.New(9, 0, 100, 0))

	hole := metadata.NewFreePartition(0, 200)
	occupied, _, _ := hole.Split(handle, 100)

	require.Equal(t, handle, occupied.Tick(arena))
	require.True(t, occupied.IsFree())
}
