package metadata_test

import (
	"math"
	"testing"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/partsim/memutils"
	"github.com/vkngwrapper/partsim/memutils/metadata"
	"github.com/vkngwrapper/partsim/process"
)

type layoutEntry struct {
	size int
	free bool
}

// newTableWithLayout builds a table whose partitions have exactly the provided sizes, in order.
// Entries marked free are placed with a one-tick process and released with a single Tick, so
// adjacent free entries are left uncoalesced.
func newTableWithLayout(t *testing.T, layout []layoutEntry) (*metadata.PartitionTable, *process.Arena) {
	total := 0
	for _, entry := range layout {
		total += entry.size
	}

	arena := process.NewArena(len(layout))
	table := metadata.NewPartitionTable(total)

	for index, entry := range layout {
		runtime := 1000
		if entry.free {
			runtime = 1
		}
		handle := arena.Add(process.New(index+1, 0, entry.size, runtime))
		table.Place(index, handle, entry.size)
	}

	table.Tick(arena)
	require.NoError(t, table.Validate())
	require.Equal(t, len(layout), table.Len())

	return table, arena
}

func TestNewPartitionTable(t *testing.T) {
	table := metadata.NewPartitionTable(2000)
	require.Equal(t, 1, table.Len())
	require.Equal(t, 2000, table.Size())
	require.True(t, table.At(0).IsFree())
	require.Equal(t, 2000, table.SumFreeSize())
	require.True(t, table.IsEmpty())
	require.NoError(t, table.Validate())
	require.NoError(t, table.ValidateCoalesced())

	require.Panics(t, func() {
		metadata.NewPartitionTable(0)
	})
}

func TestPlaceSplicesInAddressOrder(t *testing.T) {
	arena := process.NewArena(2)
	table := metadata.NewPartitionTable(2000)

	first := arena.Add(process.New(1, 0, 100, 5))
	second := arena.Add(process.New(2, 0, 2000-100, 5))

	occupied := table.Place(0, first, 100)
	require.Equal(t, 0, occupied.Offset())
	require.Equal(t, 2, table.Len())
	require.Equal(t, 100, table.At(1).Offset())
	require.Equal(t, 1900, table.At(1).Size())

	table.Place(1, second, 1900)
	require.Equal(t, 2, table.Len())
	require.Equal(t, 0, table.SumFreeSize())
	require.NoError(t, table.Validate())

	_, found := table.FindFree(1, metadata.AllocationStrategyBestFit)
	require.False(t, found)
}

func TestFindFreeBestFit(t *testing.T) {
	table, _ := newTableWithLayout(t, []layoutEntry{
		{size: 500, free: true},
		{size: 100, free: false},
		{size: 200, free: true},
		{size: 100, free: false},
		{size: 150, free: true},
		{size: 100, free: false},
		{size: 200, free: true},
	})

	index, found := table.FindFree(180, metadata.AllocationStrategyBestFit)
	require.True(t, found)
	require.Equal(t, 2, index, "smallest fitting hole, lowest address on ties")

	index, found = table.FindFree(150, metadata.AllocationStrategyBestFit)
	require.True(t, found)
	require.Equal(t, 4, index)

	_, found = table.FindFree(501, metadata.AllocationStrategyBestFit)
	require.False(t, found)
}

func TestFindFreeWorstFit(t *testing.T) {
	table, _ := newTableWithLayout(t, []layoutEntry{
		{size: 300, free: true},
		{size: 100, free: false},
		{size: 500, free: true},
		{size: 100, free: false},
		{size: 500, free: true},
	})

	index, found := table.FindFree(10, metadata.AllocationStrategyWorstFit)
	require.True(t, found)
	require.Equal(t, 2, index, "largest hole, lowest address on ties")

	index, found = table.FindFree(100, metadata.AllocationStrategyBestFit)
	require.True(t, found)
	require.Equal(t, 0, index)
}

func TestFindFreeSkipsOccupied(t *testing.T) {
	table, _ := newTableWithLayout(t, []layoutEntry{
		{size: 1000, free: false},
		{size: 50, free: true},
	})

	index, found := table.FindFree(50, metadata.AllocationStrategyWorstFit)
	require.True(t, found)
	require.Equal(t, 1, index)
}

func TestCoalesceCollapsesRuns(t *testing.T) {
	table, arena := newTableWithLayout(t, []layoutEntry{
		{size: 100, free: true},
		{size: 100, free: true},
		{size: 100, free: true},
		{size: 50, free: false},
		{size: 25, free: true},
		{size: 25, free: true},
		{size: 50, free: false},
		{size: 10, free: true},
	})

	require.Error(t, table.ValidateCoalesced())

	merges := table.Coalesce()
	require.Equal(t, 3, merges)
	require.NoError(t, table.Validate())
	require.NoError(t, table.ValidateCoalesced())

	var formatted []string
	for _, partition := range table.Partitions() {
		formatted = append(formatted, partition.Format(arena))
	}
	require.Equal(t, []string{
		"[0 Hole 300]",
		"[300 P4 50]",
		"[350 Hole 50]",
		"[400 P7 50]",
		"[450 Hole 10]",
	}, formatted)
}

func TestCoalesceEverythingFree(t *testing.T) {
	table, _ := newTableWithLayout(t, []layoutEntry{
		{size: 100, free: true},
		{size: 200, free: true},
		{size: 1700, free: true},
	})

	require.Equal(t, 2, table.Coalesce())
	require.Equal(t, 1, table.Len())
	require.Equal(t, 2000, table.At(0).Size())
	require.Equal(t, 0, table.Coalesce())
}

func TestTickReturnsEndedInAddressOrder(t *testing.T) {
	arena := process.NewArena(3)
	table := metadata.NewPartitionTable(1000)

	long := arena.Add(process.New(1, 0, 100, 3))
	short := arena.Add(process.New(2, 0, 100, 1))
	shorter := arena.Add(process.New(3, 0, 100, 1))

	table.Place(0, long, 100)
	table.Place(1, short, 100)
	table.Place(2, shorter, 100)

	ended := table.Tick(arena)
	require.Equal(t, []process.Handle{short, shorter}, ended)
	require.Equal(t, 1, table.AllocationCount())
	require.Equal(t, 3, table.FreeRegionsCount())
	require.Equal(t, 2, arena.MustGet(long).RemainingRuntime())
}

func TestVisitAllRegions(t *testing.T) {
	table, _ := newTableWithLayout(t, []layoutEntry{
		{size: 40, free: false},
		{size: 60, free: true},
	})

	type region struct {
		offset, size int
		free         bool
	}
	var regions []region
	err := table.VisitAllRegions(func(offset int, size int, occupant process.Handle, free bool) error {
		require.Equal(t, free, occupant == process.NoProcess)
		regions = append(regions, region{offset, size, free})
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []region{{0, 40, false}, {40, 60, true}}, regions)
}

func TestTableStatistics(t *testing.T) {
	table, _ := newTableWithLayout(t, []layoutEntry{
		{size: 100, free: false},
		{size: 300, free: true},
		{size: 200, free: false},
		{size: 400, free: true},
	})

	var stats memutils.DetailedStatistics
	stats.Clear()
	table.AddDetailedStatistics(&stats)

	require.Equal(t, memutils.DetailedStatistics{
		Statistics: memutils.Statistics{
			PartitionCount: 4,
			OccupiedCount:  2,
			TotalUnits:     1000,
			OccupiedUnits:  300,
		},
		HoleCount:       2,
		OccupiedSizeMin: 100,
		OccupiedSizeMax: 200,
		HoleSizeMin:     300,
		HoleSizeMax:     400,
	}, stats)

	var summary memutils.Statistics
	table.AddStatistics(&summary)
	require.Equal(t, stats.Statistics, summary)
	require.Equal(t, 400, table.LargestFreeSize())

	stats.Clear()
	metadata.NewPartitionTable(10).AddDetailedStatistics(&stats)
	require.Equal(t, math.MaxInt, stats.OccupiedSizeMin)
}

func TestBlockJsonData(t *testing.T) {
	table, _ := newTableWithLayout(t, []layoutEntry{
		{size: 100, free: false},
		{size: 300, free: true},
	})

	writer := jwriter.NewWriter()
	obj := writer.Object()
	table.BlockJsonData(obj)
	obj.End()

	require.NoError(t, writer.Error())
	require.JSONEq(t, `{"TotalUnits":400,"UnusedUnits":300,"LargestHole":300,"Allocations":1,"Holes":1}`, string(writer.Bytes()))
}
