package metadata

import (
	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/partsim/memutils"
	"github.com/vkngwrapper/partsim/process"
	"golang.org/x/exp/slices"
)

// PartitionTable is the address-ordered list of partitions covering a memory region. Partitions
// are contiguous, never overlap, and together span [0, Size()).
type PartitionTable struct {
	size       int
	partitions []Partition
}

var _ memutils.Validatable = &PartitionTable{}

func NewPartitionTable(size int) *PartitionTable {
	table := &PartitionTable{}
	table.Init(size)
	return table
}

// Init discards all partitions and resets the table to a single hole spanning the whole region
func (t *PartitionTable) Init(size int) {
	if size < 1 {
		panic(errors.AssertionFailedf("attempted to initialize a partition table with size %d", size))
	}

	t.size = size
	t.partitions = []Partition{NewFreePartition(0, size)}
}

// Size is the total number of units covered by the table
func (t *PartitionTable) Size() int { return t.size }

// Len is the current number of partitions
func (t *PartitionTable) Len() int { return len(t.partitions) }

func (t *PartitionTable) At(index int) Partition { return t.partitions[index] }

// Partitions returns a copy of the partition list in address order
func (t *PartitionTable) Partitions() []Partition {
	return slices.Clone(t.partitions)
}

// FindFree searches every hole able to hold required units and returns the index of the one the
// strategy prefers. Ties go to the lowest address. The boolean is false if no hole is large enough.
func (t *PartitionTable) FindFree(required int, strategy AllocationStrategy) (int, bool) {
	bestIndex := -1
	for index, partition := range t.partitions {
		if !partition.IsFree() || partition.size < required {
			continue
		}

		if bestIndex < 0 || strategy.Improves(partition.size, t.partitions[bestIndex].size) {
			bestIndex = index
		}
	}

	return bestIndex, bestIndex >= 0
}

// Place splits the hole at index for the provided process, replacing it in place with the occupied
// partition followed by the leftover hole, if any. Address order is preserved.
func (t *PartitionTable) Place(index int, occupant process.Handle, required int) Partition {
	occupied, remainder, hasRemainder := t.partitions[index].Split(occupant, required)

	t.partitions[index] = occupied
	if hasRemainder {
		t.partitions = slices.Insert(t.partitions, index+1, remainder)
	}

	memutils.DebugValidate(t)
	return occupied
}

// Tick ages every resident process and frees the partitions of processes that ended. The handles of
// the processes that left memory are returned in address order.
func (t *PartitionTable) Tick(processes *process.Arena) []process.Handle {
	var ended []process.Handle
	for index := range t.partitions {
		handle := t.partitions[index].Tick(processes)
		if handle != process.NoProcess {
			ended = append(ended, handle)
		}
	}

	return ended
}

// Coalesce collapses every run of adjacent holes into a single hole in one left-to-right pass and
// returns the number of merges performed
func (t *PartitionTable) Coalesce() int {
	merged := make([]Partition, 0, len(t.partitions))
	merges := 0

	for _, partition := range t.partitions {
		last := len(merged) - 1
		if last >= 0 && merged[last].IsFree() && partition.IsFree() {
			merged[last].Merge(partition)
			merges++
			continue
		}

		merged = append(merged, partition)
	}

	t.partitions = merged

	memutils.DebugValidate(t)
	return merges
}

// Validate checks the coverage invariant: partitions have positive sizes, start at 0, each begins
// where the previous one ended, and together they cover exactly Size() units
func (t *PartitionTable) Validate() error {
	if len(t.partitions) == 0 {
		return errors.New("the partition table has no partitions")
	}

	nextOffset := 0
	for index, partition := range t.partitions {
		if partition.size < 1 {
			return errors.Errorf("partition %d at offset %d has invalid size %d", index, partition.offset, partition.size)
		}

		if partition.offset != nextOffset {
			return errors.Errorf("partition %d has offset %d, but the previous partition ended at %d", index, partition.offset, nextOffset)
		}

		nextOffset = partition.End()
	}

	if nextOffset != t.size {
		return errors.Errorf("the table covers %d units, but the partitions only added up to %d", t.size, nextOffset)
	}

	return nil
}

// ValidateCoalesced checks that no two consecutive partitions are both holes
func (t *PartitionTable) ValidateCoalesced() error {
	for index := 1; index < len(t.partitions); index++ {
		if t.partitions[index-1].IsFree() && t.partitions[index].IsFree() {
			return errors.Errorf("holes at offsets %d and %d are adjacent but were not merged", t.partitions[index-1].offset, t.partitions[index].offset)
		}
	}

	return nil
}

// VisitAllRegions calls the provided callback once per partition, in address order, stopping at the
// first error
func (t *PartitionTable) VisitAllRegions(handleRegion func(offset int, size int, occupant process.Handle, free bool) error) error {
	for _, partition := range t.partitions {
		err := handleRegion(partition.offset, partition.size, partition.occupant, partition.IsFree())
		if err != nil {
			return err
		}
	}

	return nil
}

func (t *PartitionTable) AllocationCount() int {
	count := 0
	for _, partition := range t.partitions {
		if !partition.IsFree() {
			count++
		}
	}
	return count
}

func (t *PartitionTable) FreeRegionsCount() int {
	return len(t.partitions) - t.AllocationCount()
}

// SumFreeSize is the number of units not held by any process, regardless of fragmentation
func (t *PartitionTable) SumFreeSize() int {
	free := 0
	for _, partition := range t.partitions {
		if partition.IsFree() {
			free += partition.size
		}
	}
	return free
}

// LargestFreeSize is the size of the largest hole, or 0 if memory is full
func (t *PartitionTable) LargestFreeSize() int {
	largest := 0
	for _, partition := range t.partitions {
		if partition.IsFree() && partition.size > largest {
			largest = partition.size
		}
	}
	return largest
}

// IsEmpty returns true when no process is resident
func (t *PartitionTable) IsEmpty() bool {
	return t.AllocationCount() == 0
}

func (t *PartitionTable) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	for _, partition := range t.partitions {
		if partition.IsFree() {
			stats.AddHole(partition.size)
		} else {
			stats.AddOccupied(partition.size)
		}
	}
}

func (t *PartitionTable) AddStatistics(stats *memutils.Statistics) {
	stats.PartitionCount += len(t.partitions)
	stats.TotalUnits += t.size

	for _, partition := range t.partitions {
		if !partition.IsFree() {
			stats.OccupiedCount++
			stats.OccupiedUnits += partition.size
		}
	}
}

// BlockJsonData populates a json object with summary information about this table. The object
// is taken by value, so the caller must have written at least one field to it already.
func (t *PartitionTable) BlockJsonData(json jwriter.ObjectState) {
	json.Name("TotalUnits").Int(t.size)
	json.Name("UnusedUnits").Int(t.SumFreeSize())
	json.Name("LargestHole").Int(t.LargestFreeSize())
	json.Name("Allocations").Int(t.AllocationCount())
	json.Name("Holes").Int(t.FreeRegionsCount())
}
