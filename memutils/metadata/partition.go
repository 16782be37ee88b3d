package metadata

import (
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/partsim/memutils"
	"github.com/vkngwrapper/partsim/process"
)

// Partition is a contiguous span of memory that is either a hole or holds exactly one process
type Partition struct {
	offset   int
	size     int
	occupant process.Handle
}

// NewFreePartition creates a hole of the provided size at the provided offset
func NewFreePartition(offset, size int) Partition {
	memutils.DebugCheckPositive(size, "size")

	return Partition{
		offset:   offset,
		size:     size,
		occupant: process.NoProcess,
	}
}

func (p Partition) Offset() int { return p.offset }

func (p Partition) Size() int { return p.size }

// End is the first address past this partition
func (p Partition) End() int { return p.offset + p.size }

// Occupant returns the handle of the resident process, or process.NoProcess for a hole
func (p Partition) Occupant() process.Handle { return p.occupant }

func (p Partition) IsFree() bool {
	return p.occupant == process.NoProcess
}

// Split places a process requiring the provided number of units at the start of this hole. The
// occupied partition keeps this partition's offset. A free remainder is produced only when the
// process does not consume the whole hole, so no zero-sized partitions are ever created.
//
// The caller must check fit first: splitting an occupied partition, or splitting with a requirement
// that is not positive or exceeds the partition size, panics.
func (p Partition) Split(occupant process.Handle, required int) (occupied Partition, remainder Partition, hasRemainder bool) {
	if !p.IsFree() {
		panic(errors.AssertionFailedf("attempted to split the occupied partition at offset %d", p.offset))
	}
	if occupant == process.NoProcess {
		panic(errors.AssertionFailedf("attempted to split the partition at offset %d without an occupant", p.offset))
	}
	if required < 1 || required > p.size {
		panic(errors.AssertionFailedf("attempted to place %d units into the partition at offset %d with size %d", required, p.offset, p.size))
	}

	occupied = Partition{
		offset:   p.offset,
		size:     required,
		occupant: occupant,
	}

	if required == p.size {
		return occupied, Partition{}, false
	}

	return occupied, NewFreePartition(p.offset+required, p.size-required), true
}

// Merge absorbs the hole immediately following this one. Both partitions must be free, and other
// must begin exactly where this partition ends.
func (p *Partition) Merge(other Partition) {
	if !p.IsFree() || !other.IsFree() {
		panic(errors.AssertionFailedf("attempted to merge the partitions at offsets %d and %d, but both must be free", p.offset, other.offset))
	}
	if p.End() != other.offset {
		panic(errors.AssertionFailedf("attempted to merge the partition at offset %d ending at %d with the non-adjacent partition at offset %d", p.offset, p.End(), other.offset))
	}

	p.size += other.size
}

// Tick ages the resident process by one step and frees the partition once that process has ended.
// It returns the handle of the process that left, or process.NoProcess.
func (p *Partition) Tick(processes *process.Arena) process.Handle {
	if p.IsFree() {
		return process.NoProcess
	}

	resident := processes.MustGet(p.occupant)
	resident.Tick()
	if !resident.HasEnded() {
		return process.NoProcess
	}

	ended := p.occupant
	p.occupant = process.NoProcess
	return ended
}

// Label is "Hole" for a free partition and the resident process's name otherwise
func (p Partition) Label(processes *process.Arena) string {
	if p.IsFree() {
		return "Hole"
	}
	return processes.MustGet(p.occupant).String()
}

// Format renders the partition as "[<offset> <label> <size>]"
func (p Partition) Format(processes *process.Arena) string {
	return FormatRegion(p.offset, p.Label(processes), p.size)
}

func FormatRegion(offset int, label string, size int) string {
	return "[" + strconv.Itoa(offset) + " " + label + " " + strconv.Itoa(size) + "]"
}
