package memory

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/partsim/memutils"
	"github.com/vkngwrapper/partsim/memutils/metadata"
	"github.com/vkngwrapper/partsim/process"
	"github.com/vkngwrapper/partsim/trace"
	"golang.org/x/exp/slog"
)

// Region is a read-only view of one partition, safe to hand to renderers
type Region struct {
	Offset int
	Size   int
	Free   bool
	// Label is "Hole" for free regions and the resident process name, such as "P3", otherwise
	Label string
}

func (r Region) String() string {
	return metadata.FormatRegion(r.Offset, r.Label, r.Size)
}

// Counters accumulate over the lifetime of a Memory
type Counters struct {
	Placements    int
	Completions   int
	Merges        int
	TraceFailures int
}

// Memory simulates dynamic partitioning of a fixed memory region. It owns the backlog of processes
// that have not yet finished and the partition table, and advances both one Tick at a time.
//
// Memory is not safe for concurrent use; the caller sequences ticks.
type Memory struct {
	logger *slog.Logger
	trace  trace.Writer

	processes *process.Arena
	backlog   []process.Handle
	table     *metadata.PartitionTable

	tick     int
	counters Counters
}

var _ memutils.Validatable = &Memory{}

// Tick advances the simulation by one step:
//
// 1. Every waiting process that has arrived is offered, in backlog order, the hole the strategy
// prefers among those large enough to hold it. Each placement splits that hole before the next
// process is considered. Processes that do not fit keep waiting.
//
// 2. Every resident process ages by one step, and partitions of processes that ended are freed.
//
// 3. Ended processes leave the backlog.
//
// 4. Runs of adjacent holes are merged.
//
// 5. The tick counter advances and a trace line describing the layout resident during this
// tick is appended. A trace failure is logged and does not undo the step.
func (m *Memory) Tick(strategy metadata.AllocationStrategy) {
	m.assignProcesses(strategy)
	resident := m.Partitions()

	ended := m.table.Tick(m.processes)
	m.pruneBacklog(ended)
	m.counters.Merges += m.table.Coalesce()

	m.tick++
	memutils.DebugValidate(m)

	m.writeTrace(resident)
}

func (m *Memory) assignProcesses(strategy metadata.AllocationStrategy) {
	for _, handle := range m.backlog {
		p := m.processes.MustGet(handle)
		if !p.IsEligible(m.tick) {
			continue
		}

		index, found := m.table.FindFree(p.MemoryRequired, strategy)
		if !found {
			continue
		}

		occupied := m.table.Place(index, handle, p.MemoryRequired)
		p.MarkAssigned()
		m.counters.Placements++

		m.logger.LogAttrs(context.Background(), slog.LevelDebug, "placed process",
			slog.Int("tick", m.tick),
			slog.Int("process", p.ID),
			slog.Int("offset", occupied.Offset()),
			slog.Int("size", occupied.Size()),
			slog.String("strategy", strategy.String()),
		)
	}
}

func (m *Memory) pruneBacklog(ended []process.Handle) {
	for _, handle := range ended {
		p := m.processes.MustGet(handle)
		m.counters.Completions++

		m.logger.LogAttrs(context.Background(), slog.LevelDebug, "process ended",
			slog.Int("tick", m.tick),
			slog.Int("process", p.ID),
		)
	}

	kept := m.backlog[:0]
	for _, handle := range m.backlog {
		p := m.processes.MustGet(handle)
		if p.Assigned() && p.HasEnded() {
			m.processes.Release(handle)
			continue
		}

		kept = append(kept, handle)
	}

	m.backlog = kept
}

func (m *Memory) writeTrace(regions []Region) {
	if m.trace == nil {
		return
	}

	stringers := make([]fmt.Stringer, 0, len(regions))
	for _, region := range regions {
		stringers = append(stringers, region)
	}

	err := m.trace.WriteLine(trace.FormatLine(m.tick, stringers))
	if err != nil {
		m.counters.TraceFailures++
		m.logger.LogAttrs(context.Background(), slog.LevelError, "failed to write trace line",
			slog.Int("tick", m.tick),
			slog.Any("error", err),
		)
	}
}

// HasProcessesWaiting returns true while any process has not yet finished
func (m *Memory) HasProcessesWaiting() bool {
	return len(m.backlog) > 0
}

// Partitions returns a snapshot of the partition table in address order
func (m *Memory) Partitions() []Region {
	regions := make([]Region, 0, m.table.Len())
	_ = m.table.VisitAllRegions(func(offset int, size int, occupant process.Handle, free bool) error {
		label := "Hole"
		if !free {
			label = m.processes.MustGet(occupant).String()
		}

		regions = append(regions, Region{
			Offset: offset,
			Size:   size,
			Free:   free,
			Label:  label,
		})
		return nil
	})

	return regions
}

// Backlog returns copies of the unfinished processes in input order
func (m *Memory) Backlog() []process.Process {
	backlog := make([]process.Process, 0, len(m.backlog))
	for _, handle := range m.backlog {
		backlog = append(backlog, *m.processes.MustGet(handle))
	}
	return backlog
}

// TickCount is the number of ticks completed so far
func (m *Memory) TickCount() int { return m.tick }

func (m *Memory) TotalMemory() int { return m.table.Size() }

func (m *Memory) Counters() Counters { return m.counters }

func (m *Memory) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	m.table.AddDetailedStatistics(stats)
}

func (m *Memory) AddStatistics(stats *memutils.Statistics) {
	m.table.AddStatistics(stats)
}

// Validate checks that the partition table covers memory without gaps or adjacent holes, and that
// the table and backlog agree about which processes are resident
func (m *Memory) Validate() error {
	err := m.table.Validate()
	if err != nil {
		return err
	}

	err = m.table.ValidateCoalesced()
	if err != nil {
		return err
	}

	if m.processes.Len() != len(m.backlog) {
		return errors.Errorf("the backlog holds %d processes, but %d are live", len(m.backlog), m.processes.Len())
	}

	resident := make(map[process.Handle]struct{})
	err = m.table.VisitAllRegions(func(offset int, size int, occupant process.Handle, free bool) error {
		if free {
			return nil
		}

		p, err := m.processes.Get(occupant)
		if err != nil {
			return errors.Wrapf(err, "partition at offset %d", offset)
		}
		if !p.Assigned() || p.HasEnded() {
			return errors.Errorf("partition at offset %d holds %s, which is not a running process", offset, p)
		}
		if p.MemoryRequired != size {
			return errors.Errorf("partition at offset %d has size %d, but %s requires %d", offset, size, p, p.MemoryRequired)
		}

		resident[occupant] = struct{}{}
		return nil
	})
	if err != nil {
		return err
	}

	for _, handle := range m.backlog {
		p, err := m.processes.Get(handle)
		if err != nil {
			return err
		}

		_, isResident := resident[handle]
		if p.Assigned() != isResident {
			return errors.Errorf("%s has assigned=%t, but resident=%t", p, p.Assigned(), isResident)
		}
		if p.Assigned() && p.ArrivalTime >= m.tick {
			return errors.Errorf("%s was placed before its arrival time %d", p, p.ArrivalTime)
		}
	}

	return nil
}
