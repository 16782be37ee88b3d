package process

import (
	"strconv"

	"github.com/cockroachdb/errors"
)

// Process is a single unit of memory demand. It becomes eligible for placement once the simulation
// clock reaches ArrivalTime, holds MemoryRequired units while it is resident, and leaves memory once
// its remaining runtime reaches zero.
type Process struct {
	ID             int
	ArrivalTime    int
	MemoryRequired int

	remainingRuntime int
	assigned         bool
}

// New builds a process that has not yet been placed
func New(id, arrivalTime, memoryRequired, runtime int) Process {
	return Process{
		ID:               id,
		ArrivalTime:      arrivalTime,
		MemoryRequired:   memoryRequired,
		remainingRuntime: runtime,
	}
}

// Tick ages the process by one step. The remaining runtime never drops below zero.
func (p *Process) Tick() {
	if p.remainingRuntime > 0 {
		p.remainingRuntime--
	}
}

func (p *Process) HasEnded() bool {
	return p.remainingRuntime == 0
}

// MarkAssigned records that the process has been placed into a partition. Placement happens
// exactly once over the lifetime of a process.
func (p *Process) MarkAssigned() {
	if p.assigned {
		panic(errors.AssertionFailedf("attempting to assign %s, which has already been placed", p))
	}
	p.assigned = true
}

func (p *Process) Assigned() bool {
	return p.assigned
}

func (p *Process) RemainingRuntime() int {
	return p.remainingRuntime
}

// IsEligible returns true if the process has arrived by the provided tick and is still waiting to
// be placed
func (p *Process) IsEligible(tick int) bool {
	return !p.assigned && p.ArrivalTime <= tick
}

func (p Process) String() string {
	return "P" + strconv.Itoa(p.ID)
}
