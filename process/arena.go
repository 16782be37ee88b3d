package process

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
)

// Handle is a stable numeric identity for a process stored in an Arena. The backlog and the
// partition that holds a process both refer to it through the same Handle, so a runtime
// decrement made through one is observed by the other.
type Handle uint64

const (
	NoProcess Handle = math.MaxUint64
)

// Arena owns every live Process in a simulation
type Arena struct {
	nextHandle Handle
	processes  *swiss.Map[Handle, *Process]
}

func NewArena(capacity int) *Arena {
	if capacity < 1 {
		capacity = 1
	}
	return &Arena{
		processes: swiss.NewMap[Handle, *Process](uint32(capacity)),
	}
}

// Add stores a copy of the provided process and returns the handle that now identifies it
func (a *Arena) Add(p Process) Handle {
	handle := a.nextHandle
	a.nextHandle++

	stored := p
	a.processes.Put(handle, &stored)
	return handle
}

func (a *Arena) Get(handle Handle) (*Process, error) {
	p, ok := a.processes.Get(handle)
	if !ok {
		return nil, errors.Newf("received handle %d that does not map to a live process", handle)
	}
	return p, nil
}

// MustGet is Get for handles the caller knows to be live. An unknown handle means the
// simulation state is corrupt, so it panics.
func (a *Arena) MustGet(handle Handle) *Process {
	p, err := a.Get(handle)
	if err != nil {
		panic(err)
	}
	return p
}

// Release drops a process from the arena. Its handle is never reissued.
func (a *Arena) Release(handle Handle) bool {
	return a.processes.Delete(handle)
}

func (a *Arena) Len() int {
	return a.processes.Count()
}
