package memory

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/partsim/memutils/metadata"
	"golang.org/x/exp/slog"
)

// ErrTickLimit is returned from RunToCompletion when the tick budget runs out while processes
// are still waiting
var ErrTickLimit = errors.New("tick limit reached with processes still waiting")

// RunToCompletion ticks until the backlog drains, then runs one closing tick so the trace records the
// fully released layout. It returns the number of ticks it ran.
//
// maxTicks bounds the number of ticks spent while processes are waiting; 0 means no bound. A process
// that can never fit keeps the backlog non-empty forever, so unbounded runs over such input do not
// return until ctx is cancelled. Cancellation is checked between ticks.
func (m *Memory) RunToCompletion(ctx context.Context, strategy metadata.AllocationStrategy, maxTicks int) (int, error) {
	ran := 0
	for {
		if err := ctx.Err(); err != nil {
			return ran, err
		}

		drained := !m.HasProcessesWaiting()
		if !drained && maxTicks > 0 && ran >= maxTicks {
			m.logger.LogAttrs(ctx, slog.LevelWarn, "stopping with processes still waiting",
				slog.Int("tick", m.tick),
				slog.Int("waiting", len(m.backlog)),
			)
			return ran, errors.Wrapf(ErrTickLimit, "%d processes waiting after %d ticks", len(m.backlog), ran)
		}

		m.Tick(strategy)
		ran++

		if drained {
			return ran, nil
		}
	}
}
