package memory

import (
	"context"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/partsim/memutils"
	"github.com/vkngwrapper/partsim/memutils/metadata"
	"github.com/vkngwrapper/partsim/process"
	"github.com/vkngwrapper/partsim/trace"
	"golang.org/x/exp/slog"
)

const (
	// DefaultTotalMemory is the size of the simulated memory region when CreateOptions.TotalMemory
	// is left at 0
	DefaultTotalMemory int = 2000
)

// ErrInput marks failures to read the process input
var ErrInput = errors.New("process input could not be read")

// CreateOptions contains optional settings when creating a Memory
type CreateOptions struct {
	// TotalMemory is the number of units in the simulated memory region. DefaultTotalMemory is
	// used when this is 0.
	TotalMemory int

	// Trace receives one line per tick describing the partition layout. Leave nil to disable
	// tracing.
	Trace trace.Writer
}

// New creates a Memory whose backlog is read from the file at inputPath, one process per line
//
// logger - Receives diagnostic output. slog.Default() is used when nil.
//
// inputPath - Path to the process list
//
// options - Optional parameters: it is valid to leave all the fields blank
func New(logger *slog.Logger, inputPath string, options CreateOptions) (*Memory, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "failed to open process input %s", inputPath), ErrInput)
	}
	defer func() {
		_ = file.Close()
	}()

	return NewFromReader(logger, file, options)
}

// NewFromReader creates a Memory whose backlog is read from r, one process per line. Any
// malformed line fails construction.
func NewFromReader(logger *slog.Logger, r io.Reader, options CreateOptions) (*Memory, error) {
	if logger == nil {
		logger = slog.Default()
	}

	totalMemory := options.TotalMemory
	if totalMemory == 0 {
		totalMemory = DefaultTotalMemory
	}
	if err := memutils.CheckPositive(totalMemory, "CreateOptions.TotalMemory"); err != nil {
		return nil, err
	}

	processes, err := process.ParseAll(r)
	if err != nil {
		var parseErr *process.ParseError
		if errors.As(err, &parseErr) || errors.Is(err, process.ErrDuplicateID) {
			return nil, err
		}
		return nil, errors.Mark(err, ErrInput)
	}

	memory := &Memory{
		logger:    logger,
		trace:     options.Trace,
		processes: process.NewArena(len(processes)),
		backlog:   make([]process.Handle, 0, len(processes)),
		table:     metadata.NewPartitionTable(totalMemory),
	}

	for _, p := range processes {
		if p.MemoryRequired > totalMemory {
			logger.LogAttrs(context.Background(), slog.LevelWarn, "process can never be placed",
				slog.Int("process", p.ID),
				slog.Int("memoryRequired", p.MemoryRequired),
				slog.Int("totalMemory", totalMemory),
			)
		}

		memory.backlog = append(memory.backlog, memory.processes.Add(p))
	}

	logger.LogAttrs(context.Background(), slog.LevelDebug, "Memory::New",
		slog.Int("totalMemory", totalMemory),
		slog.Int("processes", len(processes)),
	)

	return memory, nil
}
