package metadata

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// AllocationStrategy chooses which free partition receives a process when more than one
// is large enough to hold it.
type AllocationStrategy uint32

const (
	// AllocationStrategyBestFit selects the smallest free partition that can hold the process,
	// leaving the large holes intact for later arrivals
	AllocationStrategyBestFit AllocationStrategy = iota
	// AllocationStrategyWorstFit selects the largest free partition, so that the remainder left
	// behind after the split is as large as possible
	AllocationStrategyWorstFit
)

var allocationStrategyMapping = map[AllocationStrategy]string{
	AllocationStrategyBestFit:  "BestFit",
	AllocationStrategyWorstFit: "WorstFit",
}

func (s AllocationStrategy) String() string {
	return allocationStrategyMapping[s]
}

// ParseAllocationStrategy accepts "best", "best-fit", "bestfit" (and the worst equivalents) in any case
func ParseAllocationStrategy(name string) (AllocationStrategy, error) {
	normalized := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(name))

	switch normalized {
	case "best", "bestfit":
		return AllocationStrategyBestFit, nil
	case "worst", "worstfit":
		return AllocationStrategyWorstFit, nil
	}

	return 0, errors.Newf("unknown allocation strategy %q", name)
}

// Improves returns true if a candidate partition of size candidateSize should replace the current
// best candidate of size bestSize. Only strict improvements replace, so on ties the candidate found
// first, which is the lowest address, wins.
func (s AllocationStrategy) Improves(candidateSize, bestSize int) bool {
	switch s {
	case AllocationStrategyBestFit:
		return candidateSize < bestSize
	case AllocationStrategyWorstFit:
		return candidateSize > bestSize
	default:
		panic(errors.AssertionFailedf("unknown allocation strategy: %d", uint32(s)))
	}
}
