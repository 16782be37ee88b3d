package memutils

import "math"

// Statistics is a coarse summary of a partition table: how many partitions exist, how many
// of them hold a process, and how many memory units are covered and occupied.
type Statistics struct {
	PartitionCount int
	OccupiedCount  int
	TotalUnits     int
	OccupiedUnits  int
}

func (s *Statistics) Clear() {
	s.PartitionCount = 0
	s.OccupiedCount = 0
	s.TotalUnits = 0
	s.OccupiedUnits = 0
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.PartitionCount += other.PartitionCount
	s.OccupiedCount += other.OccupiedCount
	s.TotalUnits += other.TotalUnits
	s.OccupiedUnits += other.OccupiedUnits
}

// FreeUnits is the number of units not held by any process
func (s *Statistics) FreeUnits() int {
	return s.TotalUnits - s.OccupiedUnits
}

type DetailedStatistics struct {
	Statistics
	HoleCount       int
	OccupiedSizeMin int
	OccupiedSizeMax int
	HoleSizeMin     int
	HoleSizeMax     int
}

func (s *DetailedStatistics) Clear() {
	s.Statistics.Clear()
	s.HoleCount = 0
	s.OccupiedSizeMin = math.MaxInt
	s.OccupiedSizeMax = 0
	s.HoleSizeMin = math.MaxInt
	s.HoleSizeMax = 0
}

func (s *DetailedStatistics) AddHole(size int) {
	s.PartitionCount++
	s.TotalUnits += size
	s.HoleCount++

	if size < s.HoleSizeMin {
		s.HoleSizeMin = size
	}

	if size > s.HoleSizeMax {
		s.HoleSizeMax = size
	}
}

func (s *DetailedStatistics) AddOccupied(size int) {
	s.PartitionCount++
	s.TotalUnits += size
	s.OccupiedCount++
	s.OccupiedUnits += size

	if size < s.OccupiedSizeMin {
		s.OccupiedSizeMin = size
	}

	if size > s.OccupiedSizeMax {
		s.OccupiedSizeMax = size
	}
}

func (s *DetailedStatistics) AddDetailedStatistics(other *DetailedStatistics) {
	s.Statistics.AddStatistics(&other.Statistics)
	s.HoleCount += other.HoleCount

	if other.HoleSizeMin < s.HoleSizeMin {
		s.HoleSizeMin = other.HoleSizeMin
	}

	if other.HoleSizeMax > s.HoleSizeMax {
		s.HoleSizeMax = other.HoleSizeMax
	}

	if other.OccupiedSizeMin < s.OccupiedSizeMin {
		s.OccupiedSizeMin = other.OccupiedSizeMin
	}

	if other.OccupiedSizeMax > s.OccupiedSizeMax {
		s.OccupiedSizeMax = other.OccupiedSizeMax
	}
}

// ExternalFragmentation returns 1 - (largest hole / free units). It is 0 when all free memory
// sits in a single hole or when there is no free memory at all.
func (s *DetailedStatistics) ExternalFragmentation() float64 {
	free := s.FreeUnits()
	if free <= 0 || s.HoleCount == 0 {
		return 0
	}

	return 1 - float64(s.HoleSizeMax)/float64(free)
}
