package memory

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/partsim/memutils"
	"github.com/vkngwrapper/partsim/process"
)

// PrintDetailedMap writes a JSON object describing the current tick, the partition table, and
// the backlog
func (m *Memory) PrintDetailedMap(writer *jwriter.Writer) {
	objState := writer.Object()
	defer objState.End()

	objState.Name("Tick").Int(m.tick)
	objState.Name("Waiting").Int(len(m.backlog))

	var stats memutils.DetailedStatistics
	stats.Clear()
	m.table.AddDetailedStatistics(&stats)

	tableObj := objState.Name("Table").Object()
	tableObj.Name("ExternalFragmentation").Float64(stats.ExternalFragmentation())
	m.table.BlockJsonData(tableObj)
	tableObj.End()

	countersObj := objState.Name("Counters").Object()
	countersObj.Name("Placements").Int(m.counters.Placements)
	countersObj.Name("Completions").Int(m.counters.Completions)
	countersObj.Name("Merges").Int(m.counters.Merges)
	countersObj.Name("TraceFailures").Int(m.counters.TraceFailures)
	countersObj.End()

	m.printPartitions(objState)
	m.printBacklog(objState)
}

func (m *Memory) printPartitions(json jwriter.ObjectState) {
	arrayState := json.Name("Partitions").Array()
	defer arrayState.End()

	_ = m.table.VisitAllRegions(func(offset int, size int, occupant process.Handle, free bool) error {
		obj := arrayState.Object()
		defer obj.End()

		obj.Name("Offset").Int(offset)
		obj.Name("Size").Int(size)
		if free {
			obj.Name("Type").String("Hole")
			return nil
		}

		p := m.processes.MustGet(occupant)
		obj.Name("Type").String("Process")
		obj.Name("Process").Int(p.ID)
		obj.Name("RemainingRuntime").Int(p.RemainingRuntime())
		return nil
	})
}

func (m *Memory) printBacklog(json jwriter.ObjectState) {
	arrayState := json.Name("Backlog").Array()
	defer arrayState.End()

	for _, handle := range m.backlog {
		p := m.processes.MustGet(handle)

		obj := arrayState.Object()
		obj.Name("ID").Int(p.ID)
		obj.Name("ArrivalTime").Int(p.ArrivalTime)
		obj.Name("MemoryRequired").Int(p.MemoryRequired)
		obj.Name("RemainingRuntime").Int(p.RemainingRuntime())
		obj.Name("Assigned").Bool(p.Assigned())
		obj.End()
	}
}
