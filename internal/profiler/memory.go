package profiler

import (
	"fmt"
	"runtime"
)

// AllocationTracker measures heap allocation across a single operation:
// cumulative bytes and objects allocated, objects freed, and live-heap
// growth. It forces a GC on both ends so HeapGrowth reflects live allocation
// rather than garbage the collector hasn't reclaimed yet; AllocatedBytes and
// AllocatedObjects count every allocation, garbage included.
type AllocationTracker struct {
	name       string
	startStats runtime.MemStats
}

// NewAllocationTracker starts tracking allocations for a named operation.
func NewAllocationTracker(name string) *AllocationTracker {
	t := &AllocationTracker{name: name}
	runtime.GC()
	runtime.ReadMemStats(&t.startStats)
	return t
}

// Stop ends tracking and returns the allocation delta since NewAllocationTracker.
func (t *AllocationTracker) Stop() AllocationStats {
	runtime.GC()
	var end runtime.MemStats
	runtime.ReadMemStats(&end)

	return AllocationStats{
		Name:             t.name,
		AllocatedBytes:   end.TotalAlloc - t.startStats.TotalAlloc,
		AllocatedObjects: end.Mallocs - t.startStats.Mallocs,
		FreedObjects:     end.Frees - t.startStats.Frees,
		NetObjects:       (end.Mallocs - t.startStats.Mallocs) - (end.Frees - t.startStats.Frees),
		HeapGrowth:       int64(end.HeapAlloc) - int64(t.startStats.HeapAlloc),
		GCCycles:         end.NumGC - t.startStats.NumGC,
	}
}

// AllocationStats holds the allocation delta an AllocationTracker observed.
type AllocationStats struct {
	Name             string
	AllocatedBytes   uint64
	AllocatedObjects uint64
	FreedObjects     uint64
	NetObjects       uint64
	HeapGrowth       int64
	GCCycles         uint32
}

func (s AllocationStats) String() string {
	return fmt.Sprintf(
		"%s: %d bytes allocated (%d objects, %d freed, %d net), heap growth %d, %d GC cycles",
		s.Name, s.AllocatedBytes, s.AllocatedObjects, s.FreedObjects, s.NetObjects, s.HeapGrowth, s.GCCycles,
	)
}
