package provisioning

import "runtime"

// MemoryGauge reports free memory for admission control.
// The portal refuses scans and credential submissions when free memory is
// below the configured floor.
type MemoryGauge interface {
	// FreeBytes returns the currently available memory in bytes.
	FreeBytes() uint64
}

// RuntimeGauge is a MemoryGauge backed by runtime memory statistics.
// Budget is the total heap the process is allowed; free memory is the
// budget minus the current heap allocation.
type RuntimeGauge struct {
	// Budget is the total heap budget in bytes.
	Budget uint64
}

// FreeBytes returns the remaining heap budget.
func (g RuntimeGauge) FreeBytes() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	if ms.HeapAlloc >= g.Budget {
		return 0
	}
	return g.Budget - ms.HeapAlloc
}

// Compile-time interface satisfaction check.
var _ MemoryGauge = RuntimeGauge{}
