// Package cpuspec detects host CPU topology, adapted from the teacher's own
// CPU-brand/performance-core detection: instead of sizing a worker thread
// pool, it recommends a single logical CPU to pin the sound level meter's
// worker goroutine to.
package cpuspec

import (
	"runtime"

	"github.com/klauspost/cpuid/v2"
)

// Spec describes the host CPU as far as this package can determine from
// brand strings and logical CPU count alone.
type Spec struct {
	BrandName        string
	PerformanceCores int
}

// Detect inspects the host CPU via cpuid.
func Detect() Spec {
	return Spec{
		BrandName:        cpuid.CPU.BrandName,
		PerformanceCores: performanceCores(),
	}
}

// performanceCores estimates how many logical CPUs are performance (as
// opposed to efficiency) cores. Without the teacher's full per-model lookup
// table this is a portable approximation: heterogeneous (big.LITTLE-style)
// hosts commonly dedicate roughly half their logical CPUs to performance
// cores.
func performanceCores() int {
	n := runtime.NumCPU()
	if n <= 2 || cpuid.CPU.BrandName == "" {
		return n
	}
	return n / 2
}

// RecommendedWorkerCore returns the logical CPU index the pinned worker
// goroutine should request affinity for. It picks the last performance
// core on the theory that logical CPU 0 usually services interrupts and
// other background OS work.
func RecommendedWorkerCore() int {
	n := runtime.NumCPU()
	if n <= 1 {
		return 0
	}
	p := performanceCores()
	if p <= 0 || p > n {
		p = n
	}
	return p - 1
}
