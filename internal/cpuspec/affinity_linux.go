//go:build linux

package cpuspec

import (
	"golang.org/x/sys/unix"

	"github.com/ambiosense/soundmeter/internal/slerrors"
)

// PinToCore requests that the calling OS thread be scheduled only on the
// given logical CPU. The caller must already hold runtime.LockOSThread,
// since affinity is a thread property, not a goroutine one.
func PinToCore(core int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(core)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return slerrors.Newf("sched_setaffinity core %d: %w", core, err).
			Component("cpuspec").
			Category(slerrors.CategoryResource).
			Build()
	}
	return nil
}
