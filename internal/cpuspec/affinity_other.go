//go:build !linux

package cpuspec

import "github.com/ambiosense/soundmeter/internal/slerrors"

// PinToCore is unsupported outside Linux. Callers are expected to log and
// continue unpinned rather than fail startup over it.
func PinToCore(core int) error {
	return slerrors.Newf("cpu affinity pinning is not supported on this platform").
		Component("cpuspec").
		Category(slerrors.CategoryResource).
		Build()
}
