// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral API for CPU affinity. Platform-specific implementations are located
// in separate files (affinity_linux.go, affinity_windows.go, etc.) guarded by build tags.

package affinity

import (
	"runtime"

	"github.com/pkg/errors"

	"github.com/momentics/melcomm/api"
)

// Pin locks the calling goroutine to its OS thread and binds that thread to
// the logical CPU cpuID. The returned function restores the previous
// binding and unlocks the thread; it must run on the same goroutine.
func Pin(cpuID int) (func(), error) {
	if cpuID < 0 {
		return nil, errors.Wrapf(api.ErrInvalidArgument, "affinity: cpu %d", cpuID)
	}
	runtime.LockOSThread()
	restore, err := setAffinityPlatform(cpuID)
	if err != nil {
		runtime.UnlockOSThread()
		return nil, err
	}
	return func() {
		restore()
		runtime.UnlockOSThread()
	}, nil
}
