//go:build windows

// File: affinity/affinity_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows-specific implementation for setting thread CPU affinity.

package affinity

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

var procSetThreadAffinityMask = windows.NewLazySystemDLL("kernel32.dll").NewProc("SetThreadAffinityMask")

// setAffinityPlatform binds the calling thread to cpuID for Windows.
func setAffinityPlatform(cpuID int) (func(), error) {
	thread, _ := windows.GetCurrentThread()
	old, _, err := procSetThreadAffinityMask.Call(uintptr(thread), uintptr(1)<<cpuID)
	if old == 0 {
		return nil, errors.Wrapf(err, "affinity: SetThreadAffinityMask cpu %d", cpuID)
	}
	return func() { _, _, _ = procSetThreadAffinityMask.Call(uintptr(thread), old) }, nil
}
