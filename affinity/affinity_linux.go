//go:build linux

// File: affinity/affinity_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux-specific implementation for setting thread CPU affinity.

package affinity

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// setAffinityPlatform binds the calling thread to cpuID for Linux.
func setAffinityPlatform(cpuID int) (func(), error) {
	var old, set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &old); err != nil {
		return nil, errors.Wrap(err, "affinity: sched_getaffinity")
	}
	set.Set(cpuID)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return nil, errors.Wrapf(err, "affinity: sched_setaffinity cpu %d", cpuID)
	}
	return func() { _ = unix.SchedSetaffinity(0, &old) }, nil
}

// current returns the CPUs the calling thread may run on.
func current() ([]int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, err
	}
	var cpus []int
	for i := 0; i < len(set)*64; i++ {
		if set.IsSet(i) {
			cpus = append(cpus, i)
		}
	}
	return cpus, nil
}
