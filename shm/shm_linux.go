//go:build linux
// +build linux

// File: shm/shm_linux.go
// Author: momentics <momentics@gmail.com>

package shm

import "os"

// regionDir prefers the tmpfs at /dev/shm.
func regionDir() string {
	if info, err := os.Stat("/dev/shm"); err == nil && info.IsDir() {
		return "/dev/shm"
	}
	return os.TempDir()
}
