//go:build darwin
// +build darwin

// File: shm/shm_darwin.go
// Author: momentics <momentics@gmail.com>

package shm

import "os"

func regionDir() string { return os.TempDir() }
