// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package shm maps named shared memory regions and provides a named
// cross-process mutex with a bounded wait.
//
// Backends are selected by build tags: POSIX file mappings with flock-based
// last-closer cleanup on linux and darwin, and paging-file backed mappings
// with kernel mutexes on windows. Linux mutexes are futexes living in a
// small companion region.
package shm
