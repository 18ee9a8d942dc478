//go:build !linux && !windows

// File: affinity/affinity_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package affinity

import "github.com/momentics/melcomm/api"

func setAffinityPlatform(int) (func(), error) {
	return nil, api.ErrNotSupported
}
