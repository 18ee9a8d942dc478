// control/probes.go
// Author: momentics <momentics@gmail.com>
//
// Platform and network debug probes.

package control

import (
	"os"
	"runtime"

	"github.com/momentics/melcomm/network"
)

// RegisterPlatformProbes registers host facts useful when two endpoints
// disagree about where they run.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.os", func() any { return runtime.GOOS + "/" + runtime.GOARCH })
	dp.RegisterProbe("platform.cpus", func() any { return runtime.NumCPU() })
	dp.RegisterProbe("platform.pid", func() any { return os.Getpid() })
	dp.RegisterProbe("net.local_address", func() any { return network.LocalAddress().String() })
}

// RegisterMetricsProbe exposes a registry snapshot under name.
func RegisterMetricsProbe(dp *DebugProbes, name string, mr *MetricsRegistry) {
	dp.RegisterProbe(name, func() any { return mr.GetSnapshot() })
}
