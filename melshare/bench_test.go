//go:build linux || darwin

// File: melshare/bench_test.go
// Author: momentics <momentics@gmail.com>

package melshare

import (
	"testing"

	"github.com/momentics/melcomm/api"
)

// BenchmarkWriteRead measures one locked write plus one locked read of a
// typical control-loop sample.
func BenchmarkWriteRead(b *testing.B) {
	ms, err := New(shareName(b, "bench"), api.OpenOrCreate)
	if err != nil {
		b.Fatal(err)
	}
	defer ms.Close()
	vals := make([]float64, 32)
	dst := make([]float64, 0, 32)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		vals[0] = float64(i)
		if err := ms.Write(vals); err != nil {
			b.Fatal(err)
		}
		if dst, err = ms.ReadInto(dst[:0]); err != nil {
			b.Fatal(err)
		}
	}
}
