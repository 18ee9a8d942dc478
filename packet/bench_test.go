// File: packet/bench_test.go
// Author: momentics <momentics@gmail.com>

package packet_test

import (
	"testing"

	"github.com/momentics/melcomm/packet"
)

// BenchmarkAppendExtract tests a reused packet carrying a small record.
func BenchmarkAppendExtract(b *testing.B) {
	p := packet.New(128)
	vals := []float64{1, 2, 3, 4, 5, 6, 7, 8}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Clear()
		p.AppendString("sample")
		p.AppendUint32(uint32(i))
		p.AppendFloat64s(vals)
		_ = p.ExtractString()
		_ = p.ExtractUint32()
		_ = p.ExtractFloat64s()
		if !p.IsValid() {
			b.Fatal("invalid packet")
		}
	}
}
