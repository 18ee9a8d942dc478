package pool_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/momentics/melcomm/pool"
)

func TestBytePoolReuse(t *testing.T) {
	bp := pool.NewBytePool(128)
	b1 := bp.GetBuffer()
	assert.Len(t, *b1, 128)
	*b1 = (*b1)[:3]
	bp.PutBuffer(b1)

	b2 := bp.GetBuffer()
	assert.Len(t, *b2, 128, "length restored on reuse")
}

func TestBytePoolDropsSmallBuffers(t *testing.T) {
	bp := pool.NewBytePool(64)
	small := make([]byte, 8)
	bp.PutBuffer(&small)
	bp.PutBuffer(nil)
	assert.Len(t, *bp.GetBuffer(), 64)
}

func TestSharedPools(t *testing.T) {
	assert.Equal(t, pool.DatagramBufferSize, pool.Datagrams().Size())
	assert.Equal(t, pool.StreamChunkSize, pool.Chunks().Size())
}

// BenchmarkBytePoolParallel tests buffer checkout under contention.
func BenchmarkBytePoolParallel(b *testing.B) {
	bp := pool.NewBytePool(4096)
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			buf := bp.GetBuffer()
			bp.PutBuffer(buf)
		}
	})
}

func TestPacketPoolClears(t *testing.T) {
	p := pool.GetPacket()
	p.AppendString("leftover")
	pool.PutPacket(p)

	q := pool.GetPacket()
	assert.Zero(t, q.Size())
	assert.True(t, q.IsValid())
	pool.PutPacket(nil)
}

func TestSyncPoolReset(t *testing.T) {
	resets := 0
	sp := pool.NewSyncPool(func() *int { return new(int) }).WithReset(func(v *int) {
		*v = 0
		resets++
	})
	v := sp.Get()
	*v = 7
	sp.Put(v)
	assert.Equal(t, 1, resets)
	assert.Zero(t, *v)
}
