// File: pool/bytepool.go
// Author: momentics <momentics@gmail.com>

package pool

// Sizes used by the socket layer.
const (
	DatagramBufferSize = 65536
	StreamChunkSize    = 64 * 1024
)

// BytePool hands out fixed-size byte slices.
type BytePool struct {
	pool *SyncPool[*[]byte]
	size int
}

// NewBytePool returns a pool of size-byte buffers.
func NewBytePool(size int) *BytePool {
	return &BytePool{
		pool: NewSyncPool(func() *[]byte {
			b := make([]byte, size)
			return &b
		}),
		size: size,
	}
}

// Size returns the length of every buffer handed out.
func (b *BytePool) Size() int { return b.size }

// GetBuffer returns a buffer of Size bytes.
func (b *BytePool) GetBuffer() *[]byte {
	buf := b.pool.Get()
	*buf = (*buf)[:b.size]
	return buf
}

// PutBuffer returns a buffer to the pool. Foreign-sized buffers are dropped.
func (b *BytePool) PutBuffer(buf *[]byte) {
	if buf == nil || cap(*buf) < b.size {
		return
	}
	b.pool.Put(buf)
}

var (
	datagrams = NewBytePool(DatagramBufferSize)
	chunks    = NewBytePool(StreamChunkSize)
)

// Datagrams is the shared pool of UDP receive buffers.
func Datagrams() *BytePool { return datagrams }

// Chunks is the shared pool of TCP receive chunks.
func Chunks() *BytePool { return chunks }
