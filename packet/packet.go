// File: packet/packet.go
// Author: momentics <momentics@gmail.com>
//
// Growable byte buffer with typed append/extract in network byte order.

package packet

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// ErrUnderrun is reported by Err once an extraction ran past the end.
var ErrUnderrun = errors.New("packet: extraction past end of data")

// Packet is an ordered, typed byte buffer with a read cursor.
//
// Appends always succeed. An extraction that would run past the end marks
// the packet invalid; from then on every extraction returns the zero value
// and leaves the cursor where it is. The zero value is an empty, valid
// packet.
type Packet struct {
	data    []byte
	readPos int
	invalid bool
}

// New returns an empty packet with room for capacity bytes.
func New(capacity int) *Packet {
	return &Packet{data: make([]byte, 0, capacity)}
}

// FromBytes returns a packet holding a copy of b.
func FromBytes(b []byte) *Packet {
	p := &Packet{}
	p.Reset(b)
	return p
}

// Clear empties the packet and keeps its storage for reuse.
func (p *Packet) Clear() {
	p.data = p.data[:0]
	p.readPos = 0
	p.invalid = false
}

// Reset replaces the contents with a copy of b and rewinds the cursor.
func (p *Packet) Reset(b []byte) {
	p.Clear()
	p.data = append(p.data, b...)
}

// Data returns the packet contents. The slice aliases internal storage and
// is valid until the next mutation.
func (p *Packet) Data() []byte { return p.data }

// Size returns the number of bytes in the packet.
func (p *Packet) Size() int { return len(p.data) }

// Remaining returns the number of bytes after the read cursor.
func (p *Packet) Remaining() int { return len(p.data) - p.readPos }

// EndOfPacket reports whether the cursor reached the end of the data.
func (p *Packet) EndOfPacket() bool { return p.readPos >= len(p.data) }

// IsValid reports whether every extraction so far succeeded.
func (p *Packet) IsValid() bool { return !p.invalid }

// Err returns ErrUnderrun when the packet is invalid.
func (p *Packet) Err() error {
	if p.invalid {
		return ErrUnderrun
	}
	return nil
}

// take reserves n bytes at the cursor, or marks the packet invalid.
func (p *Packet) take(n int) ([]byte, bool) {
	if p.invalid || n < 0 || p.readPos+n > len(p.data) {
		p.invalid = true
		return nil, false
	}
	b := p.data[p.readPos : p.readPos+n]
	p.readPos += n
	return b, true
}

func (p *Packet) AppendBool(v bool) {
	if v {
		p.AppendUint8(1)
		return
	}
	p.AppendUint8(0)
}

func (p *Packet) AppendInt8(v int8)   { p.data = append(p.data, byte(v)) }
func (p *Packet) AppendUint8(v uint8) { p.data = append(p.data, v) }

func (p *Packet) AppendInt16(v int16) { p.AppendUint16(uint16(v)) }
func (p *Packet) AppendUint16(v uint16) {
	p.data = binary.BigEndian.AppendUint16(p.data, v)
}

func (p *Packet) AppendInt32(v int32) { p.AppendUint32(uint32(v)) }
func (p *Packet) AppendUint32(v uint32) {
	p.data = binary.BigEndian.AppendUint32(p.data, v)
}

func (p *Packet) AppendInt64(v int64) { p.AppendUint64(uint64(v)) }
func (p *Packet) AppendUint64(v uint64) {
	p.data = binary.BigEndian.AppendUint64(p.data, v)
}

// AppendFloat32 writes the IEEE-754 bit pattern in network order.
func (p *Packet) AppendFloat32(v float32) { p.AppendUint32(math.Float32bits(v)) }

// AppendFloat64 writes the IEEE-754 bit pattern in network order.
func (p *Packet) AppendFloat64(v float64) { p.AppendUint64(math.Float64bits(v)) }

// AppendString writes a u32 byte length followed by the UTF-8 bytes.
func (p *Packet) AppendString(s string) {
	p.AppendUint32(uint32(len(s)))
	p.data = append(p.data, s...)
}

// AppendBytes writes a u32 length followed by b.
func (p *Packet) AppendBytes(b []byte) {
	p.AppendUint32(uint32(len(b)))
	p.data = append(p.data, b...)
}

// AppendRaw writes b without a length prefix.
func (p *Packet) AppendRaw(b []byte) { p.data = append(p.data, b...) }

// AppendFloat64s writes a u32 count followed by the values.
func (p *Packet) AppendFloat64s(vs []float64) {
	p.AppendUint32(uint32(len(vs)))
	for _, v := range vs {
		p.AppendFloat64(v)
	}
}

func (p *Packet) ExtractBool() bool { return p.ExtractUint8() != 0 }

func (p *Packet) ExtractInt8() int8 { return int8(p.ExtractUint8()) }

func (p *Packet) ExtractUint8() uint8 {
	b, ok := p.take(1)
	if !ok {
		return 0
	}
	return b[0]
}

func (p *Packet) ExtractInt16() int16 { return int16(p.ExtractUint16()) }

func (p *Packet) ExtractUint16() uint16 {
	b, ok := p.take(2)
	if !ok {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (p *Packet) ExtractInt32() int32 { return int32(p.ExtractUint32()) }

func (p *Packet) ExtractUint32() uint32 {
	b, ok := p.take(4)
	if !ok {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (p *Packet) ExtractInt64() int64 { return int64(p.ExtractUint64()) }

func (p *Packet) ExtractUint64() uint64 {
	b, ok := p.take(8)
	if !ok {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func (p *Packet) ExtractFloat32() float32 {
	if p.Remaining() < 4 {
		p.invalid = true
		return 0
	}
	return math.Float32frombits(p.ExtractUint32())
}

func (p *Packet) ExtractFloat64() float64 {
	if p.Remaining() < 8 {
		p.invalid = true
		return 0
	}
	return math.Float64frombits(p.ExtractUint64())
}

// ExtractString reads a string written by AppendString. On underrun the
// cursor stays before the length prefix.
func (p *Packet) ExtractString() string {
	b := p.extractPrefixed()
	if b == nil {
		return ""
	}
	return string(b)
}

// ExtractBytes reads a block written by AppendBytes into a new slice.
func (p *Packet) ExtractBytes() []byte {
	b := p.extractPrefixed()
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

// ExtractRaw reads exactly n unprefixed bytes into a new slice.
func (p *Packet) ExtractRaw(n int) []byte {
	b, ok := p.take(n)
	if !ok {
		return nil
	}
	return append([]byte(nil), b...)
}

// ExtractFloat64s reads a sequence written by AppendFloat64s.
func (p *Packet) ExtractFloat64s() []float64 {
	if p.invalid || p.Remaining() < 4 {
		p.invalid = true
		return nil
	}
	n := int(binary.BigEndian.Uint32(p.data[p.readPos:]))
	if n > (p.Remaining()-4)/8 {
		p.invalid = true
		return nil
	}
	p.readPos += 4
	out := make([]float64, n)
	for i := range out {
		out[i] = p.ExtractFloat64()
	}
	return out
}

func (p *Packet) extractPrefixed() []byte {
	if p.invalid || p.Remaining() < 4 {
		p.invalid = true
		return nil
	}
	n := int(binary.BigEndian.Uint32(p.data[p.readPos:]))
	if n > p.Remaining()-4 {
		p.invalid = true
		return nil
	}
	p.readPos += 4
	b, _ := p.take(n)
	if b == nil {
		return []byte{}
	}
	return b
}
