package packet_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/melcomm/packet"
)

func TestRoundTripAllTypes(t *testing.T) {
	p := packet.New(0)
	p.AppendBool(true)
	p.AppendBool(false)
	p.AppendInt8(-8)
	p.AppendUint8(200)
	p.AppendInt16(-1600)
	p.AppendUint16(65000)
	p.AppendInt32(math.MinInt32)
	p.AppendUint32(math.MaxUint32)
	p.AppendInt64(math.MinInt64)
	p.AppendUint64(math.MaxUint64)
	p.AppendFloat32(float32(math.Inf(-1)))
	p.AppendFloat64(math.SmallestNonzeroFloat64)
	p.AppendString("héllo")
	p.AppendString("")
	p.AppendBytes([]byte{0, 1, 2})
	p.AppendFloat64s([]float64{1.5, -2.25, math.MaxFloat64})
	p.AppendRaw([]byte{9, 9})

	assert.True(t, p.ExtractBool())
	assert.False(t, p.ExtractBool())
	assert.Equal(t, int8(-8), p.ExtractInt8())
	assert.Equal(t, uint8(200), p.ExtractUint8())
	assert.Equal(t, int16(-1600), p.ExtractInt16())
	assert.Equal(t, uint16(65000), p.ExtractUint16())
	assert.Equal(t, int32(math.MinInt32), p.ExtractInt32())
	assert.Equal(t, uint32(math.MaxUint32), p.ExtractUint32())
	assert.Equal(t, int64(math.MinInt64), p.ExtractInt64())
	assert.Equal(t, uint64(math.MaxUint64), p.ExtractUint64())
	assert.Equal(t, float32(math.Inf(-1)), p.ExtractFloat32())
	assert.Equal(t, math.Float64bits(math.SmallestNonzeroFloat64), math.Float64bits(p.ExtractFloat64()))
	assert.Equal(t, "héllo", p.ExtractString())
	assert.Equal(t, "", p.ExtractString())
	assert.Equal(t, []byte{0, 1, 2}, p.ExtractBytes())
	assert.Equal(t, []float64{1.5, -2.25, math.MaxFloat64}, p.ExtractFloat64s())
	assert.Equal(t, []byte{9, 9}, p.ExtractRaw(2))

	assert.True(t, p.EndOfPacket())
	assert.True(t, p.IsValid())
	assert.NoError(t, p.Err())
}

func TestNaNBitsPreserved(t *testing.T) {
	nan := math.Float64frombits(0x7ff8_0000_dead_beef)
	p := packet.New(8)
	p.AppendFloat64(nan)
	assert.Equal(t, uint64(0x7ff8_0000_dead_beef), math.Float64bits(p.ExtractFloat64()))
}

func TestNetworkByteOrder(t *testing.T) {
	p := packet.New(0)
	p.AppendUint32(0x01020304)
	p.AppendUint16(0x0506)
	p.AppendFloat64(1.0)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 0x3f, 0xf0, 0, 0, 0, 0, 0, 0}, p.Data())
}

func TestUnderrunInvalidatesWithoutAdvancing(t *testing.T) {
	p := packet.New(0)
	p.AppendUint16(7)

	assert.Equal(t, uint16(7), p.ExtractUint16())
	assert.Equal(t, uint32(0), p.ExtractUint32())
	require.False(t, p.IsValid())
	assert.ErrorIs(t, p.Err(), packet.ErrUnderrun)

	// further extractions stay at defaults even though data is appended
	p.AppendUint8(1)
	assert.Equal(t, uint8(0), p.ExtractUint8())
	assert.Equal(t, "", p.ExtractString())
	assert.Equal(t, 1, p.Remaining())
}

func TestUnderrunKeepsCursor(t *testing.T) {
	p := packet.New(0)
	p.AppendUint8(3)
	p.AppendUint32(10) // string length larger than remaining data
	p.AppendRaw([]byte("abc"))

	assert.Equal(t, uint8(3), p.ExtractUint8())
	assert.Equal(t, "", p.ExtractString())
	assert.False(t, p.IsValid())
	assert.Equal(t, 7, p.Remaining())
}

func TestFloat64sCountBeyondData(t *testing.T) {
	p := packet.New(0)
	p.AppendUint32(1000)
	p.AppendFloat64(1)
	assert.Nil(t, p.ExtractFloat64s())
	assert.False(t, p.IsValid())
}

func TestClearReusesStorage(t *testing.T) {
	p := packet.New(64)
	p.AppendString("payload")
	_ = p.ExtractUint64()
	p.Clear()

	assert.Equal(t, 0, p.Size())
	assert.True(t, p.IsValid())
	assert.True(t, p.EndOfPacket())
	assert.GreaterOrEqual(t, cap(p.Data()), 64)
}

func TestFromBytesCopies(t *testing.T) {
	src := []byte{0, 0, 0, 2, 'h', 'i'}
	p := packet.FromBytes(src)
	src[4] = 'X'
	assert.Equal(t, "hi", p.ExtractString())
}

func TestZeroValueUsable(t *testing.T) {
	var p packet.Packet
	assert.True(t, p.EndOfPacket())
	p.AppendInt32(-5)
	assert.Equal(t, int32(-5), p.ExtractInt32())
}
