//go:build linux || darwin

// File: melshare/melshare_test.go
// Author: momentics <momentics@gmail.com>

package melshare

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/melcomm/api"
	"github.com/momentics/melcomm/packet"
)

func shareName(t testing.TB, base string) string {
	t.Helper()
	name := fmt.Sprintf("%s_%d", base, os.Getpid())
	t.Cleanup(func() { _ = Remove(name) })
	return name
}

func TestWriterAndReaderScenario(t *testing.T) {
	name := shareName(t, "ms")
	a, err := New(name, api.OpenOrCreate)
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, a.Write([]float64{1, 2, 3, 4, 5}))

	b, err := New(name, api.OpenOnly)
	require.NoError(t, err)
	defer b.Close()
	require.True(t, b.Mapped())

	got, err := b.Read()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, got)
}

func TestReadBeforeWriteIsEmpty(t *testing.T) {
	m, err := New(shareName(t, "empty"), api.OpenOrCreate)
	require.NoError(t, err)
	defer m.Close()

	values, err := m.Read()
	require.NoError(t, err)
	assert.Empty(t, values)
	msg, err := m.ReadMessage()
	require.NoError(t, err)
	assert.Empty(t, msg)
	typ, err := m.DataType()
	require.NoError(t, err)
	assert.Equal(t, TypeNone, typ)
}

func TestWriteOverwritesAndShrinks(t *testing.T) {
	m, err := New(shareName(t, "shrink"), api.OpenOrCreate)
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.Write([]float64{1, 2, 3}))
	require.NoError(t, m.Write([]float64{9}))
	got, err := m.Read()
	require.NoError(t, err)
	assert.Equal(t, []float64{9}, got)

	buf := make([]float64, 0, 8)
	got, err = m.ReadInto(buf)
	require.NoError(t, err)
	assert.Equal(t, []float64{9}, got)
	assert.Equal(t, cap(buf), cap(got), "ReadInto reuses dst")
}

func TestMessageIsIndependentOfData(t *testing.T) {
	name := shareName(t, "msg")
	a, err := New(name, api.OpenOrCreate)
	require.NoError(t, err)
	defer a.Close()
	b, err := New(name, api.OpenOnly)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Write([]float64{0.5, -0.25}))
	require.NoError(t, b.WriteMessage("calibrating"))
	require.NoError(t, a.Write([]float64{7}))

	msg, err := a.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "calibrating", msg)
	values, err := b.Read()
	require.NoError(t, err)
	assert.Equal(t, []float64{7}, values)
}

func TestOversizedWritesLeaveRegionUntouched(t *testing.T) {
	m, err := New(shareName(t, "big"), api.OpenOrCreate, WithSize(256))
	require.NoError(t, err)
	defer m.Close()

	l := m.Layout()
	assert.Equal(t, 64, m.MessageCapacity())
	assert.Equal(t, 176, m.DataCapacity())
	assert.Equal(t, 22, l.MaxValues())

	require.NoError(t, m.Write([]float64{1}))
	require.NoError(t, m.WriteMessage("ok"))

	assert.ErrorIs(t, m.Write(make([]float64, l.MaxValues()+1)), ErrTooLarge)
	assert.ErrorIs(t, m.WriteMessage(string(make([]byte, l.MsgCap+1))), ErrTooLarge)
	assert.ErrorIs(t, m.WritePacket(packet.FromBytes(make([]byte, l.DataCap+1))), ErrTooLarge)

	values, err := m.Read()
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, values)
	msg, err := m.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "ok", msg)

	require.NoError(t, m.Write(make([]float64, l.MaxValues())))
	require.NoError(t, m.WriteMessage(string(make([]byte, l.MsgCap))))
}

func TestOpenOnlyMissingShare(t *testing.T) {
	name := shareName(t, "missing")
	for i := 0; i < 2; i++ {
		m, err := New(name, api.OpenOnly)
		assert.ErrorIs(t, err, api.ErrNotMapped)
		require.NotNil(t, m)
		assert.False(t, m.Mapped())
		assert.ErrorIs(t, m.Write([]float64{1}), api.ErrNotMapped)
		_, err = m.Read()
		assert.ErrorIs(t, err, api.ErrNotMapped)
		_, err = m.ReadMessage()
		assert.ErrorIs(t, err, api.ErrNotMapped)
		assert.NoError(t, m.Close())
	}
}

func TestPacketUsesBytesTag(t *testing.T) {
	m, err := New(shareName(t, "pkt"), api.OpenOrCreate)
	require.NoError(t, err)
	defer m.Close()

	out := packet.New(16)
	out.AppendString("pose")
	out.AppendFloat64s([]float64{1.5, 2.5})
	require.NoError(t, m.WritePacket(out))

	typ, err := m.DataType()
	require.NoError(t, err)
	assert.Equal(t, TypeBytes, typ)
	values, err := m.Read()
	require.NoError(t, err)
	assert.Empty(t, values, "packet bytes are not returned as values")

	in := packet.New(0)
	require.NoError(t, m.ReadPacket(in))
	assert.Equal(t, "pose", in.ExtractString())
	assert.Equal(t, []float64{1.5, 2.5}, in.ExtractFloat64s())

	require.NoError(t, m.Write([]float64{3}))
	require.NoError(t, m.ReadPacket(in))
	assert.Zero(t, in.Size())
}

func TestLayoutFor(t *testing.T) {
	l, err := LayoutFor(DefaultSize)
	require.NoError(t, err)
	assert.Equal(t, Layout{Size: 4096, DataCap: 3056, MsgLenOffset: 3064, MsgOffset: 3068, MsgCap: 1024}, l)
	assert.LessOrEqual(t, l.MsgOffset+l.MsgCap, l.Size)

	_, err = LayoutFor(15)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)

	for size := 16; size < 600; size++ {
		l, err := LayoutFor(size)
		require.NoError(t, err)
		assert.Zero(t, l.DataCap%8)
		assert.LessOrEqual(t, l.MsgOffset+l.MsgCap, size, "size %d", size)
	}
}
