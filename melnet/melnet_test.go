//go:build linux || darwin

// File: melnet/melnet_test.go
// Author: momentics <momentics@gmail.com>

package melnet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/momentics/melcomm/api"
	"github.com/momentics/melcomm/control"
	"github.com/momentics/melcomm/network"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// pair returns two endpoints on ephemeral loopback ports aimed at each
// other.
func pair(t *testing.T, opts ...Option) (*MelNet, *MelNet) {
	t.Helper()
	opts = append([]Option{WithBindAddress(network.LocalHost)}, opts...)
	a, err := New(0, 0, network.LocalHost, opts...)
	require.NoError(t, err)
	b, err := New(0, a.LocalPort(), network.LocalHost, opts...)
	require.NoError(t, err)
	a.SetRemote(network.LocalHost, b.LocalPort())
	t.Cleanup(func() {
		_ = a.Close()
		_ = b.Close()
	})
	return a, b
}

func TestDataAndMessageExchange(t *testing.T) {
	a, b := pair(t)

	require.Equal(t, api.StatusDone, a.SendData([]float64{1, 2.5, -3}))
	vals, st := b.ReceiveData()
	require.Equal(t, api.StatusDone, st)
	assert.Equal(t, []float64{1, 2.5, -3}, vals)

	require.Equal(t, api.StatusDone, b.SendMessage("ack"))
	msg, st := a.ReceiveMessage()
	require.Equal(t, api.StatusDone, st)
	assert.Equal(t, "ack", msg)

	require.Equal(t, api.StatusDone, a.SendData(nil))
	vals, st = b.ReceiveData()
	require.Equal(t, api.StatusDone, st)
	assert.Empty(t, vals)
}

func TestMismatchedKindsAreParked(t *testing.T) {
	a, b := pair(t)

	require.Equal(t, api.StatusDone, a.SendMessage("first"))
	require.Equal(t, api.StatusDone, a.Request())
	require.Equal(t, api.StatusDone, a.SendData([]float64{42}))

	vals, st := b.ReceiveData()
	require.Equal(t, api.StatusDone, st)
	assert.Equal(t, []float64{42}, vals)
	assert.Equal(t, 1, b.Pending(KindMessage))
	assert.Equal(t, 1, b.Pending(KindRequest))

	msg, st := b.ReceiveMessage()
	require.Equal(t, api.StatusDone, st)
	assert.Equal(t, "first", msg)
	assert.True(t, b.CheckRequest())
	assert.Zero(t, b.Pending(KindRequest))
}

func TestNonBlockingReceive(t *testing.T) {
	a, b := pair(t, WithBlocking(false))
	assert.False(t, b.IsBlocking())

	_, st := b.ReceiveData()
	assert.Equal(t, api.StatusNotReady, st)
	assert.False(t, b.CheckRequest())

	require.Equal(t, api.StatusDone, a.Request())
	assert.Eventually(t, b.CheckRequest, time.Second, 5*time.Millisecond)

	b.SetBlocking(true)
	assert.True(t, b.IsBlocking())
}

func TestInboxEvictsOldest(t *testing.T) {
	mr := control.NewMetricsRegistry()
	a, b := pair(t, WithInboxSize(2), WithMetrics(mr))

	for _, m := range []string{"m1", "m2", "m3"} {
		require.Equal(t, api.StatusDone, a.SendMessage(m))
	}
	require.Equal(t, api.StatusDone, a.SendData([]float64{7}))
	_, st := b.ReceiveData()
	require.Equal(t, api.StatusDone, st)

	assert.Equal(t, 2, b.Pending(KindMessage))
	assert.Equal(t, int64(1), mr.Counter(MetricEvicted))
	msg, _ := b.ReceiveMessage()
	assert.Equal(t, "m2", msg)
	msg, _ = b.ReceiveMessage()
	assert.Equal(t, "m3", msg)
	assert.Equal(t, int64(3), mr.Counter(MetricSent+".message"))
	assert.Equal(t, int64(3), mr.Counter(MetricReceived+".message"))
}

func TestMalformedDatagramsAreDropped(t *testing.T) {
	mr := control.NewMetricsRegistry()
	_, b := pair(t, WithMetrics(mr))

	raw := network.NewUDPSocket()
	defer raw.Unbind()
	port := b.LocalPort()
	require.Equal(t, api.StatusDone, raw.Send([]byte{}, network.LocalHost, port))
	require.Equal(t, api.StatusDone, raw.Send([]byte{9, 1, 2}, network.LocalHost, port))
	// count says two values, only one follows
	require.Equal(t, api.StatusDone, raw.Send([]byte{1, 0, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0, 0}, network.LocalHost, port))
	// trailing garbage after a request
	require.Equal(t, api.StatusDone, raw.Send([]byte{3, 0xff}, network.LocalHost, port))
	require.Equal(t, api.StatusDone, raw.Send([]byte{2, 0, 0, 0, 2, 'o', 'k'}, network.LocalHost, port))

	msg, st := b.ReceiveMessage()
	require.Equal(t, api.StatusDone, st)
	assert.Equal(t, "ok", msg)
	assert.Equal(t, int64(4), mr.Counter(MetricMalformed))
}

func TestNewRejectsBadArguments(t *testing.T) {
	_, err := New(0, 1, network.None)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)

	_, err = New(0, 1, network.LocalHost, WithBindAddress(network.Broadcast))
	assert.Error(t, err)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "data", KindData.String())
	assert.Equal(t, "request", KindRequest.String())
	assert.Equal(t, "unknown", Kind(0).String())
}
