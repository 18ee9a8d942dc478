//go:build linux || darwin

// File: reactor/reactor_test.go
// Author: momentics <momentics@gmail.com>

package reactor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/momentics/melcomm/api"
)

func socketPair(t *testing.T) (int, int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func TestPollerReportsReadable(t *testing.T) {
	p, err := NewPoller()
	require.NoError(t, err)
	defer p.Close()

	a, b := socketPair(t)
	require.NoError(t, p.Register(uintptr(a), api.EventRead))

	events := make([]Event, 4)
	n, err := p.Wait(events, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = unix.Write(b, []byte("x"))
	require.NoError(t, err)

	n, err = p.Wait(events, time.Second)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, uintptr(a), events[0].Fd)
	assert.NotZero(t, events[0].Events&api.EventRead)

	// Level-triggered: unread data is reported again.
	n, err = p.Wait(events, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPollerModifyAndUnregister(t *testing.T) {
	p, err := NewPoller()
	require.NoError(t, err)
	defer p.Close()

	a, _ := socketPair(t)
	require.NoError(t, p.Register(uintptr(a), api.EventRead))
	require.NoError(t, p.Modify(uintptr(a), api.EventRead|api.EventWrite))

	events := make([]Event, 1)
	n, err := p.Wait(events, time.Second)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.NotZero(t, events[0].Events&api.EventWrite)

	require.NoError(t, p.Unregister(uintptr(a)))
	require.NoError(t, p.Unregister(uintptr(a)))
	n, err = p.Wait(events, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestWaitRejectsEmptyEventSlice(t *testing.T) {
	p, err := NewPoller()
	require.NoError(t, err)
	defer p.Close()
	_, err = p.Wait(nil, 0)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
}

func TestTimeoutMillis(t *testing.T) {
	assert.Equal(t, -1, timeoutMillis(-time.Second))
	assert.Equal(t, 0, timeoutMillis(0))
	assert.Equal(t, 1, timeoutMillis(time.Microsecond))
	assert.Equal(t, 250, timeoutMillis(250*time.Millisecond))
}
