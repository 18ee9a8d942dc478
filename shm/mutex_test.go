//go:build linux || darwin

// File: shm/mutex_test.go
// Author: momentics <momentics@gmail.com>

package shm

import (
	"encoding/binary"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/melcomm/api"
)

func TestNamedMutexSerializesInstances(t *testing.T) {
	name := uniqueName(t)
	region, err := Open(name, 8, api.OpenOrCreate)
	require.NoError(t, err)
	defer region.Close()

	const workers, rounds = 4, 200
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		mu, err := NewNamedMutex(name, api.OpenOrCreate, WithLockTimeout(10*time.Second))
		require.NoError(t, err)
		defer mu.Close()

		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				mu.WithLock(func() {
					b := region.Bytes()
					v := binary.LittleEndian.Uint64(b)
					runtime.Gosched()
					binary.LittleEndian.PutUint64(b, v+1)
				})
			}
			assert.Zero(t, mu.Timeouts())
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(workers*rounds), binary.LittleEndian.Uint64(region.Bytes()))
}

func TestNamedMutexTimeoutGrantsLock(t *testing.T) {
	name := uniqueName(t)
	holder, err := NewNamedMutex(name, api.OpenOrCreate)
	require.NoError(t, err)
	defer holder.Close()
	holder.Lock()

	mock := clock.NewMock()
	waiter, err := NewNamedMutex(name, api.OpenOnly, WithClock(mock))
	require.NoError(t, err)
	defer waiter.Close()

	done := make(chan struct{})
	go func() {
		waiter.Lock()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("lock granted while held and before the deadline")
	case <-time.After(30 * time.Millisecond):
	}

	mock.Add(DefaultLockTimeout + time.Millisecond)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock not granted after the deadline")
	}
	assert.Equal(t, uint64(1), waiter.Timeouts())
	assert.Zero(t, holder.Timeouts())

	waiter.Unlock()
	holder.Unlock()
}

func TestNamedMutexOpenOnlyMissing(t *testing.T) {
	name := uniqueName(t)
	mu, err := NewNamedMutex(name, api.OpenOnly)
	assert.ErrorIs(t, err, api.ErrNotMapped)
	require.NotNil(t, mu)
	assert.ErrorIs(t, mu.Err(), api.ErrNotMapped)

	ran := false
	mu.WithLock(func() { ran = true })
	assert.True(t, ran, "an unopened mutex still runs the critical section")
	assert.NoError(t, mu.Close())
}

func TestNamedMutexReacquire(t *testing.T) {
	name := uniqueName(t)
	mu, err := NewNamedMutex(name, api.OpenOrCreate, WithLockTimeout(time.Second))
	require.NoError(t, err)
	defer mu.Close()
	assert.Equal(t, name, mu.Name())
	for i := 0; i < 3; i++ {
		start := time.Now()
		mu.Lock()
		mu.Unlock()
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	}
	assert.Zero(t, mu.Timeouts())
}
