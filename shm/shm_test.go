//go:build linux || darwin

// File: shm/shm_test.go
// Author: momentics <momentics@gmail.com>

package shm

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/momentics/melcomm/api"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func uniqueName(t *testing.T) string {
	t.Helper()
	name := SanitizeName(fmt.Sprintf("test_%d_%s", os.Getpid(), t.Name()))
	t.Cleanup(func() {
		_ = Remove(name)
		_ = RemoveNamedMutex(name)
	})
	return name
}

func TestOpenSharesBytesBetweenHandles(t *testing.T) {
	name := uniqueName(t)
	a, err := Open(name, 4096, api.OpenOrCreate)
	require.NoError(t, err)
	defer a.Close()
	require.True(t, a.Mapped())
	assert.Equal(t, 4096, a.Size())
	assert.Equal(t, make([]byte, 4096), a.Bytes(), "fresh region is zero-filled")

	b, err := Open(name, 4096, api.OpenOnly)
	require.NoError(t, err)
	defer b.Close()

	copy(a.Bytes()[100:], "shared")
	assert.Equal(t, []byte("shared"), b.Bytes()[100:106])
}

func TestOpenOnlyMissingIsUnmapped(t *testing.T) {
	name := uniqueName(t)
	for i := 0; i < 2; i++ {
		s, err := Open(name, 4096, api.OpenOnly)
		assert.ErrorIs(t, err, api.ErrNotMapped)
		require.NotNil(t, s)
		assert.False(t, s.Mapped())
		assert.Nil(t, s.Bytes())
		assert.Zero(t, s.Size())
		assert.NoError(t, s.Close())
	}
}

func TestOpenRejectsLargerRequest(t *testing.T) {
	name := uniqueName(t)
	a, err := Open(name, 4096, api.OpenOrCreate)
	require.NoError(t, err)
	defer a.Close()

	b, err := Open(name, 8192, api.OpenOrCreate)
	assert.ErrorIs(t, err, api.ErrSizeMismatch)
	assert.False(t, b.Mapped())

	c, err := Open(name, 0, api.OpenOnly)
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, 4096, c.Size())

	d, err := Open(name, 1024, api.OpenOnly)
	require.NoError(t, err)
	defer d.Close()
	assert.Equal(t, 4096, d.Size(), "existing size wins over a smaller request")
}

func TestLastCloserRemovesRegion(t *testing.T) {
	name := uniqueName(t)
	a, err := Open(name, 128, api.OpenOrCreate)
	require.NoError(t, err)
	b, err := Open(name, 128, api.OpenOnly)
	require.NoError(t, err)

	require.NoError(t, a.Close())
	c, err := Open(name, 128, api.OpenOnly)
	require.NoError(t, err, "region survives while a handle is open")
	require.NoError(t, c.Close())

	require.NoError(t, b.Close())
	_, err = Open(name, 128, api.OpenOnly)
	assert.ErrorIs(t, err, api.ErrNotMapped)
}

func TestPersistentRegionOutlivesHandles(t *testing.T) {
	name := uniqueName(t)
	a, err := Open(name, 64, api.OpenOrCreate, WithPersistent(true))
	require.NoError(t, err)
	a.Bytes()[0] = 42
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())

	b, err := Open(name, 64, api.OpenOnly)
	require.NoError(t, err)
	assert.Equal(t, byte(42), b.Bytes()[0])
	require.NoError(t, b.Close())

	require.NoError(t, Remove(name))
	_, err = Open(name, 64, api.OpenOnly)
	assert.ErrorIs(t, err, api.ErrNotMapped)
}

func TestOpenInvalidArguments(t *testing.T) {
	_, err := Open("", 64, api.OpenOrCreate)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
	_, err = Open("x", 0, api.OpenOrCreate)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
	_, err = Open("x", -1, api.OpenOnly)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "my_share-1.v2", SanitizeName("my share-1.v2"))
	assert.Equal(t, "a_b_c", SanitizeName("a/b\\c"))
	assert.Equal(t, "__", SanitizeName("é"))
	assert.Equal(t, "x___y", SanitizeName("x\u2603y"))
	assert.Len(t, SanitizeName("Ω/名"), len("Ω/名"))
}
