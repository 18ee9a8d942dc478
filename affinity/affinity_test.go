//go:build linux

// File: affinity/affinity_test.go
// Author: momentics <momentics@gmail.com>

package affinity

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPinRestores(t *testing.T) {
	before, err := current()
	require.NoError(t, err)
	cpu := before[len(before)-1]

	unpin, err := Pin(cpu)
	require.NoError(t, err)
	during, err := current()
	require.NoError(t, err)
	assert.Equal(t, []int{cpu}, during)

	unpin()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	after, err := current()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestPinRejectsUnknownCPU(t *testing.T) {
	_, err := Pin(-1)
	assert.Error(t, err)
	_, err = Pin(1 << 20)
	assert.Error(t, err)
}
