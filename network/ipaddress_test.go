// File: network/ipaddress_test.go
// Author: momentics <momentics@gmail.com>

package network

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/melcomm/api"
)

func TestWellKnownAddresses(t *testing.T) {
	assert.False(t, None.IsValid())
	assert.True(t, Any.IsValid())
	assert.Equal(t, uint32(0), Any.Uint32())
	assert.Equal(t, uint32(0x7f000001), LocalHost.Uint32())
	assert.Equal(t, uint32(0xffffffff), Broadcast.Uint32())
	assert.Equal(t, "127.0.0.1", LocalHost.String())
	assert.Equal(t, "255.255.255.255", Broadcast.String())
	assert.Equal(t, [4]byte{127, 0, 0, 1}, LocalHost.Octets())
}

func TestResolveIPAddress(t *testing.T) {
	a, err := ResolveIPAddress("192.168.1.20")
	require.NoError(t, err)
	assert.Equal(t, IPv4(192, 168, 1, 20), a)

	a, err = ResolveIPAddress("255.255.255.255")
	require.NoError(t, err)
	assert.Equal(t, Broadcast, a)

	a, err = ResolveIPAddress("localhost")
	require.NoError(t, err)
	assert.True(t, a.IsValid())

	for _, bad := range []string{"", "::1", "host.that.does.not.exist.invalid"} {
		a, err = ResolveIPAddress(bad)
		assert.ErrorIs(t, err, api.ErrAddressUnresolved, bad)
		assert.Equal(t, None, a, bad)
	}
}

func TestIPAddressOrdering(t *testing.T) {
	addrs := []IPAddress{Broadcast, LocalHost, None, IPv4(10, 0, 0, 1), Any}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Less(addrs[j]) })
	assert.Equal(t, []IPAddress{None, Any, IPv4(10, 0, 0, 1), LocalHost, Broadcast}, addrs)

	assert.Equal(t, 0, FromUint32(0x7f000001).Compare(LocalHost))
	assert.True(t, FromUint32(0x7f000001) == LocalHost)
	assert.NotEqual(t, None, Any)
}

func TestLocalAddress(t *testing.T) {
	assert.True(t, LocalAddress().IsValid())
}
