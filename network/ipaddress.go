// File: network/ipaddress.go
// Author: momentics <momentics@gmail.com>
//
// IPv4 address value with a validity flag.

package network

import (
	"net"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/momentics/melcomm/api"
)

// IPAddress is an immutable IPv4 address. The zero value is None, the
// invalid address. Addresses compare equal with == and order by
// (validity, numeric value).
type IPAddress struct {
	addr  uint32
	valid bool
}

var (
	None      = IPAddress{}
	Any       = IPv4(0, 0, 0, 0)
	LocalHost = IPv4(127, 0, 0, 1)
	Broadcast = IPv4(255, 255, 255, 255)
)

// IPv4 builds an address from its four octets.
func IPv4(a, b, c, d byte) IPAddress {
	return IPAddress{addr: uint32(a)<<24 | uint32(b)<<16 | uint32(c)<<8 | uint32(d), valid: true}
}

// FromUint32 builds an address from its host-order numeric value.
func FromUint32(v uint32) IPAddress {
	return IPAddress{addr: v, valid: true}
}

// ResolveIPAddress parses a dotted-quad address or resolves a host name to
// its first IPv4 address. Failures return None and an error wrapping
// api.ErrAddressUnresolved.
func ResolveIPAddress(host string) (IPAddress, error) {
	if host == "" {
		return None, errors.Wrap(api.ErrAddressUnresolved, "empty host")
	}
	if ip := net.ParseIP(host); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			return IPv4(v4[0], v4[1], v4[2], v4[3]), nil
		}
		return None, errors.Wrapf(api.ErrAddressUnresolved, "%s is not an IPv4 address", host)
	}
	ips, err := net.LookupIP(host)
	if err != nil {
		zap.L().Debug("network: host lookup failed", zap.String("host", host), zap.Error(err))
		return None, errors.Wrapf(api.ErrAddressUnresolved, "lookup %s: %v", host, err)
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return IPv4(v4[0], v4[1], v4[2], v4[3]), nil
		}
	}
	return None, errors.Wrapf(api.ErrAddressUnresolved, "%s has no IPv4 address", host)
}

// IsValid reports whether the address holds a value.
func (a IPAddress) IsValid() bool { return a.valid }

// Uint32 returns the host-order numeric value.
func (a IPAddress) Uint32() uint32 { return a.addr }

// Octets returns the address in network order.
func (a IPAddress) Octets() [4]byte {
	return [4]byte{byte(a.addr >> 24), byte(a.addr >> 16), byte(a.addr >> 8), byte(a.addr)}
}

// String returns the dotted-quad form.
func (a IPAddress) String() string {
	o := a.Octets()
	b := make([]byte, 0, 15)
	for i, v := range o {
		if i > 0 {
			b = append(b, '.')
		}
		b = strconv.AppendUint(b, uint64(v), 10)
	}
	return string(b)
}

// Compare returns -1, 0 or +1. Invalid addresses sort first.
func (a IPAddress) Compare(b IPAddress) int {
	switch {
	case a.valid != b.valid:
		if !a.valid {
			return -1
		}
		return 1
	case a.addr < b.addr:
		return -1
	case a.addr > b.addr:
		return 1
	}
	return 0
}

// Less reports whether a orders before b.
func (a IPAddress) Less(b IPAddress) bool { return a.Compare(b) < 0 }

// probeAddress is a routable destination used only to let the kernel pick
// the outgoing interface; nothing is sent to it.
var probeAddress = IPv4(198, 51, 100, 1)

// LocalAddress returns the address of the interface used for outgoing
// traffic, falling back to the loopback route when no default route
// exists. It returns None when sockets are unavailable.
func LocalAddress() IPAddress {
	for _, target := range []IPAddress{probeAddress, LocalHost} {
		if a, ok := routedSource(target); ok {
			return a
		}
	}
	return None
}

func routedSource(target IPAddress) (IPAddress, bool) {
	fd, err := sysSocket(kindUDP)
	if err != nil {
		return None, false
	}
	defer sysClose(fd)
	if err := sysConnect(fd, target.Uint32(), 9); err != nil {
		return None, false
	}
	addr, _, err := sysLocalAddr(fd)
	if err != nil {
		return None, false
	}
	return FromUint32(addr), true
}
