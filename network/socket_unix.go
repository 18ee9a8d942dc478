//go:build linux || darwin
// +build linux darwin

// File: network/socket_unix.go
// Author: momentics <momentics@gmail.com>
//
// BSD socket calls for linux and darwin.

package network

import (
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/momentics/melcomm/api"
)

const listenBacklog = unix.SOMAXCONN

func sysSocket(kind socketKind) (uintptr, error) {
	typ := unix.SOCK_STREAM
	if kind == kindUDP {
		typ = unix.SOCK_DGRAM
	}
	fd, err := unix.Socket(unix.AF_INET, typ, 0)
	if err != nil {
		return api.InvalidFD, errors.Wrap(err, "socket")
	}
	unix.CloseOnExec(fd)
	return uintptr(fd), nil
}

func sysClose(fd uintptr) error {
	return unix.Close(int(fd))
}

func sysSetBlocking(fd uintptr, blocking bool) error {
	return unix.SetNonblock(int(fd), !blocking)
}

func sysConfigure(fd uintptr, kind socketKind) error {
	switch kind {
	case kindTCP:
		return unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	case kindUDP:
		return unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
	}
	return nil
}

func sysReuseAddr(fd uintptr) error {
	return unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
}

func sockaddr(addr uint32, port uint16) *unix.SockaddrInet4 {
	return &unix.SockaddrInet4{
		Port: int(port),
		Addr: [4]byte{byte(addr >> 24), byte(addr >> 16), byte(addr >> 8), byte(addr)},
	}
}

func fromSockaddr(sa unix.Sockaddr) (uint32, uint16, error) {
	in4, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		return 0, 0, errors.Wrapf(unix.EAFNOSUPPORT, "unexpected address %T", sa)
	}
	a := in4.Addr
	return uint32(a[0])<<24 | uint32(a[1])<<16 | uint32(a[2])<<8 | uint32(a[3]), uint16(in4.Port), nil
}

func sysBind(fd uintptr, addr uint32, port uint16) error {
	return unix.Bind(int(fd), sockaddr(addr, port))
}

func sysListen(fd uintptr) error {
	return unix.Listen(int(fd), listenBacklog)
}

// sysConnect connects fd. A blocking connect interrupted by a signal keeps
// going in the kernel, so it is finished by waiting for writability.
func sysConnect(fd uintptr, addr uint32, port uint16) error {
	err := unix.Connect(int(fd), sockaddr(addr, port))
	if err != unix.EINTR {
		return err
	}
	if _, err := sysWait(fd, api.EventWrite, -1); err != nil {
		return err
	}
	return sysSocketError(fd)
}

func sysSocketError(fd uintptr) error {
	v, err := unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	if v != 0 {
		return unix.Errno(v)
	}
	return nil
}

// sysWait polls a single descriptor for the given interest.
func sysWait(fd uintptr, events api.EventType, timeout time.Duration) (bool, error) {
	var mask int16
	if events&api.EventRead != 0 {
		mask |= unix.POLLIN
	}
	if events&api.EventWrite != 0 {
		mask |= unix.POLLOUT
	}
	ms := -1
	if timeout >= 0 {
		ms = int((timeout + time.Millisecond - 1) / time.Millisecond)
	}
	fds := []unix.PollFd{{Fd: int32(fd), Events: mask}}
	for {
		n, err := unix.Poll(fds, ms)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, err
		}
		return n > 0, nil
	}
}

func sysAccept(fd uintptr) (uintptr, error) {
	for {
		nfd, _, err := unix.Accept(int(fd))
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return api.InvalidFD, err
		}
		unix.CloseOnExec(nfd)
		return uintptr(nfd), nil
	}
}

func sysSend(fd uintptr, p []byte) (int, error) {
	for {
		n, err := unix.Write(int(fd), p)
		if err == unix.EINTR {
			continue
		}
		if n < 0 {
			n = 0
		}
		return n, err
	}
}

func sysRecv(fd uintptr, p []byte) (int, error) {
	for {
		n, err := unix.Read(int(fd), p)
		if err == unix.EINTR {
			continue
		}
		if n < 0 {
			n = 0
		}
		return n, err
	}
}

func sysSendTo(fd uintptr, p []byte, addr uint32, port uint16) error {
	for {
		err := unix.Sendto(int(fd), p, 0, sockaddr(addr, port))
		if err != unix.EINTR {
			return err
		}
	}
}

func sysRecvFrom(fd uintptr, p []byte) (int, uint32, uint16, error) {
	for {
		n, from, err := unix.Recvfrom(int(fd), p, 0)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, 0, 0, err
		}
		addr, port, _ := fromSockaddr(from)
		return n, addr, port, nil
	}
}

func sysLocalAddr(fd uintptr) (uint32, uint16, error) {
	sa, err := unix.Getsockname(int(fd))
	if err != nil {
		return 0, 0, err
	}
	return fromSockaddr(sa)
}

func sysRemoteAddr(fd uintptr) (uint32, uint16, error) {
	sa, err := unix.Getpeername(int(fd))
	if err != nil {
		return 0, 0, err
	}
	return fromSockaddr(sa)
}

// errorStatus maps a socket error to the status reported to callers.
func errorStatus(err error) api.Status {
	var errno unix.Errno
	if !errors.As(err, &errno) {
		return api.StatusError
	}
	switch errno {
	case unix.EAGAIN, unix.EINPROGRESS, unix.EALREADY:
		return api.StatusNotReady
	case unix.ECONNABORTED, unix.ECONNRESET, unix.ETIMEDOUT,
		unix.ENETRESET, unix.ENOTCONN, unix.EPIPE:
		return api.StatusDisconnected
	default:
		return api.StatusError
	}
}
