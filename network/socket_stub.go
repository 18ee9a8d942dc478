//go:build !linux && !darwin
// +build !linux,!darwin

// File: network/socket_stub.go
// Author: momentics <momentics@gmail.com>
//
// Sockets are unavailable on this platform; every call fails.

package network

import (
	"time"

	"github.com/momentics/melcomm/api"
)

func sysSocket(socketKind) (uintptr, error) { return api.InvalidFD, api.ErrNotSupported }
func sysClose(uintptr) error { return api.ErrNotSupported }
func sysSetBlocking(uintptr, bool) error { return api.ErrNotSupported }
func sysConfigure(uintptr, socketKind) error { return api.ErrNotSupported }
func sysReuseAddr(uintptr) error { return api.ErrNotSupported }
func sysBind(uintptr, uint32, uint16) error { return api.ErrNotSupported }
func sysListen(uintptr) error { return api.ErrNotSupported }
func sysConnect(uintptr, uint32, uint16) error { return api.ErrNotSupported }
func sysSocketError(uintptr) error { return api.ErrNotSupported }
func sysAccept(uintptr) (uintptr, error) { return api.InvalidFD, api.ErrNotSupported }
func sysSend(uintptr, []byte) (int, error) { return 0, api.ErrNotSupported }
func sysRecv(uintptr, []byte) (int, error) { return 0, api.ErrNotSupported }
func sysSendTo(uintptr, []byte, uint32, uint16) error { return api.ErrNotSupported }
func sysLocalAddr(uintptr) (uint32, uint16, error) { return 0, 0, api.ErrNotSupported }
func sysRemoteAddr(uintptr) (uint32, uint16, error) { return 0, 0, api.ErrNotSupported }
func errorStatus(error) api.Status { return api.StatusError }

func sysRecvFrom(uintptr, []byte) (int, uint32, uint16, error) {
	return 0, 0, 0, api.ErrNotSupported
}

func sysWait(uintptr, api.EventType, time.Duration) (bool, error) {
	return false, api.ErrNotSupported
}
