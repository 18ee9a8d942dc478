// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package network implements the socket family on raw OS descriptors:
// IPv4 addresses, TCP stream sockets with length-prefixed packet framing,
// a TCP listener, UDP datagram sockets and a readiness selector.
//
// Operations report an api.Status instead of an error. StatusNotReady is
// only produced in non-blocking mode and is never logged.
package network
