// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package melnet exchanges typed vectors, text messages and requests
// between two known UDP endpoints.
//
// Each datagram carries one record: a kind byte followed by the payload.
//
//	Data     1  [u32 n][n x f64 big-endian]
//	Message  2  [u32 len][utf-8 bytes]
//	Request  3  (empty)
//
// Delivery is unacknowledged. Lost or reordered datagrams are not
// recovered, and malformed datagrams are dropped. A record that arrives
// while the caller waits for another kind is parked in a small per-kind
// inbox and handed out by the next matching receive.
package melnet
