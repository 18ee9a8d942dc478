// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package pool recycles receive buffers for the socket layer and packets
// queued by the packet server. Datagram buffers fit the largest UDP payload;
// stream chunks bound a single TCP read.
package pool
