// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package packet implements the unit of structured data transfer: an
// ordered byte buffer with typed append/extract operations.
//
// Values are written big-endian so packets are portable between hosts of
// different endianness. The format carries no type tags; both peers must
// append and extract the same sequence of types.
package packet
