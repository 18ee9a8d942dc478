// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package melshare is a named same-host channel for float64 vectors and
// short text messages on top of a shared memory region guarded by a named
// mutex.
//
// Region layout, host byte order:
//
//	0            data length (u32, element or byte count)
//	4            data type (u32, see DataType)
//	8            data bytes (DataCap, a multiple of 8)
//	8+DataCap    message length (u32)
//	12+DataCap   message bytes (MsgCap = size/4)
//
// The layout depends only on the mapped size, so every opener agrees on
// it. Readers poll; there is no change notification.
package melshare
