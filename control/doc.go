// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package control holds the ambient runtime plumbing: configuration
// loading and hot reload, logger construction, metrics counters and debug
// probes.
package control
