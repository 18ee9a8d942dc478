// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor waits for readiness on raw descriptors. The Selector in
// package network sits on top of it. Linux uses level-triggered epoll,
// darwin uses poll(2), and other platforms report ErrNotSupported.
package reactor
