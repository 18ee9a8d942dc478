//go:build linux
// +build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7)-based poller.

package reactor

import (
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/momentics/melcomm/api"
)

// epollPoller is a level-triggered epoll instance.
type epollPoller struct {
	epfd int
	raw  []unix.EpollEvent
}

// NewPoller constructs the platform poller.
func NewPoller() (Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, errors.Wrap(err, "epoll create")
	}
	return &epollPoller{epfd: epfd}, nil
}

func epollMask(events api.EventType) uint32 {
	var m uint32 = unix.EPOLLRDHUP
	if events&api.EventRead != 0 {
		m |= unix.EPOLLIN
	}
	if events&api.EventWrite != 0 {
		m |= unix.EPOLLOUT
	}
	return m
}

func (p *epollPoller) Register(fd uintptr, events api.EventType) error {
	ev := unix.EpollEvent{Events: epollMask(events), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, int(fd), &ev); err != nil {
		return errors.Wrap(err, "epoll ctl add")
	}
	return nil
}

func (p *epollPoller) Modify(fd uintptr, events api.EventType) error {
	ev := unix.EpollEvent{Events: epollMask(events), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, int(fd), &ev); err != nil {
		return errors.Wrap(err, "epoll ctl mod")
	}
	return nil
}

func (p *epollPoller) Unregister(fd uintptr) error {
	err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, int(fd), nil)
	if err != nil && err != unix.ENOENT && err != unix.EBADF {
		return errors.Wrap(err, "epoll ctl del")
	}
	return nil
}

func (p *epollPoller) Wait(events []Event, timeout time.Duration) (int, error) {
	if len(events) == 0 {
		return 0, api.ErrInvalidArgument
	}
	if cap(p.raw) < len(events) {
		p.raw = make([]unix.EpollEvent, len(events))
	}
	raw := p.raw[:len(events)]
	n, err := unix.EpollWait(p.epfd, raw, timeoutMillis(timeout))
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, errors.Wrap(err, "epoll wait")
	}
	for i := 0; i < n; i++ {
		var ready api.EventType
		if raw[i].Events&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
			ready |= api.EventRead
		}
		if raw[i].Events&unix.EPOLLOUT != 0 {
			ready |= api.EventWrite
		}
		if raw[i].Events&unix.EPOLLERR != 0 {
			ready |= api.EventError
		}
		events[i] = Event{Fd: uintptr(raw[i].Fd), Events: ready}
	}
	return n, nil
}

// Close closes the epoll instance.
func (p *epollPoller) Close() error {
	return unix.Close(p.epfd)
}
