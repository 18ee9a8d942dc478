//go:build darwin
// +build darwin

// File: reactor/reactor_darwin.go
// Author: momentics <momentics@gmail.com>
//
// poll(2)-based poller for darwin.

package reactor

import (
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/momentics/melcomm/api"
)

type pollPoller struct {
	fds   []unix.PollFd
	index map[uintptr]int
}

// NewPoller constructs the platform poller.
func NewPoller() (Poller, error) {
	return &pollPoller{index: make(map[uintptr]int)}, nil
}

func pollMask(events api.EventType) int16 {
	var m int16
	if events&api.EventRead != 0 {
		m |= unix.POLLIN
	}
	if events&api.EventWrite != 0 {
		m |= unix.POLLOUT
	}
	return m
}

func (p *pollPoller) Register(fd uintptr, events api.EventType) error {
	if _, ok := p.index[fd]; ok {
		return errors.Wrapf(unix.EEXIST, "poll register fd %d", fd)
	}
	p.index[fd] = len(p.fds)
	p.fds = append(p.fds, unix.PollFd{Fd: int32(fd), Events: pollMask(events)})
	return nil
}

func (p *pollPoller) Modify(fd uintptr, events api.EventType) error {
	i, ok := p.index[fd]
	if !ok {
		return errors.Wrapf(unix.ENOENT, "poll modify fd %d", fd)
	}
	p.fds[i].Events = pollMask(events)
	return nil
}

func (p *pollPoller) Unregister(fd uintptr) error {
	i, ok := p.index[fd]
	if !ok {
		return nil
	}
	last := len(p.fds) - 1
	if i != last {
		p.fds[i] = p.fds[last]
		p.index[uintptr(p.fds[i].Fd)] = i
	}
	p.fds = p.fds[:last]
	delete(p.index, fd)
	return nil
}

func (p *pollPoller) Wait(events []Event, timeout time.Duration) (int, error) {
	if len(events) == 0 {
		return 0, api.ErrInvalidArgument
	}
	for i := range p.fds {
		p.fds[i].Revents = 0
	}
	if len(p.fds) == 0 {
		// poll with no descriptors still honours the timeout.
		if timeout != 0 {
			if _, err := unix.Poll(nil, timeoutMillis(timeout)); err != nil && err != unix.EINTR {
				return 0, errors.Wrap(err, "poll")
			}
		}
		return 0, nil
	}
	if _, err := unix.Poll(p.fds, timeoutMillis(timeout)); err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, errors.Wrap(err, "poll")
	}
	n := 0
	for _, pfd := range p.fds {
		if pfd.Revents == 0 || n == len(events) {
			continue
		}
		var ready api.EventType
		if pfd.Revents&(unix.POLLIN|unix.POLLHUP) != 0 {
			ready |= api.EventRead
		}
		if pfd.Revents&unix.POLLOUT != 0 {
			ready |= api.EventWrite
		}
		if pfd.Revents&(unix.POLLERR|unix.POLLNVAL) != 0 {
			ready |= api.EventError
		}
		events[n] = Event{Fd: uintptr(pfd.Fd), Events: ready}
		n++
	}
	return n, nil
}

func (p *pollPoller) Close() error {
	p.fds = nil
	p.index = map[uintptr]int{}
	return nil
}
