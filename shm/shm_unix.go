//go:build linux || darwin
// +build linux darwin

// File: shm/shm_unix.go
// Author: momentics <momentics@gmail.com>
//
// File-backed POSIX mappings. Every open handle holds a shared flock on
// the backing file; a closer that can upgrade to an exclusive lock is the
// last one and unlinks the file.

package shm

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/momentics/melcomm/api"
)

const openAttempts = 8

type mapping struct {
	f          *os.File
	path       string
	persistent bool
}

func regionPath(name string) string {
	return filepath.Join(regionDir(), namePrefix+name)
}

func openMapping(name string, size int, mode api.OpenMode, persistent bool) (*mapping, []byte, error) {
	path := regionPath(name)
	for i := 0; i < openAttempts; i++ {
		m, data, retry, err := tryOpenMapping(path, size, mode, persistent)
		if !retry {
			return m, data, err
		}
	}
	return nil, nil, errors.Errorf("shm: %s was removed repeatedly while opening", path)
}

// tryOpenMapping returns retry=true when the file it locked was unlinked by
// a concurrent last closer.
func tryOpenMapping(path string, size int, mode api.OpenMode, persistent bool) (*mapping, []byte, bool, error) {
	flag := os.O_RDWR
	if mode == api.OpenOrCreate {
		flag |= os.O_CREATE
	}
	f, err := os.OpenFile(path, flag, 0o600)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, false, errors.Wrapf(api.ErrNotMapped, "shm: %s does not exist", path)
		}
		return nil, nil, false, errors.Wrap(err, "shm: open")
	}
	fd := int(f.Fd())
	fail := func(err error) (*mapping, []byte, bool, error) {
		f.Close()
		return nil, nil, false, err
	}

	// Alone on the file: size it if fresh. Otherwise wait for whoever is
	// sizing it to drop to a shared lock.
	alone := flock(fd, unix.LOCK_EX|unix.LOCK_NB) == nil
	if !alone {
		if err := flock(fd, unix.LOCK_SH); err != nil {
			return fail(errors.Wrap(err, "shm: flock"))
		}
	}

	var st, cur unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return fail(errors.Wrap(err, "shm: fstat"))
	}
	if err := unix.Stat(path, &cur); err != nil || cur.Ino != st.Ino || cur.Dev != st.Dev {
		f.Close()
		return nil, nil, true, nil
	}

	existing := int(st.Size)
	if existing == 0 {
		if !alone || mode == api.OpenOnly {
			return fail(errors.Wrapf(api.ErrNotMapped, "shm: %s is empty", path))
		}
		if err := unix.Ftruncate(fd, int64(size)); err != nil {
			return fail(errors.Wrap(err, "shm: ftruncate"))
		}
		existing = size
	}
	if existing < size {
		return fail(errors.Wrapf(api.ErrSizeMismatch, "shm: %s has %d bytes, %d requested", path, existing, size))
	}
	if alone {
		if err := flock(fd, unix.LOCK_SH); err != nil {
			return fail(errors.Wrap(err, "shm: flock"))
		}
	}

	data, err := unix.Mmap(fd, 0, existing, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fail(errors.Wrap(err, "shm: mmap"))
	}
	return &mapping{f: f, path: path, persistent: persistent}, data, false, nil
}

func (m *mapping) close(data []byte) error {
	err := unix.Munmap(data)
	if !m.persistent && flock(int(m.f.Fd()), unix.LOCK_EX|unix.LOCK_NB) == nil {
		if rerr := os.Remove(m.path); rerr != nil && !os.IsNotExist(rerr) && err == nil {
			err = rerr
		}
	}
	if cerr := m.f.Close(); err == nil {
		err = cerr
	}
	return errors.Wrap(err, "shm: close")
}

func removeMapping(name string) error {
	err := os.Remove(regionPath(name))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "shm: remove")
	}
	return nil
}

func flock(fd, how int) error {
	for {
		err := unix.Flock(fd, how)
		if err != unix.EINTR {
			return err
		}
	}
}
