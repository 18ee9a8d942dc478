// File: shm/shm.go
// Author: momentics <momentics@gmail.com>
//
// Named shared memory region.

package shm

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/momentics/melcomm/api"
)

// SharedMemory is a mapped named region. Two processes opening the same
// name see the same bytes. The creator fixes the size.
type SharedMemory struct {
	name    string
	request int
	data    []byte
	m       *mapping
}

// Open maps the region called name.
//
// OpenOrCreate creates a zero-filled region of size bytes when none exists.
// OpenOnly fails when the region does not exist; size may then be 0 to
// accept any existing size. Opening an existing region smaller than size
// fails with api.ErrSizeMismatch.
//
// Open always returns a non-nil region. On failure Mapped reports false
// and the error says why.
func Open(name string, size int, mode api.OpenMode, opts ...Option) (*SharedMemory, error) {
	o := applyOptions(opts)
	s := &SharedMemory{name: SanitizeName(name), request: size}
	if s.name == "" || size < 0 || (size == 0 && mode == api.OpenOrCreate) {
		return s, errors.Wrapf(api.ErrInvalidArgument, "shm: open %q size %d", name, size)
	}
	m, data, err := openMapping(s.name, size, mode, o.persistent)
	if err != nil {
		if !errors.Is(err, api.ErrNotMapped) {
			zap.L().Warn("shm: failed to map region",
				zap.String("name", s.name), zap.Int("size", size), zap.Stringer("mode", mode), zap.Error(err))
		}
		return s, err
	}
	s.m, s.data = m, data
	zap.L().Debug("shm: region mapped", zap.String("name", s.name), zap.Int("size", len(data)))
	return s, nil
}

// Name returns the sanitized region name.
func (s *SharedMemory) Name() string { return s.name }

// Mapped reports whether the region is usable.
func (s *SharedMemory) Mapped() bool { return s.m != nil }

// Bytes returns the mapped bytes, or nil when unmapped. The slice is
// invalid after Close.
func (s *SharedMemory) Bytes() []byte { return s.data }

// Size returns the mapped length, which may exceed the requested size.
func (s *SharedMemory) Size() int { return len(s.data) }

// Close unmaps the region. On POSIX the last closer removes the name
// unless the region was opened persistent.
func (s *SharedMemory) Close() error {
	if s.m == nil {
		return nil
	}
	m, data := s.m, s.data
	s.m, s.data = nil, nil
	return m.close(data)
}

// Remove deletes a region name from the OS namespace. Processes that have
// it mapped keep their mapping.
func Remove(name string) error {
	n := SanitizeName(name)
	if n == "" {
		return errors.Wrapf(api.ErrInvalidArgument, "shm: remove %q", name)
	}
	return removeMapping(n)
}

// SanitizeName maps name into the portable identifier set
// [A-Za-z0-9_.-], replacing every other byte with '_'. The result has the
// same byte length as name.
func SanitizeName(name string) string {
	b := []byte(name)
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '_', c == '.', c == '-':
		default:
			b[i] = '_'
		}
	}
	return string(b)
}

const namePrefix = "melshm_"
