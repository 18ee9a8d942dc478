// File: melshare/melshare.go
// Author: momentics <momentics@gmail.com>

package melshare

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/momentics/melcomm/api"
	"github.com/momentics/melcomm/packet"
	"github.com/momentics/melcomm/shm"
)

// DefaultSize is the region size used when none is configured.
const DefaultSize = 4096

// MutexSuffix is appended to the share name to name its mutex.
const MutexSuffix = "_mutex"

var (
	// ErrTooLarge is returned by writes exceeding a sub-region capacity.
	// The region is left untouched.
	ErrTooLarge = errors.New("melshare: payload exceeds region capacity")
	// ErrCorrupt is returned when a stored length exceeds its sub-region.
	ErrCorrupt = errors.New("melshare: stored length exceeds region capacity")
)

var order = binary.NativeEndian

type options struct {
	size    int
	shmOpts []shm.Option
}

// Option configures New.
type Option func(*options)

// WithSize sets the size of a region created by New.
func WithSize(n int) Option {
	return func(o *options) { o.size = n }
}

// WithPersistent keeps the region after the last handle closes.
func WithPersistent(persistent bool) Option {
	return func(o *options) { o.shmOpts = append(o.shmOpts, shm.WithPersistent(persistent)) }
}

// WithLockTimeout bounds the wait for the share's mutex.
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) { o.shmOpts = append(o.shmOpts, shm.WithLockTimeout(d)) }
}

// WithClock sets the clock measuring lock deadlines.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.shmOpts = append(o.shmOpts, shm.WithClock(c)) }
}

// MelShare is one named share. Every access holds the share's mutex for
// the whole read or write, so readers never observe a partial update.
type MelShare struct {
	name   string
	region *shm.SharedMemory
	mu     *shm.NamedMutex
	layout Layout
}

// New opens the share called name. With api.OpenOnly the share must exist
// and its size is taken from the existing region. New never returns nil;
// when the region is unavailable Mapped reports false and the error is
// returned.
func New(name string, mode api.OpenMode, opts ...Option) (*MelShare, error) {
	o := options{size: DefaultSize}
	for _, opt := range opts {
		opt(&o)
	}
	m := &MelShare{name: name}

	size := o.size
	if mode == api.OpenOnly {
		size = 0
	} else if _, err := LayoutFor(size); err != nil {
		return m, err
	}
	region, err := shm.Open(name, size, mode, o.shmOpts...)
	if err != nil {
		return m, errors.Wrapf(err, "melshare: open %q", name)
	}
	layout, err := LayoutFor(region.Size())
	if err != nil {
		region.Close()
		return m, err
	}
	// The mutex is created on demand: it may have been removed with the
	// last handle while a persistent region lived on.
	mu, err := shm.NewNamedMutex(name+MutexSuffix, api.OpenOrCreate, o.shmOpts...)
	if err != nil {
		region.Close()
		return m, errors.Wrapf(err, "melshare: open mutex for %q", name)
	}
	m.region, m.mu, m.layout = region, mu, layout
	return m, nil
}

// Remove deletes the share and its mutex from the OS namespace.
func Remove(name string) error {
	err := shm.Remove(name)
	if merr := shm.RemoveNamedMutex(name + MutexSuffix); err == nil {
		err = merr
	}
	return err
}

// Name returns the share name.
func (m *MelShare) Name() string { return m.name }

// Mapped reports whether the share is usable.
func (m *MelShare) Mapped() bool { return m.region != nil && m.region.Mapped() }

// Layout returns the region layout.
func (m *MelShare) Layout() Layout { return m.layout }

// DataCapacity returns the data sub-region size in bytes.
func (m *MelShare) DataCapacity() int { return m.layout.DataCap }

// MessageCapacity returns the message sub-region size in bytes.
func (m *MelShare) MessageCapacity() int { return m.layout.MsgCap }

func (m *MelShare) check() error {
	if !m.Mapped() {
		return errors.Wrapf(api.ErrNotMapped, "melshare: %q", m.name)
	}
	return nil
}

// Write stores values as the share's data.
func (m *MelShare) Write(values []float64) error {
	if err := m.check(); err != nil {
		return err
	}
	if len(values)*8 > m.layout.DataCap {
		return errors.Wrapf(ErrTooLarge, "%d values, room for %d", len(values), m.layout.MaxValues())
	}
	m.mu.WithLock(func() {
		b := m.region.Bytes()
		d := b[dataOffset:]
		for i, v := range values {
			order.PutUint64(d[i*8:], math.Float64bits(v))
		}
		order.PutUint32(b[dataTypeOffset:], uint32(TypeFloat64))
		order.PutUint32(b[dataLenOffset:], uint32(len(values)))
	})
	return nil
}

// Read returns the stored values. It returns an empty result when nothing
// was written or the data is not float64 values.
func (m *MelShare) Read() ([]float64, error) {
	return m.ReadInto(nil)
}

// ReadInto is Read appending into dst[:0].
func (m *MelShare) ReadInto(dst []float64) ([]float64, error) {
	dst = dst[:0]
	if err := m.check(); err != nil {
		return dst, err
	}
	var err error
	m.mu.WithLock(func() {
		b := m.region.Bytes()
		if DataType(order.Uint32(b[dataTypeOffset:])) != TypeFloat64 {
			return
		}
		n := int(order.Uint32(b[dataLenOffset:]))
		if n > m.layout.MaxValues() {
			err = errors.Wrapf(ErrCorrupt, "%d values stored", n)
			return
		}
		d := b[dataOffset:]
		for i := 0; i < n; i++ {
			dst = append(dst, math.Float64frombits(order.Uint64(d[i*8:])))
		}
	})
	return dst, err
}

// DataType returns the tag of the stored data.
func (m *MelShare) DataType() (DataType, error) {
	if err := m.check(); err != nil {
		return TypeNone, err
	}
	var t DataType
	m.mu.WithLock(func() {
		t = DataType(order.Uint32(m.region.Bytes()[dataTypeOffset:]))
	})
	return t, nil
}

// WritePacket stores the packet bytes as the share's data.
func (m *MelShare) WritePacket(p *packet.Packet) error {
	if err := m.check(); err != nil {
		return err
	}
	payload := p.Data()
	if len(payload) > m.layout.DataCap {
		return errors.Wrapf(ErrTooLarge, "%d bytes, room for %d", len(payload), m.layout.DataCap)
	}
	m.mu.WithLock(func() {
		b := m.region.Bytes()
		copy(b[dataOffset:], payload)
		order.PutUint32(b[dataTypeOffset:], uint32(TypeBytes))
		order.PutUint32(b[dataLenOffset:], uint32(len(payload)))
	})
	return nil
}

// ReadPacket loads stored packet bytes into p. p is left empty when the
// share holds no packet.
func (m *MelShare) ReadPacket(p *packet.Packet) error {
	p.Clear()
	if err := m.check(); err != nil {
		return err
	}
	var err error
	m.mu.WithLock(func() {
		b := m.region.Bytes()
		if DataType(order.Uint32(b[dataTypeOffset:])) != TypeBytes {
			return
		}
		n := int(order.Uint32(b[dataLenOffset:]))
		if n > m.layout.DataCap {
			err = errors.Wrapf(ErrCorrupt, "%d bytes stored", n)
			return
		}
		p.Reset(b[dataOffset : dataOffset+n])
	})
	return err
}

// WriteMessage stores msg in the message sub-region. The data sub-region
// is not touched.
func (m *MelShare) WriteMessage(msg string) error {
	if err := m.check(); err != nil {
		return err
	}
	if len(msg) > m.layout.MsgCap {
		return errors.Wrapf(ErrTooLarge, "message of %d bytes, room for %d", len(msg), m.layout.MsgCap)
	}
	m.mu.WithLock(func() {
		b := m.region.Bytes()
		copy(b[m.layout.MsgOffset:], msg)
		order.PutUint32(b[m.layout.MsgLenOffset:], uint32(len(msg)))
	})
	return nil
}

// ReadMessage returns the stored message, or "" when none was written.
func (m *MelShare) ReadMessage() (string, error) {
	if err := m.check(); err != nil {
		return "", err
	}
	var (
		msg string
		err error
	)
	m.mu.WithLock(func() {
		b := m.region.Bytes()
		n := int(order.Uint32(b[m.layout.MsgLenOffset:]))
		if n > m.layout.MsgCap {
			err = errors.Wrapf(ErrCorrupt, "message of %d bytes stored", n)
			return
		}
		msg = string(b[m.layout.MsgOffset : m.layout.MsgOffset+n])
	})
	return msg, err
}

// Close releases the region and the mutex.
func (m *MelShare) Close() error {
	var err error
	if m.mu != nil {
		err = m.mu.Close()
		m.mu = nil
	}
	if m.region != nil {
		if rerr := m.region.Close(); err == nil {
			err = rerr
		}
		m.region = nil
	}
	return err
}
