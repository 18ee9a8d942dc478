// File: pool/objpool.go
// Author: momentics <momentics@gmail.com>

package pool

import "sync"

// ObjectPool is a typed pool of reusable objects.
type ObjectPool[T any] interface {
	Get() T
	Put(T)
}

// SyncPool is an ObjectPool over sync.Pool. Objects pass through reset,
// when set, before they are pooled again.
type SyncPool[T any] struct {
	pool  sync.Pool
	reset func(T)
}

var _ ObjectPool[*[]byte] = (*SyncPool[*[]byte])(nil)

// NewSyncPool creates a pool that builds new objects with creator.
func NewSyncPool[T any](creator func() T) *SyncPool[T] {
	sp := &SyncPool[T]{}
	sp.pool.New = func() any { return creator() }
	return sp
}

// WithReset sets the hook applied by Put and returns sp.
func (sp *SyncPool[T]) WithReset(fn func(T)) *SyncPool[T] {
	sp.reset = fn
	return sp
}

func (sp *SyncPool[T]) Get() T {
	return sp.pool.Get().(T)
}

func (sp *SyncPool[T]) Put(obj T) {
	if sp.reset != nil {
		sp.reset(obj)
	}
	sp.pool.Put(obj)
}
