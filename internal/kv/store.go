// internal/kv/store.go
//
// Serialised front for the LRU core.
//
// Context
// -------
// cache.LRU assumes its caller already holds exclusive access.  Store is
// that caller: one sync.Mutex guards one LRU for the whole duration of each
// operation, so callers on any goroutine observe a single total order of
// operations.  Store also turns the core's boolean results into the error
// taxonomy below, keeps the Prometheus instruments current, and logs
// evictions.
//
// Workflow
// --------
//  1. cmd/kvd builds one Store from config.Cache at boot.
//  2. internal/server maps each HTTP verb onto one Store method.
//  3. GetOrLoad lets embedders use the store read-through; concurrent misses
//     for one key share a single loader call via singleflight.
package kv

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/kvd/internal/cache"
	"github.com/yanizio/kvd/internal/config"
	"github.com/yanizio/kvd/internal/metrics"
)

var (
	// ErrNotFound is returned by Set, Get, and Delete for an absent key.
	ErrNotFound = errors.New("key not found")
	// ErrExists is returned by PutIfAbsent for a key that is already present.
	ErrExists = errors.New("key already present")
	// ErrTooLarge is returned when an entry cannot fit even after evicting
	// every other entry.
	ErrTooLarge = errors.New("entry exceeds capacity")
)

// LoadFunc produces the value for a key missing from the store.
type LoadFunc func(ctx context.Context, key string) ([]byte, error)

// Stats is a point-in-time snapshot of the store.
type Stats struct {
	Entries       int  `json:"entries"`
	Bytes         int  `json:"bytes"`
	Capacity      int  `json:"capacity"`
	PromoteOnRead bool `json:"promote_on_read"`
}

// Store is safe for concurrent use.  Zero value is unusable; construct with
// New.
type Store struct {
	mu  sync.Mutex
	lru *cache.LRU

	sfg singleflight.Group
	log *zap.SugaredLogger
}

// New builds an empty Store sized by cfg.  log may be nil.
func New(cfg config.Cache, log *zap.SugaredLogger) *Store {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Store{log: log}
	s.lru = cache.New(cfg.MaxSize,
		cache.WithPromoteOnRead(cfg.PromoteOnRead),
		cache.WithEvictCallback(s.evicted),
	)

	metrics.CapacityBytes.Set(float64(cfg.MaxSize))
	s.publishLocked()
	log.Infow("store online",
		"max_size", cfg.MaxSize,
		"promote_on_read", cfg.PromoteOnRead,
	)
	return s
}

// Put inserts key or replaces its value.
func (s *Store) Put(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lru.Put(key, value) {
		return s.rejectLocked(ErrTooLarge, key, len(value))
	}
	s.publishLocked()
	return nil
}

// PutIfAbsent inserts key only when it is not already present.
func (s *Store) PutIfAbsent(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lru.PutIfAbsent(key, value) {
		if s.lru.Contains(key) {
			return s.rejectLocked(ErrExists, key, len(value))
		}
		return s.rejectLocked(ErrTooLarge, key, len(value))
	}
	s.publishLocked()
	return nil
}

// Set replaces the value of an existing key.
func (s *Store) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lru.Set(key, value) {
		if !s.lru.Contains(key) {
			return s.rejectLocked(ErrNotFound, key, len(value))
		}
		return s.rejectLocked(ErrTooLarge, key, len(value))
	}
	s.publishLocked()
	return nil
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.lru.Get(key)
	if !ok {
		metrics.MissesTotal.Inc()
		return nil, fmt.Errorf("get %q: %w", key, ErrNotFound)
	}
	metrics.HitsTotal.Inc()
	return v, nil
}

// Delete removes key.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lru.Delete(key) {
		return s.rejectLocked(ErrNotFound, key, 0)
	}
	s.publishLocked()
	return nil
}

// GetOrLoad returns the stored value for key, calling load on a miss.
// Concurrent misses for the same key share one load.  A loaded value is
// admitted with PutIfAbsent; if it cannot fit it is still returned, just
// not cached.
func (s *Store) GetOrLoad(ctx context.Context, key string, load LoadFunc) ([]byte, error) {
	if v, err := s.Get(key); err == nil {
		return v, nil
	}

	v, err, shared := s.sfg.Do(key, func() (any, error) {
		// Double-check after the singleflight barrier.
		s.mu.Lock()
		if v, ok := s.lru.Peek(key); ok {
			s.mu.Unlock()
			return v, nil
		}
		s.mu.Unlock()

		val, err := load(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("load %q: %w", key, err)
		}
		if err := s.PutIfAbsent(key, val); err != nil && !errors.Is(err, ErrExists) {
			s.log.Debugw("loaded value not cached", "key", key, "err", err)
		}
		return val, nil
	})
	if err != nil {
		return nil, err
	}

	b := v.([]byte)
	if shared {
		// Every waiter gets its own copy.
		b = append([]byte(nil), b...)
	}
	return b, nil
}

// Keys returns a snapshot of keys in MRU→LRU order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Keys()
}

// Stats returns a snapshot of size and policy.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Entries:       s.lru.Len(),
		Bytes:         s.lru.Size(),
		Capacity:      s.lru.MaxSize(),
		PromoteOnRead: s.lru.PromotesOnRead(),
	}
}

// evicted runs under s.mu, from inside the LRU's reclamation loop.
func (s *Store) evicted(key string, value []byte) {
	metrics.EvictionsTotal.Inc()
	s.log.Debugw("evicted", "key", key, "weight", len(key)+len(value))
}

func (s *Store) rejectLocked(err error, key string, size int) error {
	reason := metrics.ReasonTooLarge
	switch err {
	case ErrExists:
		reason = metrics.ReasonExists
	case ErrNotFound:
		reason = metrics.ReasonNotFound
	}
	metrics.Rejections.WithLabelValues(reason).Inc()
	s.log.Debugw("rejected", "key", key, "value_len", size, "reason", reason)
	return fmt.Errorf("%q: %w", key, err)
}

func (s *Store) publishLocked() {
	metrics.Entries.Set(float64(s.lru.Len()))
	metrics.Bytes.Set(float64(s.lru.Size()))
}
