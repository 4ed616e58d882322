// Package memory persists per-unit and per-room records between ticks as
// versionless JSON blobs in a bucketed key-value store.
package memory

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"
)

// Buckets used by the codec.
const (
	BucketUnits = "creeps"
	BucketRooms = "rooms"
)

var ErrNotFound = errors.New("memory: not found")

// Entry describes one stored blob without its contents.
type Entry struct {
	Key       string    `db:"key"`
	Size      int       `db:"size"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Store is the host key-value contract. Keys returns keys in sorted order.
type Store interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, blob []byte) error
	Delete(ctx context.Context, bucket, key string) error
	Keys(ctx context.Context, bucket string) ([]string, error)
	List(ctx context.Context, bucket string) ([]Entry, error)
	Close() error
}

// MapStore keeps everything in process memory.
type MapStore struct {
	mu      sync.Mutex
	buckets map[string]map[string]mapEntry
}

type mapEntry struct {
	blob    []byte
	updated time.Time
}

func NewMapStore() *MapStore {
	return &MapStore{buckets: make(map[string]map[string]mapEntry)}
}

func (s *MapStore) Get(_ context.Context, bucket, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.buckets[bucket][key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(e.blob), nil
}

func (s *MapStore) Put(_ context.Context, bucket, key string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.buckets[bucket]
	if b == nil {
		b = make(map[string]mapEntry)
		s.buckets[bucket] = b
	}
	b[key] = mapEntry{blob: slices.Clone(blob), updated: time.Now().UTC()}
	return nil
}

func (s *MapStore) Delete(_ context.Context, bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets[bucket], key)
	return nil
}

func (s *MapStore) Keys(_ context.Context, bucket string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.buckets[bucket]))
	for k := range s.buckets[bucket] {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

func (s *MapStore) List(ctx context.Context, bucket string) ([]Entry, error) {
	keys, _ := s.Keys(ctx, bucket)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		e := s.buckets[bucket][k]
		out = append(out, Entry{Key: k, Size: len(e.blob), UpdatedAt: e.updated})
	}
	return out, nil
}

func (s *MapStore) Close() error { return nil }
