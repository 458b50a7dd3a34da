package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"bookcatalog/util/cache"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrCacheDown is returned from every FakeCache method while Down is set.
var ErrCacheDown = errors.New("cache unavailable")

// FakeCache is an in-memory cache.Cache. Patterns for DelPattern only
// support a trailing "*", which is all the services use.
type FakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration

	// Down makes every call fail, simulating a Redis outage.
	Down bool
}

var _ cache.Cache = (*FakeCache)(nil)

func NewFakeCache() *FakeCache {
	return &FakeCache{
		entries: map[string][]byte{},
		ttls:    map[string]time.Duration{},
	}
}

func (f *FakeCache) Get(_ context.Context, key string, dest any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Down {
		return false, ErrCacheDown
	}
	raw, ok := f.entries[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (f *FakeCache) Set(_ context.Context, key string, val any, ttlSeconds int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Down {
		return ErrCacheDown
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	f.entries[key] = raw
	f.ttls[key] = time.Duration(ttlSeconds) * time.Second
	return nil
}

func (f *FakeCache) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Down {
		return ErrCacheDown
	}
	for _, k := range keys {
		delete(f.entries, k)
		delete(f.ttls, k)
	}
	return nil
}

func (f *FakeCache) DelPattern(_ context.Context, pattern string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Down {
		return ErrCacheDown
	}
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range f.entries {
		if strings.HasPrefix(k, prefix) {
			delete(f.entries, k)
			delete(f.ttls, k)
		}
	}
	return nil
}

func (f *FakeCache) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Down {
		return false, ErrCacheDown
	}
	_, ok := f.entries[key]
	return ok, nil
}

func (f *FakeCache) AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error {
	return f.Set(ctx, cache.BlacklistKey(token), "1", int(ttl/time.Second))
}

func (f *FakeCache) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	return f.Exists(ctx, cache.BlacklistKey(token))
}

// Has reports whether the key is present, ignoring the Down flag.
func (f *FakeCache) Has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[key]
	return ok
}

// TTL returns the duration the key was stored with.
func (f *FakeCache) TTL(key string) time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ttls[key]
}

// Len returns the number of live entries.
func (f *FakeCache) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}
