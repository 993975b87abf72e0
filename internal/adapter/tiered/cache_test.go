package tiered_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Strob0t/ContentForge/internal/adapter/tiered"
)

var errUnavailable = errors.New("kv unavailable")

// memCache is an in-memory cache with injectable failures.
type memCache struct {
	data      map[string][]byte
	getErr    error
	deleteErr error
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (m *memCache) Get(_ context.Context, key string) (data []byte, ok bool, err error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.data, key)
	return nil
}

func TestTiered_Get(t *testing.T) {
	tests := []struct {
		name     string
		inL1     bool
		inL2     bool
		found    bool
		backfill bool
	}{
		{"l1 hit", true, false, true, false},
		{"l2 hit backfills l1", false, true, true, true},
		{"miss", false, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l1, l2 := newMemCache(), newMemCache()
			if tt.inL1 {
				l1.data["env:root:1"] = []byte("v")
			}
			if tt.inL2 {
				l2.data["env:root:1"] = []byte("v")
			}
			c := tiered.New(l1, l2, time.Minute)

			val, found, err := c.Get(context.Background(), "env:root:1")
			if err != nil {
				t.Fatal(err)
			}
			if found != tt.found {
				t.Fatalf("found = %v, want %v", found, tt.found)
			}
			if found && string(val) != "v" {
				t.Errorf("unexpected value %s", val)
			}
			if _, ok := l1.data["env:root:1"]; tt.backfill && !ok {
				t.Error("expected L1 backfill")
			}
		})
	}
}

func TestTiered_L2FailureIsMiss(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	l2.getErr = errUnavailable
	c := tiered.New(l1, l2, time.Minute)

	_, found, err := c.Get(context.Background(), "env:root:1")
	if err != nil {
		t.Fatalf("expected degraded miss, got %v", err)
	}
	if found {
		t.Error("expected miss")
	}
}

func TestTiered_SetBoth(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	c := tiered.New(l1, l2, time.Minute)

	if err := c.Set(context.Background(), "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, ok := l1.data["k"]; !ok {
		t.Error("expected k in L1")
	}
	if _, ok := l2.data["k"]; !ok {
		t.Error("expected k in L2")
	}
}

func TestTiered_DeleteReachesL2WhenL1Fails(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	l1.deleteErr = errUnavailable
	l2.data["k"] = []byte("v")
	c := tiered.New(l1, l2, time.Minute)

	err := c.Delete(context.Background(), "k")
	if !errors.Is(err, errUnavailable) {
		t.Errorf("expected L1 error reported, got %v", err)
	}
	if _, ok := l2.data["k"]; ok {
		t.Error("expected k deleted from L2")
	}
}
