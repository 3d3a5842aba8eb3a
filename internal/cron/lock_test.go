package cron

import (
	"context"
	"errors"
	"testing"
	"time"
)

type leaseMemory struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newLeaseMemory() *leaseMemory {
	return &leaseMemory{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *leaseMemory) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	m.ttls[key] = ttl
	return true, nil
}

func (m *leaseMemory) ExpireIfEqual(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	if m.values[key] != value {
		return false, nil
	}
	m.ttls[key] = ttl
	return true, nil
}

func (m *leaseMemory) DelIfEqual(_ context.Context, key, value string) (bool, error) {
	if m.values[key] != value {
		return false, nil
	}
	delete(m.values, key)
	return true, nil
}

// expire simulates the TTL running out.
func (m *leaseMemory) expire(key string) { delete(m.values, key) }

const testLockKey = "boost:lock:cron-worker:test"

func TestRedisLockIsExclusive(t *testing.T) {
	store := newLeaseMemory()
	first, err := NewRedisLock(store, testLockKey, 0)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	second, _ := NewRedisLock(store, testLockKey, 0)

	ctx := context.Background()
	if ok, err := first.Acquire(ctx); err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	if store.ttls[testLockKey] != defaultLockTTL {
		t.Fatalf("expected default ttl, got %v", store.ttls[testLockKey])
	}
	if ok, _ := second.Acquire(ctx); ok {
		t.Fatalf("second acquire should fail while held")
	}
	if err := second.Release(ctx); err != nil {
		t.Fatalf("second release: %v", err)
	}
	if _, ok := store.values[testLockKey]; !ok {
		t.Fatalf("lock released by non-owner")
	}

	if err := first.Release(ctx); err != nil {
		t.Fatalf("first release: %v", err)
	}
	if ok, _ := second.Acquire(ctx); !ok {
		t.Fatalf("expected acquire after release")
	}
}

func TestRedisLockExtendDetectsLostLease(t *testing.T) {
	store := newLeaseMemory()
	lock, _ := NewRedisLock(store, testLockKey, time.Minute)
	ctx := context.Background()

	if err := lock.Extend(ctx); !errors.Is(err, ErrLockLost) {
		t.Fatalf("extend without lease should report lost, got %v", err)
	}
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatalf("acquire failed")
	}
	if err := lock.Extend(ctx); err != nil {
		t.Fatalf("extend: %v", err)
	}

	store.expire(testLockKey)
	successor, _ := NewRedisLock(store, testLockKey, time.Minute)
	if ok, _ := successor.Acquire(ctx); !ok {
		t.Fatalf("successor should acquire expired lease")
	}
	if err := lock.Extend(ctx); !errors.Is(err, ErrLockLost) {
		t.Fatalf("expected ErrLockLost, got %v", err)
	}
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release after loss: %v", err)
	}
	if _, ok := store.values[testLockKey]; !ok {
		t.Fatalf("stale owner removed the successor's lease")
	}
}

func TestRedisLockValidatesInput(t *testing.T) {
	if _, err := NewRedisLock(nil, "key", time.Minute); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := NewRedisLock(newLeaseMemory(), "", time.Minute); err == nil {
		t.Fatal("expected error for empty key")
	}
}
