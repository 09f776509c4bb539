package keylock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func exerciseMutualExclusion(t *testing.T, l Locker) {
	t.Helper()

	var (
		wg      sync.WaitGroup
		inside  int32
		maxSeen int32
		counter int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "place:1")
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			defer unlock()

			n := atomic.AddInt32(&inside, 1)
			if n > atomic.LoadInt32(&maxSeen) {
				atomic.StoreInt32(&maxSeen, n)
			}
			atomic.AddInt32(&counter, 1)
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Fatalf("expected at most one holder, saw %d", maxSeen)
	}
	if counter != 20 {
		t.Fatalf("expected 20 critical sections, got %d", counter)
	}
}

func TestMemoryMutualExclusion(t *testing.T) {
	m := NewMemory()
	exerciseMutualExclusion(t, m)
	if m.size() != 0 {
		t.Fatalf("expected all keys released, %d left", m.size())
	}
}

func TestMemoryIndependentKeys(t *testing.T) {
	m := NewMemory()
	unlockA, err := m.Lock(context.Background(), "a")
	if err != nil {
		t.Fatalf("lock a: %v", err)
	}
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	unlockB, err := m.Lock(ctx, "b")
	if err != nil {
		t.Fatalf("lock b should not wait on a: %v", err)
	}
	unlockB()
}

func TestMemoryLockHonoursContext(t *testing.T) {
	m := NewMemory()
	unlock, _ := m.Lock(context.Background(), "k")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := m.Lock(ctx, "k"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	unlock()
	unlock() // second call is a no-op
	if m.size() != 0 {
		t.Fatalf("expected key cleaned up, %d left", m.size())
	}
}

func newRedisLocker(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedis(client, ttl)
	l.backoff = time.Millisecond
	return l, server
}

func TestRedisMutualExclusion(t *testing.T) {
	l, _ := newRedisLocker(t, time.Second)
	exerciseMutualExclusion(t, l)
}

func TestRedisUnlockRemovesKey(t *testing.T) {
	l, server := newRedisLocker(t, time.Second)

	unlock, err := l.Lock(context.Background(), "user:7")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if !server.Exists("lock:user:7") {
		t.Fatalf("expected lock key to exist")
	}
	if ttl := server.TTL("lock:user:7"); ttl != time.Second {
		t.Fatalf("expected ttl 1s, got %v", ttl)
	}
	unlock()
	if server.Exists("lock:user:7") {
		t.Fatalf("expected lock key removed")
	}
}

func TestRedisUnlockKeepsForeignToken(t *testing.T) {
	l, server := newRedisLocker(t, time.Second)

	unlock, err := l.Lock(context.Background(), "place:9")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	// Lock expired and was taken by another process.
	server.Set("lock:place:9", "someone-else")

	unlock()
	got, err := server.Get("lock:place:9")
	if err != nil || got != "someone-else" {
		t.Fatalf("foreign lock was released: %q %v", got, err)
	}
}

func TestRedisLockWaitsForExpiry(t *testing.T) {
	l, server := newRedisLocker(t, time.Second)

	if _, err := l.Lock(context.Background(), "k"); err != nil {
		t.Fatalf("lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "k"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded while held, got %v", err)
	}

	server.FastForward(2 * time.Second)
	unlock, err := l.Lock(context.Background(), "k")
	if err != nil {
		t.Fatalf("lock after expiry: %v", err)
	}
	unlock()
}

func TestRedisUnavailable(t *testing.T) {
	l, server := newRedisLocker(t, time.Second)
	server.Close()

	if _, err := l.Lock(context.Background(), "k"); err == nil {
		t.Fatalf("expected error when redis is down")
	}
}
