package infra

import (
	"context"
	"sync"
	"testing"
	"time"

	"vedabeam-landing/middleware/ratelimit/domain"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestFixedWindowStore_AllowsUpToLimit(t *testing.T) {
	s := NewFixedWindowStore(5, 15*time.Minute)
	lim := s.Get(domain.Key("192.168.1.1"))

	for i := 0; i < 5; i++ {
		dec := lim.Allow(t0.Add(time.Duration(i) * time.Second))
		if !dec.Allowed {
			t.Fatalf("expected attempt %d to be allowed", i+1)
		}
		if dec.Remaining != 4-i {
			t.Fatalf("expected Remaining=%d, got %d", 4-i, dec.Remaining)
		}
		if !dec.ResetAt.Equal(t0.Add(15 * time.Minute)) {
			t.Fatalf("expected window to reset 15m after first attempt, got %s", dec.ResetAt)
		}
	}

	dec := lim.Allow(t0.Add(10 * time.Second))
	if dec.Allowed {
		t.Fatalf("expected 6th attempt to be rejected")
	}
	if dec.Remaining != 0 {
		t.Fatalf("expected Remaining=0, got %d", dec.Remaining)
	}
	if want := 15*time.Minute - 10*time.Second; dec.RetryAfter != want {
		t.Fatalf("expected RetryAfter=%s, got %s", want, dec.RetryAfter)
	}
}

func TestFixedWindowStore_ResetsAfterWindow(t *testing.T) {
	s := NewFixedWindowStore(2, time.Minute)
	lim := s.Get(domain.Key("ip"))

	lim.Allow(t0)
	lim.Allow(t0)
	if lim.Allow(t0).Allowed {
		t.Fatalf("expected third attempt to be rejected")
	}

	dec := lim.Allow(t0.Add(time.Minute))
	if !dec.Allowed {
		t.Fatalf("expected attempt to be allowed once the window ended")
	}
	if !dec.ResetAt.Equal(t0.Add(2 * time.Minute)) {
		t.Fatalf("expected new window, got reset %s", dec.ResetAt)
	}
}

func TestFixedWindowStore_DeniedAttemptsCountButDoNotExtendWindow(t *testing.T) {
	s := NewFixedWindowStore(1, time.Minute)
	lim := s.Get(domain.Key("ip"))

	lim.Allow(t0)
	for i := 0; i < 3; i++ {
		lim.Allow(t0.Add(30 * time.Second))
	}
	if got := s.State()["ip"].Count; got != 4 {
		t.Fatalf("expected 4 evaluated attempts, got %d", got)
	}
	if !lim.Allow(t0.Add(time.Minute)).Allowed {
		t.Fatalf("expected recovery at the original reset time")
	}
}

func TestFixedWindowStore_KeysAreIndependent(t *testing.T) {
	s := NewFixedWindowStore(1, time.Minute)

	if !s.Get("a").Allow(t0).Allowed {
		t.Fatalf("expected key a allowed")
	}
	if !s.Get("b").Allow(t0).Allowed {
		t.Fatalf("expected key b allowed")
	}
	if s.Get("a").Allow(t0).Allowed {
		t.Fatalf("expected key a rejected")
	}
}

func TestFixedWindowStore_CleanupRemovesExpiredWindows(t *testing.T) {
	s := NewFixedWindowStore(3, time.Minute, WithWindowCleanupEvery(0))
	s.Get("old").Allow(t0)
	s.Get("new").Allow(t0.Add(45 * time.Second))

	s.Cleanup(t0.Add(time.Minute))

	state := s.State()
	if _, ok := state["old"]; ok {
		t.Fatalf("expected expired window to be removed")
	}
	if state["new"].Count != 1 {
		t.Fatalf("expected active window to be kept, got %+v", state)
	}
}

func TestFixedWindowStore_EvictsLeastRecentKeyWhenFull(t *testing.T) {
	s := NewFixedWindowStore(5, time.Minute, WithMaxKeys(2))
	s.Get("a").Allow(t0)
	s.Get("b").Allow(t0)
	s.Get("c").Allow(t0)

	if s.Len() != 2 {
		t.Fatalf("expected 2 tracked keys, got %d", s.Len())
	}
	if _, ok := s.State()["a"]; ok {
		t.Fatalf("expected oldest key to be evicted")
	}
}

func TestFixedWindowStore_ConcurrentAttemptsSameKey(t *testing.T) {
	s := NewFixedWindowStore(50, time.Minute)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Get("shared").Allow(t0).Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Fatalf("expected exactly 50 allowed attempts, got %d", allowed)
	}
	if got := s.State()["shared"].Count; got != 200 {
		t.Fatalf("expected 200 counted attempts, got %d", got)
	}
}

func TestFixedWindowStore_StartJanitorStopsWithContext(t *testing.T) {
	s := NewFixedWindowStore(1, time.Millisecond, WithWindowCleanupEvery(2*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	s.StartJanitor(ctx)

	s.Get("k").Allow(time.Now())
	deadline := time.Now().Add(500 * time.Millisecond)
	for s.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	cancel()

	if s.Len() != 0 {
		t.Fatalf("expected janitor to drop the expired window")
	}
}
