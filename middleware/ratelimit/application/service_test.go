package application

import (
	"testing"
	"time"

	"vedabeam-landing/middleware/ratelimit/domain"
)

type fakeLimiter struct {
	dec   domain.Decision
	calls int
	at    time.Time
}

func (f *fakeLimiter) Allow(now time.Time) domain.Decision {
	f.calls++
	f.at = now
	return f.dec
}

type fakeStore struct {
	lim domain.Limiter
}

func (s fakeStore) Get(domain.Key) domain.Limiter { return s.lim }

var now = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func TestService_Decide_AllowsWhenNoStore(t *testing.T) {
	svc := Service{}
	dec := svc.Decide("k", now)
	if !dec.Allowed {
		t.Fatalf("expected allowed")
	}
	if dec.RetryAfter != 0 {
		t.Fatalf("expected RetryAfter=0 when allowed, got %s", dec.RetryAfter)
	}
}

func TestService_Decide_AllowsWhenStoreHasNoLimiter(t *testing.T) {
	svc := Service{Store: fakeStore{}}
	if dec := svc.Decide("k", now); !dec.Allowed {
		t.Fatalf("expected allowed")
	}
}

func TestService_Decide_PassesClockAndQuota(t *testing.T) {
	lim := &fakeLimiter{dec: domain.Decision{Allowed: true, Limit: 5, Remaining: 4, RetryAfter: time.Minute}}
	svc := Service{Store: fakeStore{lim: lim}, RetryAfter: 5 * time.Second}

	dec := svc.Decide("k", now)
	if !dec.Allowed {
		t.Fatalf("expected allowed")
	}
	if !lim.at.Equal(now) {
		t.Fatalf("expected limiter to receive %s, got %s", now, lim.at)
	}
	if dec.Limit != 5 || dec.Remaining != 4 {
		t.Fatalf("expected quota 5/4, got %d/%d", dec.Limit, dec.Remaining)
	}
	if dec.RetryAfter != 0 {
		t.Fatalf("expected RetryAfter cleared when allowed, got %s", dec.RetryAfter)
	}
}

func TestService_Decide_BlocksWithRetryAfterDefault(t *testing.T) {
	svc := Service{Store: fakeStore{lim: &fakeLimiter{}}}
	dec := svc.Decide("k", now)
	if dec.Allowed {
		t.Fatalf("expected blocked")
	}
	if dec.RetryAfter != 1*time.Second {
		t.Fatalf("expected default RetryAfter=1s, got %s", dec.RetryAfter)
	}
}

func TestService_Decide_BlocksWithConfiguredRetryAfter(t *testing.T) {
	svc := Service{Store: fakeStore{lim: &fakeLimiter{}}, RetryAfter: 2500 * time.Millisecond}
	dec := svc.Decide("k", now)
	if dec.Allowed {
		t.Fatalf("expected blocked")
	}
	if dec.RetryAfter != 2500*time.Millisecond {
		t.Fatalf("expected RetryAfter=2.5s, got %s", dec.RetryAfter)
	}
}

func TestService_Decide_PrefersLimiterRetryAfter(t *testing.T) {
	lim := &fakeLimiter{dec: domain.Decision{RetryAfter: 90 * time.Second}}
	svc := Service{Store: fakeStore{lim: lim}, RetryAfter: time.Second}
	dec := svc.Decide("k", now)
	if dec.RetryAfter != 90*time.Second {
		t.Fatalf("expected limiter RetryAfter=90s, got %s", dec.RetryAfter)
	}
}
