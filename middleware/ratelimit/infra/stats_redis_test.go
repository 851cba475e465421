package infra

import (
	"context"
	"strings"
	"testing"
	"time"

	"vedabeam-landing/middleware/ratelimit/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var statsAt = time.Date(2026, 5, 1, 10, 42, 30, 0, time.UTC)

func newRedisStats(t *testing.T, opts ...RedisStatsOption) (*RedisStatsStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStatsStore(rdb, opts...), mr
}

func TestRedisStatsStore_RecordWritesAllHashes(t *testing.T) {
	s, mr := newRedisStats(t, WithStatsTTL(time.Hour), WithStatsTrackKeys(true))
	ctx := context.Background()

	events := []domain.StatsEvent{
		{Key: "1.1.1.1", Allowed: true, Method: "POST", Path: "/api/waitlist", At: statsAt},
		{Key: "1.1.1.1", Allowed: false, Method: "POST", Path: "/api/waitlist", At: statsAt},
	}
	for _, ev := range events {
		if err := s.Record(ctx, ev); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	total := "waitlist:ratelimit:total"
	if mr.HGet(total, "allowed") != "1" || mr.HGet(total, "denied") != "1" {
		t.Fatalf("unexpected total hash: allowed=%q denied=%q", mr.HGet(total, "allowed"), mr.HGet(total, "denied"))
	}
	if ttl := mr.TTL(total); ttl != 0 {
		t.Fatalf("expected total without TTL, got %s", ttl)
	}

	bucket := "waitlist:ratelimit:minute:202605011042"
	if mr.HGet(bucket, "allowed") != "1" || mr.HGet(bucket, "denied") != "1" {
		t.Fatalf("unexpected minute bucket")
	}
	if ttl := mr.TTL(bucket); ttl != time.Hour {
		t.Fatalf("expected bucket TTL 1h, got %s", ttl)
	}

	route := "waitlist:ratelimit:route"
	if mr.HGet(route, "POST /api/waitlist:allowed") != "1" || mr.HGet(route, "POST /api/waitlist:denied") != "1" {
		t.Fatalf("unexpected route hash")
	}

	key := "waitlist:ratelimit:key:1.1.1.1"
	if mr.HGet(key, "denied") != "1" {
		t.Fatalf("unexpected key hash")
	}
	if ttl := mr.TTL(key); ttl != time.Hour {
		t.Fatalf("expected key TTL 1h, got %s", ttl)
	}
}

func TestRedisStatsStore_BucketNoneAndNoKeys(t *testing.T) {
	s, mr := newRedisStats(t, WithStatsPrefix(":app:stats:"), WithStatsBucket(" NONE "))

	if err := s.Record(context.Background(), domain.StatsEvent{Key: "k", Allowed: true, At: statsAt}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	keys := mr.Keys()
	if len(keys) != 1 || keys[0] != "app:stats:total" {
		t.Fatalf("expected only the total hash, got %v", keys)
	}
}

func TestRedisStatsStore_Totals(t *testing.T) {
	s, _ := newRedisStats(t)
	ctx := context.Background()

	c, err := s.Totals(ctx)
	if err != nil || c != (domain.Counters{}) {
		t.Fatalf("expected zero counters on empty redis, got %+v %v", c, err)
	}

	for _, allowed := range []bool{true, true, false} {
		_ = s.Record(ctx, domain.StatsEvent{Allowed: allowed, At: statsAt})
	}

	c, err = s.Totals(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Allowed != 2 || c.Denied != 1 {
		t.Fatalf("unexpected totals: %+v", c)
	}
}

func TestRedisStatsStore_TotalsParseError(t *testing.T) {
	s, mr := newRedisStats(t)
	mr.HSet("waitlist:ratelimit:total", "denied", "not-a-number")

	_, err := s.Totals(context.Background())
	if err == nil || !strings.Contains(err.Error(), "parse denied") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestRedisStatsStore_ErrorsWhenRedisDown(t *testing.T) {
	s, mr := newRedisStats(t)
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := s.Record(ctx, domain.StatsEvent{Allowed: true}); err == nil {
		t.Fatalf("expected record error with redis down")
	}
	if _, err := s.Totals(ctx); err == nil {
		t.Fatalf("expected totals error with redis down")
	}
}
