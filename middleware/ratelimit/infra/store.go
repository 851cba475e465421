package infra

import (
	"math"
	"sync"
	"time"

	"vedabeam-landing/middleware/ratelimit/domain"

	"golang.org/x/time/rate"
)

// Store é uma implementação de infra baseada em token-bucket (x/time/rate)
// com cache por chave e limpeza periódica.
type Store struct {
	mu           sync.Mutex
	entries      map[string]*storeEntry
	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type storeEntry struct {
	bucket   *tokenBucket
	lastSeen time.Time
}

type StoreOption func(*Store)

func WithIdleTTL(d time.Duration) StoreOption {
	return func(s *Store) { s.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) StoreOption {
	return func(s *Store) { s.cleanupEvery = d }
}

func NewStore(rps float64, burst int, opts ...StoreOption) *Store {
	s := &Store{
		entries:      make(map[string]*storeEntry),
		rps:          rate.Limit(rps),
		burst:        burst,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewWindowStore cria um token-bucket equivalente a `limit` tentativas por
// `window`: rajada de `limit` e reposição de uma ficha a cada window/limit.
func NewWindowStore(limit int, window time.Duration, opts ...StoreOption) *Store {
	rps := float64(limit) / window.Seconds()
	return NewStore(rps, limit, opts...)
}

func (s *Store) RPS() float64                { return float64(s.rps) }
func (s *Store) Burst() int                  { return s.burst }
func (s *Store) CleanupEvery() time.Duration { return s.cleanupEvery }

// Get implementa domain.LimiterStore.
func (s *Store) Get(key domain.Key) domain.Limiter {
	return s.bucketFor(string(key))
}

func (s *Store) bucketFor(key string) *tokenBucket {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[key]; ok {
		ent.lastSeen = now
		return ent.bucket
	}

	b := &tokenBucket{lim: rate.NewLimiter(s.rps, s.burst), burst: s.burst}
	s.entries[key] = &storeEntry{bucket: b, lastSeen: now}
	return b
}

func (s *Store) Cleanup() {
	cutoff := time.Now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor inicia uma goroutine que limpa chaves inativas periodicamente.
// Pare cancelando o contexto.
func (s *Store) StartJanitor(ctx DoneContext) {
	runEvery(ctx, s.cleanupEvery, s.Cleanup)
}

type tokenBucket struct {
	lim   *rate.Limiter
	burst int
}

func (b *tokenBucket) Allow(now time.Time) domain.Decision {
	ok := b.lim.AllowN(now, 1)
	tokens := b.lim.TokensAt(now)

	dec := domain.Decision{
		Allowed:   ok,
		Limit:     b.burst,
		Remaining: int(math.Max(0, math.Floor(tokens))),
	}

	perSecond := float64(b.lim.Limit())
	if perSecond <= 0 || math.IsInf(perSecond, 1) {
		return dec
	}
	dec.ResetAt = now.Add(secondsToDuration((float64(b.burst) - tokens) / perSecond))
	if !ok {
		dec.RetryAfter = secondsToDuration((1 - tokens) / perSecond)
	}
	return dec
}

func secondsToDuration(sec float64) time.Duration {
	if sec <= 0 {
		return 0
	}
	return time.Duration(sec * float64(time.Second))
}
