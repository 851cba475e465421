package infra

import (
	"sync"
	"time"

	"vedabeam-landing/middleware/ratelimit/domain"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMaxKeys = 10000

// FixedWindowStore conta tentativas por chave numa janela fixa.
//
// A janela de uma chave começa na primeira tentativa e termina em
// início+window; toda tentativa avaliada (permitida ou negada) incrementa o
// contador. As chaves ficam num LRU limitado a maxKeys, então um volume muito
// grande de IPs distintos despeja os menos recentes em vez de crescer sem fim.
type FixedWindowStore struct {
	mu           sync.Mutex
	windows      *lru.Cache[string, *domain.Window]
	limit        int
	window       time.Duration
	maxKeys      int
	cleanupEvery time.Duration
}

type FixedWindowOption func(*FixedWindowStore)

// WithMaxKeys limita quantas chaves ficam em memória (padrão 10000).
func WithMaxKeys(n int) FixedWindowOption {
	return func(s *FixedWindowStore) { s.maxKeys = n }
}

// WithWindowCleanupEvery define o intervalo do janitor (0 desliga).
func WithWindowCleanupEvery(d time.Duration) FixedWindowOption {
	return func(s *FixedWindowStore) { s.cleanupEvery = d }
}

func NewFixedWindowStore(limit int, window time.Duration, opts ...FixedWindowOption) *FixedWindowStore {
	s := &FixedWindowStore{
		limit:        limit,
		window:       window,
		maxKeys:      defaultMaxKeys,
		cleanupEvery: time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxKeys <= 0 {
		s.maxKeys = defaultMaxKeys
	}
	// lru.New só falha com tamanho <= 0.
	s.windows, _ = lru.New[string, *domain.Window](s.maxKeys)
	return s
}

func (s *FixedWindowStore) Limit() int                  { return s.limit }
func (s *FixedWindowStore) Window() time.Duration       { return s.window }
func (s *FixedWindowStore) CleanupEvery() time.Duration { return s.cleanupEvery }

// Get implementa domain.LimiterStore.
func (s *FixedWindowStore) Get(key domain.Key) domain.Limiter {
	return fixedWindowLimiter{store: s, key: string(key)}
}

type fixedWindowLimiter struct {
	store *FixedWindowStore
	key   string
}

func (l fixedWindowLimiter) Allow(now time.Time) domain.Decision {
	return l.store.take(l.key, now)
}

func (s *FixedWindowStore) take(key string, now time.Time) domain.Decision {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows.Get(key)
	if !ok || w.Expired(now) {
		w = &domain.Window{ResetAt: now.Add(s.window)}
		s.windows.Add(key, w)
	}
	w.Count++

	dec := domain.Decision{Limit: s.limit, ResetAt: w.ResetAt}
	if w.Count <= s.limit {
		dec.Allowed = true
		dec.Remaining = s.limit - w.Count
		return dec
	}
	dec.RetryAfter = w.ResetAt.Sub(now)
	return dec
}

// Cleanup remove as janelas já encerradas em `now`.
func (s *FixedWindowStore) Cleanup(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range s.windows.Keys() {
		if w, ok := s.windows.Peek(k); ok && w.Expired(now) {
			s.windows.Remove(k)
		}
	}
}

// State devolve uma cópia das janelas ativas.
func (s *FixedWindowStore) State() map[string]domain.Window {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]domain.Window, s.windows.Len())
	for _, k := range s.windows.Keys() {
		if w, ok := s.windows.Peek(k); ok {
			out[k] = *w
		}
	}
	return out
}

// Len retorna quantas chaves estão sendo rastreadas.
func (s *FixedWindowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.windows.Len()
}

// StartJanitor inicia uma goroutine que remove janelas expiradas periodicamente.
// Pare cancelando o contexto.
func (s *FixedWindowStore) StartJanitor(ctx DoneContext) {
	runEvery(ctx, s.cleanupEvery, func() { s.Cleanup(time.Now()) })
}
