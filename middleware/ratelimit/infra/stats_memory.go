package infra

import (
	"context"
	"sync"

	"vedabeam-landing/middleware/ratelimit/domain"
)

// MemoryStatsStore guarda os contadores de decisão em memória.
// É o padrão quando o Redis de estatísticas não está habilitado.
//
// Não faz expiração: o byKey só cresce se trackKeys estiver ligado.
type MemoryStatsStore struct {
	mu      sync.Mutex
	total   domain.Counters
	byRoute map[string]domain.Counters
	byKey   map[string]domain.Counters

	trackKeys bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackKeys(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackKeys = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byRoute: make(map[string]domain.Counters),
		byKey:   make(map[string]domain.Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	route := ev.Method + " " + ev.Path

	s.mu.Lock()
	defer s.mu.Unlock()

	bump(&s.total, ev.Allowed)
	c := s.byRoute[route]
	bump(&c, ev.Allowed)
	s.byRoute[route] = c

	if s.trackKeys {
		k := s.byKey[string(ev.Key)]
		bump(&k, ev.Allowed)
		s.byKey[string(ev.Key)] = k
	}
	return nil
}

func bump(c *domain.Counters, allowed bool) {
	if allowed {
		c.Allowed++
		return
	}
	c.Denied++
}

// Totals implementa domain.StatsReader.
func (s *MemoryStatsStore) Totals(context.Context) (domain.Counters, error) {
	return s.Total(), nil
}

func (s *MemoryStatsStore) Total() domain.Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) ByRoute() map[string]domain.Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCounters(s.byRoute)
}

func (s *MemoryStatsStore) ByKey() map[string]domain.Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCounters(s.byKey)
}

func copyCounters(in map[string]domain.Counters) map[string]domain.Counters {
	out := make(map[string]domain.Counters, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
