package infra

import (
	"context"
	"errors"
	"time"

	"vedabeam-landing/middleware/ratelimit/domain"
)

var (
	ErrStatsQueueFull = errors.New("stats queue full")
	ErrStatsNoTotals  = errors.New("stats store does not report totals")
)

const (
	defaultStatsQueueSize    = 1024
	defaultStatsWriteTimeout = 50 * time.Millisecond
)

// AsyncStatsStore tira a gravação de estatísticas do caminho da requisição:
// Record só enfileira e uma goroutine repassa os eventos ao store de destino.
// Fila cheia descarta o evento.
type AsyncStatsStore struct {
	next    domain.StatsStore
	events  chan domain.StatsEvent
	timeout time.Duration
}

type AsyncStatsOption func(*AsyncStatsStore)

func WithStatsQueueSize(n int) AsyncStatsOption {
	return func(s *AsyncStatsStore) {
		if n > 0 {
			s.events = make(chan domain.StatsEvent, n)
		}
	}
}

// WithStatsWriteTimeout limita cada gravação no store de destino.
func WithStatsWriteTimeout(d time.Duration) AsyncStatsOption {
	return func(s *AsyncStatsStore) { s.timeout = d }
}

func NewAsyncStatsStore(next domain.StatsStore, opts ...AsyncStatsOption) *AsyncStatsStore {
	s := &AsyncStatsStore{
		next:    next,
		events:  make(chan domain.StatsEvent, defaultStatsQueueSize),
		timeout: defaultStatsWriteTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record nunca bloqueia.
func (s *AsyncStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	select {
	case s.events <- ev:
		return nil
	default:
		return ErrStatsQueueFull
	}
}

// Start drena a fila numa goroutine até o ctx encerrar.
func (s *AsyncStatsStore) Start(ctx DoneContext) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-s.events:
				s.write(ev)
			}
		}
	}()
}

func (s *AsyncStatsStore) write(ev domain.StatsEvent) {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	// best-effort, igual ao middleware
	_ = s.next.Record(ctx, ev)
}

// Totals repassa ao store de destino quando ele sabe ler os contadores.
func (s *AsyncStatsStore) Totals(ctx context.Context) (domain.Counters, error) {
	r, ok := s.next.(domain.StatsReader)
	if !ok {
		return domain.Counters{}, ErrStatsNoTotals
	}
	return r.Totals(ctx)
}
