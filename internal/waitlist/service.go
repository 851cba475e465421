package waitlist

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Service valida a inscrição e a entrega ao Recorder.
type Service struct {
	validator *Validator
	recorder  Recorder
	logger    *zap.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(recorder Recorder, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		validator: NewValidator(),
		recorder:  recorder,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Join valida e registra uma inscrição. O único erro possível é *ValidationError:
// falhas do Recorder são logadas e não mudam o resultado.
func (s *Service) Join(ctx context.Context, in Input, meta Metadata) (SignupAttempt, error) {
	email, name, err := s.validator.Validate(in)
	if err != nil {
		return SignupAttempt{}, err
	}

	attempt := SignupAttempt{
		Email:          email,
		Name:           name,
		Timestamp:      s.now().UTC(),
		ClientIdentity: meta.ClientIdentity,
		UserAgent:      meta.UserAgent,
		Referrer:       meta.Referrer,
		RequestID:      meta.RequestID,
	}

	if err := s.record(ctx, attempt); err != nil {
		s.logger.Warn("failed to record waitlist signup",
			zap.Error(err),
			zap.String("request_id", meta.RequestID),
		)
	}
	return attempt, nil
}

func (s *Service) record(ctx context.Context, attempt SignupAttempt) (err error) {
	if s.recorder == nil {
		return nil
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("recorder panic: %v", p)
		}
	}()
	return s.recorder.Record(ctx, attempt)
}
