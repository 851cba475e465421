package waitlist

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SignupLogger registra inscrições aceitas no log estruturado.
type SignupLogger struct {
	logger *zap.Logger
}

func NewSignupLogger(logger *zap.Logger) *SignupLogger {
	return &SignupLogger{logger: logger.Named("waitlist")}
}

func (l *SignupLogger) Record(_ context.Context, a SignupAttempt) error {
	l.logger.Info("new waitlist signup",
		zap.String("email", a.Email),
		zap.String("name", a.Name),
		zap.String("client_ip", a.ClientIdentity),
		zap.String("user_agent", a.UserAgent),
		zap.String("referrer", a.Referrer),
		zap.String("request_id", a.RequestID),
		zap.String("signup_at", a.Timestamp.UTC().Format(time.RFC3339Nano)),
	)
	return nil
}
