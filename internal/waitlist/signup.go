package waitlist

import (
	"context"
	"time"
)

// SignupAttempt é uma inscrição aceita, com o contexto da requisição.
type SignupAttempt struct {
	Email          string
	Name           string
	Timestamp      time.Time
	ClientIdentity string
	UserAgent      string
	Referrer       string
	RequestID      string
}

// Input é o corpo recebido. Email nil significa campo ausente.
type Input struct {
	Email *string
	Name  string
}

// Metadata é o que a camada HTTP sabe sobre quem enviou a inscrição.
type Metadata struct {
	ClientIdentity string
	UserAgent      string
	Referrer       string
	RequestID      string
}

// Recorder recebe inscrições já validadas.
//
// Um Recorder com banco de dados pode ser plugado aqui; o servidor usa apenas
// o SignupLogger.
type Recorder interface {
	Record(ctx context.Context, attempt SignupAttempt) error
}

// RecorderFunc adapta uma função a Recorder.
type RecorderFunc func(ctx context.Context, attempt SignupAttempt) error

func (f RecorderFunc) Record(ctx context.Context, attempt SignupAttempt) error {
	return f(ctx, attempt)
}
