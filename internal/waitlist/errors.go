package waitlist

import (
	"errors"
	"strings"
)

var (
	ErrMissingEmail = errors.New("missing email")
	ErrEmptyEmail   = errors.New("empty email")
	ErrEmailLength  = errors.New("email length out of bounds")
	ErrInvalidEmail = errors.New("invalid email address")
	ErrNameLength   = errors.New("name too long")
	ErrInvalidBody  = errors.New("invalid request body")
)

// FieldError descreve um campo rejeitado; é o item da lista `errors` da resposta 400.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`

	err error
}

func (e FieldError) Unwrap() error { return e.err }

// ValidationError agrupa os campos rejeitados de uma inscrição.
// errors.Is funciona com os sentinelas de cada campo.
type ValidationError struct {
	Fields []FieldError
}

func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.err != nil {
			errs = append(errs, f.err)
		}
	}
	return errs
}

func fieldError(field, message string, err error) FieldError {
	return FieldError{Field: field, Message: message, err: err}
}

// BodyError é a rejeição usada quando o corpo nem chega a ser decodificado.
func BodyError(detail string) *ValidationError {
	return NewValidationError(fieldError("body", detail, ErrInvalidBody))
}
