package waitlist

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MinEmailLength = 3
	MaxEmailLength = 254
	MaxNameLength  = 100
)

const (
	msgEmailRequired = "Email is required"
	msgEmailEmpty    = "Please enter your email address"
	msgEmailLength   = "Email must be between 3 and 254 characters"
	msgEmailInvalid  = "Please enter a valid email address"
	msgNameLength    = "Name must be at most 100 characters"
)

// email (RFC 5322 do validator) é mais estrito que local@domínio.com:
// rejeita, por exemplo, TLD numérico e "_" no domínio.
type signupFields struct {
	Email string `validate:"required,min=3,max=254,email,domain_dot"`
	Name  string `validate:"omitempty,max=100"`
}

// Validator aplica a política de e-mail/nome. Não faz I/O e é seguro para uso concorrente.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// RegisterValidation só falha com tag vazia ou nil.
	_ = v.RegisterValidation("domain_dot", validateDomainDot)
	return &Validator{v: v}
}

// domain_dot: local@domínio com as duas partes não vazias e um ponto interno no domínio.
func validateDomainDot(fl validator.FieldLevel) bool {
	local, domain, ok := splitAddress(fl.Field().String())
	if !ok || local == "" {
		return false
	}
	dot := strings.Index(domain, ".")
	return dot > 0 && !strings.HasSuffix(domain, ".")
}

func splitAddress(addr string) (local, domain string, ok bool) {
	at := strings.LastIndex(addr, "@")
	if at < 0 {
		return "", "", false
	}
	return addr[:at], addr[at+1:], true
}

// Normalize remove espaços e põe o domínio em minúsculas.
func Normalize(email string) string {
	email = strings.TrimSpace(email)
	local, domain, ok := splitAddress(email)
	if !ok {
		return email
	}
	return local + "@" + strings.ToLower(domain)
}

// Validate devolve o e-mail e nome normalizados, ou um *ValidationError.
func (v *Validator) Validate(in Input) (email, name string, err error) {
	if in.Email == nil {
		return "", "", NewValidationError(fieldError("email", msgEmailRequired, ErrMissingEmail))
	}

	fields := signupFields{
		Email: Normalize(*in.Email),
		Name:  strings.TrimSpace(in.Name),
	}
	if err := v.v.Struct(fields); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return "", "", err
		}
		out := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, translate(fe))
		}
		return "", "", NewValidationError(out...)
	}
	return fields.Email, fields.Name, nil
}

// ValidateEmail valida só o e-mail.
func (v *Validator) ValidateEmail(email string) error {
	_, _, err := v.Validate(Input{Email: &email})
	return err
}

func translate(fe validator.FieldError) FieldError {
	if fe.StructField() == "Name" {
		return fieldError("name", msgNameLength, ErrNameLength)
	}
	switch fe.Tag() {
	case "required":
		return fieldError("email", msgEmailEmpty, ErrEmptyEmail)
	case "min", "max":
		return fieldError("email", msgEmailLength, ErrEmailLength)
	default:
		return fieldError("email", msgEmailInvalid, ErrInvalidEmail)
	}
}
