package httpapi

import (
	"encoding/json"
	"net/http"

	"vedabeam-landing/internal/waitlist"
)

const (
	msgWelcome        = "Thank you for joining the VedaBeam waitlist! We'll be in touch soon."
	msgInvalidEmail   = "Please enter a valid email address."
	msgTooManySignups = "Too many signup attempts from this IP, please try again later."
	msgBusy           = "Server is busy, please try again shortly."
	msgInternalError  = "Something went wrong. Please try again later."
	msgAPINotFound    = "API endpoint not found"
	contentTypeJSON   = "application/json; charset=utf-8"
)

// apiResponse é o envelope das respostas do endpoint de inscrição e dos erros.
type apiResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Errors  []waitlist.FieldError `json:"errors,omitempty"`
	Stack   string                `json:"stack,omitempty"`
}

type notFoundResponse struct {
	Error string `json:"error"`
	Path  string `json:"path"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeInternalError responde 500; detalhe e stack só fora de produção.
func writeInternalError(w http.ResponseWriter, production bool, detail string, stack []byte) {
	body := apiResponse{Message: msgInternalError}
	if !production {
		body.Message = detail
		body.Stack = string(stack)
	}
	writeJSON(w, http.StatusInternalServerError, body)
}
