// Package httpapi monta o roteador HTTP do servidor: inscrição na waitlist,
// health check, status da API, 404 da API e fallback para a landing page.
//
// Ordem dos middlewares globais: request id, access log, recoverer e limite
// de concorrência. O rate limit é aplicado só em POST /api/waitlist, antes de
// ler o corpo.
package httpapi
