// Package domain define os contratos do rate limit de inscrições e do limite
// de concorrência do servidor.
//
// Nada aqui conhece net/http, Redis ou x/time/rate: a camada infra implementa
// os contratos e a camada application aplica as regras em cima deles.
package domain
