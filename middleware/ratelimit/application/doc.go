// Package application contém os casos de uso do rate limit de inscrições e do
// limite de concorrência.
//
// Depende apenas do pacote domain. Service.Decide(key, now) devolve a Decision
// (allow/deny, cota restante, reset e retry-after) e ConcurrencyService.Acquire
// aplica o timeout de espera por vaga.
package application
