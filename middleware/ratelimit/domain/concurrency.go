package domain

import "context"

// SlotPool limita quantas requisições são atendidas ao mesmo tempo.
//
// Acquire bloqueia até conseguir uma vaga ou até o ctx encerrar.
// A função de release devolvida deve ser chamada exatamente uma vez.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
	// InUse retorna quantas vagas estão ocupadas agora.
	InUse() int
}
