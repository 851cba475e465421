// Package infra contém implementações concretas para os contratos do pacote domain.
//
//   - FixedWindowStore: contador por chave em janela fixa, chaves num LRU (hashicorp/golang-lru)
//   - Store: token bucket por chave usando golang.org/x/time/rate
//   - ChanPool: semáforo simples para limite de concorrência
//   - MemoryStatsStore / RedisStatsStore: contadores de decisões (allow/deny)
package infra
