// Package ratelimit fornece os middlewares net/http que protegem o endpoint de
// inscrição na waitlist e o servidor como um todo.
//
// Camadas:
//
//   - domain: contratos e tipos (sem net/http)
//   - application: decisão allow/deny e aquisição de vaga com timeout
//   - infra: janela fixa, token bucket, semáforo, estatísticas (memória/Redis)
//   - ratelimit (este pacote): extração da chave do cliente, headers
//     X-RateLimit-* / Retry-After e tradução da decisão para a resposta HTTP
//
// Fluxo por requisição:
//
//  1. Extrai a chave do cliente (header, X-Forwarded-For ou RemoteAddr)
//  2. Pede a decisão à camada application (a tentativa é contabilizada)
//  3. Registra a decisão no StatsStore, se houver (best-effort)
//  4. Se bloqueado, responde via OnReject (429 por padrão)
//  5. Se permitido, guarda a chave no contexto e chama o próximo handler
package ratelimit
