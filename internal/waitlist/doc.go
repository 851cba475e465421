// Package waitlist valida e registra inscrições na waitlist.
//
// Uma inscrição nasce na chegada da requisição (SignupAttempt), passa pelo
// Validator e, se aceita, é entregue a um Recorder. Hoje o único Recorder é o
// SignupLogger: as inscrições só vão para o log, não há persistência.
package waitlist
