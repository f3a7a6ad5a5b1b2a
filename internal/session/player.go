package session

import (
	"sync"
	"virada/internal/network"
)

const inboxSize = 16

// PlayerSession é uma conexão websocket e a partida que ela acompanha.
// Os comandos de uma sessão rodam em ordem numa goroutine própria, fora do Hub.
type PlayerSession struct {
	Client *network.Client
	inbox  chan network.Message

	mu          sync.Mutex
	matchID     string
	playerID    string
	unsubscribe func()
}

func NewPlayerSession(client *network.Client) *PlayerSession {
	return &PlayerSession{Client: client, inbox: make(chan network.Message, inboxSize)}
}

// Binding devolve a partida e o jogador assinados; matchID vazio se nenhum.
func (s *PlayerSession) Binding() (matchID, playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matchID, s.playerID
}

// bind troca a assinatura atual pela nova, cancelando a anterior.
func (s *PlayerSession) bind(matchID, playerID string, unsubscribe func()) {
	s.mu.Lock()
	prev := s.unsubscribe
	s.matchID, s.playerID, s.unsubscribe = matchID, playerID, unsubscribe
	s.mu.Unlock()
	if prev != nil {
		prev()
	}
}

// spectate mantém a assinatura mas tira o assento da conexão.
func (s *PlayerSession) spectate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playerID = ""
}

// unbind cancela a assinatura e devolve o vínculo que existia.
func (s *PlayerSession) unbind() (matchID, playerID string) {
	s.mu.Lock()
	prev := s.unsubscribe
	matchID, playerID = s.matchID, s.playerID
	s.matchID, s.playerID, s.unsubscribe = "", "", nil
	s.mu.Unlock()
	if prev != nil {
		prev()
	}
	return matchID, playerID
}
