package match

import (
	"fmt"
	"virada/internal/game/card"
	"virada/internal/game/deck"
)

// PlayersPerMatch é fixo: a regra de passar a vez para o dono da carta só é
// bem definida com dois jogadores.
const PlayersPerMatch = 2

// Participant é um assento da sala entregue pelo lobby.
type Participant struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"displayName"`
	Style       card.Style `json:"styleTag"`
	IsBot       bool       `json:"isBot"`
}

// Room é o retrato da sala no momento em que a partida é criada ou muda.
type Room struct {
	ID              string        `json:"id"`
	HostID          string        `json:"hostId"`
	RequiredPlayers int           `json:"requiredPlayerCount"`
	Participants    []Participant `json:"participants"`
}

func (r Room) Seats() []deck.Seat {
	seats := make([]deck.Seat, 0, len(r.Participants))
	for _, p := range r.Participants {
		seats = append(seats, deck.Seat{PlayerID: p.ID, Style: p.Style})
	}
	return seats
}

// Has diz se o participante ainda está na sala.
func (r Room) Has(id string) bool {
	for _, p := range r.Participants {
		if p.ID == id {
			return true
		}
	}
	return false
}

// Humans conta participantes que não são bots.
func (r Room) Humans() int {
	n := 0
	for _, p := range r.Participants {
		if !p.IsBot {
			n++
		}
	}
	return n
}

// Host devolve o anfitrião; sem HostID, o primeiro da lista.
func (r Room) Host() string {
	if r.HostID != "" {
		return r.HostID
	}
	if len(r.Participants) > 0 {
		return r.Participants[0].ID
	}
	return ""
}

// Validate confere se a sala pode iniciar uma partida com cardsPerPlayer cartas.
func (r Room) Validate(cardsPerPlayer int) error {
	if r.RequiredPlayers != 0 && r.RequiredPlayers != PlayersPerMatch {
		return fmt.Errorf("%w: only %d-player matches are supported, room requires %d",
			ErrInvalidConfiguration, PlayersPerMatch, r.RequiredPlayers)
	}
	if len(r.Participants) != PlayersPerMatch {
		return fmt.Errorf("%w: room has %d participants, need %d",
			ErrInvalidConfiguration, len(r.Participants), PlayersPerMatch)
	}
	if err := deck.Validate(r.Seats(), cardsPerPlayer); err != nil {
		return err
	}
	if !r.Has(r.Host()) {
		return fmt.Errorf("%w: host %s is not a participant", ErrInvalidConfiguration, r.HostID)
	}
	return nil
}
