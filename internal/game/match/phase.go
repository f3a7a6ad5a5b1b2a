package match

// Phase é a fase da partida.
//
//	Setup → Shuffling → Distributing → WaitingForPlay → FlippingCard → ResolvingCard → WaitingForPlay | GameOver
type Phase string

const (
	PhaseSetup          Phase = "setup"
	PhaseShuffling      Phase = "shuffling"
	PhaseDistributing   Phase = "distributing"
	PhaseWaitingForPlay Phase = "waiting_for_play"
	PhaseFlippingCard   Phase = "flipping_card"
	PhaseResolvingCard  Phase = "resolving_card"
	PhaseGameOver       Phase = "game_over"
)

func (p Phase) IsTerminal() bool { return p == PhaseGameOver }

// IsRunning é verdadeiro entre a distribuição e o fim da partida.
func (p Phase) IsRunning() bool {
	switch p {
	case PhaseWaitingForPlay, PhaseFlippingCard, PhaseResolvingCard:
		return true
	}
	return false
}

// Motivos de encerramento.
const (
	EndVictory   = "victory"
	EndForfeit   = "forfeit"
	EndAbandoned = "abandoned"
)
