package message

// Comandos no sentido cliente -> servidor.
const (
	CmdSubscribe   = "SUBSCRIBE"
	CmdUnsubscribe = "UNSUBSCRIBE"
	CmdReveal      = "REVEAL"
	CmdForfeit     = "FORFEIT"
	CmdBot         = "BOT"
)

// SubscribeRequest liga a conexão a uma partida. Sem playerId a conexão só assiste.
type SubscribeRequest struct {
	MatchID  string `json:"matchId"`
	PlayerID string `json:"playerId,omitempty"`
}
