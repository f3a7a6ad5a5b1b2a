// Cliente de terminal do Virada: cria ou entra numa partida e joga pelo websocket.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"time"
	"virada/internal/game/match"
	"virada/internal/matchclient"
	"virada/internal/session/message"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// view guarda o que o terminal mostra; a goroutine de leitura atualiza.
type view struct {
	mu       sync.Mutex
	me       string
	matchID  string
	last     *match.State
	watching bool
}

func main() {
	_ = godotenv.Load()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	addr, err := matchclient.Discover(os.Getenv("CONSUL_HTTP_ADDR"), getenv("MATCH_SERVICE_NAME", "virada-match"),
		getenv("MATCH_ADDR", "localhost:8083"))
	if err != nil {
		log.Fatalf("Não foi possível encontrar o serviço de partidas: %v", err)
	}
	api := matchclient.New(addr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	conn, err := matchclient.Dial(ctx, api.WebSocketURL())
	if err != nil {
		log.Fatalf("Falha ao conectar: %v", err)
	}
	defer conn.Close()
	log.Infof("Conectado a %s", api.WebSocketURL())

	v := &view{me: getenv("PLAYER_ID", "player-"+uuid.NewString()[:8])}
	done := make(chan struct{})
	go readLoop(conn, v, done)

	scanner := bufio.NewScanner(os.Stdin)
	input := make(chan string)
	go func() {
		for scanner.Scan() {
			input <- strings.TrimSpace(scanner.Text())
		}
		close(input)
	}()

	printPrompt(v)
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			log.Info("Desconectado do servidor.")
			return
		case line, ok := <-input:
			if !ok {
				return
			}
			handleInput(ctx, api, conn, v, line, input)
			printPrompt(v)
		}
	}
}

func handleInput(ctx context.Context, api *matchclient.Client, conn *matchclient.Conn, v *view, line string, input <-chan string) {
	v.mu.Lock()
	watching := v.watching
	v.mu.Unlock()

	if !watching {
		switch line {
		case "1":
			room := match.Room{
				HostID: v.me,
				Participants: []match.Participant{
					{ID: v.me, DisplayName: v.me, Style: "neon-circuit"},
					{ID: "bot-" + uuid.NewString()[:4], DisplayName: "Bot", Style: "flux-ember", IsBot: true},
				},
			}
			created, err := api.CreateMatch(ctx, room)
			if err != nil {
				fmt.Printf("\nErro: %v\n", err)
				return
			}
			subscribe(conn, v, created.MatchID, v.me)
		case "2":
			fmt.Print("ID da partida: ")
			id := <-input
			fmt.Print("Seu ID de jogador (vazio para assistir): ")
			player := <-input
			subscribe(conn, v, strings.TrimSpace(id), strings.TrimSpace(player))
		default:
			fmt.Println("Opção inválida.")
		}
		return
	}

	var err error
	switch line {
	case "r", "":
		err = conn.Reveal()
	case "f":
		err = conn.Forfeit()
	case "b":
		err = conn.HandToBot()
	case "0":
		err = conn.Unsubscribe()
		v.mu.Lock()
		v.watching, v.matchID, v.last = false, "", nil
		v.mu.Unlock()
	default:
		fmt.Println("Opção inválida.")
	}
	if err != nil {
		fmt.Printf("\nErro ao enviar: %v\n", err)
	}
}

func subscribe(conn *matchclient.Conn, v *view, matchID, playerID string) {
	if err := conn.Subscribe(matchID, playerID); err != nil {
		fmt.Printf("\nErro ao enviar: %v\n", err)
		return
	}
	v.mu.Lock()
	v.matchID, v.watching = matchID, true
	if playerID != "" {
		v.me = playerID
	}
	v.mu.Unlock()
}

func readLoop(conn *matchclient.Conn, v *view, done chan struct{}) {
	defer close(done)
	for {
		ev, err := conn.Next()
		if err != nil {
			return
		}
		switch ev.Type {
		case message.TypeMatchState:
			v.mu.Lock()
			v.last = ev.State
			me := v.me
			v.mu.Unlock()
			printState(ev.State, me)
		case message.TypeSubscribed:
			fmt.Printf("\n[Inscrito na partida %s]\n", ev.Text)
		case message.TypeNotice:
			fmt.Printf("\n[Aviso] %s\n", ev.Text)
		case message.TypeError:
			fmt.Printf("\n[Erro] %s\n", ev.Text)
		}
	}
}

func printState(st *match.State, me string) {
	fmt.Printf("\n=== Partida %s | rodada %d | fase %s ===\n", st.MatchID, st.Round, st.Phase)
	ids := append([]string(nil), st.Order...)
	sort.Strings(ids)
	for _, id := range ids {
		p := st.Players[id]
		marker := " "
		if id == st.CurrentTurn {
			marker = ">"
		}
		who := p.DisplayName
		if id == me {
			who += " (você)"
		}
		if p.IsBot {
			who += " [bot]"
		}
		fmt.Printf(" %s %-24s estilo=%-14s pilha=%2d coletadas=%2d/%d\n",
			marker, who, p.Style, p.Pile.Size(), p.CardsInWinPile(), st.CardsPerPlayer)
	}
	if lr := st.LastRevealed; lr != nil {
		if lr.Action == match.ActionPassed {
			fmt.Printf(" última: %s passou a vez (pilha vazia)\n", lr.By)
		} else {
			fmt.Printf(" última: %s %s (%s) por %s -> %s\n", lr.Symbol, shortID(lr.CardID), lr.TrueStyle, lr.By, lr.Action)
		}
	}
	if st.Phase == match.PhaseGameOver {
		if st.Winner != "" {
			fmt.Printf(" *** Vencedor: %s (%s) ***\n", st.Winner, st.EndReason)
		} else {
			fmt.Printf(" *** Partida encerrada (%s) ***\n", st.EndReason)
		}
	}
}

func printPrompt(v *view) {
	time.Sleep(200 * time.Millisecond)
	v.mu.Lock()
	watching := v.watching
	v.mu.Unlock()
	if !watching {
		fmt.Print(`
--- Virada da Sorte ---
1. Nova partida contra um bot
2. Entrar / assistir partida
-----------------------
Digite uma opção: `)
		return
	}
	fmt.Print("\n(Em Jogo) r=revelar  f=desistir  b=passar para bot  0=sair: ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
