// simple-bot abre várias partidas entre dois jogadores automáticos e joga todas
// pelo websocket. Serve como teste de carga do serviço de partidas.
package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"strconv"
	"time"
	"virada/internal/game/match"
	"virada/internal/matchclient"
	"virada/internal/session/message"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()
	log := logrus.New()

	games := intEnv("BOT_GAMES", 10)
	think := time.Duration(intEnv("BOT_THINK_MS", 300)) * time.Millisecond

	addr, err := matchclient.Discover(os.Getenv("CONSUL_HTTP_ADDR"), getenv("MATCH_SERVICE_NAME", "virada-match"),
		getenv("MATCH_ADDR", "localhost:8083"))
	if err != nil {
		log.Fatalf("Connection FAIL: could not find match service: %v", err)
	}
	api := matchclient.New(addr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < games; i++ {
		g.Go(func() error {
			return playGame(gctx, api, think, log.WithField("game", i))
		})
	}
	if err := g.Wait(); err != nil {
		log.WithError(err).Fatal("FAIL")
	}
	log.Infof("SUCCESS: %d games finished in %v", games, time.Since(start).Round(time.Millisecond))
}

// playGame cria uma partida entre dois jogadores "humanos" e joga cada assento numa conexão.
func playGame(ctx context.Context, api *matchclient.Client, think time.Duration, log logrus.FieldLogger) error {
	suffix := uuid.NewString()[:6]
	a, b := "sim-a-"+suffix, "sim-b-"+suffix
	created, err := api.CreateMatch(ctx, match.Room{
		HostID: a,
		Participants: []match.Participant{
			{ID: a, DisplayName: a, Style: "neon-circuit"},
			{ID: b, DisplayName: b, Style: "minimal-prime"},
		},
	})
	if err != nil {
		return fmt.Errorf("create match: %w", err)
	}
	log = log.WithField("match", created.MatchID)

	g, gctx := errgroup.WithContext(ctx)
	for _, seat := range []string{a, b} {
		g.Go(func() error {
			return playSeat(gctx, api, created.MatchID, seat, think, log)
		})
	}
	return g.Wait()
}

func playSeat(ctx context.Context, api *matchclient.Client, matchID, me string, think time.Duration, log logrus.FieldLogger) error {
	conn, err := matchclient.Dial(ctx, api.WebSocketURL())
	if err != nil {
		return err
	}
	defer conn.Close()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	if err := conn.Subscribe(matchID, me); err != nil {
		return err
	}

	lastRound := -1
	for {
		ev, err := conn.Next()
		if err != nil {
			return fmt.Errorf("%s: %w", me, err)
		}
		switch ev.Type {
		case message.TypeError:
			return fmt.Errorf("%s: server error: %s", me, ev.Text)
		case message.TypeMatchState:
			st := ev.State
			if st.Phase == match.PhaseGameOver {
				if me == st.HostID {
					log.WithFields(logrus.Fields{"winner": st.Winner, "rounds": st.Round}).Info("Game over")
				}
				return nil
			}
			if st.Phase != match.PhaseWaitingForPlay || st.CurrentTurn != me || st.Round == lastRound {
				continue
			}
			lastRound = st.Round
			// Simula o jogador pensando antes de revelar.
			time.Sleep(think/2 + rand.N(think/2+1))
			if err := conn.Reveal(); err != nil {
				return err
			}
		}
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return def
}
