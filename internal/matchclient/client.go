// Package matchclient fala com o serviço de partidas: API HTTP e websocket.
// Usado pelo cliente de terminal e pelo bot de carga.
package matchclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"virada/internal/game/match"
	"virada/internal/services/cluster"
	"virada/internal/services/gameroom"

	consul "github.com/hashicorp/consul/api"
)

// APIError é uma resposta de erro do serviço.
type APIError struct {
	Status  int
	Message string
	Notice  bool
}

func (e *APIError) Error() string {
	return fmt.Sprintf("match service: %d %s", e.Status, e.Message)
}

// Client chama a API HTTP de um serviço de partidas.
type Client struct {
	addr string
	http *http.Client
}

// New recebe "host:porta" ou uma URL http(s).
func New(addr string) *Client {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return &Client{
		addr: strings.TrimRight(addr, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// Addr é a URL base em uso.
func (c *Client) Addr() string { return c.addr }

// WebSocketURL é o endereço do /ws do mesmo serviço.
func (c *Client) WebSocketURL() string {
	return "ws" + strings.TrimPrefix(c.addr, "http") + "/ws"
}

// CreateMatch pede a criação (ou devolve a já existente) da partida da sala.
func (c *Client) CreateMatch(ctx context.Context, room match.Room) (*gameroom.CreateMatchResponse, error) {
	var out gameroom.CreateMatchResponse
	if err := c.do(ctx, http.MethodPost, "/matches", room, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get devolve o estado atual da partida.
func (c *Client) Get(ctx context.Context, matchID string) (*match.State, error) {
	var st match.State
	if err := c.do(ctx, http.MethodGet, "/matches/"+matchID, nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Reveal joga pelo HTTP, sem websocket.
func (c *Client) Reveal(ctx context.Context, matchID, playerID string) (*match.State, error) {
	var st match.State
	err := c.do(ctx, http.MethodPost, "/matches/"+matchID+"/reveal", gameroom.PlayerActionRequest{PlayerID: playerID}, &st)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.addr+path, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e gameroom.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &APIError{Status: resp.StatusCode, Message: e.Error, Notice: e.Notice}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Discover acha uma instância saudável do serviço pelo Consul; sem Consul usa fallback.
func Discover(consulAddr, serviceName, fallback string) (string, error) {
	if consulAddr == "" {
		return fallback, nil
	}
	cfg := consul.DefaultConfig()
	cfg.Address = consulAddr
	client, err := consul.NewClient(cfg)
	if err != nil {
		return "", err
	}
	return cluster.DiscoverAnyHealthy(client, serviceName)
}
