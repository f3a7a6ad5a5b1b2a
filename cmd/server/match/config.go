package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"virada/internal/game/match"

	"github.com/joho/godotenv"
)

// ============================================================================
// Constantes de Configuração Padrão
// ============================================================================
const (
	defaultServiceName = "virada-match"
	defaultServicePort = 8083
	defaultConsulAddr  = "consul-1:8500"
	defaultRedisAddr   = "redis:6379"
	defaultStore       = "memory"
)

// Config armazena todas as configurações do serviço de partidas.
type Config struct {
	ServiceName    string
	ServicePort    int
	HealthPort     int
	AdvertiseHost  string
	ConsulAddrs    string
	ConsulRegister bool
	StoreBackend   string
	StorePrefix    string
	RedisAddr      string
	NatsURL        string
	DatabaseURL    string
	LogLevel       string
	LogFormat      string
	BotOnLeave     bool
	Rules          match.Rules
}

// loadConfig lê as variáveis de ambiente, depois de carregar um .env opcional.
func loadConfig() (*Config, error) {
	// .env é opcional; em contêiner tudo vem do ambiente.
	_ = godotenv.Load()

	cfg := &Config{
		ServiceName:   getenv("MATCH_SERVICE_NAME", defaultServiceName),
		AdvertiseHost: os.Getenv("SERVICE_ADVERTISED_HOSTNAME"),
		ConsulAddrs:   getenv("CONSUL_HTTP_ADDR", defaultConsulAddr),
		StoreBackend:  strings.ToLower(getenv("STORE_BACKEND", defaultStore)),
		StorePrefix:   getenv("STORE_PREFIX", "virada"),
		RedisAddr:     getenv("REDIS_ADDR", defaultRedisAddr),
		NatsURL:       os.Getenv("NATS_URL"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		LogFormat:     getenv("LOG_FORMAT", "text"),
	}
	if cfg.AdvertiseHost == "" {
		cfg.AdvertiseHost, _ = os.Hostname()
	}

	var err error
	if cfg.ServicePort, err = intEnv("MATCH_SERVICE_PORT", defaultServicePort); err != nil {
		return nil, err
	}
	if cfg.HealthPort, err = intEnv("HEALTH_CHECK_PORT", cfg.ServicePort); err != nil {
		return nil, err
	}
	if cfg.ConsulRegister, err = boolEnv("CONSUL_REGISTER", cfg.StoreBackend == "consul"); err != nil {
		return nil, err
	}
	if cfg.BotOnLeave, err = boolEnv("BOT_ON_DISCONNECT", true); err != nil {
		return nil, err
	}

	switch cfg.StoreBackend {
	case "memory", "consul", "redis":
	default:
		return nil, fmt.Errorf("STORE_BACKEND inválido %q (memory|consul|redis)", cfg.StoreBackend)
	}

	if cfg.Rules, err = loadRules(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadRules() (match.Rules, error) {
	rules := match.DefaultRules()
	var err error
	if rules.CardsPerPlayer, err = intEnv("CARDS_PER_PLAYER", rules.CardsPerPlayer); err != nil {
		return rules, err
	}
	if rules.TurnTimeout, err = durationEnv("TURN_TIMEOUT_SECONDS", time.Second, rules.TurnTimeout); err != nil {
		return rules, err
	}
	if rules.FlipDelay, err = durationEnv("FLIP_DELAY_MS", time.Millisecond, rules.FlipDelay); err != nil {
		return rules, err
	}
	if rules.BotDelayMin, err = durationEnv("BOT_DELAY_MIN_MS", time.Millisecond, rules.BotDelayMin); err != nil {
		return rules, err
	}
	if rules.BotDelayMax, err = durationEnv("BOT_DELAY_MAX_MS", time.Millisecond, rules.BotDelayMax); err != nil {
		return rules, err
	}
	rules.FirstTurn = match.FirstTurnMode(getenv("FIRST_TURN", string(rules.FirstTurn)))
	rules.Transfer = match.TransferMode(getenv("TRANSFER_MODE", string(rules.Transfer)))
	return rules, rules.Validate()
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("formato de %s inválido: %w", key, err)
	}
	return n, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("formato de %s inválido: %w", key, err)
	}
	return b, nil
}

func durationEnv(key string, unit time.Duration, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("formato de %s inválido: %w", key, err)
	}
	return time.Duration(n) * unit, nil
}
