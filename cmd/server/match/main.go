package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"virada/internal/game/match"
	"virada/internal/network"
	"virada/internal/services/bus"
	"virada/internal/services/cluster"
	"virada/internal/services/gameroom"
	"virada/internal/services/stats"
	"virada/internal/session"
	"virada/internal/store"
	"virada/internal/store/consulkv"
	"virada/internal/store/memory"
	"virada/internal/store/redisdoc"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. CARREGA A CONFIGURAÇÃO
	cfg, err := loadConfig()
	if err != nil {
		logrus.Fatalf("Fatal: Falha ao carregar configuração: %v", err)
	}
	logger := newLogger(cfg)
	logger.WithFields(logrus.Fields{
		"service": cfg.ServiceName,
		"port":    cfg.ServicePort,
		"store":   cfg.StoreBackend,
	}).Info("[Main] Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("[Main] Service stopped with error")
	}
	logger.Info("[Main] Bye.")
}

func newLogger(cfg *Config) *logrus.Logger {
	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

func run(ctx context.Context, cfg *Config, logger *logrus.Logger) error {
	health := cluster.NewHealthAggregator()

	// 2. CONSUL (store e/ou registro)
	var consulMgr *cluster.ConsulManager
	if cfg.StoreBackend == "consul" || cfg.ConsulRegister {
		var err error
		consulMgr, err = cluster.NewConsulManager(cfg.ConsulAddrs, logger)
		if err != nil {
			return fmt.Errorf("consul: %w", err)
		}
		defer consulMgr.Close()
		health.AddCheck("consul", func(context.Context) error { return consulMgr.Ping() })
	}

	// 3. STORE DAS PARTIDAS
	st, err := openStore(ctx, cfg, consulMgr, logger)
	if err != nil {
		return err
	}
	defer st.Close()
	health.AddCheck("store", func(ctx context.Context) error {
		_, err := st.Get(ctx, "health-probe")
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	})

	// 4. ESTATÍSTICAS E BARRAMENTO
	memStats := stats.NewMemory()
	recorders := stats.Multi{memStats}
	var reader stats.Reader = memStats
	opts := gameroom.Options{Rules: cfg.Rules, Logger: logger}

	if cfg.NatsURL != "" {
		b, err := bus.Connect(cfg.NatsURL, cfg.ServiceName, logger)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer b.Close()
		opts.Publisher = b
		recorders = append(recorders, stats.NewPublisher(b.Conn()))
		health.AddCheck("bus", func(context.Context) error { return b.Ping() })

		if logger.IsLevelEnabled(logrus.DebugLevel) {
			unsubscribe, err := b.SubscribeState(bus.AllMatches, func(s *match.State) {
				logger.WithFields(logrus.Fields{"match": s.MatchID, "phase": s.Phase, "round": s.Round}).Debug("[Main] State on bus")
			})
			if err == nil {
				defer unsubscribe()
			}
		}
	}

	if cfg.DatabaseURL != "" {
		pg, err := stats.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("postgres schema: %w", err)
		}
		recorders = append(recorders, pg)
		reader = pg
		health.AddCheck("stats", pg.Ping)
	}
	opts.Recorder = recorders

	// 5. PARTIDAS, SESSÕES E ROTAS
	rm := gameroom.NewRoomManager(gameroom.NewApplier(st, logger), opts)
	sessions := session.NewGameHandler(rm, session.Options{BotOnDisconnect: cfg.BotOnLeave}, logger)
	ws := network.NewServer(sessions, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", health.Handler())
	mux.HandleFunc("/ws", ws.Handler())
	mux.HandleFunc("/stats/", stats.Handler(reader, logger))
	gameroom.RegisterHandlers(mux, rm, cfg.AdvertiseHost, cfg.ServicePort, logger)

	servers := []*http.Server{{
		Addr:              fmt.Sprintf(":%d", cfg.ServicePort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if cfg.HealthPort != cfg.ServicePort {
		healthMux := http.NewServeMux()
		healthMux.HandleFunc("/health", health.Handler())
		servers = append(servers, &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.HealthPort),
			Handler:           healthMux,
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	// 6. REGISTRO NO CONSUL
	if cfg.ConsulRegister {
		reg := cluster.Registration{
			ServiceName: cfg.ServiceName,
			ServicePort: cfg.ServicePort,
			HealthPort:  cfg.HealthPort,
			Hostname:    cfg.AdvertiseHost,
		}
		register := func() {
			if err := cluster.RegisterService(consulMgr.GetClient(), reg); err != nil {
				logger.WithError(err).Error("[Main] Consul registration failed")
				return
			}
			logger.WithField("id", reg.ServiceID()).Info("[Main] Service registered in Consul")
		}
		register()
		consulMgr.OnReconnect(register)
		defer func() {
			if err := cluster.DeregisterService(consulMgr.GetClient(), reg); err != nil {
				logger.WithError(err).Warn("[Main] Consul deregistration failed")
			}
		}()
	}

	// 7. SOBE TUDO
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return rm.Run(gctx) })
	g.Go(func() error {
		ws.Run(gctx)
		return nil
	})
	for _, srv := range servers {
		g.Go(func() error {
			logger.WithField("addr", srv.Addr).Info("[Main] HTTP server starting")
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	sessions.Wait()
	return err
}

func openStore(ctx context.Context, cfg *Config, consulMgr *cluster.ConsulManager, logger logrus.FieldLogger) (store.Store, error) {
	switch cfg.StoreBackend {
	case "consul":
		return consulkv.New(consulMgr, logger, consulkv.WithPrefix(cfg.StorePrefix+"/matches")), nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		return redisdoc.New(rdb, cfg.StorePrefix, logger), nil
	default:
		return memory.New(), nil
	}
}
