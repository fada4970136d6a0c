package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/maxmindlin/chimp-bot/internal/betting"
	"github.com/maxmindlin/chimp-bot/internal/bot"
	"github.com/maxmindlin/chimp-bot/internal/gateway"
	"github.com/maxmindlin/chimp-bot/internal/playback"
	"github.com/maxmindlin/chimp-bot/internal/producer"
	"github.com/maxmindlin/chimp-bot/internal/shared/cache"
	"github.com/maxmindlin/chimp-bot/internal/shared/config"
	"github.com/maxmindlin/chimp-bot/internal/shared/db"
	skafka "github.com/maxmindlin/chimp-bot/internal/shared/kafka"
	"github.com/maxmindlin/chimp-bot/internal/shared/logger"
	"github.com/maxmindlin/chimp-bot/internal/shared/metrics"
	"github.com/maxmindlin/chimp-bot/internal/wallet"
	"github.com/maxmindlin/chimp-bot/internal/wallet/store"
	"github.com/maxmindlin/chimp-bot/pkg/contracts/events"
)

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Backend de persistência das carteiras
	var st store.Store
	healthFn := func(ctx context.Context) error { return nil }
	switch cfg.WalletBackend {
	case "redis":
		rdb, err := cache.ConnectRedis(cfg.RedisAddr)
		if err != nil {
			log.Fatal("redis", zap.Error(err))
		}
		st = store.NewRedisStore(rdb, "")
		healthFn = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	case "postgres":
		pg, err := db.ConnectPostgres(cfg.PostgresDSN)
		if err != nil {
			log.Fatal("pg", zap.Error(err))
		}
		defer pg.Close()
		st = store.NewPostgresStore(pg)
		healthFn = func(ctx context.Context) error { return pg.PingContext(ctx) }
	default:
		st = store.NewFileStore(cfg.WalletFile)
	}

	ledger, err := wallet.Open(ctx, st)
	if err != nil {
		log.Fatal("load wallets", zap.Error(err))
	}

	engine := betting.NewEngine(ledger)
	engine.OnPlaced = func(betting.Bet) { metrics.BetsPlaced.Inc() }
	engine.OnSettled = func(st betting.Settlement) {
		metrics.BetsSettled.Inc()
		for _, w := range st.Winners {
			metrics.PayoutCoins.Add(float64(w.Amount))
		}
	}

	player := &playback.ExecPlayer{Cmd: cfg.PlayerCmd, Log: log}
	sched := playback.NewScheduler(log, ledger, player)

	// Kafka writers (opcional)
	var kp *producer.KafkaPublisher
	var publ bot.Publisher
	if cfg.KafkaBrokers != "" {
		kp = &producer.KafkaPublisher{
			BetPlacedWriter:   skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced),
			BetSettledWriter:  skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettled),
			TrackPlayedWriter: skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicTrackPlayed),
		}
		defer kp.Close()
		publ = kp
	}

	// Liga callbacks de métrica aos coletores prometheus
	sched.OnStart = func(req playback.Request) {
		metrics.TracksPlayed.Inc()
		if kp == nil {
			return
		}
		pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := kp.PublishTrackPlayed(pubCtx, events.TrackPlayed{
			RequestID: req.ID,
			ChannelID: req.ChannelID,
			PlayerID:  req.PlayerID,
			Query:     req.Query,
			Premium:   req.Priority == playback.PriorityPremium,
		})
		if err != nil {
			log.Warn("publish track_played failed", zap.Error(err))
		}
	}
	sched.OnSkipped = func(playback.Request) { metrics.TracksSkipped.Inc() }
	sched.OnError = func(stage string) { metrics.PlaybackErrors.WithLabelValues(stage).Inc() }
	sched.OnDepth = func(pending int) { metrics.QueueDepth.Set(float64(pending)) }

	b := bot.New(log, cfg.CommandPrefix, ledger, engine, sched, publ)
	b.OnCommand = func(command, result string) {
		metrics.CommandsHandled.WithLabelValues(command, result).Inc()
	}
	b.OnPersist = func() { metrics.WalletPersists.Inc() }

	// metrics/health
	metrics.StartServer(cfg.MetricsPort, healthFn)
	log.Info("metrics/health", zap.String("addr", ":"+cfg.MetricsPort))

	// Consumidor de playback: um só, pela vida do processo
	go func() {
		if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("playback loop stopped", zap.Error(err))
		}
	}()

	gw := &gateway.Client{URL: cfg.GatewayWSURL, Log: log, Bot: b}
	log.Info("chimp-bot running",
		zap.String("gateway", cfg.GatewayWSURL),
		zap.String("wallet_backend", cfg.WalletBackend))
	gw.Start(ctx)

	// Persistência final antes de sair
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ledger.Persist(shutdownCtx); err != nil {
		log.Error("final wallet persist failed", zap.Error(err))
	}
	log.Info("shutdown complete")
}
