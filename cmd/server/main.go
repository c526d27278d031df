package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"vouch/internal/bus"
	"vouch/internal/consumer"
	eventstore "vouch/internal/event/store"
	"vouch/internal/insights"
	jwttoken "vouch/internal/jwt_token"
	"vouch/internal/outbox"
	"vouch/internal/platform/config"
	"vouch/internal/platform/httpserver"
	"vouch/internal/platform/logger"
	"vouch/internal/platform/metrics"
	"vouch/internal/platform/postgres"
	platformredis "vouch/internal/platform/redis"
	"vouch/internal/processed"
	"vouch/internal/replay"
	trustservice "vouch/internal/trust/service"
	historystore "vouch/internal/trust/store/history"
	nodestore "vouch/internal/trust/store/node"
	httptransport "vouch/internal/transport/http"
	"vouch/internal/window"
	txrunner "vouch/pkg/platform/tx"
)

// stores bundles one backend's implementations so main wires either Postgres
// or the in-memory development stack through a single seam.
type stores struct {
	runner    txrunner.Runner
	events    eventstore.Store
	processed processed.Store
	nodes     nodestore.Store
	history   historystore.Store
	rollups   insights.Store
	outbox    outbox.Store
	runs      replay.Store
}

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := buildStores(ctx, cfg)
	if err != nil {
		log.Error("storage init failed", "error", err)
		os.Exit(1)
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis init failed", "error", err)
		os.Exit(1)
	}
	var cache *goredis.Client
	if redisClient != nil {
		cache = redisClient.Client
		defer redisClient.Close()
	}

	kafka, err := bus.NewKafka(cfg.KafkaBrokers, cfg.KafkaGroup, cfg.EventTopics, log)
	if err != nil {
		log.Error("kafka init failed", "error", err)
		os.Exit(1)
	}
	defer kafka.Close()
	if err := kafka.EnsureTopics(ctx, cfg.EmitTopic); err != nil {
		log.Error("topic provisioning failed", "error", err)
		os.Exit(1)
	}

	m := metrics.New()

	trust := trustservice.New(st.nodes, st.history, trustservice.DefaultWeights(), log)
	agg := insights.NewService(st.rollups, cfg.MinK, m)
	win := window.New(st.events, cache, log)

	emitter := outbox.NewEmitter(kafka, st.outbox, cfg.EmitTopic, log)
	sweeper := outbox.NewSweeper(st.outbox, kafka, cfg.SweepInterval, log, m)

	engine := replay.NewEngine(
		st.runs, st.runner, st.events, st.nodes, st.history, st.processed,
		trust, agg, emitter, m, log,
	)

	pipeline := consumer.NewPipeline(
		st.runner, st.events, st.processed, trust, agg, win, m, log,
	).WithGate(replay.NewGate(st.runs))

	jwtSvc := jwttoken.NewJWTService(cfg.JWTSigningKey, "vouch", "vouch-api")
	router := httptransport.NewRouter(
		httptransport.NewTrustHandler(trust, log),
		httptransport.NewAdminHandler(engine, log),
		httptransport.NewInsightsHandler(agg, log),
		httptransport.RouterConfig{
			JWTValidator:  jwttoken.NewMiddlewareAdapter(jwtSvc),
			InternalToken: cfg.InternalToken,
			InsightToken:  cfg.InsightToken,
			Production:    cfg.Production(),
		},
		m,
		log,
	)

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting vouch", "addr", cfg.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return kafka.Run(gctx, consumer.Handler(pipeline, log))
	})
	g.Go(func() error {
		return sweeper.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("shutdown with error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

// buildStores opens Postgres when a DSN is configured and falls back to the
// in-memory stack for local development; derived state then lives only as
// long as the process.
func buildStores(ctx context.Context, cfg config.Server) (stores, error) {
	if cfg.PostgresDSN == "" {
		return stores{
			runner:    txrunner.PassthroughRunner{},
			events:    eventstore.NewMemory(),
			processed: processed.NewMemory(),
			nodes:     nodestore.NewMemory(),
			history:   historystore.NewMemory(),
			rollups:   insights.NewMemory(),
			outbox:    outbox.NewMemory(),
			runs:      replay.NewMemory(),
		}, nil
	}

	db, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return stores{}, err
	}
	return stores{
		runner:    txrunner.NewSQLRunner(db),
		events:    eventstore.NewPostgres(db),
		processed: processed.NewPostgres(db),
		nodes:     nodestore.NewPostgres(db),
		history:   historystore.NewPostgres(db),
		rollups:   insights.NewPostgres(db),
		outbox:    outbox.NewPostgres(db),
		runs:      replay.NewPostgres(db),
	}, nil
}
