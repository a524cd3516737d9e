package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"custodia/internal/childstate"
	"custodia/internal/geofence"
	zonestore "custodia/internal/geofence/store"
	"custodia/internal/guardian"
	"custodia/internal/history"
	"custodia/internal/notification"
	"custodia/internal/notification/push"
	"custodia/internal/platform/config"
	"custodia/internal/platform/httpserver"
	"custodia/internal/platform/logger"
	"custodia/internal/platform/metrics"
	redisplatform "custodia/internal/platform/redis"
	"custodia/internal/realtime"
	"custodia/internal/token"
	httptransport "custodia/internal/transport/http"
)

// main wires the engine together and keeps the lifecycle small: one HTTP
// server, one evaluation pipeline, one registry, torn down together.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	var (
		zones      zonestore.ZoneStore
		guardians  guardian.Store
		notifStore notification.Store
		histStore  history.Store
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		if err := db.Ping(); err != nil {
			log.Error("ping postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close() //nolint:errcheck
		zones = zonestore.NewPostgresZoneStore(db)
		guardians = guardian.NewPostgresStore(db)
		notifStore = notification.NewPostgresStore(db)
		histStore = history.NewPostgresStore(db)
		log.Info("using postgres-backed stores")
	} else {
		zones = zonestore.NewInMemoryZoneStore()
		guardians = guardian.NewInMemoryStore()
		notifStore = notification.NewInMemoryStore()
		histStore = history.NewInMemoryStore()
		log.Warn("POSTGRES_DSN not set, using in-memory stores")
	}

	var states childstate.Store
	redisClient, err := redisplatform.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
		states = childstate.NewRedisStore(redisClient.Client)
		log.Info("using redis-backed child state")
	} else {
		states = childstate.NewInMemoryStore()
		log.Warn("REDIS_URL not set, child state is process-local")
	}

	verifier := token.NewVerifier(cfg.JWTSigningKey)
	dispatcher := notification.NewDispatcher(notifStore, guardians, push.NewLogSender(log), log, m)
	evaluator := geofence.NewEvaluator()
	pipeline := childstate.NewPipeline(states, zones, evaluator, dispatcher, log, m,
		childstate.WithShards(cfg.PipelineShards),
		childstate.WithQueueSize(cfg.PipelineQueueSize),
		childstate.WithLookupTimeout(cfg.EvaluatorTimeout),
	)

	registry := realtime.NewRegistry(log, m)
	wsHandler := realtime.NewHandler(registry, states, pipeline, dispatcher, guardians, verifier, log, m)

	notifService, err := notification.NewService(notifStore, log)
	if err != nil {
		log.Error("build notification service", "error", err)
		os.Exit(1)
	}
	histService, err := history.NewService(histStore, guardians, log)
	if err != nil {
		log.Error("build history service", "error", err)
		os.Exit(1)
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Verifier:  verifier,
		Logger:    log,
		Websocket: wsHandler,
		Routes: []httptransport.Registrar{
			notification.NewHandler(notifService, log),
			guardian.NewHandler(guardians, log),
			history.NewHandler(histService, log),
			childstate.NewHandler(states, guardians, log),
		},
	})
	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return pipeline.Run(ctx)
	})
	g.Go(func() error {
		log.Info("starting custodia", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		registry.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
