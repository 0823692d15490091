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

	"playpass/internal/directory"
	"playpass/internal/event"
	"playpass/internal/identity"
	identityhandler "playpass/internal/identity/handler"
	"playpass/internal/platform/config"
	"playpass/internal/platform/httpserver"
	"playpass/internal/platform/kafka"
	"playpass/internal/platform/logger"
	"playpass/internal/platform/metrics"
	platformredis "playpass/internal/platform/redis"
	"playpass/internal/pricing"
	"playpass/internal/session"
	sessionhandler "playpass/internal/session/handler"
	httptransport "playpass/internal/transport/http"
)

// main wires dependencies and runs the HTTP server plus the lifecycle event
// worker until a termination signal arrives. Business logic lives in the
// internal services packages.
func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Error("loading configuration failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	engine, err := pricing.New(cfg.Pricing)
	if err != nil {
		log.Error("invalid pricing configuration", "error", err)
		os.Exit(1)
	}

	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("connecting to redis failed", "error", err)
		os.Exit(1)
	}

	var (
		identityStore identity.Store
		sessionStore  session.Store
	)
	checkers := map[string]httptransport.HealthChecker{}
	if redisClient != nil {
		identityStore = identity.NewRedisStore(redisClient.Client)
		sessionStore = session.NewRedisStore(redisClient.Client)
		checkers["redis"] = redisClient
		defer redisClient.Close()
	} else {
		log.Info("redis not configured, using in-memory stores")
		identityStore = identity.NewInMemoryStore()
		sessionStore = session.NewInMemoryStore()
	}

	var archive event.Store
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("opening postgres failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		pgStore := event.NewPostgresStore(db)
		if err := pgStore.Migrate(ctx); err != nil {
			log.Error("migrating event archive failed", "error", err)
			os.Exit(1)
		}
		archive = pgStore
	} else {
		log.Info("postgres not configured, archiving lifecycle events in memory")
		archive = event.NewInMemoryStore()
	}

	producer, err := kafka.NewProducer(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		log.Error("connecting to kafka failed", "error", err)
		os.Exit(1)
	}
	var publisher event.Publisher
	if producer != nil {
		publisher = producer
		defer producer.Close()
	}

	recorder := event.NewRecorder(cfg.EventBuffer, m)
	worker := event.NewWorker(archive, publisher, recorder.Inbox(), log)

	identitySvc := identity.NewService(identityStore)
	dir := directory.New(sessionStore, log)
	sessionSvc := session.NewService(sessionStore, identitySvc, engine,
		session.WithNotifier(dir),
		session.WithRecorder(recorder),
	)

	router := httptransport.NewRouter(log, checkers,
		identityhandler.New(identitySvc, log, m),
		sessionhandler.New(sessionSvc, dir, log, m),
	)

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting playpass", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
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

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
