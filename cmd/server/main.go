package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"nestsync/internal/audit"
	"nestsync/internal/jwtauth"
	"nestsync/internal/platform/config"
	"nestsync/internal/platform/httpserver"
	"nestsync/internal/platform/logger"
	"nestsync/internal/platform/metrics"
	"nestsync/internal/platform/postgres"
	"nestsync/internal/record"
	"nestsync/internal/record/handler"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	db, err := postgres.Open(cfg.Postgres.URL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	var decisionStore record.Store
	if db != nil {
		decisionStore = record.NewPostgresStore(db)
	} else {
		log.Warn("postgres not configured, decisions are held in memory only")
		decisionStore = record.NewInMemoryStore()
	}

	inbox := make(chan audit.Event, 256)
	auditPub := audit.NewPublisher(inbox, log)

	sinks := []audit.Sink{audit.NewInMemoryStore()}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.New(ctx, cfg.Postgres.URL)
		if err != nil {
			log.Error("audit store connection failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		sinks = append(sinks, audit.NewPostgresStore(pool))
	}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("kafka audit sink setup failed", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
	}
	auditWorker := audit.NewWorker(inbox, log, sinks...)

	jwtService := jwtauth.NewService(cfg.JWTSigningKey, "nestsync", "nestsync-api")
	recordService := record.NewService(decisionStore, auditPub, m, log)
	decisionHandler := handler.New(recordService, log, m, jwtService)

	router := chi.NewRouter()
	decisionHandler.Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting nestsync recorder", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := auditWorker.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
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
