package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"example.com/roster/internal/api"
	"example.com/roster/internal/config"
	"example.com/roster/internal/domain"
	"example.com/roster/internal/events"
	"example.com/roster/internal/logging"
	"example.com/roster/internal/observability"
	"example.com/roster/internal/registry"
	httptransport "example.com/roster/internal/transport/http"
)

const eventBatchSize = 50

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seed := registry.DefaultSeed()
	if cfg.SeedFile != "" {
		seed, err = registry.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			logger.Fatal("failed to load seed", zap.String("path", cfg.SeedFile), zap.Error(err))
		}
	}
	for _, activity := range seed {
		observability.RecordRosterSize(activity.Name, len(activity.Participants))
	}
	reg := registry.NewInMemory(seed)

	opts := []domain.Option{domain.WithLogger(logger.Named("domain"))}
	var dispatcher *events.Dispatcher
	if cfg.EventsEnabled() {
		publisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.RosterTopic)
		defer publisher.Close()

		dispatcher = events.NewDispatcher(publisher, cfg.EventBufferSize, eventBatchSize, logger.Named("events"))
		go dispatcher.Start(ctx)
		opts = append(opts, domain.WithPublisher(dispatcher))
		logger.Info("roster events enabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.RosterTopic))
	}

	service := domain.NewService(reg, opts...)

	handler := api.NewHandler(service, logger.Named("api"))
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	server := httptransport.NewServer(
		httptransport.DefaultServerConfig(cfg.HTTPAddress),
		httptransport.Chain(mux,
			httptransport.RequestLogger(logger.Named("http")),
			httptransport.CORS(cfg.CORSAllowedOrigin),
		),
	)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("roster api listening", zap.String("address", cfg.HTTPAddress), zap.Int("activities", len(seed)))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-shutdownCh

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}

	cancel()
	if dispatcher != nil {
		dispatcher.Wait()
	}
}
