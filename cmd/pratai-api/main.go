package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"pratai-api/internal/adapters/amqp"
	"pratai-api/internal/adapters/driver"
	"pratai-api/internal/adapters/postgres"
	"pratai-api/internal/adapters/s3"
	"pratai-api/internal/config"
	"pratai-api/internal/core/functions"
	api "pratai-api/internal/delivery/http"
	"pratai-api/internal/httpx"

	_ "pratai-api/docs"
)

// @title           Pratai API
// @version         1.0
// @description     Control-plane API for the Pratai function-as-a-service platform.
// @host            localhost:8080
// @BasePath        /
func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().
		Str("svc", "pratai-api").Logger()

	cfg := config.MustLoad()
	log.Info().
		Str("driver_endpoint", cfg.DriverEndpoint).
		Str("queue", cfg.QueueName).
		Msg("bootstrapping service")

	db, err := postgres.New(cfg.DatabaseDSN, log)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connect")
	}
	store := postgres.NewStore(db, log)

	blobs := s3.New(cfg.BlobStoreURL, cfg.BlobBucket, log)
	images := driver.New(cfg.DriverEndpoint, httpx.NewClient(log), log)

	queue, err := amqp.NewPublisher(cfg.QueueURL, cfg.QueueName, log)
	if err != nil {
		log.Fatal().Err(err).Msg("broker connect")
	}
	defer queue.Close()

	mgr := functions.NewManager(store, blobs, images, cfg, log)
	dsp := functions.NewDispatcher(queue, log)

	handler := api.NewHandler(mgr, dsp, cfg, log)
	srv := &http.Server{Addr: cfg.ListenAddr, Handler: handler}

	ctx, stop := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("listen", cfg.ListenAddr).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	log.Info().Msg("shutting down server...")
	_ = srv.Shutdown(context.Background())

	log.Info().Msg("shutdown complete")
}
