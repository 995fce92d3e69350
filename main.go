package main

import (
	"os"
	"os/signal"
	"syscall"

	"eshop/internal/config"
	"eshop/pkg/logger"
	"eshop/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	bootLog := logger.New(logger.Config{Console: true})
	if err != nil {
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Console: !cfg.IsProduction(),
	})

	// --- Application ---
	a, err := newApp(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer a.Close()

	// --- Order event consumer ---
	if a.mq != nil {
		if err := a.mq.ConsumeOrderEvents(rabbitmq.LogOrderEvents(log)); err != nil {
			log.Error().Err(err).Msg("failed to start order event consumer")
		}
	}

	// --- HTTP server ---
	go func() {
		log.Info().Str("addr", cfg.AppPort).Str("env", cfg.AppEnv).Msg("starting server")
		if err := a.fiber.Listen(cfg.AppPort); err != nil {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	if err := a.fiber.Shutdown(); err != nil {
		log.Error().Err(err).Msg("error during Fiber shutdown")
	}
	log.Info().Msg("server gracefully stopped")
}
