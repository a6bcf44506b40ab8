package main

import (
	"context"
	"database/sql"
	"errors"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jeplugins/request-board/internal/adapters/handler/http"
	"github.com/jeplugins/request-board/internal/adapters/repository/memory"
	"github.com/jeplugins/request-board/internal/adapters/repository/postgres"
	"github.com/jeplugins/request-board/internal/core/ports"
	"github.com/jeplugins/request-board/internal/core/services"
	"github.com/jeplugins/request-board/internal/logger"
)

func main() {
	_ = godotenv.Load()

	level, err := zerolog.ParseLevel(envOr("APP_LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger.Configure(level, os.Getenv("APP_LOG_FILE"))

	repo, cleanup, err := newRepository()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up storage")
	}
	defer cleanup()

	voteService := services.NewVoteService(repo)
	requestService := services.NewRequestService(repo, voteService)

	handler := http.NewHandler(
		http.NewRequestHandler(requestService),
		http.NewVoteHandler(voteService),
		log.Logger,
		os.Getenv("APP_ADMIN_TOKEN"),
	)

	addr := envOr("APP_ADDR", "0.0.0.0:8080")
	server := &stdhttp.Server{Addr: addr, Handler: handler}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("shutdown failed")
	}
}

func newRepository() (ports.RequestRepository, func(), error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Warn().Msg("DATABASE_URL not set, using in-memory store")
		return memory.NewRequestRepository(), func() {}, nil
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, err
	}
	return postgres.NewRequestRepository(db), func() { db.Close() }, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
