package main

import (
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"rag-chat-cli/internal/config"
	"rag-chat-cli/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured, auth disabled")
	}

	st := server.NewStore()
	router := server.NewRouter(logger, st, server.RouterConfig{
		JWTSecret:   cfg.JWTSecret,
		StreamDelay: time.Duration(cfg.StreamDelayMS) * time.Millisecond,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting stub server", zap.String("port", cfg.HTTPPort))

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
