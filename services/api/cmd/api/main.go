package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"dishdecide/internal/usertoken"
	"dishdecide/internal/util"
	"dishdecide/pkg/feed"
	"dishdecide/pkg/notify"
	"dishdecide/services/api/internal/app"
	"dishdecide/services/api/internal/config"
	"dishdecide/services/api/internal/server"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := util.InitLogger(cfg.LogLevel)

	jwtLeeway, err := config.ParseJWTLeeway(cfg.JWTLeeway)
	if err != nil {
		util.Fatal("failed to parse jwt leeway", "err", err)
	}
	tokenVerifier, err := usertoken.NewVerifier(usertoken.Config{
		JWKSURL:    cfg.AuthJWKSURL,
		Issuer:     cfg.JWTIssuer,
		Audience:   cfg.JWTAudience,
		Leeway:     jwtLeeway,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	})
	if err != nil {
		util.Fatal("failed to init jwks verifier", "err", err)
	}

	events, err := notify.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		util.Fatal("failed to connect event bus", "err", err)
	}
	defer events.Close()

	changes, err := feed.New(cfg.RedisAddr, cfg.RedisPassword, "")
	if err != nil {
		util.Fatal("failed to connect change feed", "err", err)
	}
	defer changes.Close()

	appCore, err := app.New(app.Config{
		DatabaseURL:    cfg.DatabaseURL,
		Events:         events,
		MinioEndpoint:  cfg.MinioEndpoint,
		MinioAccessKey: cfg.MinioAccessKey,
		MinioSecretKey: cfg.MinioSecretKey,
		MinioUseSSL:    cfg.MinioUseSSL,
	})
	if err != nil {
		util.Fatal("failed to init app", "err", err)
	}

	httpServer := server.New(server.Config{
		App:           appCore,
		TokenVerifier: tokenVerifier,
		Feed:          changes,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // SSE streams stay open
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("api server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
