package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"dishdecide/internal/usertoken"
	"dishdecide/internal/util"
	"dishdecide/services/functions/internal/app"
	"dishdecide/services/functions/internal/config"
	"dishdecide/services/functions/internal/server"
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

	appCore, err := app.New(app.Config{
		DatabaseURL:    cfg.DatabaseURL,
		OpenAIBaseURL:  cfg.OpenAIBaseURL,
		OpenAIAPIKey:   cfg.OpenAIAPIKey,
		TextModel:      cfg.TextModel,
		VisionModel:    cfg.VisionModel,
		MinioEndpoint:  cfg.MinioEndpoint,
		MinioAccessKey: cfg.MinioAccessKey,
		MinioSecretKey: cfg.MinioSecretKey,
		MinioUseSSL:    cfg.MinioUseSSL,
	})
	if err != nil {
		util.Fatal("failed to init app", "err", err)
	}

	httpServer, err := server.New(server.Config{
		App:                   appCore,
		TokenVerifier:         tokenVerifier,
		RedisAddr:             cfg.RedisAddr,
		RedisPassword:         cfg.RedisPassword,
		GenerateRatePerMinute: cfg.GenerateRatePerMinute,
	})
	if err != nil {
		util.Fatal("failed to init server", "err", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("functions server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
