// cmd/relay-server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"pdf-relay/internal/api"
	"pdf-relay/internal/common/aws"
	"pdf-relay/internal/common/config"
	"pdf-relay/internal/common/database"
	"pdf-relay/internal/common/logger"
	"pdf-relay/internal/common/observability"
	"pdf-relay/internal/pipeline"
	"pdf-relay/internal/pipeline/assemble"
	"pdf-relay/internal/pipeline/compose"
	"pdf-relay/internal/pipeline/deliver"
	"pdf-relay/internal/pipeline/ingress"
	"pdf-relay/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := logger.NewZapAdapter(zapLogger)

	log.Info("starting relay server", map[string]interface{}{
		"name":        cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
		"mode":        cfg.Pipeline.Mode,
		"transport":   cfg.Mail.Transport,
	})

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	sessions, redisClient, err := buildSessionStore(ctx, cfg, log)
	if err != nil {
		zapLogger.Fatal("session store init failed", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	transport, err := buildTransport(ctx, cfg, log)
	if err != nil {
		zapLogger.Fatal("mail transport init failed", zap.Error(err))
	}

	assembleOpts := assemble.Options{
		Mode:       cfg.Pipeline.Mode,
		Decoration: cfg.Pipeline.Decoration,
		HeaderText: cfg.Pipeline.HeaderText,
		FooterText: cfg.Pipeline.FooterText,
	}

	pipe := pipeline.New(pipeline.Options{
		Parser:          ingress.NewParser(cfg.Server.MaxUploadBytes, log),
		Assembler:       assemble.New(assembleOpts, log),
		Composer:        compose.NewComposer(cfg.Mail.Username, cfg.Mail.Receiver, log),
		Transport:       transport,
		AssembleOptions: assembleOpts,
		SpoolDir:        os.TempDir(),
		Observability:   obs,
		Logger:          log,
	})

	handler := api.NewHandler(cfg, pipe, sessions, log)
	router := api.NewRouter(handler, log)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("shutdown signal received", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("server shutdown error", nil)
		}
	}()

	log.Info("server listening", map[string]interface{}{"addr": server.Addr})
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zapLogger.Fatal("server error", zap.Error(err))
	}
}

func buildSessionStore(ctx context.Context, cfg *config.Config, log logger.Logger) (session.Store, *database.RedisClient, error) {
	if !cfg.Auth.Enabled || cfg.Auth.Store != "redis" {
		return session.NewMemoryStore(), nil, nil
	}

	client, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		return nil, nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		client.Close()
		return nil, nil, err
	}

	log.Info("using redis session store", map[string]interface{}{
		"address": cfg.Database.Redis.Address,
	})
	return session.NewRedisStore(client), client, nil
}

func buildTransport(ctx context.Context, cfg *config.Config, log logger.Logger) (deliver.Transport, error) {
	if cfg.Mail.Transport == "ses" {
		client, err := aws.NewSESClient(ctx, cfg.Mail.SES.Region)
		if err != nil {
			return nil, err
		}
		return deliver.NewSESTransport(client, log), nil
	}
	return deliver.NewSMTPTransport(cfg.Mail, log), nil
}
