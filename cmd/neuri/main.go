package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/neuri/internal/config"
	"github.com/dukerupert/neuri/internal/database"
	"github.com/dukerupert/neuri/internal/logging"
	"github.com/dukerupert/neuri/internal/materializer"
	"github.com/dukerupert/neuri/internal/metrics"
	"github.com/dukerupert/neuri/internal/server"
	"github.com/dukerupert/neuri/internal/store"
)

func main() {
	if len(os.Args) == 3 && os.Args[1] == "hash-token" {
		hash, err := bcrypt.GenerateFromPassword([]byte(os.Args[2]), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("hash token: %v", err)
		}
		fmt.Println(string(hash))
		return
	}

	var (
		cfg *config.Config
		err error
	)
	if path := os.Getenv("NEURI_CONFIG"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.Database.Path, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	m := metrics.New()
	srv := server.New(db, server.Config{
		Location:           cfg.Schedule.Location,
		MaxDays:            cfg.Schedule.MaxDays,
		AssistantUserID:    cfg.Assistant.UserID,
		AssistantTokenHash: cfg.Assistant.TokenHash,
		AssistantRateLimit: cfg.Assistant.RateLimitPerMin,
	}, m, logger)

	if cfg.Assistant.UserID == "" {
		logger.Warn("assistant.user_id not set; assistant endpoints will return 503")
	}
	if cfg.Assistant.TokenHash == "" {
		logger.Warn("assistant.token_hash not set; assistant endpoints are unauthenticated")
	}

	var mat *materializer.Materializer
	if cfg.Materializer.Enabled {
		mat, err = materializer.New(materializer.Config{
			Spec:        cfg.Materializer.Spec,
			HorizonDays: cfg.Materializer.HorizonDays,
			Location:    cfg.Schedule.Location,
		}, store.NewRoutineStore(db), store.NewMissionStore(db), srv.Hub(), m, logger.With("component", "materializer"))
		if err != nil {
			logger.Error("failed to create materializer", "error", err)
			os.Exit(1)
		}
		mat.Start()
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	go func() {
		logger.Info("neuri listening", "addr", httpServer.Addr, "timezone", cfg.Schedule.Timezone)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if mat != nil {
		mat.Stop(ctx)
	}
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
