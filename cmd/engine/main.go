package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cadenza/cadenza-engine/internal/api"
	"github.com/cadenza/cadenza-engine/internal/clock"
	"github.com/cadenza/cadenza-engine/internal/config"
	"github.com/cadenza/cadenza-engine/internal/db"
	"github.com/cadenza/cadenza-engine/internal/interaction"
	"github.com/cadenza/cadenza-engine/internal/logging"
	"github.com/cadenza/cadenza-engine/internal/playback"
	"github.com/cadenza/cadenza-engine/internal/project"
	"github.com/cadenza/cadenza-engine/internal/timeline"
	"github.com/cadenza/cadenza-engine/internal/ui"
)

var Version = "0.1.0"

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting cadenza engine", "version", Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := project.NewRepository(database.Conn())

	deviceID, err := ensureDeviceID(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║                   CADENZA ENGINE v0.1.0                   ║")
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Device ID:  %-45s ║\n", deviceID[:16]+"...")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	layers := timeline.DefaultLayers()
	registry := timeline.NewRegistry()
	engine := timeline.NewEngine(layers, timeline.EngineConfig{
		MinClipDuration: cfg.MinClipDuration(),
		MaxClipDuration: cfg.MaxClipDuration(),
	})
	timelineSvc := timeline.NewService(registry, layers, engine, logging.WithComponent(logger, "timeline"))

	masterClock := clock.New(config.DefaultTimelineDuration, logging.WithComponent(logger, "clock"))
	clock.NewSync(masterClock, cfg.DriftTolerance(), logging.WithComponent(logger, "sync"))

	controller := interaction.NewController(interaction.ControllerConfig{
		Registry:        registry,
		Engine:          engine,
		Layers:          layers,
		Clock:           masterClock,
		Logger:          logging.WithComponent(logger, "interaction"),
		PixelsPerSecond: config.DefaultPixelsPerSecond,
	})

	projectSvc := project.NewService(repo, timelineSvc, logging.WithComponent(logger, "project"))
	mediaSvc := playback.NewServer(logging.WithComponent(logger, "playback"))

	apiServer := api.NewServer(api.ServerConfig{
		Port:       cfg.Port(),
		Timeline:   timelineSvc,
		Controller: controller,
		Clock:      masterClock,
		Projects:   projectSvc,
		Repository: repo,
		Media:      mediaSvc,
		Logger:     logger,
		StartTime:  startTime,
		DeviceID:   deviceID,
		Version:    Version,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})
	var quitOnce sync.Once
	requestQuit := func() {
		quitOnce.Do(func() { close(quitCh) })
	}

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			requestQuit()
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Timeline: timelineSvc,
			Clock:    masterClock,
			Logger:   logging.WithComponent(logger, "tray"),
			OnQuit: requestQuit,
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func ensureDeviceID(repo project.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "device_id")
	if err == nil && existing != "" {
		return existing, nil
	}

	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return "", err
	}
	deviceID := hex.EncodeToString(idBytes)

	if err := repo.SetConfig(ctx, "device_id", deviceID); err != nil {
		return "", err
	}

	return deviceID, nil
}

func ensureAuthToken(repo project.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, "auth_token", token); err != nil {
		return "", err
	}

	return token, nil
}
