package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"time"

	"inpaint-masker/internal/config"
	"inpaint-masker/internal/logger"
	"inpaint-masker/internal/server"
	"inpaint-masker/internal/shutdown"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Configuration failed: %v", err)
	}

	appLogger := logger.NewJSONLogger(logger.ParseLevel(cfg.LogLevel))

	handler, err := server.NewHandler(cfg.Server.MaskDir, cfg.Server.MaxBodyBytes, appLogger)
	if err != nil {
		log.Fatalf("Save server setup failed: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	manager := shutdown.NewManager(appLogger)
	manager.Register("http server", shutdown.Func(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			appLogger.Error("MaskServer", "graceful shutdown failed", err, nil)
		}
	}))
	manager.Listen(nil)

	appLogger.Info("MaskServer", "listening", map[string]interface{}{
		"addr":     cfg.Server.Addr,
		"mask_dir": cfg.Server.MaskDir,
	})

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Save server failed: %v", err)
	}
	// Blocks until a signal-triggered shutdown has finished.
	manager.Shutdown()
}
