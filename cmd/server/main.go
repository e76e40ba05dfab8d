package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/snackpdf/converter/internal/config"
	"github.com/snackpdf/converter/internal/server"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", os.Getenv("SNACKPDF_CONFIG"), "path to the YAML configuration file")
	flag.Parse()

	if *configPath == "" {
		// Resolve the config next to the executable
		exePath, err := os.Executable()
		if err != nil {
			fmt.Printf("Failed to get executable path: %v\n", err)
			os.Exit(1)
		}
		*configPath = filepath.Join(filepath.Dir(exePath), "snackpdf.yaml")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	slog.SetDefault(logger)

	srv, err := server.New(cfg, Version, logger)
	if err != nil {
		logger.Error("failed to initialize server", "error", err)
		os.Exit(1)
	}
	defer srv.Close()

	srv.PrintBanner(os.Stdout, Version, BuildTime, *configPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		srv.Close()
		os.Exit(1)
	}
}
