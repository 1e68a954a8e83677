package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"AutoPublisher/internal/app"
	"AutoPublisher/internal/config"
	"AutoPublisher/internal/logging"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to the YAML config (default $AUTOPUBLISHER_CONFIG)")
		logLevel   = flag.String("log-level", "", "override logging.level: debug, info, warn, error")
		debug      = flag.BoolP("debug", "D", false, "shortcut for --log-level=debug")
		newsFrom   = flag.String("news-from", "", "publish the news folder (one docx and jpegs) and exit")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *debug {
		cfg.Logging.Level = "debug"
	}
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("application setup failed", "error", err)
		os.Exit(1)
	}

	if *newsFrom != "" {
		url, err := application.PublishFolder(ctx, *newsFrom)
		if err != nil {
			logger.Error("publish folder failed", "folder", *newsFrom, "error", err)
			os.Exit(1)
		}
		fmt.Println(url)
		return
	}

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}
	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
