package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v3"

	"sa-gov-exams/config"
	"sa-gov-exams/exams"
	"sa-gov-exams/monitor"
	"sa-gov-exams/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		slog.Error("run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	var (
		configPath string
		logLevel   string
		centers    []string
	)

	return &cli.Command{
		Name:  "exam-slots",
		Usage: "Check sa.gov.ge for open practical driving exam dates and post them to a Discord webhook",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config.yaml or the directory holding it",
				Value:       ".",
				Destination: &configPath,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error); overrides log_level",
				Destination: &logLevel,
			},
			&cli.StringSliceFlag{
				Name:        "center",
				Usage:       "center to check (repeatable); overrides centers",
				Destination: &centers,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if cmd.IsSet("center") {
				cfg.Centers = strings.Join(centers, ";")
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			setupLogger(os.Stdout, cfg.LogLevel)

			return run(ctx, cfg)
		},
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	centers, err := cfg.CenterList()
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	slog.Info("checking exam centers", slog.String("run_id", runID), slog.Any("centers", centers))

	fetcher := exams.NewFetcher(exams.Options{
		DatesURL:      cfg.DatesURL,
		TimeFramesURL: cfg.TimeFramesURL,
		CategoryCode:  cfg.CategoryCode,
		UserAgent:     cfg.UserAgent,
		Timeout:       cfg.HTTPTimeout,
	})
	notifier := utils.NewNotifier(cfg.WebhookURL, cfg.HTTPTimeout)

	if err := monitor.New(centers, fetcher, notifier).Run(ctx); err != nil {
		return fmt.Errorf("run %s: %w", runID, err)
	}

	slog.Info("done", slog.String("run_id", runID))
	return nil
}

// parseLogLevel maps a config level name onto slog; unknown names fall back to info.
func parseLogLevel(name string) (slog.Level, bool) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(name)))); err != nil {
		return slog.LevelInfo, false
	}
	return level, true
}

func setupLogger(w io.Writer, levelName string) *slog.Logger {
	level, ok := parseLogLevel(levelName)

	logger := slog.New(tint.NewHandler(w, &tint.Options{
		AddSource:  true,
		Level:      level,
		TimeFormat: time.DateTime,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if src, isSource := a.Value.Any().(*slog.Source); isSource && a.Key == slog.SourceKey {
				src.File = filepath.Base(src.File)
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	if !ok {
		logger.Warn("unsupported log level, using info", slog.String("log_level", levelName))
	}
	return logger
}
