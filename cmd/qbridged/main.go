// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/qbridge/qbridge"
	"github.com/qbridge/qbridge/internal/api"
	"github.com/qbridge/qbridge/internal/config"
	qblog "github.com/qbridge/qbridge/internal/log"
	"github.com/qbridge/qbridge/internal/store"
	"github.com/qbridge/qbridge/internal/telemetry"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("qbridged %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	if err := run(*configPath); err != nil {
		l := qblog.WithComponent("daemon")
		l.Error().Err(err).Msg("daemon exited with error")
		os.Exit(1)
	}
}

func run(configPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	qblog.Configure(qblog.Config{
		Level:   cfg.LogLevel,
		Service: "qbridged",
	})
	logger := qblog.WithComponent("daemon")
	logger.Info().
		Str("version", version).
		Str("listen", cfg.Listen).
		Str("data_dir", cfg.DataDir).
		Str("python", cfg.Python).
		Msg("starting")

	tracer, err := telemetry.NewProvider(ctx, cfg.OTLPEndpoint, version)
	if err != nil {
		return fmt.Errorf("set up tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("tracer shutdown failed")
		}
	}()

	st, err := store.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open job registry: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn().Err(err).Msg("registry close failed")
		}
	}()

	bootCtx, cancelBoot := context.WithTimeout(ctx, cfg.BootTimeout)
	err = qbridge.Init(bootCtx,
		qbridge.WithPython(cfg.Python),
		qbridge.WithBootTimeout(cfg.BootTimeout),
		qbridge.WithCallTimeout(cfg.CallTimeout),
	)
	cancelBoot()
	if err != nil {
		return fmt.Errorf("boot runtime worker: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := qbridge.Close(closeCtx); err != nil {
			logger.Warn().Err(err).Msg("runtime shutdown failed")
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.New(cfg, st).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", cfg.Listen).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		logger.Info().Msg("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})

	if configPath != "" {
		g.Go(func() error {
			if err := config.WatchLogLevel(gctx, configPath); err != nil {
				logger.Warn().Err(err).Msg("config watcher stopped")
			}
			return nil
		})
	}

	return g.Wait()
}
