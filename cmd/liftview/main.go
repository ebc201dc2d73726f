// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Command liftview serves the lifted-paraboloid visualiser API.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/2dChan/liftview"
	"github.com/2dChan/liftview/config"
	"github.com/2dChan/liftview/server"
	"github.com/2dChan/liftview/triangulator"
	"github.com/gin-gonic/gin"
	"github.com/gogpu/gg"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var (
		configPath = flag.String("config", "", "YAML configuration file")
		listen     = flag.String("listen", "", "listen address, overrides the configuration")
		dump       = flag.Bool("print-config", false, "print the effective configuration and exit")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *dump {
		if err := cfg.Encode(os.Stdout); err != nil {
			log.Fatal(err)
		}
		return
	}

	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	liftview.SetLogger(logger)
	gg.SetLogger(logger.With("component", "gg"))
	if level > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	client, err := triangulator.NewClient(cfg.Triangulator.URL,
		triangulator.WithPath(cfg.Triangulator.Path),
		triangulator.WithTimeout(cfg.Triangulator.Timeout),
	)
	if err != nil {
		log.Fatal(err)
	}
	srv, err := server.New(client, server.WithConfig(cfg))
	if err != nil {
		log.Fatal(err)
	}

	httpSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Listen, "triangulator", client.Endpoint())
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "err", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", "err", err)
	}
	if err := srv.Close(); err != nil {
		logger.Warn("closing sessions", "err", err)
	}
}
