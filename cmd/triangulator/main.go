// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Command triangulator serves Delaunay edges for local development.
package main

import (
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/2dChan/liftview"
	"github.com/2dChan/liftview/delaunay"
	"github.com/2dChan/liftview/server"
	"github.com/2dChan/liftview/triangulator"
	"github.com/gin-gonic/gin"
)

func main() {
	var (
		listen = flag.String("listen", ":8081", "listen address")
		path   = flag.String("path", triangulator.DefaultPath, "endpoint path")
		eps    = flag.Float64("eps", 1e-12, "hull tolerance")
		debug  = flag.Bool("debug", false, "log every request")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	liftview.SetLogger(logger)

	// Validate eps before serving.
	if _, err := delaunay.NewTriangulation(nil, delaunay.WithEps(*eps)); err != nil {
		log.Fatal(err)
	}

	srv := &http.Server{
		Addr:              *listen,
		Handler:           server.NewTriangulatorRouter(*path, delaunay.WithEps(*eps)),
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("listening", "addr", *listen, "path", *path)
	log.Fatal(srv.ListenAndServe())
}
