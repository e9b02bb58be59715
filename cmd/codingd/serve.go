// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/AleutianResearch/pkg/extensions"
	"github.com/AleutianAI/AleutianResearch/pkg/logging"
	"github.com/AleutianAI/AleutianResearch/services/coding/analytics"
	"github.com/AleutianAI/AleutianResearch/services/coding/annotations"
	"github.com/AleutianAI/AleutianResearch/services/coding/observability"
	"github.com/AleutianAI/AleutianResearch/services/coding/routes"
	"github.com/AleutianAI/AleutianResearch/services/coding/storage/badgerstore"
	"github.com/AleutianAI/AleutianResearch/services/coding/taxonomy"
)

type serveOptions struct {
	port    int
	dataDir string
	logDir  string
	debug   bool
	json    bool
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	cmd.Flags().IntVar(&opts.port, "port", 12230, "HTTP listen port")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "~/.aleutian/coding", "BadgerDB data directory")
	cmd.Flags().StringVar(&opts.logDir, "log-dir", "", "optional directory for JSON log files")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	cmd.Flags().BoolVar(&opts.json, "json-logs", false, "log JSON to stderr")
	return cmd
}

func runServe(ctx context.Context, opts *serveOptions) error {
	level := slog.LevelInfo
	if opts.debug {
		level = slog.LevelDebug
	}
	logger := logging.New(logging.Config{
		Level:   level,
		LogDir:  opts.logDir,
		Service: "codingd",
		JSON:    opts.json,
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	cfg := badgerstore.DefaultConfig()
	cfg.Path = opts.dataDir
	db, err := badgerstore.Open(cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	// Collaborator services default to the local single-user
	// implementations; enterprise deployments inject real ones here.
	ext := (&extensions.ServiceOptions{}).WithDefaults()

	codeStore := badgerstore.NewCodeStore(db)
	annStore := badgerstore.NewAnnotationStore(db)
	taxonomyMgr := taxonomy.NewManager(codeStore, ext.Membership, logger.Slog())
	annIndex := annotations.NewIndex(annStore, taxonomyMgr, ext.Membership, ext.Documents, ext.Transcriptions, logger.Slog())
	engine := analytics.NewEngine(codeStore, annStore, ext.Membership, ext.Users, logger.Slog())

	if !opts.debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		shutdown, err := initTracer(ctx, endpoint)
		if err != nil {
			logger.Warn("tracing disabled", "error", err)
		} else {
			defer shutdown(context.Background())
			router.Use(otelgin.Middleware("coding-service"))
			logger.Info("tracing enabled", "endpoint", endpoint)
		}
	}

	routes.SetupRoutes(router, routes.Deps{
		Taxonomy:    taxonomyMgr,
		Annotations: annIndex,
		Analytics:   engine,
		Auth:        ext.Auth,
		Metrics:     observability.NewMetrics(prometheus.DefaultRegisterer),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "port", opts.port, "data_dir", opts.dataDir)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
