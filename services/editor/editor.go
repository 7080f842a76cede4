// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package editor assembles the document editing service: session store,
// LLM gateway, workflow coordinator, and the HTTP surface.
package editor

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
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/redline/services/docmap"
	"github.com/AleutianAI/redline/services/editor/middleware"
	"github.com/AleutianAI/redline/services/editor/observability"
	"github.com/AleutianAI/redline/services/editor/routes"
	"github.com/AleutianAI/redline/services/editor/workflow"
	"github.com/AleutianAI/redline/services/llm"
	"github.com/AleutianAI/redline/services/session"
)

const serviceName = "redline-editor"

// Service owns the assembled editor and its lifecycle.
type Service struct {
	cfg         Config
	router      *gin.Engine
	store       session.Store
	cleaner     *session.Cleaner
	gateway     *llm.Resilient
	coordinator *workflow.Coordinator
	metrics     *observability.EditorMetrics
	stopTracer  func(context.Context)
}

// NewService wires the editor from configuration.
func NewService(cfg Config) (*Service, error) {
	metrics := observability.InitMetrics()

	store, cleaner, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}

	gateway, err := llm.New(llm.Config{
		Provider: cfg.Provider,
		OpenAI: llm.OpenAIConfig{
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
		},
		Ollama: llm.OllamaConfig{
			BaseURL: cfg.OllamaURL,
			Model:   cfg.OllamaModel,
		},
		Gateway: llm.GatewayConfig{
			Provider:       cfg.Provider,
			Retry:          llm.DefaultRetryConfig(),
			Breaker:        breakerConfig(cfg.Provider, metrics),
			RateLimit:      cfg.RateLimit,
			OnCallDuration: durationObserver(cfg.Provider, metrics),
		},
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("configure LLM gateway: %w", err)
	}

	coordinator, err := workflow.New(workflow.Config{
		Store:    store,
		Proposer: gateway,
		Limits: docmap.Limits{
			MaxDepth: cfg.MaxDocumentDepth,
			MaxBytes: cfg.MaxDocumentBytes,
		},
		SessionTTL: cfg.SessionTTL,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(otelgin.Middleware(serviceName))
	routes.SetupRoutes(router, coordinator, metrics)

	return &Service{
		cfg:         cfg,
		router:      router,
		store:       store,
		cleaner:     cleaner,
		gateway:     gateway,
		coordinator: coordinator,
		metrics:     metrics,
	}, nil
}

func buildStore(cfg Config) (session.Store, *session.Cleaner, error) {
	if cfg.StorePath == "" {
		slog.Info("No store path configured, using in-memory sessions")
		store := session.NewMemoryStore(nil)
		cleaner := session.NewCleaner(store, time.Minute, nil)
		return store, cleaner, nil
	}

	badgerCfg := session.DefaultBadgerConfig()
	badgerCfg.Path = cfg.StorePath
	store, err := session.OpenBadger(badgerCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open session store: %w", err)
	}
	slog.Info("Opened Badger session store", "path", cfg.StorePath)
	return store, nil, nil
}

// breakerConfig wires breaker transitions into the state gauge.
func breakerConfig(provider string, metrics *observability.EditorMetrics) llm.BreakerConfig {
	cfg := llm.DefaultBreakerConfig()
	cfg.OnStateChange = func(from, to llm.CircuitState) {
		slog.Warn("provider circuit breaker state change",
			"provider", provider, "from", from.String(), "to", to.String())
		if metrics != nil {
			metrics.BreakerState.WithLabelValues(provider).Set(float64(to))
		}
	}
	return cfg
}

// durationObserver feeds gateway call latency into the proposal
// histogram.
func durationObserver(provider string, metrics *observability.EditorMetrics) func(string, float64) {
	return func(op string, seconds float64) {
		if metrics != nil {
			metrics.ProposalDurationSeconds.WithLabelValues(provider).Observe(seconds)
		}
	}
}

// initTracer configures the OTLP trace exporter. Returns a shutdown
// function.
func initTracer(ctx context.Context, endpoint string) (func(context.Context), error) {
	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// Run serves HTTP until the context is cancelled or a signal arrives,
// then shuts down gracefully.
func (s *Service) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if s.cfg.OTelEndpoint != "" {
		shutdown, err := initTracer(ctx, s.cfg.OTelEndpoint)
		if err != nil {
			return fmt.Errorf("setup OTLP tracer: %w", err)
		}
		s.stopTracer = shutdown
	}

	if s.cleaner != nil {
		s.cleaner.Start()
	}

	server := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Starting the editor server", "port", s.cfg.Port, "provider", s.cfg.Provider)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down the editor server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	s.close()
	return err
}

func (s *Service) close() {
	if s.cleaner != nil {
		s.cleaner.Stop()
	}
	if err := s.store.Close(); err != nil {
		slog.Error("failed to close session store", "error", err)
	}
	if s.stopTracer != nil {
		s.stopTracer(context.Background())
	}
}

// Router exposes the configured gin engine, mainly for tests.
func (s *Service) Router() *gin.Engine {
	return s.router
}
