/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package server wires configuration, storage, services, and background
// workers into a running instance.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/huginn_radio/internal/api"
	"github.com/friendsincode/huginn_radio/internal/cache"
	"github.com/friendsincode/huginn_radio/internal/config"
	"github.com/friendsincode/huginn_radio/internal/db"
	"github.com/friendsincode/huginn_radio/internal/events"
	"github.com/friendsincode/huginn_radio/internal/logbuffer"
	"github.com/friendsincode/huginn_radio/internal/notifications"
	"github.com/friendsincode/huginn_radio/internal/recorder"
	"github.com/friendsincode/huginn_radio/internal/schedule"
	"github.com/friendsincode/huginn_radio/internal/station"
	"github.com/friendsincode/huginn_radio/internal/storage"
	"github.com/friendsincode/huginn_radio/internal/telemetry"
	"github.com/friendsincode/huginn_radio/internal/version"
)

// Server bundles HTTP and supporting services.
type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	logBuf     *logbuffer.Buffer
	router     chi.Router
	httpServer *http.Server
	closers    []func() error

	db              *gorm.DB
	cache           *cache.Cache
	bus             *events.Bus
	natsBridge      *events.NATSBridge
	archive         storage.ObjectStore
	stationSvc      *station.Service
	scheduleSvc     *schedule.Service
	notificationSvc *notifications.Service
	supervisor      *recorder.Supervisor
	extensionJob    *schedule.ExtensionJob
	updateChecker   *version.Checker
	api             *api.API

	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New builds a fully wired server. The HTTP listener is not started;
// callers run HTTPServer().ListenAndServe themselves. logBuf may be nil
// when log capture is not wanted.
func New(cfg *config.Config, logger zerolog.Logger, logBuf *logbuffer.Buffer) (*Server, error) {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(securityHeadersMiddleware)
	router.Use(telemetry.TracingMiddleware("huginn-radio-api"))
	router.Use(telemetry.MetricsMiddleware)
	router.Use(middleware.Timeout(60 * time.Second))

	srv := &Server{
		cfg:    cfg,
		logger: logger,
		logBuf: logBuf,
		router: router,
		bus:    events.NewBus(),
	}

	if err := srv.initDependencies(); err != nil {
		return nil, err
	}

	srv.configureRoutes()
	srv.startBackgroundWorkers()

	addr := fmt.Sprintf("%s:%d", cfg.HTTPBind, cfg.HTTPPort)
	srv.httpServer = &http.Server{
		Addr:              addr,
		Handler:           srv.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return srv, nil
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) initDependencies() error {
	database, err := db.Connect(s.cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(database); err != nil {
		return err
	}
	s.db = database
	s.DeferClose(func() error { return db.Close(database) })

	if s.cfg.RedisAddr != "" {
		s.cache = cache.New(cache.Config{
			RedisAddr:     s.cfg.RedisAddr,
			RedisPassword: s.cfg.RedisPassword,
			RedisDB:       s.cfg.RedisDB,
		}, s.logger)
		s.DeferClose(func() error { return s.cache.Close() })
	}

	if s.cfg.NATSURL != "" {
		bridge, err := events.NewNATSBridge(s.cfg.NATSURL, s.bus, s.logger)
		if err != nil {
			s.logger.Warn().Err(err).Msg("NATS unavailable, events stay in-process")
		} else {
			s.natsBridge = bridge
			s.DeferClose(func() error { bridge.Close(); return nil })
		}
	}

	if s.cfg.S3Bucket != "" {
		store, err := storage.NewS3Store(context.Background(), storage.S3Config{
			AccessKeyID:     s.cfg.S3AccessKeyID,
			SecretAccessKey: s.cfg.S3SecretAccessKey,
			Region:          s.cfg.S3Region,
			Bucket:          s.cfg.S3Bucket,
			Endpoint:        s.cfg.S3Endpoint,
			UsePathStyle:    s.cfg.S3UsePathStyle,
		})
		if err != nil {
			return fmt.Errorf("init s3 archive: %w", err)
		}
		s.archive = store
	} else {
		store, err := storage.NewFSStore(s.cfg.RecordingsRoot + "/archive")
		if err != nil {
			return fmt.Errorf("init archive: %w", err)
		}
		s.archive = store
	}

	s.stationSvc = station.NewService(s.db, s.cache, s.bus, s.logger)
	s.scheduleSvc = schedule.NewService(s.db, s.stationSvc, s.bus, s.logger)
	s.notificationSvc = notifications.NewService(s.db, s.bus, s.logger)

	s.extensionJob = schedule.NewExtensionJob(s.scheduleSvc,
		s.cfg.ExtensionInterval, s.cfg.ExtensionHorizon, s.logger)

	s.supervisor = recorder.NewSupervisor(
		s.db,
		s.stationSvc,
		s.archive,
		s.bus,
		recorder.NewFFmpegLauncher(s.cfg.FFmpegBin),
		recorder.NewFFprobeProber(s.cfg.FFprobeBin),
		recorder.Options{
			Poll:           s.cfg.RecorderPoll,
			StopGrace:      s.cfg.StopGracePeriod,
			ShutdownDrain:  s.cfg.ShutdownDrain,
			RecordingsRoot: s.cfg.RecordingsRoot,
		},
		s.logger,
	)

	s.updateChecker = version.NewChecker(s.logger)

	s.api = api.New(s.db, []byte(s.cfg.JWTSigningKey),
		s.scheduleSvc, s.stationSvc, s.notificationSvc,
		s.logBuf, s.updateChecker, s.logger)

	return nil
}

func (s *Server) configureRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	s.api.Routes(s.router)
}

func (s *Server) startBackgroundWorkers() {
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		_ = s.notificationSvc.Run(ctx)
	}()

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		_ = s.extensionJob.Run(ctx)
	}()

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		_ = s.supervisor.Run(ctx)
	}()

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		s.updateChecker.Run(ctx)
	}()

	// Dedicated metrics listener, kept off the public bind.
	if s.cfg.MetricsBind != "" {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", telemetry.Handler())
		metricsServer := &http.Server{
			Addr:              s.cfg.MetricsBind,
			Handler:           metricsMux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		s.bgWG.Add(1)
		go func() {
			defer s.bgWG.Done()
			s.logger.Info().Str("addr", s.cfg.MetricsBind).Msg("metrics listening")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				s.logger.Error().Err(err).Msg("metrics server exited")
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}
}

func (s *Server) stopBackgroundWorkers() {
	if s.bgCancel == nil {
		return
	}
	s.bgCancel()
	s.bgWG.Wait()
	s.bgCancel = nil
}

// HTTPServer returns the configured HTTP server for the caller to run.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Close releases owned resources in reverse order.
func (s *Server) Close() error {
	s.stopBackgroundWorkers()
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DeferClose registers a cleanup hook.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}
