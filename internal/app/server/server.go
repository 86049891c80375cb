package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"hrms/internal/domain/access"
	"hrms/internal/domain/attendance"
	"hrms/internal/domain/audit"
	"hrms/internal/domain/auth"
	"hrms/internal/domain/core"
	"hrms/internal/domain/grievances"
	"hrms/internal/domain/payroll"
	"hrms/internal/domain/performance"
	"hrms/internal/domain/recruitment"
	"hrms/internal/domain/reports"
	"hrms/internal/domain/tasks"
	"hrms/internal/domain/transfers"
	"hrms/internal/platform/changefeed"
	"hrms/internal/platform/config"
	cryptoutil "hrms/internal/platform/crypto"
	"hrms/internal/platform/db"
	"hrms/internal/platform/email"
	"hrms/internal/platform/jobs"
	"hrms/internal/platform/metrics"
	"hrms/internal/platform/redisclient"
	attendancehandler "hrms/internal/transport/http/handlers/attendance"
	audithandler "hrms/internal/transport/http/handlers/audit"
	authhandler "hrms/internal/transport/http/handlers/auth"
	corehandler "hrms/internal/transport/http/handlers/core"
	grievanceshandler "hrms/internal/transport/http/handlers/grievances"
	healthhandler "hrms/internal/transport/http/handlers/health"
	payrollhandler "hrms/internal/transport/http/handlers/payroll"
	performancehandler "hrms/internal/transport/http/handlers/performance"
	recruitmenthandler "hrms/internal/transport/http/handlers/recruitment"
	reportshandler "hrms/internal/transport/http/handlers/reports"
	settingshandler "hrms/internal/transport/http/handlers/settings"
	streamhandler "hrms/internal/transport/http/handlers/stream"
	taskshandler "hrms/internal/transport/http/handlers/tasks"
	transfershandler "hrms/internal/transport/http/handlers/transfers"
	"hrms/internal/transport/http/middleware"
)

// Server owns every long-lived resource of one process.
type Server struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Router  http.Handler
	Jobs    *jobs.Service
	Bridge  *changefeed.Bridge
	Metrics *metrics.Collector

	watches *changefeed.Scope
	cancel  context.CancelFunc
}

// New connects to the database, prepares the schema and builds the router.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect failed: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed failed: %w", err)
		}
	}

	crypto, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		pool.Close()
		return nil, err
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redisclient.Open(ctx, cfg.RedisURL)
		if err != nil {
			slog.Warn("redis unavailable, using in-memory login throttle", "err", err)
			redisClient = nil
		}
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s := &Server{Config: cfg, DB: pool, Redis: redisClient, watches: changefeed.NewScope(), cancel: cancel}
	if cfg.MetricsEnabled {
		s.Metrics = metrics.New()
	}
	s.Jobs = jobs.New(pool, cfg.CleanupInterval)
	s.Jobs.Start(runCtx)

	hub := changefeed.NewHub()
	s.Bridge = changefeed.NewBridge(hub, pool, cfg.ChangefeedChannel)
	go s.Bridge.Listen(runCtx)

	s.Router = s.routes(hub, crypto)
	return s, nil
}

func (s *Server) routes(hub *changefeed.Hub, crypto *cryptoutil.Service) http.Handler {
	cfg := s.Config
	pool := s.DB
	sessions := changefeed.NewRegistry()

	var limiter auth.AttemptLimiter = auth.NewMemoryLimiter(cfg.LoginMaxAttempts, cfg.LoginAttemptWindow)
	var windows middleware.WindowCounter = middleware.NewMemoryCounter()
	if s.Redis != nil {
		limiter = auth.NewRedisLimiter(s.Redis, cfg.LoginMaxAttempts, cfg.LoginAttemptWindow)
		windows = middleware.NewRedisCounter(s.Redis, "rate")
	}

	accessSvc := access.NewService(access.NewStore(pool), hub, s.Bridge)
	if s.Metrics != nil {
		accessSvc.SetDenialRecorder(s.Metrics)
	}
	authSvc := auth.NewService(auth.NewStore(pool), limiter, crypto, hub, s.Bridge, sessions, auth.Options{
		Secret:     cfg.JWTSecret,
		SessionTTL: cfg.SessionTTL,
		MFAIssuer:  cfg.MFAIssuer,
	})
	s.watches.Add(authSvc.ReleaseSignedOut())
	s.Jobs.OnCleanup("sessionScopesReleased", func(context.Context) int {
		return sessions.Prune(time.Now())
	})
	auditSvc := audit.New(pool)
	mailer := email.New(cfg)
	idempotency := middleware.NewIdempotencyStore(pool)

	coreStore := core.NewStore(pool)
	coreSvc := core.NewService(coreStore, accessSvc, s.Bridge)
	attendanceSvc := attendance.NewService(attendance.NewStore(pool), accessSvc, s.Bridge)
	payrollSvc := payroll.NewService(payroll.NewStore(pool), accessSvc, s.Bridge)
	performanceSvc := performance.NewService(performance.NewStore(pool), accessSvc, s.Bridge)
	transfersSvc := transfers.NewService(transfers.NewStore(pool), coreStore, accessSvc, s.Bridge)
	grievancesSvc := grievances.NewService(grievances.NewStore(pool), accessSvc, s.Bridge)
	tasksSvc := tasks.NewService(tasks.NewStore(pool), coreStore, accessSvc, s.Bridge, s.Jobs, mailer)
	recruitmentSvc := recruitment.NewService(recruitment.NewStore(pool), accessSvc, s.Bridge)
	reportsSvc := reports.NewService(reports.NewStore(pool), coreSvc, attendanceSvc, payrollSvc, tasksSvc, accessSvc)

	var authFailures middleware.AuthFailureRecorder
	var requests middleware.RequestRecorder
	var streams streamhandler.StreamMetrics
	var metricsSource healthhandler.MetricsSource
	if s.Metrics != nil {
		authFailures, requests, streams, metricsSource = s.Metrics, s.Metrics, s.Metrics, s.Metrics
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(requests))
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(authSvc, accessSvc, coreSvc, authFailures))

	healthhandler.NewHandler(pool, metricsSource).RegisterRoutes(router)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(windows, cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.SensitiveMutationRateLimit(windows, cfg.RateLimitPerMinute, time.Minute))

		authhandler.NewHandler(authSvc, auditSvc, cfg.AllowSelfSignup).RegisterRoutes(r)
		corehandler.NewHandler(coreSvc, auditSvc).RegisterRoutes(r)
		attendancehandler.NewHandler(attendanceSvc, auditSvc).RegisterRoutes(r)
		payrollhandler.NewHandler(payrollSvc, auditSvc).RegisterRoutes(r)
		performancehandler.NewHandler(performanceSvc, auditSvc).RegisterRoutes(r)
		transfershandler.NewHandler(transfersSvc, auditSvc).RegisterRoutes(r)
		grievanceshandler.NewHandler(grievancesSvc, auditSvc).RegisterRoutes(r)
		taskshandler.NewHandler(tasksSvc, auditSvc, idempotency).RegisterRoutes(r)
		recruitmenthandler.NewHandler(recruitmentSvc, auditSvc, idempotency).RegisterRoutes(r)
		settingshandler.NewHandler(accessSvc, accessSvc, auditSvc).RegisterRoutes(r)
		reportshandler.NewHandler(reportsSvc).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc, accessSvc).RegisterRoutes(r)
		streamhandler.NewHandler(hub, accessSvc, sessions, accessSvc, streams, cfg.WSAllowedOrigins).RegisterRoutes(r)
	})

	if cfg.FrontendDir != "" {
		router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})
	}
	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Config.Addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("HRMS server listening", "addr", s.Config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close stops background work and releases connections.
func (s *Server) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.watches != nil {
		s.watches.Close()
	}
	if s.Jobs != nil {
		s.Jobs.Wait()
	}
	if s.Redis != nil {
		_ = s.Redis.Close()
	}
	if s.DB != nil {
		s.DB.Close()
	}
}

type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, filepath.Clean("/"+r.URL.Path))
	_, err := os.Stat(path)
	if err == nil {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	if os.IsNotExist(err) {
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}

	http.NotFound(w, r)
}
