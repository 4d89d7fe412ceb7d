package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/config"
	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/domain/access"
	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/domain/attestation"
	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/domain/chat"
	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/domain/feedback"
	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/domain/patient"
	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/domain/presenter"
	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/domain/ratelimit"
	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/domain/roles"
	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/auth"
	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/cache"
	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/db"
	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/llm"
	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/middleware"
	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/notification"
	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/scheduler"
	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/websocket"
)

const (
	bodyLimit       = "1M"
	jobTimeout      = 2 * time.Minute
	purgeSchedule   = "@daily"
	sweepSchedule   = "@every 10m"
	purgeViolations = "purge-rate-limit-violations"
	sweepPresenters = "sweep-presenter-sessions"
)

// server holds the wired HTTP surface and its background work.
type server struct {
	cfg       *config.Config
	logger    zerolog.Logger
	echo      *echo.Echo
	scheduler *scheduler.Scheduler
}

// deps are the external resources the server is built on. Redis is optional;
// without it presenter state and quota counters stay in process memory.
type deps struct {
	conn   db.Querier
	redis  *cache.Client
	llm    llm.Client
	sender notification.EmailSender
	checks []db.Check
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	d := deps{conn: pool, checks: []db.Check{db.PoolCheck(pool)}}

	// Redis
	if cfg.HasRedis() {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error().Err(err).Msg("failed to connect to redis")
			return err
		}
		defer client.Close()
		d.redis = client
		d.checks = append(d.checks, db.Check{
			Name: "redis",
			Ping: func(ctx context.Context) error { return cache.Ping(ctx, client) },
		})
		logger.Info().Msg("connected to redis")
	} else {
		logger.Warn().Msg("REDIS_URL not set; presenter state and quotas are per-process")
	}

	// Outbound email
	if cfg.HasMailer() {
		d.sender = notification.NewResendSender(cfg.ResendBaseURL, cfg.ResendAPIKey, cfg.EmailFrom)
	} else {
		logger.Warn().Msg("RESEND_API_KEY not set; emails are logged instead of sent")
		d.sender = notification.LogSender{Logger: logger}
	}

	// Chat proxy
	if cfg.HasLLM() {
		client, err := llm.NewOpenAI(llm.Config{
			APIKey:  cfg.LLMAPIKey,
			BaseURL: cfg.LLMBaseURL,
			Model:   cfg.LLMModel,
		})
		if err != nil {
			logger.Error().Err(err).Msg("failed to configure LLM client")
			return err
		}
		d.llm = client
	} else {
		logger.Warn().Msg("LLM_API_KEY not set; chat endpoints answer 503")
	}

	srv, err := newServer(cfg, logger, d)
	if err != nil {
		return err
	}
	return srv.run(ctx)
}

func newServer(cfg *config.Config, logger zerolog.Logger, d deps) (*server, error) {
	registry, err := patient.LoadRegistry(time.Now())
	if err != nil {
		return nil, fmt.Errorf("load patient datasets: %w", err)
	}

	// Stores
	var (
		counter    ratelimit.Counter
		stateStore presenter.StateStore
	)
	if d.redis != nil {
		counter = ratelimit.NewRedisCounter(d.redis)
		stateStore = presenter.NewRedisStore(d.redis, presenter.StateTTL)
	} else {
		counter = ratelimit.NewMemoryCounter()
		stateStore = presenter.NewMemoryStore()
	}

	// Services
	rolesSvc := roles.NewService(roles.NewRepoPG(d.conn))
	limitSvc := ratelimit.NewService(counter, ratelimit.NewViolationRepoPG(d.conn), logger)
	mailer := notification.NewMailer(d.sender, notification.NewTemplateEngine(), logger)
	accessSvc := access.NewService(access.NewRepoPG(d.conn), limitSvc, mailer, access.Config{
		AdminEmail: cfg.AdminEmail,
		AppURL:     cfg.AppURL,
	}, logger)
	attestationSvc := attestation.NewService(
		attestation.NewGroupRepoPG(d.conn), attestation.NewAttestationRepoPG(d.conn), logger)
	feedbackSvc := feedback.NewService(feedback.NewRepoPG(d.conn), limitSvc, logger)
	chatSvc := chat.NewService(d.llm, limitSvc, logger)

	hub := websocket.NewHub(logger, func(topic string) bool {
		_, ok := presenter.SessionFromTopic(topic)
		return ok
	})
	presenterSvc := presenter.NewService(stateStore, hub, cfg.PresenterStaleAfter, logger)
	hub.OnSubscribe(presenterSvc.Replay)
	wsHandler := websocket.NewHandler(hub, cfg.CORSOrigins)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)

	// Global middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.BodyLimit(bodyLimit))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", db.HealthHandler(version, d.checks...))

	// API group: authentication, global throttle and audit apply to every route.
	apiV1 := e.Group("/api/v1")
	apiV1.Use(authMiddleware(cfg, rolesSvc, logger))
	apiV1.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		IdleTTL:           middleware.DefaultRateLimitConfig().IdleTTL,
	}))
	apiV1.Use(middleware.Audit(logger))

	patient.NewHandler(registry).RegisterRoutes(apiV1)
	presenter.NewHandler(presenterSvc, wsHandler.HandleConnect).RegisterRoutes(apiV1)
	ratelimit.NewHandler(limitSvc).RegisterRoutes(apiV1)
	roles.NewHandler(rolesSvc).RegisterRoutes(apiV1)
	access.NewHandler(accessSvc).RegisterRoutes(apiV1)
	attestation.NewHandler(attestationSvc).RegisterRoutes(apiV1)
	feedback.NewHandler(feedbackSvc).RegisterRoutes(apiV1)
	chat.NewHandler(chatSvc).RegisterRoutes(apiV1)

	// Maintenance jobs
	sched := scheduler.New(logger, jobTimeout)
	retention := time.Duration(cfg.RateLimitRetentionDays) * 24 * time.Hour
	if err := sched.Add(purgeSchedule, purgeViolations, func(ctx context.Context) error {
		n, err := limitSvc.Purge(ctx, retention)
		if err != nil {
			return err
		}
		logger.Info().Int64("deleted", n).Msg("purged rate limit violations")
		return nil
	}); err != nil {
		return nil, err
	}
	if err := sched.Add(sweepSchedule, sweepPresenters, presenterSvc.SweepIdle); err != nil {
		return nil, err
	}

	return &server{cfg: cfg, logger: logger, echo: e, scheduler: sched}, nil
}

// authMiddleware picks the verifier for the environment. Development lets
// anonymous callers through as an admin but still verifies a token when one is
// supplied and a secret is configured.
func authMiddleware(cfg *config.Config, resolver auth.RoleResolver, logger zerolog.Logger) echo.MiddlewareFunc {
	jwtCfg := auth.JWTConfig{
		Issuer:   cfg.AuthIssuer,
		Audience: cfg.AuthAudience,
		JWKSURL:  cfg.AuthJWKSURL,
		Optional: auth.PublicSkipper,
		Roles:    resolver,
		Logger:   logger,
	}
	if cfg.AuthJWTSecret != "" {
		jwtCfg.SigningKey = []byte(cfg.AuthJWTSecret)
	}
	hasVerifier := len(jwtCfg.SigningKey) > 0 || cfg.AuthJWKSURL != "" || cfg.AuthIssuer != ""

	if cfg.IsDev() {
		if !hasVerifier {
			return auth.DevAuthMiddleware(nil)
		}
		return auth.DevAuthMiddleware(auth.JWTMiddleware(jwtCfg))
	}
	return auth.JWTMiddleware(jwtCfg)
}

// run serves HTTP and runs the scheduler until ctx is cancelled, then drains
// in-flight requests within the shutdown timeout.
func (s *server) run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := ":" + s.cfg.Port
		s.logger.Info().Str("addr", addr).Msg("starting server")
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return s.scheduler.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Msg("server stopped with error")
		return err
	}
	s.logger.Info().Msg("server stopped")
	return nil
}
