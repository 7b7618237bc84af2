package router

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"

	"complianceai/internal/api/v1/handler"
	"complianceai/internal/config"
	"complianceai/internal/llm"
	"complianceai/internal/metrics"
	"complianceai/internal/middleware"
	"complianceai/internal/pgmq"
	"complianceai/internal/pubsub"
	"complianceai/internal/ratelimit"
	"complianceai/internal/repository"
	"complianceai/internal/service"
	"complianceai/internal/storage"
	"complianceai/internal/validation"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// App is the assembled HTTP handler and the resources it holds open.
type App struct {
	Handler http.Handler

	pool      *pgxpool.Pool
	queueDB   *sql.DB
	limiter   *ratelimit.Limiter
	publisher *pubsub.PubSubPublisher
	logger    zerolog.Logger
}

// Close releases everything New opened. The HTTP server must be shut down
// first.
func (a *App) Close() {
	if err := a.limiter.Shutdown(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to stop rate limiter")
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close Pub/Sub publisher")
		}
	}
	if a.queueDB != nil {
		_ = a.queueDB.Close()
	}
	a.pool.Close()
}

// New connects to Postgres and the optional providers, wires every service
// and returns the root handler.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	logger.Info().Str("environment", cfg.Environment).Msg("Initializing router")

	trusted, err := ratelimit.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}

	// 1. Database
	pool, err := repository.NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := repository.ApplySchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info().Msg("Database connection successful")
	app := &App{pool: pool, logger: logger}

	m := metrics.New()

	// 2. Optional providers. Each one degrades to a no-op when unconfigured.
	archive, err := storage.NewS3Archive(ctx, cfg)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating document archive: %w", err)
	}
	if archive == nil {
		logger.Warn().Msg("S3 bucket not configured, generated documents will not be archived")
	}

	var publisher pubsub.Publisher
	if cfg.GCPProjectID != "" {
		p, err := pubsub.NewPublisher(ctx, cfg)
		if err != nil {
			pool.Close()
			return nil, err
		}
		app.publisher = p
		publisher = p
	} else {
		logger.Warn().Msg("GCP project not configured, domain events are disabled")
	}

	var client llm.Client
	if cfg.GeminiAPIKey != "" {
		client, err = llm.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create Gemini client, using rule-based answers")
			client = nil
		}
	} else {
		logger.Warn().Msg("GEMINI_API_KEY not set, using rule-based answers")
	}

	var queue service.LearningQueue
	if cfg.QueueEnabled {
		app.queueDB = stdlib.OpenDBFromPool(pool)
		queue = service.NewPgmqLearningQueue(pgmq.New(app.queueDB), cfg.LearningQueueName)
	}

	// 3. Repositories & services
	userRepo := repository.NewUserRepo(pool)
	sessionRepo := repository.NewSessionRepo(pool)
	companyRepo := repository.NewCompanyRepo(pool)
	subscriptionRepo := repository.NewSubscriptionRepo(pool)
	usageRepo := repository.NewUsageRepo(pool)
	documentRepo := repository.NewDocumentRepo(pool)
	dashboardRepo := repository.NewDashboardRepo(pool)
	aiRepo := repository.NewAIRepo(pool)

	userSvc := service.NewUserService(userRepo, logger)
	sessionSvc := service.NewSessionService(sessionRepo, userRepo, cfg.SessionSecret, cfg.SessionTTL, logger)
	companySvc := service.NewCompanyService(companyRepo, logger)
	subscriptionSvc := service.NewSubscriptionService(subscriptionRepo, usageRepo, logger,
		service.WithSubscriptionEvents(publisher, cfg.PubSubSubscriptionTopic),
		service.WithSubscriptionMetrics(m),
	)
	documentSvc := service.NewDocumentService(documentRepo, dashboardRepo, aiRepo, companySvc, subscriptionSvc, service.DocumentDeps{
		LLM:       client,
		Archive:   archive,
		Publisher: publisher,
		Topic:     cfg.PubSubDocumentsTopic,
		Metrics:   m,
	}, logger)
	memorySvc := service.NewMemoryService(aiRepo, companyRepo, logger)
	assistantSvc := service.NewAssistantService(aiRepo, companyRepo, memorySvc, client, queue, m, logger)
	paymentSvc := service.NewPaymentService(service.NewRazorpayOrders(cfg.RazorpayKeyID, cfg.RazorpayKeySecret), cfg.RazorpayKeySecret, companySvc, subscriptionSvc, logger)
	dashboardSvc := service.NewDashboardService(dashboardRepo, companySvc, logger)

	// 4. Handlers
	validate := validation.New()
	prod := cfg.IsProduction()
	handlers := []Routes{
		handler.NewAuthHandler(userSvc, sessionSvc, cfg.SessionCookieName, cfg.SessionTTL, validate, prod, logger),
		handler.NewCompanyHandler(companySvc, subscriptionSvc, validate, prod, logger),
		handler.NewDocumentHandler(documentSvc, validate, prod, logger),
		handler.NewAIHandler(assistantSvc, memorySvc, validate, prod, logger),
		handler.NewPaymentHandler(paymentSvc, cfg.RazorpayKeyID, validate, prod, logger),
		handler.NewDashboardHandler(dashboardSvc, prod, logger),
	}

	// 5. Rate limiting
	var store ratelimit.Store = ratelimit.NewMemoryStore()
	if cfg.RateLimitStore == "postgres" {
		store = ratelimit.NewPostgresStore(pool)
	}
	app.limiter = ratelimit.New(store, Tiers(cfg), logger,
		ratelimit.WithSweepInterval(cfg.RateLimitSweepInterval),
		ratelimit.WithTrustedProxies(trusted),
		ratelimit.WithPremium(cfg.PremiumIPs, ratelimit.Tier{Limit: cfg.RateLimitPremium, Window: cfg.RateLimitWindow}),
	)

	authMw := middleware.AuthMiddleware(sessionSvc, cfg.SessionCookieName, logger)
	app.Handler = Handler(handlers, authMw, app.limiter, m, allowedOrigins(cfg), logger)
	return app, nil
}

// Routes is implemented by every v1 handler.
type Routes interface {
	RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler)
}

// Handler mounts the handlers under /api behind the rate limiter and adds
// the health and metrics endpoints.
func Handler(handlers []Routes, authMw func(http.Handler) http.Handler, limiter *ratelimit.Limiter, m *metrics.Metrics, origins []string, logger zerolog.Logger) http.Handler {
	apiMux := http.NewServeMux()
	for _, h := range handlers {
		h.RegisterRoutes(apiMux, authMw)
	}

	limited := make(map[ratelimit.Class]http.Handler)
	api := http.StripPrefix("/api", apiMux)
	for _, class := range []ratelimit.Class{ratelimit.ClassAuth, ratelimit.ClassAIChat, ratelimit.ClassDocuments, ratelimit.ClassGeneral, ratelimit.ClassPublic} {
		limited[class] = ratelimit.Middleware(limiter, class, m, logger)(api)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("GET /metrics", m.Handler())
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		limited[ClassFor(r.Method, r.URL.Path)].ServeHTTP(w, r)
	})

	opts := cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
	}
	// An empty origin list means any origin to cors; nil means none here.
	if origins == nil {
		opts.AllowOriginFunc = func(string) bool { return false }
	}
	c := cors.New(opts)
	return middleware.LoggerMiddleware(logger, m)(c.Handler(mux))
}

// ClassFor picks the rate limit class of an /api request.
func ClassFor(method, path string) ratelimit.Class {
	p := strings.TrimSuffix(strings.TrimPrefix(path, "/api"), "/")
	switch {
	case p == "/auth/login" || p == "/auth/register":
		return ratelimit.ClassAuth
	case strings.HasPrefix(p, "/ai/"):
		return ratelimit.ClassAIChat
	case p == "/documents/generate":
		return ratelimit.ClassDocuments
	case method == http.MethodGet && (p == "/documents/templates" || p == "/payments/plans"):
		return ratelimit.ClassPublic
	}
	return ratelimit.ClassGeneral
}

// Tiers builds the per-class limits from config.
func Tiers(cfg *config.Config) map[ratelimit.Class]ratelimit.Tier {
	tiers := ratelimit.DefaultTiers()
	set := func(class ratelimit.Class, limit int) {
		if limit > 0 {
			tiers[class] = ratelimit.Tier{Limit: limit, Window: cfg.RateLimitWindow}
		}
	}
	set(ratelimit.ClassAuth, cfg.RateLimitAuth)
	set(ratelimit.ClassAIChat, cfg.RateLimitAIChat)
	set(ratelimit.ClassDocuments, cfg.RateLimitDocuments)
	set(ratelimit.ClassGeneral, cfg.RateLimitGeneral)
	set(ratelimit.ClassPublic, cfg.RateLimitPublic)
	return tiers
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.AllowedOrigins) > 0 {
		return cfg.AllowedOrigins
	}
	if cfg.IsProduction() {
		return nil
	}
	return []string{"*"}
}
