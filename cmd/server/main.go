package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"

	"github.com/liamcoop/titanic-whatif/chat"
	"github.com/liamcoop/titanic-whatif/cohorts"
	"github.com/liamcoop/titanic-whatif/explain"
	"github.com/liamcoop/titanic-whatif/internal/config"
	"github.com/liamcoop/titanic-whatif/internal/logger"
	"github.com/liamcoop/titanic-whatif/models"
)

// Cohort table sources reported by the health check
const (
	CohortSourceBuiltin  = "builtin"
	CohortSourcePostgres = "postgres"
)

type Server struct {
	db           *sql.DB // nil unless the cohort table comes from Postgres
	models       *models.Registry
	engine       *cohorts.Engine
	sessions     *chat.Manager
	explainer    explain.Explainer // nil when no explainer is configured
	sampler      explain.Sampler
	cohortSource string
	timeout      time.Duration
	router       *chi.Mux
}

// Options are the collaborators a Server is built from
type Options struct {
	DB           *sql.DB
	Models       *models.Registry
	Engine       *cohorts.Engine
	Explainer    explain.Explainer
	Sampler      explain.Sampler
	CohortSource string
	Timeout      time.Duration
	MaxSessions  int
}

func NewServer(opts Options) *Server {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.CohortSource == "" {
		opts.CohortSource = CohortSourceBuiltin
	}

	s := &Server{
		db:           opts.DB,
		models:       opts.Models,
		engine:       opts.Engine,
		sessions:     chat.NewManager(opts.Engine, opts.MaxSessions),
		explainer:    opts.Explainer,
		sampler:      opts.Sampler,
		cohortSource: opts.CohortSource,
		timeout:      opts.Timeout,
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Predictions
		r.Post("/predict", s.handlePredict)
		r.Post("/predict/decision-tree", s.handlePredictDecisionTree)
		r.Post("/predict/xgboost", s.handlePredictXGBoost)
		r.Post("/predict/both", s.handlePredictBoth)

		// Explanations
		r.Post("/explain/shap", s.handleExplainSHAP)
		r.Get("/explain/global-importance", s.handleGlobalImportance)

		// Decision tree
		r.Get("/tree", s.handleTree)
		r.Get("/tree/structure", s.handleTreeStructure)
		r.Post("/tree/path", s.handleTreePath)
		r.Get("/metrics/decision-tree", s.handleDecisionTreeMetrics)

		// Cohorts and presets
		r.Get("/cohorts", s.handleListCohorts)
		r.Post("/cohorts/match", s.handleMatchCohort)
		r.Get("/presets", s.handleListPresets)
		r.Get("/fares", s.handleListFares)

		// Request and response contracts
		r.Get("/schema/{name}", s.handleSchema)

		// Chat sessions
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Post("/", s.handleCreateSession)

			r.Route("/{sessionId}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/messages", s.handlePostMessage)
				r.Post("/presets/{presetKey}", s.handleApplyPreset)
				r.Put("/profile", s.handleSetProfile)
				r.Put("/view", s.handleSetView)
				r.Put("/class", s.handleSetClass)
			})
		})
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Helper functions
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("failed to write response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := ErrorResponse{Error: message}
	if err != nil {
		response.Details = err.Error()
	}

	if status >= 500 {
		logger.ErrorHttp5xx()
		logger.Error(message, "status", status, "error", err)
	} else {
		logger.WarnHttp4xx(status)
	}

	respondJSON(w, status, response)
}

// openRuleStore picks the cohort table: Postgres when a database is configured, the built-in table otherwise
func openRuleStore(ctx context.Context, databaseURL string) (cohorts.RuleStore, *sql.DB, string, error) {
	if databaseURL == "" {
		return cohorts.NewDefaultRuleStore(), nil, CohortSourceBuiltin, nil
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, "", fmt.Errorf("failed to ping database: %w", err)
	}

	return cohorts.NewPostgresRuleStore(db), db, CohortSourcePostgres, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}

	ctx := context.Background()
	if err := logger.Init(ctx, cfg.LoggerOptions()); err != nil {
		logger.Fatal("failed to initialise logging", "error", err)
	}

	store, db, source, err := openRuleStore(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to open cohort table", "error", err)
	}
	if db != nil {
		defer db.Close()
	}

	engine, err := cohorts.NewEngine(ctx, store)
	if err != nil {
		logger.Fatal("failed to compile cohort rules", "error", err)
	}
	logger.Info("cohort rules loaded", "source", source, "count", len(engine.Rules()))

	// Load the tree up front so a bad export fails at startup, not on the first request
	registry := models.NewFileRegistry(cfg.TreeModelPath, cfg.TestDataPath)
	dt, err := registry.DecisionTree()
	if err != nil {
		logger.Fatal("failed to load decision tree", "path", cfg.TreeModelPath, "error", err)
	}
	logger.Info("decision tree loaded", "nodes", dt.Tree.Len(), "depth", dt.Tree.Depth, "scored", dt.Metrics != nil)

	opts := Options{
		DB:           db,
		Models:       registry,
		Engine:       engine,
		CohortSource: source,
		Timeout:      cfg.RequestTimeout,
	}
	if cfg.ExplainerURL != "" {
		client := explain.NewHTTPExplainer(cfg.ExplainerURL, cfg.ExplainerTimeout, cfg.ExplainerRetries)
		opts.Explainer = client
		opts.Sampler = client
		logger.Info("explainer configured", "url", cfg.ExplainerURL)
	} else {
		logger.Warn("EXPLAINER_URL not set, explanation endpoints are disabled")
	}

	server := NewServer(opts)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
	if err := logger.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "logger shutdown error: %v\n", err)
	}
}
