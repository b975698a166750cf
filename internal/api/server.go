package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/lawdesk/internal/admin"
	"github.com/dgallion1/lawdesk/internal/config"
	"github.com/dgallion1/lawdesk/internal/index"
	"github.com/dgallion1/lawdesk/internal/library"
	"github.com/dgallion1/lawdesk/internal/llm"
	"github.com/dgallion1/lawdesk/internal/pipeline"
	"github.com/dgallion1/lawdesk/internal/qa"
)

// LLMStats exposes provider latency figures. *llm.Client satisfies it.
type LLMStats interface {
	Model() string
	Stats() llm.StatsSnapshot
}

// Deps are the collaborators the HTTP layer dispatches to.
type Deps struct {
	QA       *qa.Service
	Admin    *admin.Service
	Library  *library.Library
	Index    *index.Index
	Reloader *pipeline.Reloader
	LLM      LLMStats
}

// Server is the HTTP API server for lawdesk.
type Server struct {
	router chi.Router
	deps   Deps
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		deps: deps,
		log:  log,
		cfg:  cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.cfg.LawdeskAPIKey != "" {
			r.Use(AuthMiddleware(s.cfg.LawdeskAPIKey, s.log))
		}
		r.Use(IdentityMiddleware(s.cfg.IdentityHeader))

		r.Post("/api/ask", s.handleAsk)
		r.Post("/api/ask/stream", s.handleAskStream)
		r.Post("/api/ask/stage1", s.handleStage1)
		r.Post("/api/ask/stage2", s.handleStage2)

		r.Get("/api/categories", s.handleListCategories)
		r.Post("/api/categories", s.handleAddCategory)
		r.Get("/api/categories/{category}/files", s.handleListFiles)
		r.Post("/api/categories/{category}/files", s.handleUpload)
		r.Get("/api/categories/{category}/files/{name}", s.handleDownload)
		r.Delete("/api/categories/{category}/files/{name}", s.handleDeleteFile)

		r.Get("/api/index/status", s.handleIndexStatus)
		r.Get("/api/index/validate", s.handleValidate)
		r.Get("/api/index/untitled", s.handleUntitled)
		r.Get("/api/index/jobs", s.handleReloadJobs)
		r.Post("/api/index/reload", s.handleReload)

		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"chunks":     s.deps.Index.Load().Len(),
		"generation": s.deps.Index.Load().Generation(),
	})
}
