package routes

import (
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	appmw "github.com/briangreenhill/trendscope/internal/http/middleware"
)

type Server struct {
	Router     *chi.Mux
	Trends     TrendSource
	Summarizer Summarizer
	Tmpl       *template.Template
	Now        func() time.Time // injectable clock, time.Now by default

	validate *validator.Validate
}

type ServerOptions struct {
	Logger     zerolog.Logger
	Trends     TrendSource
	Summarizer Summarizer
	Tmpl       *template.Template
	Now        func() time.Time
}

func New(opts ServerOptions) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(hlog.NewHandler(opts.Logger))
	r.Use(appmw.RequestID)
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("took", d).
			Msg("request")
	}))
	r.Use(chimw.Recoverer)

	s := &Server{
		Router:     r,
		Trends:     opts.Trends,
		Summarizer: opts.Summarizer,
		Tmpl:       opts.Tmpl,
		Now:        opts.Now,
		validate:   validator.New(),
	}
	if s.Now == nil {
		s.Now = time.Now
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("writing health check response")
		}
	})

	if s.Tmpl != nil {
		r.Get("/", s.handleHome)
	}
	r.Route("/api", func(api chi.Router) {
		api.Get("/trends", s.handleTrends)
		api.Get("/trends/stats", s.handleTrendStats)
		api.Post("/summarize", s.handleSummarize)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.Tmpl.ExecuteTemplate(w, name, data); err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("template", name).Msg("render template failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// errorBody is the uniform error shape of the JSON API
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("encoding response")
	}
}
