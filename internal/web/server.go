// Package web serves the single-page document analyzer and its JSON API.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"golang.org/x/sync/singleflight"

	"github.com/thywilljoshua/docanalyzer/internal/analyze"
	"github.com/thywilljoshua/docanalyzer/internal/extract"
	"github.com/thywilljoshua/docanalyzer/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

const cookieName = "docanalyzer_session"

// Extractor is the part of extract.Router the server needs.
type Extractor interface {
	Extract(ctx context.Context, doc extract.Document) (extract.Result, error)
	OCRAvailable() bool
}

type Options struct {
	MaxUploadBytes int64
	SessionTTL     time.Duration
	Logger         *slog.Logger
}

type Server struct {
	extractor Extractor
	analyzer  *analyze.Analyzer
	store     *session.Store
	opts      Options
	logger    *slog.Logger

	flight singleflight.Group
	md     goldmark.Markdown
	policy *bluemonday.Policy
	page   *template.Template
}

func New(ex Extractor, an *analyze.Analyzer, store *session.Store, opts Options) (*Server, error) {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 20 << 20
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = time.Hour
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	page, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, err
	}
	return &Server{
		extractor: ex,
		analyzer:  an,
		store:     store,
		opts:      opts,
		logger:    logger,
		md:        goldmark.New(),
		policy:    bluemonday.UGCPolicy(),
		page:      page,
	}, nil
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Post("/upload", s.handleUpload)
	r.Post("/summarize", s.handleSummarize)
	r.Post("/ask", s.handleAsk)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})

	r.Route("/api/documents", func(r chi.Router) {
		r.Post("/", s.apiCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.apiGet)
			r.Delete("/", s.apiDelete)
			r.Post("/summary", s.apiSummary)
			r.Post("/answers", s.apiAnswer)
		})
	})
	return r
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
// Idle sessions are pruned in the background meanwhile.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go s.pruneLoop(ctx)

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr, "ocr", s.extractor.OCRAvailable())

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) pruneLoop(ctx context.Context) {
	every := s.opts.SessionTTL / 4
	if every < time.Minute {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.store.Prune(ctx, s.opts.SessionTTL)
			if err != nil {
				s.logger.Warn("prune sessions", "err", err)
				continue
			}
			if n > 0 {
				s.logger.Debug("pruned sessions", "count", n)
			}
		}
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"dur", time.Since(start),
				"req_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
