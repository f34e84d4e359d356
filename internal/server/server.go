// Package server exposes a markdown library and renderer over HTTP: a page
// shell, static assets and a JSON API for listing, reading, rendering,
// searching and direction detection.
package server

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"mdbrowser/internal/library"
	"mdbrowser/internal/render"
)

//go:embed assets
var assets embed.FS

type Options struct {
	LightStyle   string
	DarkStyle    string
	LineNumbers  bool
	Watch        bool
	MaxBodyBytes int64
}

type Server struct {
	lib      *library.Library
	renderer *render.Renderer
	opts     Options
	tpl      *template.Template

	lightCSS string
	darkCSS  string

	mu      sync.Mutex
	watcher *library.Watcher
}

type pageData struct {
	Root        string
	InitialFile string
}

// New builds a Server. When watching is enabled and lib already has a base
// directory, watching starts immediately.
func New(lib *library.Library, renderer *render.Renderer, opts Options) (*Server, error) {
	tpl, err := template.ParseFS(assets, "assets/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	light, err := render.StyleCSS(opts.LightStyle, opts.LineNumbers)
	if err != nil {
		return nil, err
	}
	dark, err := render.StyleCSS(opts.DarkStyle, opts.LineNumbers)
	if err != nil {
		return nil, err
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 8 << 20
	}

	s := &Server{
		lib:      lib,
		renderer: renderer,
		opts:     opts,
		tpl:      tpl,
		lightCSS: light,
		darkCSS:  dark,
	}
	if lib.Base() != "" {
		s.rewatch()
	}
	return s, nil
}

// Register adds all routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/static/", s.handleStatic)
	mux.HandleFunc("/api/set-path", s.handleSetPath)
	mux.HandleFunc("/api/current-path", s.handleCurrentPath)
	mux.HandleFunc("/api/files", s.handleFiles)
	mux.HandleFunc("/api/file", s.handleFile)
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/detect", s.handleDetect)
	mux.HandleFunc("/api/search", s.handleSearch)
	mux.HandleFunc("/api/find", s.handleFind)
	mux.HandleFunc("/api/events", s.handleEvents)
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// Handler returns the routes wrapped with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return logRequests(mux)
}

// Close stops the file watcher, if any.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Close()
	s.watcher = nil
	return err
}

// rewatch replaces the watcher after the base directory changed. Failures are
// logged; browsing works without live updates.
func (s *Server) rewatch() {
	if !s.opts.Watch {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			slog.Warn("close watcher", "err", err)
		}
		s.watcher = nil
	}
	w, err := s.lib.Watch()
	if err != nil {
		slog.Warn("file watching disabled", "base", s.lib.Base(), "err", err)
		return
	}
	s.watcher = w
	slog.Debug("watching", "base", w.Base())
}

func (s *Server) currentWatcher() *library.Watcher {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watcher
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// errorStatus maps library errors to an HTTP status and a client message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, library.ErrNoBase):
		return http.StatusBadRequest, "No directory set. Use POST /api/set-path first."
	case errors.Is(err, library.ErrPathRequired):
		return http.StatusBadRequest, "Path is required"
	case errors.Is(err, library.ErrNotDirectory):
		return http.StatusBadRequest, "Path is not a directory"
	case errors.Is(err, library.ErrNotMarkdown):
		return http.StatusBadRequest, "Only markdown files are allowed"
	case errors.Is(err, library.ErrAccessDenied):
		return http.StatusForbidden, "Access denied"
	case errors.Is(err, library.ErrNotFound):
		return http.StatusNotFound, "Path not found"
	}
	return http.StatusInternalServerError, "Internal error"
}

func writeLibraryError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "path", r.URL.Path, "err", err)
	}
	writeError(w, status, msg)
}
