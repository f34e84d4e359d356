package server

import (
	"encoding/json"
	"io/fs"
	"net/http"
	"path"
	"strconv"
	"strings"

	"mdbrowser/internal/direction"
	"mdbrowser/internal/library"
	"mdbrowser/internal/render"
)

const defaultFindLimit = 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	initialFile := ""
	if requested := r.URL.Query().Get("file"); requested != "" {
		if clean, err := library.CleanRel(requested); err == nil {
			initialFile = clean
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.Execute(w, pageData{
		Root:        s.lib.Base(),
		InitialFile: initialFile,
	}); err != nil {
		http.Error(w, "template render failed", http.StatusInternalServerError)
	}
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/static/")
	switch name {
	case "chroma-light.css":
		writeCSS(w, s.lightCSS)
		return
	case "chroma-dark.css":
		writeCSS(w, s.darkCSS)
		return
	case "markdown.css":
		writeCSS(w, render.BaseCSS)
		return
	case "app.js", "app.css":
	default:
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	data, err := fs.ReadFile(assets, "assets/"+name)
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if strings.HasSuffix(name, ".js") {
		w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
	}
	_, _ = w.Write(data)
}

func writeCSS(w http.ResponseWriter, css string) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	_, _ = w.Write([]byte(css))
}

func (s *Server) handleSetPath(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		DirPath string `json:"dirPath"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.DirPath) == "" {
		writeError(w, http.StatusBadRequest, "Directory path is required")
		return
	}

	base, err := s.lib.SetBase(req.DirPath)
	if err != nil {
		writeLibraryError(w, r, err)
		return
	}
	s.rewatch()

	writeJSON(w, http.StatusOK, struct {
		Success bool   `json:"success"`
		Path    string `json:"path"`
	}{Success: true, Path: base})
}

func (s *Server) handleCurrentPath(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	var p *string
	if base := s.lib.Base(); base != "" {
		p = &base
	}
	writeJSON(w, http.StatusOK, struct {
		Path *string `json:"path"`
	}{Path: p})
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	listing, err := s.lib.List(r.URL.Query().Get("path"))
	if err != nil {
		writeLibraryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

type documentResponse struct {
	Path      string              `json:"path,omitempty"`
	Name      string              `json:"name,omitempty"`
	Content   string              `json:"content,omitempty"`
	HTML      string              `json:"html"`
	Direction direction.Direction `json:"direction"`
	Title     string              `json:"title,omitempty"`
	Meta      map[string]any      `json:"meta,omitempty"`
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	requested := r.URL.Query().Get("path")
	if strings.TrimSpace(requested) == "" {
		writeError(w, http.StatusBadRequest, "File path is required")
		return
	}

	content, err := s.lib.ReadFile(requested)
	if err != nil {
		writeLibraryError(w, r, err)
		return
	}
	doc, err := s.renderer.RenderString(content)
	if err != nil {
		writeLibraryError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, documentResponse{
		Path:      requested,
		Name:      path.Base(requested),
		Content:   content,
		HTML:      doc.HTML,
		Direction: doc.Direction,
		Title:     doc.Title,
		Meta:      doc.Meta,
	})
}

// handleRender renders markdown supplied by the client, used for files that
// were dropped or picked in the browser rather than read from the library.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Name    string `json:"name"`
		Content string `json:"content"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	doc, err := s.renderer.RenderString(strings.TrimPrefix(req.Content, "\uFEFF"))
	if err != nil {
		writeLibraryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentResponse{
		Name:      req.Name,
		HTML:      doc.HTML,
		Direction: doc.Direction,
		Title:     doc.Title,
		Meta:      doc.Meta,
	})
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Text      string   `json:"text"`
		Threshold *float64 `json:"threshold"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	dir := s.renderer.Classify(req.Text)
	if req.Threshold != nil {
		if *req.Threshold < 0 || *req.Threshold > 1 {
			writeError(w, http.StatusBadRequest, "threshold must be within [0, 1]")
			return
		}
		dir = direction.DetectWithThreshold(req.Text, *req.Threshold)
	}
	var first *direction.Direction
	if d, ok := direction.FirstStrong(req.Text); ok {
		first = &d
	}

	writeJSON(w, http.StatusOK, struct {
		Direction   direction.Direction  `json:"direction"`
		FirstStrong *direction.Direction `json:"firstStrong"`
	}{Direction: dir, FirstStrong: first})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter 'q'")
		return
	}

	results, err := s.lib.Search(query)
	if err != nil {
		writeLibraryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Query   string `json:"query"`
		Results any    `json:"results"`
	}{Query: query, Results: nonNil(results)})
}

func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter 'q'")
		return
	}
	limit := defaultFindLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	matches, err := s.lib.Find(query, limit)
	if err != nil {
		writeLibraryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Query   string `json:"query"`
		Matches any    `json:"matches"`
	}{Query: query, Matches: nonNil(matches)})
}

// nonNil keeps empty result sets encoded as [] instead of null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
