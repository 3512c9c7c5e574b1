package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	webrender "github.com/halmos/go-webrender"
	"github.com/halmos/go-webrender/internal/config"
)

// renderService is the surface of webrender.Service the HTTP layer consumes.
// Abstracted to enable testing without a browser.
type renderService interface {
	RenderPDF(ctx context.Context, req *webrender.PDFRequest) ([]byte, error)
	RenderImage(ctx context.Context, req *webrender.ImageRequest) ([]byte, error)
	RenderMarkdown(ctx context.Context, req *webrender.MarkdownRequest) ([]byte, error)
}

// server is the HTTP API surface for webrenderd.
type server struct {
	svc    renderService
	cfg    *config.Config
	logger zerolog.Logger
	router chi.Router
}

// newServer creates a server with its routes and middleware wired.
func newServer(svc renderService, cfg *config.Config, logger zerolog.Logger) *server {
	s := &server{
		svc:    svc,
		cfg:    cfg,
		logger: logger,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *server) routes() {
	r := s.router

	r.Use(s.requestLogger)
	r.Use(s.apiKeyGate)

	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleReady)
	r.Post("/pdf", s.handleRenderPDF)
	r.Post("/image", s.handleRenderImage)
	r.Post("/markdown", s.handleRenderMarkdown)
}

// ServeHTTP implements http.Handler.
func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ctxKey keys context values stored by the middleware.
type ctxKey int

const requestIDKey ctxKey = iota

// requestID returns the id minted for this request, empty outside the
// requestLogger middleware.
func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requestLogger mints a per-request id and logs every request with method,
// path, status and duration. Handlers log failures under the same id so the
// access line and the error line correlate.
func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := uuid.NewString()
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey, id))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info().
			Str("request_id", id).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// apiKeyGate rejects requests without the shared secret when one is
// configured. The health endpoint is always reachable.
func (s *server) apiKeyGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Server.APIKey != "" && r.URL.Path != "/health" {
			if r.Header.Get("X-API-Key") != s.cfg.Server.APIKey {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// --- HTTP handlers ---

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready!"})
}

func (s *server) handleRenderPDF(w http.ResponseWriter, r *http.Request) {
	var req webrender.PDFRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	pdf, err := s.svc.RenderPDF(r.Context(), &req)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (s *server) handleRenderImage(w http.ResponseWriter, r *http.Request) {
	var req webrender.ImageRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	img, err := s.svc.RenderImage(r.Context(), &req)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	// Normalize has run by now, so the format is defaulted and valid.
	w.Header().Set("Content-Type", "image/"+req.Export.Format)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

func (s *server) handleRenderMarkdown(w http.ResponseWriter, r *http.Request) {
	var req webrender.MarkdownRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	pdf, err := s.svc.RenderMarkdown(r.Context(), &req)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

// decodeBody decodes a JSON request body, writing the 400 envelope itself on
// failure. Returns false when the handler should stop.
func (s *server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		s.logger.Warn().Err(err).Str("request_id", requestID(r.Context())).Str("path", r.URL.Path).Msg("decoding request body")
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// renderError converts any validation or rendering failure into the 400
// envelope. This is the single point where pipeline errors become responses.
func (s *server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error().Err(err).Str("request_id", requestID(r.Context())).Str("path", r.URL.Path).Msg("render failed")
	writeError(w, http.StatusBadRequest, err.Error())
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
