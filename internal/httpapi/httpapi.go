// Package httpapi serves analyses over HTTP: a JSON endpoint, a
// server-sent events endpoint that relays the AI reply as it streams, and
// a health check.
package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mj1618/a11y-lens/internal/output"
	"github.com/mj1618/a11y-lens/internal/pipeline"
	"github.com/mj1618/a11y-lens/internal/server"
	"github.com/mj1618/a11y-lens/internal/version"
)

// maxBody bounds request bodies; requests only carry a URL and flags.
const maxBody = 64 << 10

// Service is the analysis backend. *server.Server satisfies it.
type Service interface {
	Analyze(ctx context.Context, req server.Request, onFragment func(string)) (server.Outcome, error)
	Upload(ctx context.Context, res *pipeline.Result) (string, error)
}

// AnalyzeRequest is the body of both analyze endpoints.
type AnalyzeRequest struct {
	URL         string `json:"url"`
	MaxRetries  int    `json:"maxRetries,omitempty"`
	TimeoutMs   int    `json:"timeoutMs,omitempty"`
	Stream      bool   `json:"stream,omitempty"`
	Refresh     bool   `json:"refresh,omitempty"`
	NoAI        bool   `json:"noAI,omitempty"`
	Numbered    bool   `json:"numbered,omitempty"`
	IncludePage bool   `json:"includePage,omitempty"`
}

// AnalyzeResponse is the result document. ScreenshotPNG is base64 and is
// omitted when the screenshot was uploaded.
type AnalyzeResponse struct {
	output.AnalysisResult
	Cached        bool   `json:"cached"`
	ScreenshotPNG string `json:"screenshotPng,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type handler struct {
	svc Service
	log *zap.Logger
}

// New returns the API router.
func New(svc Service, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &handler{svc: svc, log: log.Named("http")}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/analyze", h.handleAnalyze)
		r.Post("/analyze/stream", h.handleAnalyzeStream)
	})
	return r
}

// ListenAndServe serves handler on addr until ctx is done, then shuts
// down gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Info("serving HTTP API", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": version.Version})
}

func (h *handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	out, err := h.svc.Analyze(r.Context(), body.toRequest(), nil)
	if err != nil {
		status, code := statusFor(err)
		h.log.Warn("analyze failed", zap.String("url", body.URL), zap.Error(err))
		writeJSON(w, status, errorResponse{Error: code, Message: pipeline.UserMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, h.response(r.Context(), body, out))
}

func (h *handler) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	send := func(event string, v interface{}) {
		data, err := json.Marshal(v)
		if err != nil {
			h.log.Error("encode event", zap.String("event", event), zap.Error(err))
			return
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
		flusher.Flush()
	}

	req := body.toRequest()
	req.Stream = true
	out, err := h.svc.Analyze(r.Context(), req, func(fragment string) {
		send("fragment", map[string]string{"text": fragment})
	})
	if err != nil {
		_, code := statusFor(err)
		send("error", errorResponse{Error: code, Message: pipeline.UserMessage(err)})
		return
	}
	send("result", h.response(r.Context(), body, out))
}

func (h *handler) response(ctx context.Context, body AnalyzeRequest, out server.Outcome) AnalyzeResponse {
	location, err := h.svc.Upload(ctx, out.Result)
	if err != nil {
		h.log.Warn("screenshot upload failed", zap.Error(err))
	}
	resp := AnalyzeResponse{
		AnalysisResult: output.NewAnalysisResult(out.Result, body.IncludePage, location),
		Cached:         out.Cached,
	}
	if location == "" && len(out.Result.Screenshot) > 0 {
		resp.ScreenshotPNG = base64.StdEncoding.EncodeToString(out.Result.Screenshot)
	}
	return resp
}

func (b AnalyzeRequest) toRequest() server.Request {
	return server.Request{
		URL:        b.URL,
		MaxRetries: b.MaxRetries,
		Timeout:    time.Duration(b.TimeoutMs) * time.Millisecond,
		SkipAI:     b.NoAI,
		Stream:     b.Stream,
		Numbered:   b.Numbered,
		Refresh:    b.Refresh,
	}
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (AnalyzeRequest, bool) {
	var body AnalyzeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: fmt.Sprintf("invalid request body: %v", err)})
		return body, false
	}
	if err := pipeline.ValidateURL(body.URL); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_url", Message: pipeline.UserMessage(err)})
		return body, false
	}
	return body, true
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, pipeline.ErrInvalidURL):
		return http.StatusBadRequest, "invalid_url"
	case errors.Is(err, pipeline.ErrNavigation):
		return http.StatusBadGateway, "navigation_failed"
	case errors.Is(err, pipeline.ErrCancelled):
		return http.StatusServiceUnavailable, "cancelled"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
