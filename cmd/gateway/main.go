package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"study-summarizer/internal/app"
	"study-summarizer/internal/config"
	"study-summarizer/internal/extract"
	"study-summarizer/internal/httputil"
	"study-summarizer/internal/summarize"
)

const (
	// routeTimeoutSlack keeps chi's request timeout from firing before the backend deadline.
	routeTimeoutSlack = 30 * time.Second
	// uploadSlack covers the multipart envelope and form fields around the file.
	uploadSlack = 1 << 20
	shutdownTimeout   = 10 * time.Second
)

type summarizeRequest struct {
	Input       string   `json:"input"`
	MaxTokens   *int     `json:"max_tokens" validate:"omitempty,gt=0"`
	Temperature *float64 `json:"temperature" validate:"omitempty,gte=0,lte=2"`
}

func (r summarizeRequest) toRequest() summarize.Request {
	req := summarize.Request{
		Input:       r.Input,
		MaxTokens:   summarize.DefaultMaxTokens,
		Temperature: summarize.DefaultTemperature,
	}
	if r.MaxTokens != nil {
		req.MaxTokens = *r.MaxTokens
	}
	if r.Temperature != nil {
		req.Temperature = *r.Temperature
	}
	return req
}

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", deps.Config.Port),
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deps.Log.Info("gateway listening", "addr", srv.Addr, "model", config.Model)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		deps.Log.Info("gateway shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func newRouter(deps app.Deps) *chi.Mux {
	cfg := deps.Config.Normalize()
	r := httputil.NewRouter(deps.Log, cfg.BackendTimeout+routeTimeoutSlack)
	r.Use(deps.Metrics.Middleware)

	r.Post("/summarize", summarizeHandler(deps))
	r.Post("/summarize/upload", uploadHandler(deps))
	r.Get("/health", httputil.HealthHandler(config.Model))
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	return r
}

func summarizeHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLog(deps, r)

		var req summarizeRequest
		if err := decodeJSON(r, &req); err != nil {
			httputil.Fail(log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(log, w, err)
			return
		}

		respond(deps, log, w, r, req.toRequest())
	}
}

func uploadHandler(deps app.Deps) http.HandlerFunc {
	maxFileSize := deps.Config.MaxUploadSize

	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLog(deps, r)

		// Validate file size before parsing
		if r.ContentLength > maxFileSize {
			httputil.Fail(log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}

		// Chunked bodies carry no ContentLength; cap what multipart parsing may read.
		r.Body = http.MaxBytesReader(w, r.Body, maxFileSize+uploadSlack)
		file, header, err := r.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				httputil.Fail(log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), err, http.StatusBadRequest)
				return
			}
			httputil.Fail(log, w, "file is required", err, http.StatusBadRequest)
			return
		}
		defer file.Close()

		if header.Size > maxFileSize {
			httputil.Fail(log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}

		contentType, err := extract.ContentType(header.Filename, header.Header.Get("Content-Type"))
		if err != nil {
			httputil.Fail(log, w, err.Error(), err, http.StatusBadRequest)
			return
		}

		var req summarizeRequest
		if err := parseFormOptions(r, &req); err != nil {
			httputil.Fail(log, w, err.Error(), err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(log, w, err)
			return
		}

		content, err := io.ReadAll(file)
		if err != nil {
			httputil.Fail(log, w, "failed to read file", err, http.StatusInternalServerError)
			return
		}
		text, err := extract.Text(contentType, content)
		if errors.Is(err, extract.ErrNoText) {
			httputil.Fail(log, w, err.Error(), err, http.StatusBadRequest)
			return
		}
		if err != nil {
			httputil.Fail(log, w, "failed to extract text from file", err, http.StatusBadRequest)
			return
		}
		req.Input = text

		respond(deps, log.With("filename", header.Filename), w, r, req.toRequest())
	}
}

// respond runs the summarization and maps its outcome onto the HTTP response.
func respond(deps app.Deps, log *slog.Logger, w http.ResponseWriter, r *http.Request, req summarize.Request) {
	resp, err := deps.Summarizer.Summarize(r.Context(), req)
	if err != nil {
		kind := summarize.KindOf(err)
		if kind == 0 {
			kind = summarize.KindUnexpected
		}
		deps.Metrics.ObserveSummary(kind.String())
		status, detail := errorResponse(kind, err)
		httputil.Fail(log, w, detail, err, status)
		return
	}
	deps.Metrics.ObserveSummary("ok")
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// errorResponse maps a summarization failure to its status code and client-facing detail.
func errorResponse(kind summarize.Kind, err error) (int, string) {
	switch kind {
	case summarize.KindInvalidInput:
		return http.StatusBadRequest, summarize.ErrNoInput.Error()
	case summarize.KindTimeout:
		return http.StatusGatewayTimeout, "timeout"
	default:
		cause := err
		var se *summarize.Error
		if errors.As(err, &se) {
			cause = se.Err
		}
		return http.StatusInternalServerError, "error: " + cause.Error()
	}
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// parseFormOptions reads optional max_tokens and temperature multipart fields.
func parseFormOptions(r *http.Request, req *summarizeRequest) error {
	if raw := strings.TrimSpace(r.FormValue("max_tokens")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("max_tokens must be an integer")
		}
		req.MaxTokens = &n
	}
	if raw := strings.TrimSpace(r.FormValue("temperature")); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("temperature must be a number")
		}
		req.Temperature = &f
	}
	return nil
}

func requestLog(deps app.Deps, r *http.Request) *slog.Logger {
	return deps.Log.With("request_id", middleware.GetReqID(r.Context()), "path", r.URL.Path)
}
