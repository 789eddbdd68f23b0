package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hpungsan/vacay/internal/config"
	"github.com/hpungsan/vacay/internal/history"
	"github.com/hpungsan/vacay/internal/ops"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Deps are the application services the web UI drives.
type Deps struct {
	Store   *history.Store
	Planner *ops.Planner
	Backend ops.Backend
	Monitor *ops.HealthMonitor
	Opener  ops.Opener // nil disables opening exported PDFs
	Config  *config.Config
	Logger  *slog.Logger
}

// NewServer creates and configures the HTTP server for the Vacay web UI.
func NewServer(deps Deps, version, bind string, port int) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           NewHandler(deps, version),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewHandler builds the routed handler tree without a listener.
func NewHandler(deps Deps, version string) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Config == nil {
		deps.Config = config.DefaultConfig()
	}

	// Create sub-FS for templates (strip "templates/" prefix)
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(fmt.Sprintf("failed to create template sub-FS: %v", err))
	}

	// Create sub-FS for static files (strip "static/" prefix)
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to create static sub-FS: %v", err))
	}

	h := newHandlers(deps, NewRenderer(templateSub, version, deps.Logger))

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.HandleIndex)
	mux.HandleFunc("POST /plan", h.HandlePlan)
	mux.HandleFunc("POST /pdf", h.HandlePDF)
	mux.HandleFunc("GET /history/{id}", h.HandleOpenHistory)
	mux.HandleFunc("DELETE /history/{id}", h.HandleDeleteHistory)
	mux.HandleFunc("POST /history/{id}/delete", h.HandleDeleteHistory)
	mux.HandleFunc("GET /api/history", h.HandleHistoryJSON)
	mux.HandleFunc("GET /status", h.HandleStatus)

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticSub)))

	return securityHeaders(mux)
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("vacay UI running", "url", "http://"+srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		logger.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		logger.Info("shutting down")
		// Generation can take minutes; in-flight requests are not waited on past this.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
