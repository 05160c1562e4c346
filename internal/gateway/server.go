package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"uibridge/internal/a2ui"
	"uibridge/internal/agui"
	"uibridge/internal/history"
)

const shutdownTimeout = 10 * time.Second

// Ledger records runs and serves them back. *history.Store satisfies it.
type Ledger interface {
	BeginRun(ctx context.Context, sessionID, runID, protocol string) error
	FinishRun(ctx context.Context, runID string, messages int, runErr error) error
	ListSessions(ctx context.Context, limit int) ([]history.Session, error)
	GetSession(ctx context.Context, id string) (*history.Session, error)
}

type Option func(*Server)

func WithLedger(l Ledger) Option {
	return func(s *Server) { s.ledger = l }
}

// WithAllowedOrigins sets the CORS allow list. "*" allows any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

type Server struct {
	a2ui    *a2ui.Service
	agui    *agui.Agent
	ledger  Ledger
	origins []string
	mux     *http.ServeMux
}

func NewServer(svc *a2ui.Service, agent *agui.Agent, opts ...Option) *Server {
	s := &Server{
		a2ui: svc,
		agui: agent,
		mux:  http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /a2ui", s.handleA2UI)
	s.mux.HandleFunc("POST /{$}", s.handleAGUI)
	s.mux.HandleFunc("POST /agui", s.handleAGUI)
	s.mux.HandleFunc("GET /v1/sessions", s.handleListSessions)
	s.mux.HandleFunc("GET /v1/sessions/{id}", s.handleGetSession)
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
}

// Handler returns the routes wrapped in CORS, request logging and tracing.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = logRequests(h)
	h = cors(s.origins, h)
	return otelhttp.NewHandler(h, "uibridge.http")
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// streams for up to shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		// No WriteTimeout: responses are long-lived streams.
	}

	slog.Info("gateway listening", "addr", ln.Addr().String())

	serveDone := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveDone <- err
		}
		close(serveDone)
	}()

	select {
	case <-ctx.Done():
		slog.Info("gateway shutting down")
	case err := <-serveDone:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("gateway shutdown: %w", err)
	}
	slog.Info("gateway stopped")
	return nil
}
