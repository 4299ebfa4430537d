// Package web serves session status over HTTP: JSON query endpoints, a
// websocket change feed, and web push notifications for sessions that need
// attention.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/twistedxcom/woodeye/internal/logging"
	"github.com/twistedxcom/woodeye/internal/status"
)

var webLog = logging.ForComponent(logging.CompWeb)

// Config defines runtime options for the web server.
type Config struct {
	ListenAddr string
	Token      string

	// Paths are the project paths served by /api/statuses when the client
	// doesn't name any.
	Paths []string

	PushVAPIDPublicKey  string
	PushVAPIDPrivateKey string
	PushVAPIDSubject    string

	// PushStatePath is where push subscriptions are persisted
	// (default: <status dir>/web_push_subscriptions.json).
	PushStatePath string
}

// Server wraps an HTTP server exposing the status resolver.
type Server struct {
	cfg        Config
	resolver   *status.Resolver
	httpServer *http.Server
	push       *pushService

	baseCtx    context.Context
	cancelBase context.CancelFunc

	clientsMu sync.Mutex
	clients   map[*wsClient]struct{}
}

// NewServer creates a web server over a resolver.
func NewServer(cfg Config, resolver *status.Resolver) *Server {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "127.0.0.1:8420"
	}

	s := &Server{
		cfg:      cfg,
		resolver: resolver,
		clients:  make(map[*wsClient]struct{}),
	}
	s.baseCtx, s.cancelBase = context.WithCancel(context.Background())

	if push, err := newPushService(cfg); err != nil {
		webLog.Warn("push_disabled", slog.String("error", err.Error()))
	} else {
		s.push = push
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/statuses", s.handleStatuses)
	mux.HandleFunc("/api/push/config", s.handlePushConfig)
	mux.HandleFunc("/api/push/subscribe", s.handlePushSubscribe)
	mux.HandleFunc("/api/push/unsubscribe", s.handlePushUnsubscribe)
	mux.HandleFunc("/ws", s.handleWS)

	s.httpServer = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           withRecover(mux),
		BaseContext:       func(_ net.Listener) context.Context { return s.baseCtx },
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Handler returns the configured HTTP handler (used by tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server and blocks until shutdown or error.
// Returns nil on graceful shutdown.
func (s *Server) Start() error {
	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cancelBase != nil {
		// Signal long-lived websocket handlers to stop promptly.
		s.cancelBase()
	}

	err := s.httpServer.Shutdown(ctx)
	if err == nil {
		return nil
	}

	// Open websockets may block graceful shutdown. Force close as a
	// fallback so Ctrl+C exits promptly.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		if closeErr := s.httpServer.Close(); closeErr != nil {
			return fmt.Errorf("graceful shutdown timed out and force close failed: %w", closeErr)
		}
		return nil
	}

	return err
}

// NotifyChanged is called by the composition root when the change watcher
// fires. It fans the coalesced notification out to websocket clients and
// lets the push service re-evaluate pending sessions.
func (s *Server) NotifyChanged() {
	s.broadcastChanged()
	if s.push != nil {
		s.push.TriggerSync(s.resolver, s.cfg.Paths)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	resp := map[string]any{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				webLog.Error("panic",
					slog.String("recover", fmt.Sprintf("%v", rec)),
					slog.String("path", r.URL.Path))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
