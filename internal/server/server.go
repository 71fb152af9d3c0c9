// Package server serves the build folder during development, with live reload.
package server

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"git.home.luguber.info/inful/pagesmith/internal/config"
	"git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
	"git.home.luguber.info/inful/pagesmith/internal/logfields"
	"git.home.luguber.info/inful/pagesmith/internal/server/middleware"
)

// Options customizes a Server.
type Options struct {
	// Hub enables live reload when non-nil.
	Hub *Hub
	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler
	Logger  *slog.Logger
}

// Server is the development HTTP server.
type Server struct {
	cfg     config.ServerConfig
	dir     string
	opts    Options
	srv     *http.Server
	ln      net.Listener
	started time.Time
}

// New creates a server for the files below dir.
func New(cfg config.ServerConfig, dir string, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Server{cfg: cfg, dir: dir, opts: opts}
}

// Handler returns the full routing tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.opts.Metrics != nil {
		mux.Handle("/metrics", s.opts.Metrics)
	}

	var site http.Handler = http.FileServer(http.Dir(s.dir))
	if s.opts.Hub != nil {
		mux.Handle(EventsPath, s.opts.Hub)
		mux.HandleFunc(ScriptPath, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
			_, _ = w.Write([]byte(ClientScript))
		})
		site = injectScript(site)
	}
	mux.Handle("/", site)
	return middleware.Chain(s.opts.Logger)(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	}
	if s.opts.Hub != nil {
		body["livereload_clients"] = s.opts.Hub.Clients()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

// Start binds the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Addr())
	if err != nil {
		return errors.NetworkError("bind development server").WithCause(err).WithContext("addr", s.cfg.Addr()).Build()
	}
	s.ln = ln
	s.started = time.Now()
	// no write timeout: server-sent event streams stay open
	s.srv = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second, IdleTimeout: 120 * time.Second}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
			s.opts.Logger.Error("Development server error", logfields.Error(err))
		}
	}()
	s.opts.Logger.Info("Serving build folder", logfields.Path(s.dir), logfields.URL("http://"+ln.Addr().String()))
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Stop closes live-reload streams and shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.opts.Hub != nil {
		s.opts.Hub.Shutdown()
	}
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
