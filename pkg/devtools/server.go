package devtools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/atoms/pkg/atom"
	"github.com/vango-dev/atoms/pkg/features/provider"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 30 * time.Second
	maxBodySize       = 1 << 20 // 1 MB
)

// Server exposes the atoms of a registry over HTTP and WebSocket.
type Server struct {
	router   *chi.Mux
	store    *atom.Store
	registry *Registry
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	origins  []string
	upgrader websocket.Upgrader

	// done is closed by Close; open watch connections end when it is.
	closeOnce sync.Once
	done      chan struct{}
	watchers  sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger. If unset, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer sets the Prometheus gatherer served on /metrics.
// Default: prometheus.DefaultGatherer
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithAllowedOrigins sets the origins allowed by CORS and by the WebSocket
// handshake. "*" allows any origin, which is the default.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// NewServer creates a server for the atoms of reg, read from and written
// to store.
func NewServer(store *atom.Store, reg *Registry, opts ...Option) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		store:    store,
		registry: reg,
		gatherer: prometheus.DefaultGatherer,
		origins:  []string{"*"},
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.provideStore)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.routes()
	return s
}

// routes registers all HTTP routes on the router.
func (s *Server) routes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	s.router.Get("/snapshot", s.handleSnapshot)

	s.router.Route("/atoms", func(r chi.Router) {
		r.Get("/", s.handleListAtoms)
		r.Get("/{name}", s.handleGetAtom)
		r.Post("/{name}", s.handleSetAtom)
		r.Delete("/{name}", s.handleForgetAtom)
	})

	s.router.Get("/ws/{name}", s.handleWatch)
}

// Router returns the chi router.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("devtools listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("devtools shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Hijacked WebSocket connections are not tracked by Shutdown.
	s.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("devtools stopped")
	return nil
}

// Close ends every open watch connection and waits for them to finish.
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.done) })
	s.watchers.Wait()
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return slices.Contains(s.origins, "*") || slices.Contains(s.origins, origin)
}

// loggingMiddleware logs each request using the structured logger.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// provideStore makes the server's store available to handlers through
// the request context.
func (s *Server) provideStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(provider.With(r.Context(), s.store)))
	})
}

type healthResponse struct {
	Status string `json:"status"`
	Atoms  int    `json:"atoms"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// atomInfo describes a registered atom in the list response.
type atomInfo struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Writable bool   `json:"writable"`
	Phase    string `json:"phase"`
}

// valueResponse is the current value of an atom. State is "ready",
// "pending" or "error".
type valueResponse struct {
	Name  string          `json:"name"`
	State string          `json:"state"`
	Value json.RawMessage `json:"value,omitempty"`
	Error string          `json:"error,omitempty"`
}

type writeResponse struct {
	Name    string          `json:"name"`
	Result  json.RawMessage `json:"result"`
	Current valueResponse   `json:"current"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Atoms: s.registry.Len()})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, provider.Store(r.Context()).Snapshot())
}

func (s *Server) handleListAtoms(w http.ResponseWriter, r *http.Request) {
	store := provider.Store(r.Context())
	entries := s.registry.Entries()
	out := make([]atomInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, atomInfo{
			Name:     e.Name,
			Label:    e.Atom.String(),
			Writable: e.Writable(),
			Phase:    store.Phase(e.Atom).String(),
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetAtom(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}

	resp, err := readValue(provider.Store(r.Context()), e)
	if err != nil {
		s.writeError(w, err)
		return
	}

	status := http.StatusOK
	if resp.State == "pending" {
		status = http.StatusAccepted
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) handleSetAtom(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, BadRequest(err))
		return
	}
	if len(body) == 0 {
		body = []byte("null")
	}

	args, err := e.Args(body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	store := provider.Store(r.Context())
	result, err := store.Set(e.Atom, args...)
	if err != nil {
		s.writeError(w, err)
		return
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		encoded = nil
		s.logger.Warn("encode write result", "atom", e.Name, "error", err)
	}
	current, err := readValue(store, e)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, writeResponse{Name: e.Name, Result: encoded, Current: current})
}

func (s *Server) handleForgetAtom(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	forgotten := provider.Store(r.Context()).Forget(e.Atom)
	s.writeJSON(w, http.StatusOK, map[string]bool{"forgotten": forgotten})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (Entry, bool) {
	name := chi.URLParam(r, "name")
	e, ok := s.registry.Lookup(name)
	if !ok {
		s.writeError(w, NotFound(name))
	}
	return e, ok
}

// readValue reads e from store. Read function errors are part of the
// response; only store-level failures are returned.
func readValue(store *atom.Store, e Entry) (valueResponse, error) {
	resp := valueResponse{Name: e.Name}

	v, err := store.Get(e.Atom)
	switch {
	case err == nil:
		resp.State = "ready"
	case atom.IsPending(err):
		resp.State = "pending"
		return resp, nil
	case errors.Is(err, atom.ErrStoreClosed):
		return resp, err
	default:
		resp.State = "error"
		resp.Error = err.Error()
		return resp, nil
	}

	encoded, err := json.Marshal(v)
	if err != nil {
		resp.State = "error"
		resp.Error = fmt.Sprintf("encode value: %v", err)
		return resp, nil
	}
	resp.Value = encoded
	return resp, nil
}

// writeJSON writes v as a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// writeError writes err as a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	he := FromError(err)
	if he.Code == http.StatusMethodNotAllowed {
		w.Header().Set("Allow", "GET, DELETE")
	}
	s.writeJSON(w, he.Code, errorResponse{Error: he.Message})
}
