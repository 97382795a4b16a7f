package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/democrat/pkg/archive"
	"github.com/vango-dev/democrat/pkg/codec"
	"github.com/vango-dev/democrat/pkg/democrat"
)

// Server serves one store over HTTP and WebSocket.
type Server struct {
	target  Target
	config  *Config
	router  chi.Router
	hub     *hub
	logger  *slog.Logger
	started time.Time

	unsubscribe func()
	httpServer  *http.Server
}

// New creates a Server for target and subscribes to its patches. Call Close
// to unsubscribe and disconnect websocket clients.
func New(target Target, config *Config) *Server {
	config = config.withDefaults()
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "inspect", "store", target.Name())
	if err := config.Validate(); err != nil {
		logger.Error("config validation failed", "error", err)
	}

	s := &Server{
		target:  target,
		config:  config,
		hub:     newHub(config, logger),
		logger:  logger,
		started: time.Now(),
	}
	s.router = s.routes()
	s.unsubscribe = target.SubscribePatches(s.publish)
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleInfo)
	r.Get("/state", s.handleState)
	r.Get("/snapshot", s.handleSnapshot)
	r.Post("/patches", s.handleApplyPatches)
	r.Get("/patches/ws", s.hub.serve)
	if s.config.Archive != nil {
		r.Get("/archive", s.handleListArchive)
		r.Post("/archive", s.handleSaveArchive)
	}
	if s.config.MetricsPath != "" {
		r.Method(http.MethodGet, s.config.MetricsPath,
			promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Handler returns the http.Handler for mounting in another router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	return s.hub.count()
}

// Close stops streaming patches and disconnects websocket clients.
func (s *Server) Close() {
	s.unsubscribe()
	s.hub.closeAll()
}

// publish runs on the goroutine that settled the render.
func (s *Server) publish(patches []democrat.Patch) {
	if s.hub.count() == 0 {
		return
	}
	data, err := codec.EncodePatches(codec.FormatJSON, s.target.Name(), patches)
	if err != nil {
		s.logger.Error("encode patches", "error", err)
		return
	}
	s.hub.broadcast(data)
}

// Run starts listening on the configured address and blocks until ctx is
// cancelled, SIGINT or SIGTERM arrives, or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s.router,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("inspect server starting", "address", s.config.Address)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully stops a server started with Run.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.Close()
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}
	s.logger.Info("inspect server shutdown complete")
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		level := slog.LevelDebug
		if ww.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// Info describes the served store.
type Info struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Formats  []codec.Format `json:"formats"`
	Version  int            `json:"envelopeVersion"`
	Clients  int            `json:"clients"`
	Uptime   string         `json:"uptime"`
	Metrics  string         `json:"metrics,omitempty"`
	Patches  string         `json:"patches"`
	Snapshot string         `json:"snapshot"`
	Archive  string         `json:"archive,omitempty"`
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info := Info{
		ID:       s.target.ID(),
		Name:     s.target.Name(),
		Formats:  codec.Formats,
		Version:  codec.CurrentVersion,
		Clients:  s.hub.count(),
		Uptime:   time.Since(s.started).Round(time.Second).String(),
		Metrics:  s.config.MetricsPath,
		Patches:  "/patches",
		Snapshot: "/snapshot",
	}
	if s.config.Archive != nil {
		info.Archive = "/archive"
	}
	writeJSON(w, http.StatusOK, info)
}

type stateResponse struct {
	Store string `json:"store"`
	State any    `json:"state"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	data, err := json.Marshal(stateResponse{Store: s.target.Name(), State: s.target.State()})
	if err != nil {
		s.fail(w, http.StatusInternalServerError, fmt.Errorf("encode state: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	f, err := s.requestFormat(r.URL.Query().Get("format"), "")
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	data, err := codec.EncodeSnapshot(f, s.target.Name(), s.target.GetSnapshot())
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	if r.URL.Query().Has("download") {
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", s.target.Name()+".snapshot"+f.Ext()))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

type archiveEntry struct {
	Key       string    `json:"key"`
	Kind      string    `json:"kind"`
	Format    string    `json:"format"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Server) handleListArchive(w http.ResponseWriter, r *http.Request) {
	entries, err := s.config.Archive.Entries(r.Context(), s.target.Name())
	if err != nil {
		s.fail(w, http.StatusBadGateway, err)
		return
	}
	out := make([]archiveEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, archiveEntry{
			Key:       e.Key,
			Kind:      string(e.Kind),
			Format:    string(e.Format),
			Size:      e.Size,
			CreatedAt: e.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type saveResponse struct {
	Key string `json:"key"`
}

func (s *Server) handleSaveArchive(w http.ResponseWriter, r *http.Request) {
	key, err := s.config.Archive.SaveSnapshot(r.Context(), s.target.Name(), s.target.GetSnapshot())
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, archive.ErrTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		s.fail(w, status, err)
		return
	}
	s.logger.Info("snapshot archived", "key", key)
	writeJSON(w, http.StatusCreated, saveResponse{Key: key})
}

type applyResponse struct {
	Accepted int `json:"accepted"`
}

func (s *Server) handleApplyPatches(w http.ResponseWriter, r *http.Request) {
	f, err := s.requestFormat(r.URL.Query().Get("format"), r.Header.Get("Content-Type"))
	if err != nil {
		s.fail(w, http.StatusUnsupportedMediaType, err)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodySize))
	if err != nil {
		s.fail(w, http.StatusRequestEntityTooLarge, err)
		return
	}
	patches, err := codec.DecodePatches(f, body)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	if err := s.apply(patches); err != nil {
		s.fail(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusAccepted, applyResponse{Accepted: len(patches)})
}

// apply queues patches on the target, turning a fatal store error (such as
// a destroyed store) into an ordinary error.
func (s *Server) apply(patches []democrat.Patch) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			var fatal *democrat.FatalError
			if e, ok := rec.(error); ok && errors.As(e, &fatal) {
				err = fatal
				return
			}
			panic(rec)
		}
	}()
	s.target.ApplyPatches(patches)
	return nil
}

// requestFormat picks the codec format from a query value, then a
// Content-Type, then the configured default.
func (s *Server) requestFormat(query, contentType string) (codec.Format, error) {
	if query != "" {
		return codec.ParseFormat(query)
	}
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			for _, f := range codec.Formats {
				if f.ContentType() == mediaType {
					return f, nil
				}
			}
		}
	}
	return s.config.Format, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	s.logger.Warn("request failed", "status", status, "error", err)
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
