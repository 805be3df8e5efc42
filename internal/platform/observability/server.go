package observability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	apperrors "github.com/lueurxax/telegram-feed-connector/internal/core/errors"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second

	statusSuccess  = "success"
	statusError    = "error"
	messageSynced  = "All messages synced"
	contentTypeKey = "Content-Type"
	contentJSON    = "application/json"
)

// Pinger checks a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SyncFunc runs one sync pass.
type SyncFunc func(ctx context.Context) error

// SyncResponse is the body of the trigger endpoint.
type SyncResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Server exposes the sync trigger, health probes and metrics.
type Server struct {
	port        int
	db          Pinger
	sync        SyncFunc
	syncTimeout time.Duration
	logger      *zerolog.Logger
}

// NewServer creates the HTTP server. A zero syncTimeout leaves passes unbounded.
func NewServer(port int, db Pinger, sync SyncFunc, syncTimeout time.Duration, logger *zerolog.Logger) *Server {
	return &Server{
		port:        port,
		db:          db,
		sync:        sync,
		syncTimeout: syncTimeout,
		logger:      logger,
	}
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleSync)
	mux.HandleFunc("POST /{$}", s.handleSync)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, "OK")
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := s.db.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = fmt.Fprintf(w, "DB error: %v", err)

			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, "OK")
	})

	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.syncTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, s.syncTimeout)
		defer cancel()
	}

	err := s.sync(ctx)

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, SyncResponse{Status: statusSuccess, Message: messageSynced})
	case errors.Is(err, apperrors.ErrSyncInProgress):
		writeJSON(w, http.StatusConflict, SyncResponse{Status: statusError, Message: err.Error()})
	default:
		s.logger.Error().Err(err).Msg("triggered sync failed")
		writeJSON(w, http.StatusInternalServerError, SyncResponse{Status: statusError, Message: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, body SyncResponse) {
	w.Header().Set(contentTypeKey, contentJSON)
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(body)
}

// Start serves until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)

		defer cancel()

		//nolint:errcheck,contextcheck // shutdown in signal handler is best-effort, non-inherited context intentional
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Int("port", s.port).Msg("HTTP server starting")

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}
