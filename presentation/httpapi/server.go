// Package httpapi exposes the remote trigger for collection runs.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"bmc_collect/application/collector"
	"bmc_collect/domain/entities"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Collector is the run control the API drives
type Collector interface {
	Start() (string, error)
	Last() (entities.RunResult, bool)
	Busy() bool
}

type Server struct {
	router    *mux.Router
	collector Collector
	logger    *logrus.Logger
	addr      string
}

// NewServer - creates the API server. metrics may be nil.
func NewServer(addr string, c Collector, metrics http.Handler, logger *logrus.Logger) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		collector: c,
		logger:    logger,
		addr:      addr,
	}

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/api/v1/collect", s.handleCollect).Methods("POST")
	s.router.HandleFunc("/api/v1/runs/last", s.handleLastRun).Methods("GET")
	if metrics != nil {
		s.router.Handle("/metrics", metrics).Methods("GET")
	}
	s.router.Use(s.logRequests)

	return s
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("Trigger API listening on %s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"busy":   s.collector.Busy(),
	})
}

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	id, err := s.collector.Start()
	if errors.Is(err, collector.ErrBusy) {
		resp := map[string]interface{}{"error": err.Error()}
		if last, ok := s.collector.Last(); ok {
			resp["run_id"] = last.ID
		}
		s.writeJSON(w, http.StatusConflict, resp)
		return
	}
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Location", "/api/v1/runs/last")
	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"run_id": id,
		"status": string(entities.RunStatusRunning),
	})
}

func (s *Server) handleLastRun(w http.ResponseWriter, r *http.Request) {
	last, ok := s.collector.Last()
	if !ok {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "no run yet"})
		return
	}
	s.writeJSON(w, http.StatusOK, last)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warnf("Failed to encode response: %v", err)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"remote":   r.RemoteAddr,
			"duration": time.Since(start).Round(time.Millisecond),
		}).Debug("HTTP request")
	})
}
