// Package server exposes the mapping engine over HTTP. The surface is
// two routes: POST /map-claims runs the pipeline, GET /healthz reports
// liveness.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/reedko/truthtrollers-engine/internal/engine"
	"github.com/reedko/truthtrollers-engine/internal/model"
)

const maxRequestBytes = 1 << 20 // 1 MiB of claims is plenty

// Server wraps an engine behind an http.Handler.
type Server struct {
	engine *engine.Engine
	mux    *http.ServeMux
}

// New creates a server around the given engine.
func New(e *engine.Engine) *Server {
	s := &Server{
		engine: e,
		mux:    http.NewServeMux(),
	}

	s.mux.HandleFunc("/map-claims", s.handleMapClaims)
	s.mux.HandleFunc("/healthz", s.handleHealthz)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe runs the server until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleMapClaims(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, &model.MapResult{
			Error: "method not allowed",
		})
		return
	}

	var req engine.MapRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, &model.MapResult{
			Error: fmt.Sprintf("invalid request body: %v", err),
		})
		return
	}

	start := time.Now()
	result, err := s.engine.MapClaims(r.Context(), req)
	if err != nil {
		if errors.Is(err, engine.ErrMissingClaims) {
			writeJSON(w, http.StatusBadRequest, &model.MapResult{
				Error: err.Error(),
			})
			return
		}
		// Unexpected failures still answer 200 with a structured error
		// body, matching the engine's degrade-don't-fail contract.
		writeJSON(w, http.StatusOK, &model.MapResult{
			Error:  err.Error(),
			TookMS: time.Since(start).Milliseconds(),
		})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
