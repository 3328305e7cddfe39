package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MikeSquared-Agency/callsurvey/internal/batch"
)

// Runner is the batch surface the API triggers and reports on.
type Runner interface {
	Run(ctx context.Context) (batch.Summary, error)
	LastSummary() (batch.Summary, bool)
}

type Server struct {
	router *chi.Mux
	runner Runner
	srv    *http.Server
}

func NewServer(port int, apiToken string, runner Runner) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		runner: runner,
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	router.Get("/health", s.health)
	router.Route("/api/v1/runs", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(apiToken))
		r.Get("/last", s.lastRun)
		r.Post("/", s.triggerRun)
	})

	return s
}

func (s *Server) Start() error {
	slog.Info("API server starting", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// BearerAuthMiddleware rejects requests without the expected bearer token.
// An empty token disables the check.
func BearerAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) lastRun(w http.ResponseWriter, r *http.Request) {
	summary, ok := s.runner.LastSummary()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no run has completed yet"})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// triggerRun runs one batch synchronously. The run is detached from the request context
// so a dropped client does not cut the batch short.
func (s *Server) triggerRun(w http.ResponseWriter, r *http.Request) {
	summary, err := s.runner.Run(context.WithoutCancel(r.Context()))
	switch {
	case errors.Is(err, batch.ErrRunInProgress):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case err != nil:
		slog.Error("triggered run failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusOK, summary)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
