package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rwa-tools/mcp-server-rwa/jsonrpc"
)

// maxRequestBytes caps a single JSON-RPC request body
const maxRequestBytes = 1 << 20

// NewHTTPHandler exposes handler over HTTP.
// POST /mcp takes one JSON-RPC request per body; GET /health reports liveness.
func NewHTTPHandler(handler jsonrpc.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if logger != nil {
		r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
			Logger:  slog.NewLogLogger(logger.Handler(), slog.LevelDebug),
			NoColor: true,
		}))
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/mcp", func(w http.ResponseWriter, req *http.Request) {
		var request jsonrpc.Request
		if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxRequestBytes)).Decode(&request); err != nil {
			writeJSON(w, http.StatusBadRequest, jsonrpc.NewResponse(nil, nil, jsonrpc.NewError(jsonrpc.ErrParse, err)))
			return
		}

		response := handler(req.Context(), request)
		if response == nil {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		writeJSON(w, http.StatusOK, response)
	})

	return r
}

// ServeHTTP serves handler on addr until ctx is done
func ServeHTTP(ctx context.Context, addr string, handler jsonrpc.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewHTTPHandler(handler, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if logger != nil {
			logger.Info("listening", "addr", addr)
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
