// Package scoreserver serves the scoring algorithm over HTTP.
package scoreserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/example/triage/internal/core/intake"
	"github.com/example/triage/internal/core/scoring"
)

const maxBodyBytes = 1 << 20

// RequestCounter counts served /score requests by status code.
type RequestCounter interface {
	ScoreRequest(code string)
}

// Config controls the server.
type Config struct {
	// AllowedOrigins are the browser origins allowed to call /score.
	AllowedOrigins []string
	// Metrics serves GET /metrics when non-nil.
	Metrics http.Handler
	// Counter is told about every /score response when non-nil.
	Counter RequestCounter
	Logger  *slog.Logger
}

// Handler routes /score, /healthz and /metrics.
type Handler struct {
	cfg     Config
	origins map[string]bool
	mux     *http.ServeMux
}

// NewHandler constructs the scoring HTTP handler.
func NewHandler(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	h := &Handler{cfg: cfg, origins: make(map[string]bool), mux: http.NewServeMux()}
	for _, o := range cfg.AllowedOrigins {
		h.origins[o] = true
	}
	h.mux.HandleFunc("/score", h.handleScore)
	h.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	if cfg.Metrics != nil {
		h.mux.Handle("/metrics", cfg.Metrics)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if origin := r.Header.Get("Origin"); origin != "" && h.origins[origin] {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Add("Vary", "Origin")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
				w.Header().Set("Access-Control-Allow-Headers", hdr)
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	h.mux.ServeHTTP(w, r)
}

type scoreResponse struct {
	PriorityScore float64 `json:"priority_score"`
	Message       string  `json:"message"`
}

func (h *Handler) handleScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var answers intake.Answers
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&answers); err != nil {
		h.respondError(w, http.StatusUnprocessableEntity, "invalid request body: "+err.Error())
		return
	}
	if err := intake.ValidateChoices(answers); err != nil {
		h.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	score := scoring.Score(answers)
	h.cfg.Logger.Debug("scored submission", "email", answers.Email, "priority_score", score)
	h.count(http.StatusOK)
	writeJSON(w, http.StatusOK, scoreResponse{PriorityScore: score, Message: "Scoring successful"})
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.count(status)
	writeJSON(w, status, map[string]any{"detail": message})
}

func (h *Handler) count(status int) {
	if h.cfg.Counter != nil {
		h.cfg.Counter.ScoreRequest(strconv.Itoa(status))
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down,
// giving in-flight requests up to grace to finish.
func Serve(ctx context.Context, ln net.Listener, handler http.Handler, grace time.Duration) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
