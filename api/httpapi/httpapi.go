package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	wsadapter "scorekeeper/adapters/websocket"
	"scorekeeper/core"
	"scorekeeper/engine"
	"scorekeeper/realtime"
)

// Version is reported by the service index.
const Version = "1.0.0"

// Limiter decides whether a client identified by key may make another request.
// Both the in-process limiter and the Redis limiter satisfy it.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Options configures the HTTP API surface.
type Options struct {
	// PathPrefix, if set, is prepended to all API routes (e.g., "/api").
	PathPrefix string
	// AllowCORSOrigin, if non-empty, enables CORS with the given origin (use "*" for any).
	AllowCORSOrigin string
	// Limiter, if set, rejects requests over budget with 429.
	Limiter Limiter
	// MaxBodyBytes caps POST bodies. Zero means 1 MiB.
	MaxBodyBytes int64
	// Registerer, if set, receives HTTP request metrics.
	Registerer prometheus.Registerer
	Logger     *slog.Logger
	// StartTime anchors the uptime reported by the health route. Zero means now.
	StartTime time.Time
}

type api struct {
	svc     *engine.ScoreService
	logger  *slog.Logger
	prefix  string
	started time.Time
	maxBody int64
}

// NewMux builds an http.Handler exposing the leaderboard REST API and WebSocket stream.
// Routes:
//   - GET    /
//   - GET    {prefix}/health
//   - GET    {prefix}/leaderboard?limit=N
//   - POST   {prefix}/score
//   - GET    {prefix}/stats
//   - DELETE {prefix}/leaderboard
//   - WS     {prefix}/ws
func NewMux(svc *engine.ScoreService, hub *realtime.Hub, opts Options) http.Handler {
	a := &api{
		svc:     svc,
		logger:  opts.Logger,
		prefix:  strings.TrimSuffix(opts.PathPrefix, "/"),
		started: opts.StartTime,
		maxBody: opts.MaxBodyBytes,
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.started.IsZero() {
		a.started = time.Now()
	}
	if a.maxBody <= 0 {
		a.maxBody = 1 << 20
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(a.logger))
	if opts.Registerer != nil {
		r.Use(newHTTPMetrics(opts.Registerer).middleware)
	}
	r.Use(recoverer(a.logger))
	r.Use(securityHeaders)
	if opts.AllowCORSOrigin != "" {
		r.Use(cors(opts.AllowCORSOrigin))
	}

	r.NotFound(a.notFound)
	r.MethodNotAllowed(a.notFound)

	r.Get("/", a.index)
	r.Get(a.route("/health"), a.health)
	if hub != nil {
		r.Handle(a.route("/ws"), wsadapter.Handler(hub, a.logger))
	}

	r.Group(func(r chi.Router) {
		if opts.Limiter != nil {
			r.Use(rateLimit(opts.Limiter, a.logger))
		}
		r.Get(a.route("/leaderboard"), a.leaderboard)
		r.Delete(a.route("/leaderboard"), a.clear)
		r.Post(a.route("/score"), a.submit)
		r.Get(a.route("/stats"), a.stats)
	})

	return r
}

func (a *api) route(path string) string {
	return a.prefix + path
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Path    string `json:"path,omitempty"`
}

type listResponse struct {
	Success bool               `json:"success"`
	Count   int                `json:"count"`
	Data    []core.RankedEntry `json:"data"`
}

type dataResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func (a *api) index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "Scorekeeper API",
		"version": Version,
		"endpoints": map[string]string{
			"health":      a.route("/health"),
			"leaderboard": a.route("/leaderboard"),
			"submitScore": "POST " + a.route("/score"),
			"stats":       a.route("/stats"),
			"clear":       "DELETE " + a.route("/leaderboard"),
			"events":      a.route("/ws"),
		},
	})
}

// health probes storage through a read-only stats call.
func (a *api) health(w http.ResponseWriter, r *http.Request) {
	status, code, check := "ok", http.StatusOK, "ok"
	if _, err := a.svc.Stats(r.Context()); err != nil {
		a.logger.Error("health check failed", "error", err)
		status, code, check = "unhealthy", http.StatusServiceUnavailable, "failed"
	}
	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"uptime":    time.Since(a.started).Seconds(),
		"checks":    map[string]string{"storage": check},
	})
}

func (a *api) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"))
	entries, err := a.svc.Top(r.Context(), limit)
	if err != nil {
		a.internalError(w, r, "Failed to retrieve leaderboard", err)
		return
	}
	if entries == nil {
		entries = []core.RankedEntry{}
	}
	writeJSON(w, http.StatusOK, listResponse{Success: true, Count: len(entries), Data: entries})
}

// parseLimit reads the leading integer of s, so "5abc" is 5 and "3.7" is 3.
// Input without leading digits yields 0, which the service maps to the default.
func parseLimit(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	// out of range values saturate and are clamped downstream
	n, _ := strconv.Atoi(s[:end])
	return n
}

func (a *api) submit(w http.ResponseWriter, r *http.Request) {
	sub, err := decodeSubmission(http.MaxBytesReader(w, r.Body, a.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := a.svc.Submit(r.Context(), sub)
	if err != nil {
		if core.IsValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		a.internalError(w, r, "Failed to submit score", err)
		return
	}
	writeJSON(w, http.StatusCreated, dataResponse{Success: true, Message: "Score submitted successfully", Data: entry})
}

func (a *api) stats(w http.ResponseWriter, r *http.Request) {
	st, err := a.svc.Stats(r.Context())
	if err != nil {
		a.internalError(w, r, "Failed to retrieve statistics", err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: st})
}

func (a *api) clear(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Clear(r.Context()); err != nil {
		if errors.Is(err, core.ErrClearForbidden) {
			writeError(w, http.StatusForbidden, "Clearing the leaderboard is not allowed")
			return
		}
		a.internalError(w, r, "Failed to clear leaderboard", err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Message: "Leaderboard cleared"})
}

func (a *api) notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: "Endpoint not found", Path: r.URL.Path})
}

func (a *api) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	a.logger.Error(msg, "error", err, "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()))
	writeError(w, http.StatusInternalServerError, msg)
}

// scoreRequest keeps raw fields so type mismatches surface as field errors
// instead of a generic decode failure.
type scoreRequest struct {
	Name   json.RawMessage `json:"name"`
	Score  json.RawMessage `json:"score"`
	Avatar json.RawMessage `json:"avatar"`
}

var errInvalidBody = &core.ValidationError{Field: "body", Reason: "Invalid JSON body"}

func decodeSubmission(body io.Reader) (core.Submission, error) {
	var req scoreRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return core.Submission{}, err
		}
		return core.Submission{}, errInvalidBody
	}

	var sub core.Submission
	if json.Unmarshal(req.Name, &sub.Name) != nil {
		return core.Submission{}, core.ErrInvalidName
	}
	// a JSON string such as "100" is not a score
	if len(req.Score) == 0 || req.Score[0] == '"' || string(req.Score) == "null" || json.Unmarshal(req.Score, &sub.Score) != nil {
		return core.Submission{}, core.ErrInvalidScore
	}
	if len(req.Avatar) > 0 {
		// non-string avatars fall back to the default
		_ = json.Unmarshal(req.Avatar, &sub.Avatar)
	}
	return sub, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
