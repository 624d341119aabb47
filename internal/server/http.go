package server

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/triviastake/platform/internal/config"
	"github.com/triviastake/platform/internal/game"
	"github.com/triviastake/platform/internal/leaderboard"
	"github.com/triviastake/platform/internal/logging"
	"github.com/triviastake/platform/internal/question"
	"github.com/triviastake/platform/internal/session"
)

// Handlers bundles every HTTP surface the server mounts.
type Handlers struct {
	Game        *game.HTTPHandlers
	Question    *question.HTTPHandlers
	Session     *session.HTTPHandlers
	Leaderboard *leaderboard.HTTPHandlers
	HostFeed    http.HandlerFunc
}

// NewHTTPServer wires health, metrics and the game API routes.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, redisClient *redis.Client, h Handlers) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/v1/ping", func(w http.ResponseWriter, r *http.Request) {
		if err := pingDependencies(r.Context(), pool, redisClient); err != nil {
			reqLogger := logging.FromContext(r.Context())
			reqLogger.Error().Err(err).Msg("dependency ping failed")
			http.Error(w, "upstream error", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	// Game lifecycle
	mux.HandleFunc("POST /v1/games", h.Game.Create)
	mux.HandleFunc("GET /v1/games", h.Game.List)
	mux.HandleFunc("GET /v1/games/{passcode}", h.Game.Get)
	mux.HandleFunc("PATCH /v1/games/id/{id}", h.Game.Update)
	mux.HandleFunc("DELETE /v1/games/id/{id}", h.Game.Delete)
	mux.HandleFunc("POST /v1/games/{passcode}/activate", h.Game.Activate)
	mux.HandleFunc("POST /v1/games/{passcode}/end", h.Game.End)
	mux.HandleFunc("POST /v1/games/{passcode}/join", h.Game.Join)
	mux.HandleFunc("POST /v1/games/{passcode}/leave", h.Game.Leave)
	mux.HandleFunc("GET /v1/games/{passcode}/participants", h.Game.Participants)

	// Question authoring and delivery
	mux.HandleFunc("PUT /v1/games/{passcode}/questions/{index}", h.Question.Save)
	mux.HandleFunc("GET /v1/games/{passcode}/questions/{index}", h.Question.Get)
	mux.HandleFunc("GET /v1/games/{passcode}/questionset", h.Question.Set)

	// Quiz sessions
	mux.HandleFunc("POST /v1/games/{passcode}/sessions", h.Session.Start)
	mux.HandleFunc("POST /v1/games/{passcode}/sessions/submit", h.Session.Submit)
	mux.HandleFunc("GET /v1/games/{passcode}/sessions/status", h.Session.Status)
	mux.HandleFunc("POST /v1/games/{passcode}/sessions/leave", h.Session.Leave)

	// Leaderboard
	mux.HandleFunc("GET /v1/games/{passcode}/leaderboard", h.Leaderboard.Get)
	mux.HandleFunc("POST /v1/games/{passcode}/reveal", h.Leaderboard.Reveal)

	// Host dashboard live feed
	mux.HandleFunc("GET /ws/games/{passcode}/host", h.HostFeed)

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: requestLogger(logger, mux),
	}
}

// requestLogger stashes a request-scoped logger in the context so handlers
// can log with the method and path already attached.
func requestLogger(logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqLogger := logger.With().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()
		next.ServeHTTP(w, r.WithContext(logging.IntoContext(r.Context(), reqLogger)))
	})
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, redisClient *redis.Client) error {
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return err
	}
	return nil
}
