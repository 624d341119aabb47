package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/triviastake/platform/internal/config"
	"github.com/triviastake/platform/internal/db/repository"
	"github.com/triviastake/platform/internal/game"
	"github.com/triviastake/platform/internal/leaderboard"
	"github.com/triviastake/platform/internal/logging"
	"github.com/triviastake/platform/internal/payment"
	"github.com/triviastake/platform/internal/question"
	"github.com/triviastake/platform/internal/scoring"
	"github.com/triviastake/platform/internal/server"
	"github.com/triviastake/platform/internal/session"
	"github.com/triviastake/platform/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server
}

// New bootstraps config, logger, Postgres, Redis, the escrow gateway and
// every gameplay service, then wires the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=10",
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	gameRepo := repository.NewGameRepository(pool)
	participantRepo := repository.NewParticipantRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)

	gateway := payment.NewHTTPGateway(cfg.Gateway.BaseURL, cfg.Gateway.APIKey, &http.Client{
		Timeout: cfg.Gateway.HTTPTimeout,
	})

	wsHub := ws.NewHub(logger)
	notifier := game.NewHubNotifier(wsHub, logger)

	gameSvc := game.NewService(gameRepo, participantRepo, gateway, notifier, game.ServiceOptions{
		MaxParticipants:     cfg.Quiz.MaxParticipants,
		PasscodeMaxAttempts: cfg.Quiz.PasscodeMaxAttempts,
	}, logger)

	questionCache := question.NewCache(redisClient, cfg.Quiz.QuestionCacheTTL)
	questionSvc := question.NewService(questionRepo, gameRepo, questionCache, question.ServiceOptions{
		DefaultPoints: cfg.Quiz.DefaultPoints,
	}, logger)

	scoringSvc := scoring.NewService(questionRepo, participantRepo, logger)

	sessionMgr := session.NewManager(gameRepo, participantRepo, scoringSvc, notifier, logger)
	gameSvc.SetSessionPurger(sessionMgr)

	leaderboardSvc := leaderboard.NewService(gameRepo, participantRepo, gateway, wsHub, leaderboard.Options{
		RevealInterval: cfg.Reveal.Interval,
		PayoutDelay:    cfg.Reveal.PayoutDelay,
	}, logger)

	handlers := server.Handlers{
		Game:        game.NewHTTPHandlers(gameSvc, logger),
		Question:    question.NewHTTPHandlers(questionSvc, logger),
		Session:     session.NewHTTPHandlers(sessionMgr, gameSvc, logger),
		Leaderboard: leaderboard.NewHTTPHandlers(leaderboardSvc, logger),
		HostFeed:    game.NewWSHandler(wsHub, gameSvc, logger).HostFeed,
	}

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, handlers)

	return &Application{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		redis:  redisClient,
		http:   apiServer,
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}
