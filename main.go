package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/google/uuid"

	"github.com/lumen-gg/standing/internal/adapters/cache"
	"github.com/lumen-gg/standing/internal/adapters/database"
	"github.com/lumen-gg/standing/internal/adapters/hardwarerepository"
	"github.com/lumen-gg/standing/internal/adapters/leaderboard"
	"github.com/lumen-gg/standing/internal/adapters/notifier"
	"github.com/lumen-gg/standing/internal/adapters/playerrepository"
	"github.com/lumen-gg/standing/internal/adapters/sanctionrepository"
	"github.com/lumen-gg/standing/internal/adapters/sessioncache"
	"github.com/lumen-gg/standing/internal/adapters/statsrepository"
	"github.com/lumen-gg/standing/internal/config"
	"github.com/lumen-gg/standing/internal/identity"
	"github.com/lumen-gg/standing/internal/integrity"
	"github.com/lumen-gg/standing/internal/moderation"
	"github.com/lumen-gg/standing/internal/ports"
	"github.com/lumen-gg/standing/internal/progression"
	"github.com/lumen-gg/standing/internal/ratelimiting"
	"github.com/lumen-gg/standing/internal/reporting"
	"github.com/lumen-gg/standing/internal/telemetry"
)

func main() {
	ctx := context.Background()

	instanceID := uuid.New().String()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("instanceID", instanceID)

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	conf, err := config.ConfigFromEnv()
	if err != nil {
		fail("Failed to load config", "error", err.Error())
	}
	logger.Info("Loaded config", "config", conf.NonSensitiveString())

	shutdownTelemetry, err := telemetry.SetupOTelSDK(ctx, "standing")
	if err != nil {
		fail("Failed to initialize telemetry", "error", err.Error())
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Error("Failed to shut down telemetry", "error", err.Error())
		}
	}()

	sentryMiddleware, flush, err := reporting.NewSentryMiddlewareOrMock(conf)
	if err != nil {
		fail("Failed to initialize Sentry", "error", err.Error())
	}
	defer flush()
	logger.Info("Initialized Sentry middleware")

	logger.Info("Initializing database connection")
	db, err := database.NewPostgresDatabaseFromConfig(conf)
	if err != nil {
		fail("Failed to initialize database connection", "error", err.Error())
	}

	schemaName := database.GetSchemaName(!conf.IsProduction())

	err = database.NewDatabaseMigrator(db, logger.With("component", "migrator")).Migrate(ctx, schemaName)
	if err != nil {
		fail("Failed to migrate database", "error", err.Error())
	}
	logger.Info("Initialized database connection", "schema", schemaName)

	redisClient, err := sessioncache.NewRedisClient(ctx, conf.RedisURL())
	if err != nil {
		fail("Failed to initialize redis connection", "error", err.Error())
	}
	logger.Info("Initialized redis connection")

	playerRepo := playerrepository.NewPostgresPlayerRepository(db, schemaName)
	statsRepo := statsrepository.NewPostgresStatsRepository(db, schemaName)
	hardwareRepo := hardwarerepository.NewPostgresHardwareRepository(db, schemaName)
	sanctionRepo := sanctionrepository.NewPostgresSanctionRepository(db, schemaName)

	sessions := sessioncache.NewRedisSessionCache(redisClient)
	leaderboards := leaderboard.NewRedisLeaderboard(redisClient)

	notifyLimiter, stopNotifyLimiter := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(conf.NotifyRefillPerSecond()),
		ratelimiting.BurstSize(conf.NotifyBurstSize()),
	)
	defer stopNotifyLimiter()
	notify := notifier.NewWebhookNotifier(conf.NotifyWebhooks(), notifyLimiter)

	progressionService := progression.NewService(playerRepo, statsRepo)
	moderationService := moderation.NewService(playerRepo, sanctionRepo, leaderboards, sessions, notify)
	integrityService := integrity.NewService(playerRepo, hardwareRepo, moderationService, notify, integrity.Policy{
		VirtualizedMACHashSet: conf.VirtualizedMACHashSet(),
		VirtualizedDiskID:     conf.VirtualizedDiskID(),
		MultiaccountThreshold: conf.MultiaccountThreshold(),
	})
	identityService := identity.NewService(
		playerRepo,
		sessions,
		cache.NewTTLCache[int64](conf.IDCacheTTL()),
		conf.IDCacheTTL(),
	)

	http.HandleFunc(
		"GET /v1/users/{id}/stats/{mode}",
		ports.MakeGetUserStatsHandler(progressionService, logger.With("port", "getuserstats"), sentryMiddleware),
	)
	http.HandleFunc(
		"POST /v1/scores",
		ports.MakeSubmitScoreHandler(progressionService, logger.With("port", "submitscore"), sentryMiddleware),
	)
	http.HandleFunc(
		"POST /v1/replays/watched",
		ports.MakeReplayWatchedHandler(progressionService, logger.With("port", "replaywatched"), sentryMiddleware),
	)

	http.HandleFunc(
		"POST /v1/users/{id}/ban",
		ports.MakeBanHandler(moderationService, logger.With("port", "ban"), sentryMiddleware),
	)
	http.HandleFunc(
		"POST /v1/users/{id}/unban",
		ports.MakeUnbanHandler(moderationService, logger.With("port", "unban"), sentryMiddleware),
	)
	http.HandleFunc(
		"POST /v1/users/{id}/restrict",
		ports.MakeRestrictHandler(moderationService, logger.With("port", "restrict"), sentryMiddleware),
	)
	http.HandleFunc(
		"POST /v1/users/{id}/unrestrict",
		ports.MakeUnrestrictHandler(moderationService, logger.With("port", "unrestrict"), sentryMiddleware),
	)
	http.HandleFunc(
		"POST /v1/users/{id}/silence",
		ports.MakeSilenceHandler(moderationService, logger.With("port", "silence"), sentryMiddleware),
	)
	http.HandleFunc(
		"GET /v1/users/{id}/standing",
		ports.MakeGetStandingHandler(moderationService, logger.With("port", "getstanding"), sentryMiddleware),
	)

	http.HandleFunc(
		"POST /v1/hardware",
		ports.MakeLogHardwareHandler(integrityService, logger.With("port", "loghardware"), sentryMiddleware),
	)
	http.HandleFunc(
		"POST /v1/users/{id}/verify",
		ports.MakeVerifyUserHandler(integrityService, logger.With("port", "verifyuser"), sentryMiddleware),
	)

	http.HandleFunc(
		"POST /v1/login",
		ports.MakeLoginHandler(identityService, logger.With("port", "login"), sentryMiddleware),
	)
	http.HandleFunc(
		"POST /v1/logout",
		ports.MakeLogoutHandler(identityService, logger.With("port", "logout"), sentryMiddleware),
	)
	http.HandleFunc(
		"GET /v1/users/resolve/{name}",
		ports.MakeResolveUsernameHandler(identityService, logger.With("port", "resolveusername"), sentryMiddleware),
	)
	http.HandleFunc(
		"POST /v1/users/{id}/username",
		ports.MakeChangeUsernameHandler(identityService, logger.With("port", "changeusername"), sentryMiddleware),
	)

	logger.Info("Init complete")
	err = http.ListenAndServe(fmt.Sprintf(":%s", conf.Port()), nil)
	if errors.Is(err, http.ErrServerClosed) {
		logger.Info("Server shutdown")
	} else {
		fail("Server error", "error", err.Error())
	}
}
