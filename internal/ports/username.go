package ports

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/lumen-gg/standing/internal/identity"
	"github.com/lumen-gg/standing/internal/logging"
	"github.com/lumen-gg/standing/internal/ratelimiting"
	"github.com/lumen-gg/standing/internal/reporting"
)

type resolveResponse struct {
	PlayerID int64 `json:"playerId"`
}

func MakeResolveUsernameHandler(
	identityService *identity.Service,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	ipLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(8),
		ratelimiting.BurstSize(120),
	)
	ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		ipLimiter,
		ratelimiting.IPKeyFunc,
	)

	middleware := ComposeMiddlewares(
		buildMetricsMiddleware(),
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware("resolveusername"),
		NewRateLimitMiddleware(ipRateLimiter, makeOnLimitExceeded(ipRateLimiter)),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		name := r.PathValue("name")
		if name == "" {
			http.Error(w, "missing name", http.StatusBadRequest)
			return
		}

		ctx = logging.AddMetaToContext(ctx, slog.String("name", name))

		playerID, err := identityService.ResolveID(ctx, name)
		if err != nil {
			writeError(w, r.WithContext(ctx), err)
			return
		}

		writeJSON(w, http.StatusOK, resolveResponse{PlayerID: playerID})
	}

	return middleware(handler)
}

func MakeChangeUsernameHandler(
	identityService *identity.Service,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	ipLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(1),
		ratelimiting.BurstSize(5),
	)
	ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		ipLimiter,
		ratelimiting.IPKeyFunc,
	)

	middleware := ComposeMiddlewares(
		buildMetricsMiddleware(),
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware("changeusername"),
		NewRateLimitMiddleware(ipRateLimiter, makeOnLimitExceeded(ipRateLimiter)),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		playerID, err := parsePlayerID(r)
		if err != nil {
			http.Error(w, "invalid player id", http.StatusBadRequest)
			return
		}

		request := struct {
			Username string `json:"username"`
		}{}
		if !decodeBody(w, r, &request) {
			return
		}

		ctx = reporting.SetPlayerIDInContext(ctx, strconv.FormatInt(playerID, 10))
		ctx = logging.AddMetaToContext(ctx, slog.Int64("playerId", playerID))

		if err := identityService.ChangeUsername(ctx, playerID, request.Username); err != nil {
			writeError(w, r.WithContext(ctx), err)
			return
		}

		logging.FromContext(ctx).Info("Processed username change")

		w.WriteHeader(http.StatusNoContent)
	}

	return middleware(handler)
}
