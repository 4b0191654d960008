package ports

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/lumen-gg/standing/internal/domain"
	"github.com/lumen-gg/standing/internal/identity"
	"github.com/lumen-gg/standing/internal/logging"
	"github.com/lumen-gg/standing/internal/ratelimiting"
	"github.com/lumen-gg/standing/internal/reporting"
)

type loginRequest struct {
	Username   string `json:"username"`
	Credential string `json:"credential"`
	Origin     string `json:"origin"`
}

type loginResponse struct {
	PlayerID int64 `json:"playerId"`
}

func MakeLoginHandler(
	identityService *identity.Service,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	// Credential guessing is the concern here, so the burst is kept tight.
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
		reporting.NewAddMetaMiddleware("login"),
		NewRateLimitMiddleware(ipRateLimiter, makeOnLimitExceeded(ipRateLimiter)),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var request loginRequest
		if !decodeBody(w, r, &request) {
			return
		}

		playerID, err := identityService.ResolveID(ctx, request.Username)
		if errors.Is(err, domain.ErrPlayerNotFound) {
			// Unknown name and bad credential are indistinguishable on
			// purpose.
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		if err != nil {
			writeError(w, r.WithContext(ctx), err)
			return
		}

		ctx = reporting.SetPlayerIDInContext(ctx, strconv.FormatInt(playerID, 10))
		ctx = logging.AddMetaToContext(ctx, slog.Int64("playerId", playerID))

		ok, err := identityService.CheckLogin(ctx, playerID, request.Credential, request.Origin)
		if err != nil {
			writeError(w, r.WithContext(ctx), err)
			return
		}
		if !ok {
			logging.FromContext(ctx).Info("Rejected login", "reason", "credential mismatch")
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}

		if err := identityService.SaveSession(ctx, playerID, request.Origin); err != nil {
			reporting.Report(ctx, err)
		}

		logging.FromContext(ctx).Info("Accepted login")

		writeJSON(w, http.StatusOK, loginResponse{PlayerID: playerID})
	}

	return middleware(handler)
}

func MakeLogoutHandler(
	identityService *identity.Service,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	ipLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(2),
		ratelimiting.BurstSize(20),
	)
	ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		ipLimiter,
		ratelimiting.IPKeyFunc,
	)

	middleware := ComposeMiddlewares(
		buildMetricsMiddleware(),
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware("logout"),
		NewRateLimitMiddleware(ipRateLimiter, makeOnLimitExceeded(ipRateLimiter)),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		request := struct {
			PlayerID int64  `json:"playerId"`
			Origin   string `json:"origin"`
		}{}
		if !decodeBody(w, r, &request) {
			return
		}

		if err := identityService.DeleteSession(ctx, request.PlayerID, request.Origin); err != nil {
			writeError(w, r.WithContext(ctx), err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}

	return middleware(handler)
}
