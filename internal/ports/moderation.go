package ports

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/lumen-gg/standing/internal/logging"
	"github.com/lumen-gg/standing/internal/moderation"
	"github.com/lumen-gg/standing/internal/ratelimiting"
	"github.com/lumen-gg/standing/internal/reporting"
)

type sanctionRequest struct {
	Reason string `json:"reason"`
}

type silenceRequest struct {
	Seconds int64  `json:"seconds"`
	Reason  string `json:"reason"`
}

type standingResponse struct {
	PlayerID   int64     `json:"playerId"`
	State      string    `json:"state"`
	Silenced   bool      `json:"silenced"`
	SilenceEnd time.Time `json:"silenceEnd"`
}

// makeSanctionHandler builds the shared shell for the moderation transitions.
// Each transition differs only in the service call it dispatches to.
func makeSanctionHandler(
	name string,
	apply func(ctx context.Context, playerID, actorID int64, reason string) error,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	actorLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(2),
		ratelimiting.BurstSize(20),
	)
	actorRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		// NOTE: Rate limiting based on caller controlled value
		actorLimiter,
		ratelimiting.ActorKeyFunc,
	)

	middleware := ComposeMiddlewares(
		buildMetricsMiddleware(),
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware(name),
		NewRateLimitMiddleware(actorRateLimiter, makeOnLimitExceeded(actorRateLimiter)),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		playerID, err := parsePlayerID(r)
		if err != nil {
			http.Error(w, "invalid player id", http.StatusBadRequest)
			return
		}
		actor := actorID(r)
		if actor == 0 {
			http.Error(w, "missing actor id", http.StatusUnauthorized)
			return
		}

		var request sanctionRequest
		if !decodeBody(w, r, &request) {
			return
		}

		ctx = reporting.SetPlayerIDInContext(ctx, strconv.FormatInt(playerID, 10))
		ctx = logging.AddMetaToContext(ctx,
			slog.Int64("playerId", playerID),
			slog.Int64("actorId", actor),
		)

		if err := apply(ctx, playerID, actor, request.Reason); err != nil {
			writeError(w, r.WithContext(ctx), err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}

	return middleware(handler)
}

func MakeBanHandler(
	moderationService *moderation.Service,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	return makeSanctionHandler("ban", moderationService.Ban, rootLogger, sentryMiddleware)
}

func MakeUnbanHandler(
	moderationService *moderation.Service,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	return makeSanctionHandler("unban", moderationService.Unban, rootLogger, sentryMiddleware)
}

func MakeRestrictHandler(
	moderationService *moderation.Service,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	return makeSanctionHandler("restrict", moderationService.Restrict, rootLogger, sentryMiddleware)
}

func MakeUnrestrictHandler(
	moderationService *moderation.Service,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	return makeSanctionHandler("unrestrict", moderationService.Unrestrict, rootLogger, sentryMiddleware)
}

func MakeSilenceHandler(
	moderationService *moderation.Service,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	actorLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(2),
		ratelimiting.BurstSize(20),
	)
	actorRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		actorLimiter,
		ratelimiting.ActorKeyFunc,
	)

	middleware := ComposeMiddlewares(
		buildMetricsMiddleware(),
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware("silence"),
		NewRateLimitMiddleware(actorRateLimiter, makeOnLimitExceeded(actorRateLimiter)),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		playerID, err := parsePlayerID(r)
		if err != nil {
			http.Error(w, "invalid player id", http.StatusBadRequest)
			return
		}
		actor := actorID(r)
		if actor == 0 {
			http.Error(w, "missing actor id", http.StatusUnauthorized)
			return
		}

		var request silenceRequest
		if !decodeBody(w, r, &request) {
			return
		}
		if request.Seconds < 0 {
			http.Error(w, "invalid silence period", http.StatusBadRequest)
			return
		}

		ctx = reporting.SetPlayerIDInContext(ctx, strconv.FormatInt(playerID, 10))
		ctx = logging.AddMetaToContext(ctx,
			slog.Int64("playerId", playerID),
			slog.Int64("actorId", actor),
			slog.Int64("seconds", request.Seconds),
		)

		if err := moderationService.Silence(ctx, playerID, actor, request.Seconds, request.Reason); err != nil {
			writeError(w, r.WithContext(ctx), err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}

	return middleware(handler)
}

func MakeGetStandingHandler(
	moderationService *moderation.Service,
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
		reporting.NewAddMetaMiddleware("getstanding"),
		NewRateLimitMiddleware(ipRateLimiter, makeOnLimitExceeded(ipRateLimiter)),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		playerID, err := parsePlayerID(r)
		if err != nil {
			http.Error(w, "invalid player id", http.StatusBadRequest)
			return
		}

		state, err := moderationService.State(ctx, playerID)
		if err != nil {
			writeError(w, r.WithContext(ctx), err)
			return
		}
		silenceEnd, err := moderationService.SilenceEnd(ctx, playerID)
		if err != nil {
			writeError(w, r.WithContext(ctx), err)
			return
		}

		writeJSON(w, http.StatusOK, standingResponse{
			PlayerID:   playerID,
			State:      state.String(),
			Silenced:   silenceEnd.After(time.Now()),
			SilenceEnd: silenceEnd,
		})
	}

	return middleware(handler)
}
