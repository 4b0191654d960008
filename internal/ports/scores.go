package ports

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/lumen-gg/standing/internal/domain"
	"github.com/lumen-gg/standing/internal/logging"
	"github.com/lumen-gg/standing/internal/progression"
	"github.com/lumen-gg/standing/internal/ratelimiting"
	"github.com/lumen-gg/standing/internal/reporting"
)

type submitScoreRequest struct {
	PlayerID         int64    `json:"playerId"`
	Mode             int      `json:"mode"`
	Passed           bool     `json:"passed"`
	TotalScoreDelta  int64    `json:"totalScoreDelta"`
	RankedScoreDelta int64    `json:"rankedScoreDelta"`
	Accuracy         float64  `json:"accuracy"`
	PlayTime         *int64   `json:"playTime"`
	FullPlayTime     int64    `json:"fullPlayTime"`
	Performance      *float64 `json:"performance"`
	Count300         int64    `json:"count300"`
	Count100         int64    `json:"count100"`
	Count50          int64    `json:"count50"`
	CountMiss        int64    `json:"countMiss"`
}

func MakeSubmitScoreHandler(
	progressionService *progression.Service,
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
		reporting.NewAddMetaMiddleware("submitscore"),
		NewRateLimitMiddleware(ipRateLimiter, makeOnLimitExceeded(ipRateLimiter)),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var request submitScoreRequest
		if !decodeBody(w, r, &request) {
			return
		}

		mode := domain.Mode(request.Mode)
		if !mode.Valid() {
			http.Error(w, "invalid mode", http.StatusBadRequest)
			return
		}

		ctx = reporting.SetPlayerIDInContext(ctx, strconv.FormatInt(request.PlayerID, 10))
		ctx = logging.AddMetaToContext(ctx,
			slog.Int64("playerId", request.PlayerID),
			slog.String("mode", mode.String()),
			slog.Bool("passed", request.Passed),
		)

		score := &domain.Score{
			PlayerID:         request.PlayerID,
			Mode:             mode,
			Passed:           request.Passed,
			TotalScoreDelta:  request.TotalScoreDelta,
			RankedScoreDelta: request.RankedScoreDelta,
			Accuracy:         request.Accuracy,
			PlayTime:         request.PlayTime,
			FullPlayTime:     request.FullPlayTime,
			Performance:      request.Performance,
			Count300:         request.Count300,
			Count100:         request.Count100,
			Count50:          request.Count50,
			CountMiss:        request.CountMiss,
		}

		if err := progressionService.UpdateStats(ctx, score); err != nil {
			writeError(w, r.WithContext(ctx), err)
			return
		}

		logging.FromContext(ctx).Info("Processed score submission")

		w.WriteHeader(http.StatusNoContent)
	}

	return middleware(handler)
}

func MakeReplayWatchedHandler(
	progressionService *progression.Service,
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
		reporting.NewAddMetaMiddleware("replaywatched"),
		NewRateLimitMiddleware(ipRateLimiter, makeOnLimitExceeded(ipRateLimiter)),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		request := struct {
			PlayerID int64 `json:"playerId"`
			Mode     int   `json:"mode"`
		}{}
		if !decodeBody(w, r, &request) {
			return
		}

		mode := domain.Mode(request.Mode)
		if !mode.Valid() {
			http.Error(w, "invalid mode", http.StatusBadRequest)
			return
		}

		if err := progressionService.AddReplayWatched(ctx, request.PlayerID, mode); err != nil {
			writeError(w, r.WithContext(ctx), err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}

	return middleware(handler)
}
