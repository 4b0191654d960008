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

type statsResponse struct {
	PlayerID           int64   `json:"playerId"`
	Mode               string  `json:"mode"`
	Country            string  `json:"country"`
	RankedScore        int64   `json:"rankedScore"`
	TotalScore         int64   `json:"totalScore"`
	PlayCount          int64   `json:"playCount"`
	TotalSecondsPlayed int64   `json:"totalSecondsPlayed"`
	ReplaysWatched     int64   `json:"replaysWatched"`
	Level              int     `json:"level"`
	Accuracy           float64 `json:"accuracy"`
	Performance        float64 `json:"performance"`
	Rank               int64   `json:"rank"`
}

func statsToResponse(record *domain.ProgressionRecord) statsResponse {
	return statsResponse{
		PlayerID:           record.PlayerID,
		Mode:               record.Mode.String(),
		Country:            record.Country,
		RankedScore:        record.RankedScore,
		TotalScore:         record.TotalScore,
		PlayCount:          record.PlayCount,
		TotalSecondsPlayed: record.TotalSecondsPlayed,
		ReplaysWatched:     record.ReplaysWatched,
		Level:              record.Level,
		Accuracy:           record.Accuracy,
		Performance:        record.Performance,
		Rank:               record.RankIndex,
	}
}

func MakeGetUserStatsHandler(
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
		reporting.NewAddMetaMiddleware("getuserstats"),
		NewRateLimitMiddleware(ipRateLimiter, makeOnLimitExceeded(ipRateLimiter)),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		playerID, err := parsePlayerID(r)
		if err != nil {
			http.Error(w, "invalid player id", http.StatusBadRequest)
			return
		}
		mode, err := parseMode(r)
		if err != nil {
			http.Error(w, "invalid mode", http.StatusBadRequest)
			return
		}

		ctx = reporting.SetPlayerIDInContext(ctx, strconv.FormatInt(playerID, 10))
		ctx = logging.AddMetaToContext(ctx,
			slog.Int64("playerId", playerID),
			slog.String("mode", mode.String()),
		)

		record, err := progressionService.GetUserStats(ctx, playerID, mode)
		if err != nil {
			writeError(w, r.WithContext(ctx), err)
			return
		}

		logging.FromContext(ctx).Info("Returning user stats")

		writeJSON(w, http.StatusOK, statsToResponse(record))
	}

	return middleware(handler)
}
