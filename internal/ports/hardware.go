package ports

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/lumen-gg/standing/internal/domain"
	"github.com/lumen-gg/standing/internal/integrity"
	"github.com/lumen-gg/standing/internal/logging"
	"github.com/lumen-gg/standing/internal/ratelimiting"
	"github.com/lumen-gg/standing/internal/reporting"
)

type fingerprintRequest struct {
	ClientVersion string `json:"clientVersion"`
	RawMACs       string `json:"rawMacs"`
	MACHashSet    string `json:"macHashSet"`
	UniqueID      string `json:"uniqueId"`
	DiskID        string `json:"diskId"`
}

func (r *fingerprintRequest) toFingerprint() domain.Fingerprint {
	return domain.Fingerprint{
		ClientVersion: r.ClientVersion,
		RawMACs:       r.RawMACs,
		MACHashSet:    r.MACHashSet,
		UniqueID:      r.UniqueID,
		DiskID:        r.DiskID,
	}
}

func MakeLogHardwareHandler(
	integrityService *integrity.Service,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	ipLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(4),
		ratelimiting.BurstSize(40),
	)
	ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		ipLimiter,
		ratelimiting.IPKeyFunc,
	)

	middleware := ComposeMiddlewares(
		buildMetricsMiddleware(),
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware("loghardware"),
		NewRateLimitMiddleware(ipRateLimiter, makeOnLimitExceeded(ipRateLimiter)),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		request := struct {
			PlayerID int64 `json:"playerId"`
			fingerprintRequest
		}{}
		if !decodeBody(w, r, &request) {
			return
		}

		ctx = reporting.SetPlayerIDInContext(ctx, strconv.FormatInt(request.PlayerID, 10))
		ctx = logging.AddMetaToContext(ctx, slog.Int64("playerId", request.PlayerID))

		if err := integrityService.LogHardware(ctx, request.PlayerID, request.toFingerprint()); err != nil {
			writeError(w, r.WithContext(ctx), err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}

	return middleware(handler)
}

func MakeVerifyUserHandler(
	integrityService *integrity.Service,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	ipLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(1),
		ratelimiting.BurstSize(10),
	)
	ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		ipLimiter,
		ratelimiting.IPKeyFunc,
	)

	middleware := ComposeMiddlewares(
		buildMetricsMiddleware(),
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware("verifyuser"),
		NewRateLimitMiddleware(ipRateLimiter, makeOnLimitExceeded(ipRateLimiter)),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		playerID, err := parsePlayerID(r)
		if err != nil {
			http.Error(w, "invalid player id", http.StatusBadRequest)
			return
		}

		var request fingerprintRequest
		if !decodeBody(w, r, &request) {
			return
		}

		ctx = reporting.SetPlayerIDInContext(ctx, strconv.FormatInt(playerID, 10))
		ctx = logging.AddMetaToContext(ctx, slog.Int64("playerId", playerID))

		if err := integrityService.VerifyUser(ctx, playerID, request.toFingerprint()); err != nil {
			writeError(w, r.WithContext(ctx), err)
			return
		}

		logging.FromContext(ctx).Info("Verified player hardware")

		w.WriteHeader(http.StatusNoContent)
	}

	return middleware(handler)
}
