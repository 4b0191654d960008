package hardwarerepository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/lumen-gg/standing/internal/domain"
	"github.com/lumen-gg/standing/internal/reporting"
)

type PostgresHardwareRepository struct {
	db     *sqlx.DB
	schema string
	tracer trace.Tracer
}

func NewPostgresHardwareRepository(db *sqlx.DB, schema string) *PostgresHardwareRepository {
	return &PostgresHardwareRepository{
		db:     db,
		schema: schema,
		tracer: otel.Tracer("standing/hardwarerepository/postgres"),
	}
}

func (h *PostgresHardwareRepository) connect(ctx context.Context) (*sqlx.Conn, error) {
	conn, err := h.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}

	_, err = conn.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", pq.QuoteIdentifier(h.schema)))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set search path: %w", err)
	}

	return conn, nil
}

func playerExtras(playerID int64) map[string]string {
	return map[string]string{"playerID": strconv.FormatInt(playerID, 10)}
}

func (h *PostgresHardwareRepository) Upsert(ctx context.Context, playerID int64, fingerprint domain.Fingerprint) error {
	ctx, span := h.tracer.Start(ctx, "Postgres.Upsert")
	defer span.End()

	conn, err := h.connect(ctx)
	if err != nil {
		reporting.Report(ctx, err, playerExtras(playerID))
		return err
	}
	defer conn.Close()

	_, err = conn.ExecContext(
		ctx,
		`INSERT INTO hardware_log (player_id, mac_hash_set, unique_id, disk_id, occurrences)
		VALUES ($1, $2, $3, $4, 1)
		ON CONFLICT (player_id, mac_hash_set, unique_id, disk_id)
		DO UPDATE SET occurrences = hardware_log.occurrences + 1`,
		playerID, fingerprint.MACHashSet, fingerprint.UniqueID, fingerprint.DiskID,
	)
	if err != nil {
		err := fmt.Errorf("failed to upsert hardware log: %w", err)
		reporting.Report(ctx, err, playerExtras(playerID))
		return err
	}

	return nil
}

func (h *PostgresHardwareRepository) MarkActivated(ctx context.Context, playerID int64, fingerprint domain.Fingerprint) error {
	ctx, span := h.tracer.Start(ctx, "Postgres.MarkActivated")
	defer span.End()

	conn, err := h.connect(ctx)
	if err != nil {
		reporting.Report(ctx, err, playerExtras(playerID))
		return err
	}
	defer conn.Close()

	_, err = conn.ExecContext(
		ctx,
		`UPDATE hardware_log SET activated = TRUE
		WHERE player_id = $1 AND mac_hash_set = $2 AND unique_id = $3 AND disk_id = $4`,
		playerID, fingerprint.MACHashSet, fingerprint.UniqueID, fingerprint.DiskID,
	)
	if err != nil {
		err := fmt.Errorf("failed to mark hardware activated: %w", err)
		reporting.Report(ctx, err, playerExtras(playerID))
		return err
	}

	return nil
}

type dbMatch struct {
	PlayerID    int64  `db:"player_id"`
	Username    string `db:"username"`
	Occurrences int64  `db:"occurrences"`
}

func (h *PostgresHardwareRepository) SanctionedMatches(ctx context.Context, playerID int64, fingerprint domain.Fingerprint, relaxed bool) ([]domain.HardwareMatch, error) {
	ctx, span := h.tracer.Start(ctx, "Postgres.SanctionedMatches")
	defer span.End()

	conn, err := h.connect(ctx)
	if err != nil {
		reporting.Report(ctx, err, playerExtras(playerID))
		return nil, err
	}
	defer conn.Close()

	var rows []dbMatch
	if relaxed {
		err = conn.SelectContext(
			ctx,
			&rows,
			`SELECT players.id AS player_id, players.username, hardware_log.occurrences
			FROM hardware_log
			LEFT JOIN players ON players.id = hardware_log.player_id
			WHERE hardware_log.player_id != $1
				AND hardware_log.unique_id = $2
				AND (players.warnings != 0 OR players.banned)`,
			playerID, fingerprint.UniqueID,
		)
	} else {
		err = conn.SelectContext(
			ctx,
			&rows,
			`SELECT players.id AS player_id, players.username, hardware_log.occurrences
			FROM hardware_log
			LEFT JOIN players ON players.id = hardware_log.player_id
			WHERE hardware_log.player_id != $1
				AND hardware_log.mac_hash_set = $2
				AND hardware_log.unique_id = $3
				AND hardware_log.disk_id = $4
				AND (players.warnings != 0 OR players.banned)`,
			playerID, fingerprint.MACHashSet, fingerprint.UniqueID, fingerprint.DiskID,
		)
	}
	if err != nil {
		err := fmt.Errorf("failed to select sanctioned matches: %w", err)
		reporting.Report(ctx, err, playerExtras(playerID))
		return nil, err
	}

	matches := make([]domain.HardwareMatch, 0, len(rows))
	for _, row := range rows {
		matches = append(matches, domain.HardwareMatch{
			PlayerID:    row.PlayerID,
			Username:    row.Username,
			Occurrences: row.Occurrences,
		})
	}

	return matches, nil
}

func (h *PostgresHardwareRepository) FirstActivatedMatch(ctx context.Context, playerID int64, fingerprint domain.Fingerprint, relaxed bool) (int64, bool, error) {
	ctx, span := h.tracer.Start(ctx, "Postgres.FirstActivatedMatch")
	defer span.End()

	conn, err := h.connect(ctx)
	if err != nil {
		reporting.Report(ctx, err, playerExtras(playerID))
		return 0, false, err
	}
	defer conn.Close()

	var matchID int64
	if relaxed {
		err = conn.GetContext(
			ctx,
			&matchID,
			`SELECT player_id FROM hardware_log
			WHERE unique_id = $1 AND player_id != $2 AND activated
			ORDER BY player_id ASC
			LIMIT 1`,
			fingerprint.UniqueID, playerID,
		)
	} else {
		err = conn.GetContext(
			ctx,
			&matchID,
			`SELECT player_id FROM hardware_log
			WHERE mac_hash_set = $1 AND unique_id = $2 AND disk_id = $3
				AND player_id != $4 AND activated
			ORDER BY player_id ASC
			LIMIT 1`,
			fingerprint.MACHashSet, fingerprint.UniqueID, fingerprint.DiskID, playerID,
		)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		err := fmt.Errorf("failed to select activated match: %w", err)
		reporting.Report(ctx, err, playerExtras(playerID))
		return 0, false, err
	}

	return matchID, true, nil
}

func (h *PostgresHardwareRepository) CountLogs(ctx context.Context, playerID int64) (int64, error) {
	ctx, span := h.tracer.Start(ctx, "Postgres.CountLogs")
	defer span.End()

	conn, err := h.connect(ctx)
	if err != nil {
		reporting.Report(ctx, err, playerExtras(playerID))
		return 0, err
	}
	defer conn.Close()

	var count int64
	err = conn.GetContext(ctx, &count, "SELECT COUNT(*) FROM hardware_log WHERE player_id = $1", playerID)
	if err != nil {
		err := fmt.Errorf("failed to count hardware logs: %w", err)
		reporting.Report(ctx, err, playerExtras(playerID))
		return 0, err
	}

	return count, nil
}

func (h *PostgresHardwareRepository) HasActivated(ctx context.Context, playerID int64) (bool, error) {
	ctx, span := h.tracer.Start(ctx, "Postgres.HasActivated")
	defer span.End()

	conn, err := h.connect(ctx)
	if err != nil {
		reporting.Report(ctx, err, playerExtras(playerID))
		return false, err
	}
	defer conn.Close()

	var count int64
	err = conn.GetContext(ctx, &count, "SELECT COUNT(*) FROM hardware_log WHERE player_id = $1 AND activated", playerID)
	if err != nil {
		err := fmt.Errorf("failed to count activated hardware logs: %w", err)
		reporting.Report(ctx, err, playerExtras(playerID))
		return false, err
	}

	return count > 0, nil
}
