package statsrepository

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

type PostgresStatsRepository struct {
	db     *sqlx.DB
	schema string
	tracer trace.Tracer
}

func NewPostgresStatsRepository(db *sqlx.DB, schema string) *PostgresStatsRepository {
	return &PostgresStatsRepository{
		db:     db,
		schema: schema,
		tracer: otel.Tracer("standing/statsrepository/postgres"),
	}
}

type dbRecord struct {
	PlayerID           int64   `db:"player_id"`
	Mode               int     `db:"mode"`
	Country            string  `db:"country"`
	RankedScore        int64   `db:"ranked_score"`
	TotalScore         int64   `db:"total_score"`
	PlayCount          int64   `db:"play_count"`
	TotalSecondsPlayed int64   `db:"total_seconds_played"`
	AccuracyTotal      float64 `db:"accuracy_total"`
	AccuracyCount      int64   `db:"accuracy_count"`
	Count300           int64   `db:"count_300"`
	Count100           int64   `db:"count_100"`
	Count50            int64   `db:"count_50"`
	CountMiss          int64   `db:"count_miss"`
	ReplaysWatched     int64   `db:"replays_watched"`
	Level              int     `db:"level"`
	Accuracy           float64 `db:"accuracy"`
	Performance        float64 `db:"performance"`
	RankIndex          int64   `db:"rank_index"`
}

func dbRecordToDomain(r dbRecord) *domain.ProgressionRecord {
	return &domain.ProgressionRecord{
		PlayerID:           r.PlayerID,
		Mode:               domain.Mode(r.Mode),
		Country:            r.Country,
		RankedScore:        r.RankedScore,
		TotalScore:         r.TotalScore,
		PlayCount:          r.PlayCount,
		TotalSecondsPlayed: r.TotalSecondsPlayed,
		AccuracyTotal:      r.AccuracyTotal,
		AccuracyCount:      r.AccuracyCount,
		Count300:           r.Count300,
		Count100:           r.Count100,
		Count50:            r.Count50,
		CountMiss:          r.CountMiss,
		ReplaysWatched:     r.ReplaysWatched,
		Level:              r.Level,
		Accuracy:           r.Accuracy,
		Performance:        r.Performance,
		RankIndex:          r.RankIndex,
	}
}

func (s *PostgresStatsRepository) connect(ctx context.Context) (*sqlx.Conn, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}

	_, err = conn.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", pq.QuoteIdentifier(s.schema)))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set search path: %w", err)
	}

	return conn, nil
}

func recordExtras(playerID int64, mode domain.Mode) map[string]string {
	return map[string]string{
		"playerID": strconv.FormatInt(playerID, 10),
		"mode":     mode.String(),
	}
}

func (s *PostgresStatsRepository) GetOrCreate(ctx context.Context, playerID int64, mode domain.Mode) (*domain.ProgressionRecord, error) {
	ctx, span := s.tracer.Start(ctx, "Postgres.GetOrCreate")
	defer span.End()

	conn, err := s.connect(ctx)
	if err != nil {
		reporting.Report(ctx, err, recordExtras(playerID, mode))
		return nil, err
	}
	defer conn.Close()

	// First access creates a zeroed record carrying the player's country.
	_, err = conn.ExecContext(
		ctx,
		`INSERT INTO progression (player_id, mode, country)
		SELECT id, $2, country FROM players WHERE id = $1
		ON CONFLICT (player_id, mode) DO NOTHING`,
		playerID, int(mode),
	)
	if err != nil {
		err := fmt.Errorf("failed to insert zeroed record: %w", err)
		reporting.Report(ctx, err, recordExtras(playerID, mode))
		return nil, err
	}

	var record dbRecord
	err = conn.GetContext(
		ctx,
		&record,
		`SELECT
			player_id, mode, country, ranked_score, total_score, play_count,
			total_seconds_played, accuracy_total, accuracy_count,
			count_300, count_100, count_50, count_miss, replays_watched,
			level, accuracy, performance, rank_index
		FROM progression
		WHERE player_id = $1 AND mode = $2`,
		playerID, int(mode),
	)
	if errors.Is(err, sql.ErrNoRows) {
		// The insert is a no-op for unknown players, so the select comes
		// back empty for them.
		return nil, domain.ErrPlayerNotFound
	}
	if err != nil {
		err := fmt.Errorf("failed to select record: %w", err)
		reporting.Report(ctx, err, recordExtras(playerID, mode))
		return nil, err
	}

	return dbRecordToDomain(record), nil
}

func (s *PostgresStatsRepository) ApplyPlay(ctx context.Context, score *domain.Score) error {
	ctx, span := s.tracer.Start(ctx, "Postgres.ApplyPlay")
	defer span.End()

	conn, err := s.connect(ctx)
	if err != nil {
		reporting.Report(ctx, err, recordExtras(score.PlayerID, score.Mode))
		return err
	}
	defer conn.Close()

	if score.Passed {
		_, err = conn.ExecContext(
			ctx,
			`UPDATE progression SET
				total_score = total_score + $1,
				ranked_score = ranked_score + $2,
				play_count = play_count + 1,
				total_seconds_played = total_seconds_played + $3,
				accuracy_total = accuracy_total + $4,
				accuracy_count = accuracy_count + 1
			WHERE player_id = $5 AND mode = $6`,
			score.TotalScoreDelta,
			score.RankedScoreDelta,
			score.SecondsPlayed(),
			score.Accuracy,
			score.PlayerID,
			int(score.Mode),
		)
	} else {
		_, err = conn.ExecContext(
			ctx,
			`UPDATE progression SET
				total_score = total_score + $1,
				play_count = play_count + 1,
				total_seconds_played = total_seconds_played + $2
			WHERE player_id = $3 AND mode = $4`,
			score.TotalScoreDelta,
			score.SecondsPlayed(),
			score.PlayerID,
			int(score.Mode),
		)
	}
	if err != nil {
		err := fmt.Errorf("failed to apply play: %w", err)
		reporting.Report(ctx, err, recordExtras(score.PlayerID, score.Mode))
		return err
	}

	return nil
}

func (s *PostgresStatsRepository) AddHits(ctx context.Context, playerID int64, mode domain.Mode, count300, count100, count50, countMiss int64) error {
	ctx, span := s.tracer.Start(ctx, "Postgres.AddHits")
	defer span.End()

	conn, err := s.connect(ctx)
	if err != nil {
		reporting.Report(ctx, err, recordExtras(playerID, mode))
		return err
	}
	defer conn.Close()

	_, err = conn.ExecContext(
		ctx,
		`UPDATE progression SET
			count_300 = count_300 + $1,
			count_100 = count_100 + $2,
			count_50 = count_50 + $3,
			count_miss = count_miss + $4
		WHERE player_id = $5 AND mode = $6`,
		count300, count100, count50, countMiss, playerID, int(mode),
	)
	if err != nil {
		err := fmt.Errorf("failed to add hits: %w", err)
		reporting.Report(ctx, err, recordExtras(playerID, mode))
		return err
	}

	return nil
}

func (s *PostgresStatsRepository) RecordScore(ctx context.Context, score *domain.Score) error {
	ctx, span := s.tracer.Start(ctx, "Postgres.RecordScore")
	defer span.End()

	conn, err := s.connect(ctx)
	if err != nil {
		reporting.Report(ctx, err, recordExtras(score.PlayerID, score.Mode))
		return err
	}
	defer conn.Close()

	_, err = conn.ExecContext(
		ctx,
		`INSERT INTO scores (player_id, mode, passed, performance)
		VALUES ($1, $2, $3, $4)`,
		score.PlayerID, int(score.Mode), score.Passed, score.Performance,
	)
	if err != nil {
		err := fmt.Errorf("failed to insert score: %w", err)
		reporting.Report(ctx, err, recordExtras(score.PlayerID, score.Mode))
		return err
	}

	return nil
}

func (s *PostgresStatsRepository) TopPerformances(ctx context.Context, playerID int64, mode domain.Mode, limit int) ([]float64, error) {
	ctx, span := s.tracer.Start(ctx, "Postgres.TopPerformances")
	defer span.End()

	conn, err := s.connect(ctx)
	if err != nil {
		reporting.Report(ctx, err, recordExtras(playerID, mode))
		return nil, err
	}
	defer conn.Close()

	performances := make([]float64, 0, limit)
	err = conn.SelectContext(
		ctx,
		&performances,
		`SELECT performance
		FROM scores
		WHERE player_id = $1 AND mode = $2 AND passed AND performance IS NOT NULL
		ORDER BY performance DESC
		LIMIT $3`,
		playerID, int(mode), limit,
	)
	if err != nil {
		err := fmt.Errorf("failed to select top performances: %w", err)
		reporting.Report(ctx, err, recordExtras(playerID, mode))
		return nil, err
	}

	return performances, nil
}

func (s *PostgresStatsRepository) UpdateDerived(ctx context.Context, playerID int64, mode domain.Mode, level int, accuracy, performance float64) error {
	ctx, span := s.tracer.Start(ctx, "Postgres.UpdateDerived")
	defer span.End()

	conn, err := s.connect(ctx)
	if err != nil {
		reporting.Report(ctx, err, recordExtras(playerID, mode))
		return err
	}
	defer conn.Close()

	_, err = conn.ExecContext(
		ctx,
		`UPDATE progression SET level = $1, accuracy = $2, performance = $3
		WHERE player_id = $4 AND mode = $5`,
		level, accuracy, performance, playerID, int(mode),
	)
	if err != nil {
		err := fmt.Errorf("failed to update derived fields: %w", err)
		reporting.Report(ctx, err, recordExtras(playerID, mode))
		return err
	}

	return nil
}

func (s *PostgresStatsRepository) SetRankIndex(ctx context.Context, playerID int64, mode domain.Mode, rankIndex int64) error {
	ctx, span := s.tracer.Start(ctx, "Postgres.SetRankIndex")
	defer span.End()

	conn, err := s.connect(ctx)
	if err != nil {
		reporting.Report(ctx, err, recordExtras(playerID, mode))
		return err
	}
	defer conn.Close()

	_, err = conn.ExecContext(
		ctx,
		"UPDATE progression SET rank_index = $1 WHERE player_id = $2 AND mode = $3",
		rankIndex, playerID, int(mode),
	)
	if err != nil {
		err := fmt.Errorf("failed to set rank index: %w", err)
		reporting.Report(ctx, err, recordExtras(playerID, mode))
		return err
	}

	return nil
}

func (s *PostgresStatsRepository) CountBetter(ctx context.Context, mode domain.Mode, performance float64) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "Postgres.CountBetter")
	defer span.End()

	conn, err := s.connect(ctx)
	if err != nil {
		reporting.Report(ctx, err, map[string]string{"mode": mode.String()})
		return 0, err
	}
	defer conn.Close()

	var count int64
	err = conn.GetContext(
		ctx,
		&count,
		"SELECT COUNT(*) FROM progression WHERE mode = $1 AND performance > $2",
		int(mode), performance,
	)
	if err != nil {
		err := fmt.Errorf("failed to count better performances: %w", err)
		reporting.Report(ctx, err, map[string]string{"mode": mode.String()})
		return 0, err
	}

	return count, nil
}

func (s *PostgresStatsRepository) IncrementReplaysWatched(ctx context.Context, playerID int64, mode domain.Mode) error {
	ctx, span := s.tracer.Start(ctx, "Postgres.IncrementReplaysWatched")
	defer span.End()

	conn, err := s.connect(ctx)
	if err != nil {
		reporting.Report(ctx, err, recordExtras(playerID, mode))
		return err
	}
	defer conn.Close()

	_, err = conn.ExecContext(
		ctx,
		"UPDATE progression SET replays_watched = replays_watched + 1 WHERE player_id = $1 AND mode = $2",
		playerID, int(mode),
	)
	if err != nil {
		err := fmt.Errorf("failed to increment replays watched: %w", err)
		reporting.Report(ctx, err, recordExtras(playerID, mode))
		return err
	}

	return nil
}
