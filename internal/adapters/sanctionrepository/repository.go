package sanctionrepository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/lumen-gg/standing/internal/domain"
	"github.com/lumen-gg/standing/internal/reporting"
)

type PostgresSanctionRepository struct {
	db     *sqlx.DB
	schema string
	tracer trace.Tracer
}

func NewPostgresSanctionRepository(db *sqlx.DB, schema string) *PostgresSanctionRepository {
	return &PostgresSanctionRepository{
		db:     db,
		schema: schema,
		tracer: otel.Tracer("standing/sanctionrepository/postgres"),
	}
}

type dbEvent struct {
	ID        int64     `db:"id"`
	PlayerID  int64     `db:"player_id"`
	Reason    string    `db:"reason"`
	Kind      int       `db:"kind"`
	Period    int64     `db:"period"`
	ActorID   int64     `db:"actor_id"`
	CreatedAt time.Time `db:"created_at"`
}

func dbEventToDomain(e dbEvent) domain.SanctionEvent {
	return domain.SanctionEvent{
		ID:        e.ID,
		PlayerID:  e.PlayerID,
		Reason:    e.Reason,
		Kind:      domain.SanctionKind(e.Kind),
		Period:    e.Period,
		ActorID:   e.ActorID,
		Timestamp: e.CreatedAt,
	}
}

func (s *PostgresSanctionRepository) connect(ctx context.Context) (*sqlx.Conn, error) {
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

func playerExtras(playerID int64) map[string]string {
	return map[string]string{"playerID": strconv.FormatInt(playerID, 10)}
}

func (s *PostgresSanctionRepository) Append(ctx context.Context, event *domain.SanctionEvent) error {
	ctx, span := s.tracer.Start(ctx, "Postgres.Append")
	defer span.End()

	conn, err := s.connect(ctx)
	if err != nil {
		reporting.Report(ctx, err, playerExtras(event.PlayerID))
		return err
	}
	defer conn.Close()

	_, err = conn.ExecContext(
		ctx,
		`INSERT INTO sanction_history (player_id, reason, kind, period, actor_id)
		VALUES ($1, $2, $3, $4, $5)`,
		event.PlayerID, event.Reason, int(event.Kind), event.Period, event.ActorID,
	)
	if err != nil {
		err := fmt.Errorf("failed to insert sanction entry: %w", err)
		reporting.Report(ctx, err, playerExtras(event.PlayerID))
		return err
	}

	return nil
}

func (s *PostgresSanctionRepository) LatestSilence(ctx context.Context, playerID int64) (*domain.SanctionEvent, error) {
	ctx, span := s.tracer.Start(ctx, "Postgres.LatestSilence")
	defer span.End()

	conn, err := s.connect(ctx)
	if err != nil {
		reporting.Report(ctx, err, playerExtras(playerID))
		return nil, err
	}
	defer conn.Close()

	var event dbEvent
	err = conn.GetContext(
		ctx,
		&event,
		`SELECT id, player_id, reason, kind, period, actor_id, created_at
		FROM sanction_history
		WHERE player_id = $1 AND kind = $2
		ORDER BY id DESC
		LIMIT 1`,
		playerID, int(domain.SanctionSilence),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSilenceNotFound
	}
	if err != nil {
		err := fmt.Errorf("failed to select latest silence: %w", err)
		reporting.Report(ctx, err, playerExtras(playerID))
		return nil, err
	}

	result := dbEventToDomain(event)
	return &result, nil
}

func (s *PostgresSanctionRepository) ZeroLatestSilence(ctx context.Context, playerID int64) error {
	ctx, span := s.tracer.Start(ctx, "Postgres.ZeroLatestSilence")
	defer span.End()

	conn, err := s.connect(ctx)
	if err != nil {
		reporting.Report(ctx, err, playerExtras(playerID))
		return err
	}
	defer conn.Close()

	_, err = conn.ExecContext(
		ctx,
		`UPDATE sanction_history SET period = 0
		WHERE id = (
			SELECT id FROM sanction_history
			WHERE player_id = $1 AND kind = $2
			ORDER BY id DESC
			LIMIT 1
		)`,
		playerID, int(domain.SanctionSilence),
	)
	if err != nil {
		err := fmt.Errorf("failed to zero latest silence: %w", err)
		reporting.Report(ctx, err, playerExtras(playerID))
		return err
	}

	return nil
}

func (s *PostgresSanctionRepository) ListByPlayer(ctx context.Context, playerID int64, limit int) ([]domain.SanctionEvent, error) {
	ctx, span := s.tracer.Start(ctx, "Postgres.ListByPlayer")
	defer span.End()

	conn, err := s.connect(ctx)
	if err != nil {
		reporting.Report(ctx, err, playerExtras(playerID))
		return nil, err
	}
	defer conn.Close()

	var rows []dbEvent
	err = conn.SelectContext(
		ctx,
		&rows,
		`SELECT id, player_id, reason, kind, period, actor_id, created_at
		FROM sanction_history
		WHERE player_id = $1
		ORDER BY id DESC
		LIMIT $2`,
		playerID, limit,
	)
	if err != nil {
		err := fmt.Errorf("failed to select sanction entries: %w", err)
		reporting.Report(ctx, err, playerExtras(playerID))
		return nil, err
	}

	events := make([]domain.SanctionEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, dbEventToDomain(row))
	}

	return events, nil
}
