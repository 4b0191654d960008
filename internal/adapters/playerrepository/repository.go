package playerrepository

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
	"github.com/lumen-gg/standing/internal/logging"
	"github.com/lumen-gg/standing/internal/reporting"
)

type PostgresPlayerRepository struct {
	db     *sqlx.DB
	schema string
	tracer trace.Tracer
}

func NewPostgresPlayerRepository(db *sqlx.DB, schema string) *PostgresPlayerRepository {
	return &PostgresPlayerRepository{
		db:     db,
		schema: schema,
		tracer: otel.Tracer("standing/playerrepository/postgres"),
	}
}

type dbPlayer struct {
	ID                  int64     `db:"id"`
	Username            string    `db:"username"`
	SafeName            string    `db:"safe_name"`
	Country             string    `db:"country"`
	Banned              bool      `db:"banned"`
	Warnings            int       `db:"warnings"`
	PendingVerification bool      `db:"pending_verification"`
	DonorExpiry         time.Time `db:"donor_expiry"`
	Subscriber          bool      `db:"subscriber"`
	LastVisit           time.Time `db:"last_visit"`
}

func dbPlayerToDomain(p dbPlayer) *domain.Player {
	return &domain.Player{
		ID:                  p.ID,
		Username:            p.Username,
		SafeName:            p.SafeName,
		Country:             p.Country,
		Banned:              p.Banned,
		Warnings:            p.Warnings,
		PendingVerification: p.PendingVerification,
		DonorExpiry:         p.DonorExpiry,
		Subscriber:          p.Subscriber,
		LastVisit:           p.LastVisit,
	}
}

func (p *PostgresPlayerRepository) connect(ctx context.Context) (*sqlx.Conn, error) {
	conn, err := p.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}

	_, err = conn.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", pq.QuoteIdentifier(p.schema)))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set search path: %w", err)
	}

	return conn, nil
}

func (p *PostgresPlayerRepository) GetByID(ctx context.Context, playerID int64) (*domain.Player, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.GetByID")
	defer span.End()

	conn, err := p.connect(ctx)
	if err != nil {
		reporting.Report(ctx, err, map[string]string{"playerID": strconv.FormatInt(playerID, 10)})
		return nil, err
	}
	defer conn.Close()

	var player dbPlayer
	err = conn.GetContext(
		ctx,
		&player,
		`SELECT
			id, username, safe_name, country, banned, warnings,
			pending_verification, donor_expiry, subscriber, last_visit
		FROM players
		WHERE id = $1`,
		playerID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPlayerNotFound
	}
	if err != nil {
		err := fmt.Errorf("failed to select player: %w", err)
		reporting.Report(ctx, err, map[string]string{"playerID": strconv.FormatInt(playerID, 10)})
		return nil, err
	}

	return dbPlayerToDomain(player), nil
}

func (p *PostgresPlayerRepository) GetIDBySafeName(ctx context.Context, safeName string) (int64, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.GetIDBySafeName")
	defer span.End()

	conn, err := p.connect(ctx)
	if err != nil {
		reporting.Report(ctx, err, map[string]string{"safeName": safeName})
		return 0, err
	}
	defer conn.Close()

	var playerID int64
	err = conn.GetContext(ctx, &playerID, "SELECT id FROM players WHERE safe_name = $1", safeName)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrPlayerNotFound
	}
	if err != nil {
		err := fmt.Errorf("failed to select player id: %w", err)
		reporting.Report(ctx, err, map[string]string{"safeName": safeName})
		return 0, err
	}

	return playerID, nil
}

func (p *PostgresPlayerRepository) GetCredentialHash(ctx context.Context, playerID int64) (string, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.GetCredentialHash")
	defer span.End()

	conn, err := p.connect(ctx)
	if err != nil {
		reporting.Report(ctx, err, map[string]string{"playerID": strconv.FormatInt(playerID, 10)})
		return "", err
	}
	defer conn.Close()

	var hash string
	err = conn.GetContext(ctx, &hash, "SELECT credential_hash FROM players WHERE id = $1", playerID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrPlayerNotFound
	}
	if err != nil {
		err := fmt.Errorf("failed to select credential hash: %w", err)
		reporting.Report(ctx, err, map[string]string{"playerID": strconv.FormatInt(playerID, 10)})
		return "", err
	}

	return hash, nil
}

func (p *PostgresPlayerRepository) Exists(ctx context.Context, playerID int64) (bool, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.Exists")
	defer span.End()

	conn, err := p.connect(ctx)
	if err != nil {
		reporting.Report(ctx, err, map[string]string{"playerID": strconv.FormatInt(playerID, 10)})
		return false, err
	}
	defer conn.Close()

	var count int
	err = conn.GetContext(ctx, &count, "SELECT COUNT(*) FROM players WHERE id = $1", playerID)
	if err != nil {
		err := fmt.Errorf("failed to count players: %w", err)
		reporting.Report(ctx, err, map[string]string{"playerID": strconv.FormatInt(playerID, 10)})
		return false, err
	}

	return count > 0, nil
}

func (p *PostgresPlayerRepository) SetBanned(ctx context.Context, playerID int64, banned bool) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.SetBanned")
	defer span.End()

	return p.updateFlag(ctx, playerID, "UPDATE players SET banned = $1 WHERE id = $2", banned)
}

func (p *PostgresPlayerRepository) ClearPendingVerification(ctx context.Context, playerID int64) error {
	return p.updateFlag(ctx, playerID, "UPDATE players SET pending_verification = $1 WHERE id = $2", false)
}

func (p *PostgresPlayerRepository) updateFlag(ctx context.Context, playerID int64, query string, value bool) error {
	conn, err := p.connect(ctx)
	if err != nil {
		reporting.Report(ctx, err, map[string]string{"playerID": strconv.FormatInt(playerID, 10)})
		return err
	}
	defer conn.Close()

	result, err := conn.ExecContext(ctx, query, value, playerID)
	if err != nil {
		err := fmt.Errorf("failed to update player flag: %w", err)
		reporting.Report(ctx, err, map[string]string{"playerID": strconv.FormatInt(playerID, 10)})
		return err
	}

	return requireRowAffected(ctx, result, playerID)
}

func (p *PostgresPlayerRepository) SetWarnings(ctx context.Context, playerID int64, warnings int) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.SetWarnings")
	defer span.End()

	conn, err := p.connect(ctx)
	if err != nil {
		reporting.Report(ctx, err, map[string]string{"playerID": strconv.FormatInt(playerID, 10)})
		return err
	}
	defer conn.Close()

	result, err := conn.ExecContext(ctx, "UPDATE players SET warnings = $1 WHERE id = $2", warnings, playerID)
	if err != nil {
		err := fmt.Errorf("failed to update warnings: %w", err)
		reporting.Report(ctx, err, map[string]string{"playerID": strconv.FormatInt(playerID, 10)})
		return err
	}

	return requireRowAffected(ctx, result, playerID)
}

func (p *PostgresPlayerRepository) UpdateUsername(ctx context.Context, playerID int64, username, safeName string) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.UpdateUsername")
	defer span.End()

	txx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		err := fmt.Errorf("failed to start transaction: %w", err)
		reporting.Report(ctx, err, map[string]string{"playerID": strconv.FormatInt(playerID, 10)})
		return err
	}
	defer txx.Rollback()

	_, err = txx.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", pq.QuoteIdentifier(p.schema)))
	if err != nil {
		err := fmt.Errorf("failed to set search path: %w", err)
		reporting.Report(ctx, err, map[string]string{"playerID": strconv.FormatInt(playerID, 10)})
		return err
	}

	var previous string
	err = txx.QueryRowxContext(ctx, "SELECT username FROM players WHERE id = $1", playerID).Scan(&previous)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrPlayerNotFound
	}
	if err != nil {
		err := fmt.Errorf("failed to select current username: %w", err)
		reporting.Report(ctx, err, map[string]string{"playerID": strconv.FormatInt(playerID, 10)})
		return err
	}

	_, err = txx.ExecContext(
		ctx,
		"UPDATE players SET username = $1, safe_name = $2 WHERE id = $3",
		username, safeName, playerID,
	)
	if err != nil {
		err := fmt.Errorf("failed to update username: %w", err)
		reporting.Report(ctx, err, map[string]string{"playerID": strconv.FormatInt(playerID, 10)})
		return err
	}

	_, err = txx.ExecContext(
		ctx,
		`INSERT INTO username_history (player_id, previous_username, new_username)
		VALUES ($1, $2, $3)`,
		playerID, previous, username,
	)
	if err != nil {
		err := fmt.Errorf("failed to insert username history: %w", err)
		reporting.Report(ctx, err, map[string]string{"playerID": strconv.FormatInt(playerID, 10)})
		return err
	}

	err = txx.Commit()
	if err != nil {
		err := fmt.Errorf("failed to commit transaction: %w", err)
		reporting.Report(ctx, err, map[string]string{"playerID": strconv.FormatInt(playerID, 10)})
		return err
	}

	logging.FromContext(ctx).Info("Updated username", "playerId", playerID, "username", username)

	return nil
}

func (p *PostgresPlayerRepository) TouchLastVisit(ctx context.Context, playerID int64) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.TouchLastVisit")
	defer span.End()

	conn, err := p.connect(ctx)
	if err != nil {
		reporting.Report(ctx, err, map[string]string{"playerID": strconv.FormatInt(playerID, 10)})
		return err
	}
	defer conn.Close()

	_, err = conn.ExecContext(ctx, "UPDATE players SET last_visit = NOW() WHERE id = $1", playerID)
	if err != nil {
		err := fmt.Errorf("failed to update last visit: %w", err)
		reporting.Report(ctx, err, map[string]string{"playerID": strconv.FormatInt(playerID, 10)})
		return err
	}

	return nil
}

func requireRowAffected(ctx context.Context, result sql.Result, playerID int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		err := fmt.Errorf("failed to get affected row count: %w", err)
		reporting.Report(ctx, err, map[string]string{"playerID": strconv.FormatInt(playerID, 10)})
		return err
	}
	if affected == 0 {
		return domain.ErrPlayerNotFound
	}
	return nil
}
