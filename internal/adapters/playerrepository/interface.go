package playerrepository

import (
	"context"

	"github.com/lumen-gg/standing/internal/domain"
)

type PlayerRepository interface {
	GetByID(ctx context.Context, playerID int64) (*domain.Player, error)
	GetIDBySafeName(ctx context.Context, safeName string) (int64, error)
	GetCredentialHash(ctx context.Context, playerID int64) (string, error)
	Exists(ctx context.Context, playerID int64) (bool, error)
	SetBanned(ctx context.Context, playerID int64, banned bool) error
	SetWarnings(ctx context.Context, playerID int64, warnings int) error
	ClearPendingVerification(ctx context.Context, playerID int64) error
	UpdateUsername(ctx context.Context, playerID int64, username, safeName string) error
	TouchLastVisit(ctx context.Context, playerID int64) error
}
