package sessioncache

import (
	"context"
	"time"
)

// SessionCache is the live-session layer: the shared ID-lookup cache,
// per-origin session flags, pending-rename markers and the sanction
// broadcast channel. It is strictly an optimization and signalling layer;
// every read must be re-derivable from the relational store.
type SessionCache interface {
	GetID(ctx context.Context, safeName string) (playerID int64, ok bool, err error)
	SetID(ctx context.Context, safeName string, playerID int64, ttl time.Duration) error
	DeleteID(ctx context.Context, safeName string) error

	AddSession(ctx context.Context, playerID int64, origin string) error
	RemoveSession(ctx context.Context, playerID int64, origin string) error
	HasSession(ctx context.Context, playerID int64, origin string) (bool, error)
	HasAnySession(ctx context.Context, playerID int64) (bool, error)

	DeletePendingRename(ctx context.Context, playerID int64) error

	PublishSanction(ctx context.Context, playerID int64) error
}
