package match

import (
	"context"
	"time"
)

// Window narrows list queries to kickoffs inside [From, To].
type Window struct {
	From time.Time
	To   time.Time
}

// Repository describes match persistence needs from use cases. Upsert must
// be conflict-safe on the identity key so racing writers converge on one row.
type Repository interface {
	FindByIdentity(ctx context.Context, key IdentityKey) (Match, bool, error)
	Upsert(ctx context.Context, item Match) (Match, error)
	UpdateByIdentity(ctx context.Context, item Match) (Match, error)
	ListForNotification(ctx context.Context, window Window) ([]Match, error)
	ListForVoiceRoom(ctx context.Context, window Window) ([]Match, error)
	ListUpcoming(ctx context.Context, window Window) ([]Match, error)
	SetNotified(ctx context.Context, matchID int64) error
	SetVoiceRoomCreated(ctx context.Context, matchID int64) error
	DeleteAll(ctx context.Context) error
}
