package team

import "context"

// Repository describes team persistence needs from use cases.
type Repository interface {
	GetByName(ctx context.Context, name string) (Team, bool, error)
	UpsertByName(ctx context.Context, item Team) (Team, error)
}
