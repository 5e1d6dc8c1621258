package like

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines like storage.
type Repository interface {
	// Toggle removes the user's like on the entity if present and adds it
	// otherwise, as one atomic step. It reports whether the entity is liked
	// afterwards.
	Toggle(ctx context.Context, userID uuid.UUID, t EntityType, entityID uuid.UUID) (bool, error)
	// Likers lists who liked the entity, most recent first.
	Likers(ctx context.Context, t EntityType, entityID uuid.UUID) ([]*Liker, error)
	// ForUser lists the user's likes, most recent first. An empty t matches
	// every entity type.
	ForUser(ctx context.Context, userID uuid.UUID, t EntityType) ([]*Like, error)
}
