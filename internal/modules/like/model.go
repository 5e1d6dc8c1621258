package like

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// EntityType names what a like points at.
type EntityType string

const (
	EntityProduct  EntityType = "Product"
	EntityCategory EntityType = "Category"
)

// ParseEntityType accepts an entity type name case-insensitively.
func ParseEntityType(s string) (EntityType, bool) {
	for _, t := range []EntityType{EntityProduct, EntityCategory} {
		if strings.EqualFold(strings.TrimSpace(s), string(t)) {
			return t, true
		}
	}
	return "", false
}

// Like records that a user likes an entity. A user likes an entity at most
// once.
type Like struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	EntityType EntityType `json:"likeable_type"`
	EntityID   uuid.UUID  `json:"likeable_id"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Liker is a user who liked an entity.
type Liker struct {
	UserID  uuid.UUID `json:"user_id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	LikedAt time.Time `json:"liked_at"`
}

// Summary describes the likes on one entity as seen by the caller.
type Summary struct {
	EntityID     uuid.UUID  `json:"entity_id"`
	EntityType   EntityType `json:"entity_type"`
	LikeCount    int        `json:"like_count"`
	UserHasLiked bool       `json:"user_has_liked"`
	Likes        []*Liker   `json:"likes"`
}

// ToggleResult reports the state after a toggle.
type ToggleResult struct {
	Liked  bool   `json:"liked"`
	Action string `json:"action"` // "liked" or "unliked"
}
