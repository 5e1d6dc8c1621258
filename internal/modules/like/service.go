package like

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/georgemunganga/marketplace-api/internal/modules/auth"
	"github.com/georgemunganga/marketplace-api/internal/modules/catalog"
	"github.com/georgemunganga/marketplace-api/internal/platform/apperr"
	"github.com/georgemunganga/marketplace-api/internal/platform/logging"
)

// Service defines like business logic. Entities must exist to be liked or
// inspected.
type Service interface {
	Likes(ctx context.Context, p auth.Principal, entityType, entityID string) (*Summary, error)
	Toggle(ctx context.Context, p auth.Principal, entityType, entityID string) (*ToggleResult, error)
	// MyLikes lists the caller's likes, optionally narrowed to one type.
	MyLikes(ctx context.Context, p auth.Principal, entityType string) ([]*Like, error)
}

// Catalog resolves the entities likes point at.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
	GetCategory(ctx context.Context, id string) (*catalog.Category, error)
}

type service struct {
	repo    Repository
	catalog Catalog
	logger  *zap.Logger
}

func NewService(repo Repository, entities Catalog, logger *zap.Logger) Service {
	return &service{repo: repo, catalog: entities, logger: logger}
}

// target validates the type and id and checks the entity exists.
func (s *service) target(ctx context.Context, entityType, entityID string) (EntityType, uuid.UUID, error) {
	if entityType == "" || entityID == "" {
		return "", uuid.Nil, apperr.InvalidInput("type and id are required")
	}
	t, ok := ParseEntityType(entityType)
	if !ok {
		return "", uuid.Nil, apperr.InvalidInput("type must be Product or Category")
	}
	id, err := uuid.Parse(entityID)
	if err != nil {
		return "", uuid.Nil, apperr.InvalidInput("invalid %s id", t)
	}
	switch t {
	case EntityProduct:
		_, err = s.catalog.GetProduct(ctx, entityID)
	case EntityCategory:
		_, err = s.catalog.GetCategory(ctx, entityID)
	}
	if err != nil {
		return "", uuid.Nil, err
	}
	return t, id, nil
}

func caller(p auth.Principal) (uuid.UUID, error) {
	id, err := uuid.Parse(p.UserID)
	if err != nil {
		return uuid.Nil, apperr.Unauthorized("authentication required")
	}
	return id, nil
}

func (s *service) Likes(ctx context.Context, p auth.Principal, entityType, entityID string) (*Summary, error) {
	userID, err := caller(p)
	if err != nil {
		return nil, err
	}
	t, id, err := s.target(ctx, entityType, entityID)
	if err != nil {
		return nil, err
	}
	likers, err := s.repo.Likers(ctx, t, id)
	if err != nil {
		return nil, err
	}
	summary := &Summary{EntityID: id, EntityType: t, LikeCount: len(likers), Likes: likers}
	for _, l := range likers {
		if l.UserID == userID {
			summary.UserHasLiked = true
			break
		}
	}
	return summary, nil
}

func (s *service) Toggle(ctx context.Context, p auth.Principal, entityType, entityID string) (*ToggleResult, error) {
	userID, err := caller(p)
	if err != nil {
		return nil, err
	}
	t, id, err := s.target(ctx, entityType, entityID)
	if err != nil {
		return nil, err
	}
	liked, err := s.repo.Toggle(ctx, userID, t, id)
	if err != nil {
		return nil, err
	}
	result := &ToggleResult{Liked: liked, Action: "unliked"}
	if liked {
		result.Action = "liked"
	}
	logging.FromContext(ctx, s.logger).Debug("like toggled",
		zap.String("entity_type", string(t)),
		zap.String("entity_id", id.String()),
		zap.String("action", result.Action))
	return result, nil
}

func (s *service) MyLikes(ctx context.Context, p auth.Principal, entityType string) ([]*Like, error) {
	userID, err := caller(p)
	if err != nil {
		return nil, err
	}
	var t EntityType
	if entityType != "" {
		var ok bool
		if t, ok = ParseEntityType(entityType); !ok {
			return nil, apperr.InvalidInput("type must be Product or Category")
		}
	}
	return s.repo.ForUser(ctx, userID, t)
}
