package like

import (
	"context"

	"github.com/google/uuid"

	"github.com/georgemunganga/marketplace-api/internal/platform/apperr"
	"github.com/georgemunganga/marketplace-api/internal/platform/database"
)

type postgresRepo struct{ db database.DBTX }

func NewPostgresRepository(db database.DBTX) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Toggle(ctx context.Context, userID uuid.UUID, t EntityType, entityID uuid.UUID) (bool, error) {
	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, `
		WITH removed AS (
			DELETE FROM likes
			WHERE user_id = $2 AND likeable_type = $3 AND likeable_id = $4
			RETURNING id
		)
		INSERT INTO likes (id, user_id, likeable_type, likeable_id)
		SELECT $1, $2, $3, $4
		WHERE NOT EXISTS (SELECT 1 FROM removed)
		ON CONFLICT (user_id, likeable_type, likeable_id) DO NOTHING
		RETURNING id`,
		uuid.New(), userID, t, entityID).Scan(&id)
	if database.IsNoRows(err) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Storage(err)
	}
	return true, nil
}

func (r *postgresRepo) Likers(ctx context.Context, t EntityType, entityID uuid.UUID) ([]*Liker, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.name, u.email, l.created_at
		FROM likes l
		JOIN users u ON u.id = l.user_id
		WHERE l.likeable_type = $1 AND l.likeable_id = $2
		ORDER BY l.created_at DESC`, t, entityID)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer rows.Close()

	likers := []*Liker{}
	for rows.Next() {
		l := &Liker{}
		if err := rows.Scan(&l.UserID, &l.Name, &l.Email, &l.LikedAt); err != nil {
			return nil, apperr.Storage(err)
		}
		likers = append(likers, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(err)
	}
	return likers, nil
}

func (r *postgresRepo) ForUser(ctx context.Context, userID uuid.UUID, t EntityType) ([]*Like, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, likeable_type, likeable_id, created_at
		FROM likes
		WHERE user_id = $1 AND ($2 = '' OR likeable_type = $2)
		ORDER BY created_at DESC`, userID, t)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer rows.Close()

	likes := []*Like{}
	for rows.Next() {
		l := &Like{}
		if err := rows.Scan(&l.ID, &l.UserID, &l.EntityType, &l.EntityID, &l.CreatedAt); err != nil {
			return nil, apperr.Storage(err)
		}
		likes = append(likes, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(err)
	}
	return likes, nil
}
