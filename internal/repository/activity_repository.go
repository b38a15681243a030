package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type ActivityRepository interface {
	Log(ctx context.Context, activity *InvitationActivity) error
	FindByInvitation(ctx context.Context, invitationID string) ([]*InvitationActivity, error)
}

type sqlxActivityRepository struct {
	db *sqlx.DB
}

func NewActivityRepository(db *sqlx.DB) ActivityRepository {
	return &sqlxActivityRepository{db: db}
}

func (r *sqlxActivityRepository) Log(ctx context.Context, activity *InvitationActivity) error {
	query := `
		INSERT INTO invitation_activities (invitation_id, action, actor_id, actor_type, details)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	return r.db.QueryRowxContext(ctx, query,
		activity.InvitationID, activity.Action, activity.ActorID,
		activity.ActorType, activity.Details,
	).Scan(&activity.ID, &activity.CreatedAt)
}

func (r *sqlxActivityRepository) FindByInvitation(ctx context.Context, invitationID string) ([]*InvitationActivity, error) {
	query := `
		SELECT id, invitation_id, action, actor_id, actor_type, details, created_at
		FROM invitation_activities
		WHERE invitation_id = $1
		ORDER BY created_at
	`
	var activities []*InvitationActivity
	if err := r.db.SelectContext(ctx, &activities, query, invitationID); err != nil {
		return nil, err
	}
	return activities, nil
}
