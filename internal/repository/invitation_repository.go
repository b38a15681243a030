package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type InvitationRepository interface {
	Create(ctx context.Context, invitation *Invitation) error
	FindByID(ctx context.Context, id string) (*Invitation, error)
	FindByToken(ctx context.Context, token string) (*Invitation, error)
	FindPendingByEmail(ctx context.Context, email string) ([]*Invitation, error)
	FindByWorkspace(ctx context.Context, workspaceID string, limit, offset int) ([]*Invitation, int, error)

	// CASStatus transitions an invitation from expected to next only when it
	// still holds expected. Returns true when this call won the transition.
	CASStatus(ctx context.Context, id string, expected, next InvitationStatus) (bool, error)
	MarkAccepted(ctx context.Context, id, userID string) (bool, error)
	SweepExpired(ctx context.Context, workspaceID string) (int, error)
}

type pgInvitationRepository struct {
	pool *pgxpool.Pool
}

func NewInvitationRepository(pool *pgxpool.Pool) InvitationRepository {
	return &pgInvitationRepository{pool: pool}
}

const invitationColumns = `id, workspace_id, email, token, role, message, invited_by_id, invited_by_name,
	status, expires_at, accepted_at, accepted_by, created_at, updated_at`

func scanInvitation(row pgx.Row) (*Invitation, error) {
	inv := &Invitation{}
	err := row.Scan(
		&inv.ID, &inv.WorkspaceID, &inv.Email, &inv.Token, &inv.Role, &inv.Message,
		&inv.InvitedByID, &inv.InvitedByName, &inv.Status, &inv.ExpiresAt,
		&inv.AcceptedAt, &inv.AcceptedBy, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *pgInvitationRepository) Create(ctx context.Context, invitation *Invitation) error {
	query := `
		INSERT INTO invitations (workspace_id, email, token, role, message, invited_by_id, invited_by_name, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		invitation.WorkspaceID, invitation.Email, invitation.Token, invitation.Role,
		invitation.Message, invitation.InvitedByID, invitation.InvitedByName,
		invitation.Status, invitation.ExpiresAt,
	).Scan(&invitation.ID, &invitation.CreatedAt, &invitation.UpdatedAt)
	if err != nil {
		// uq_invitations_live_pending: one live pending invitation per
		// (workspace, email)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicatePending
		}
		return err
	}
	return nil
}

func (r *pgInvitationRepository) FindByID(ctx context.Context, id string) (*Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE id = $1`
	return scanInvitation(r.pool.QueryRow(ctx, query, id))
}

func (r *pgInvitationRepository) FindByToken(ctx context.Context, token string) (*Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE token = $1`
	return scanInvitation(r.pool.QueryRow(ctx, query, token))
}

func (r *pgInvitationRepository) FindPendingByEmail(ctx context.Context, email string) ([]*Invitation, error) {
	query := `
		SELECT ` + invitationColumns + `
		FROM invitations WHERE email = $1 AND status = 'pending' AND expires_at > NOW()
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInvitations(rows)
}

func (r *pgInvitationRepository) FindByWorkspace(ctx context.Context, workspaceID string, limit, offset int) ([]*Invitation, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM invitations WHERE workspace_id = $1`, workspaceID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + invitationColumns + `
		FROM invitations WHERE workspace_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, workspaceID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	invitations, err := collectInvitations(rows)
	if err != nil {
		return nil, 0, err
	}
	return invitations, total, nil
}

func collectInvitations(rows pgx.Rows) ([]*Invitation, error) {
	var invitations []*Invitation
	for rows.Next() {
		inv := &Invitation{}
		if err := rows.Scan(
			&inv.ID, &inv.WorkspaceID, &inv.Email, &inv.Token, &inv.Role, &inv.Message,
			&inv.InvitedByID, &inv.InvitedByName, &inv.Status, &inv.ExpiresAt,
			&inv.AcceptedAt, &inv.AcceptedBy, &inv.CreatedAt, &inv.UpdatedAt,
		); err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

func (r *pgInvitationRepository) CASStatus(ctx context.Context, id string, expected, next InvitationStatus) (bool, error) {
	query := `UPDATE invitations SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`
	result, err := r.pool.Exec(ctx, query, id, expected, next)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

func (r *pgInvitationRepository) MarkAccepted(ctx context.Context, id, userID string) (bool, error) {
	query := `
		UPDATE invitations
		SET status = 'accepted', accepted_at = NOW(), accepted_by = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`
	result, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

// SweepExpired flips every past-expiry pending invitation to expired.
// An empty workspaceID sweeps all workspaces.
func (r *pgInvitationRepository) SweepExpired(ctx context.Context, workspaceID string) (int, error) {
	query := `
		UPDATE invitations SET status = 'expired', updated_at = NOW()
		WHERE status = 'pending' AND expires_at < $1 AND ($2 = '' OR workspace_id = $2)
	`
	result, err := r.pool.Exec(ctx, query, time.Now(), workspaceID)
	if err != nil {
		return 0, err
	}
	return int(result.RowsAffected()), nil
}
