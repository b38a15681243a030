package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
)

type Repositories struct {
	// Core repositories (pgxpool)
	UserRepo       UserRepository
	WorkspaceRepo  WorkspaceRepository
	InvitationRepo InvitationRepository

	// Audit repository (sqlx)
	ActivityRepo ActivityRepository
}

func NewRepositories(pool *pgxpool.Pool, db *sqlx.DB) *Repositories {
	return &Repositories{
		UserRepo:       NewUserRepository(pool),
		WorkspaceRepo:  NewWorkspaceRepository(pool),
		InvitationRepo: NewInvitationRepository(pool),

		ActivityRepo: NewActivityRepository(db),
	}
}
