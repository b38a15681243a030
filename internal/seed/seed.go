package seed

import (
	"context"
	"log"
	"time"

	"github.com/docsphere/docsphere-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// SeedData creates a small development dataset: two users, one workspace
// with a member, and a pending invitation. Safe to re-run: it bails out when
// the first user already exists.
func SeedData(repos *repository.Repositories) {
	ctx := context.Background()

	existing, _ := repos.UserRepo.FindByEmail(ctx, "ana@docsphere.dev")
	if existing != nil {
		log.Println("[Seed] Data already exists, skipping...")
		return
	}

	log.Println("[Seed] Creating development data...")

	password, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	ana := &repository.User{
		Email:    "ana@docsphere.dev",
		Password: string(password),
		Name:     "Ana Silva",
	}
	if err := repos.UserRepo.Create(ctx, ana); err != nil {
		log.Printf("[Seed] Failed to create user: %v", err)
		return
	}

	ben := &repository.User{
		Email:    "ben@docsphere.dev",
		Password: string(password),
		Name:     "Ben Carter",
	}
	if err := repos.UserRepo.Create(ctx, ben); err != nil {
		log.Printf("[Seed] Failed to create user: %v", err)
		return
	}

	description := "Product documentation and specs"
	workspace := &repository.Workspace{
		Name:        "DocSphere HQ",
		Description: &description,
		OwnerID:     ana.ID,
		IsPublic:    false,
	}
	if err := repos.WorkspaceRepo.Create(ctx, workspace); err != nil {
		log.Printf("[Seed] Failed to create workspace: %v", err)
		return
	}

	_, _ = repos.WorkspaceRepo.AddMember(ctx, &repository.WorkspaceMember{
		WorkspaceID: workspace.ID,
		UserID:      ben.ID,
		Role:        repository.RoleEditor,
	})

	invitation := &repository.Invitation{
		WorkspaceID: workspace.ID,
		Email:       "cody@docsphere.dev",
		Token:       "seed-invitation-token",
		Role:        repository.RoleViewer,
		InvitedByID: ana.ID,
		Status:      repository.InvitationStatusPending,
		ExpiresAt:   time.Now().Add(7 * 24 * time.Hour),
	}
	if err := repos.InvitationRepo.Create(ctx, invitation); err != nil {
		log.Printf("[Seed] Failed to create invitation: %v", err)
	}

	log.Println("[Seed] Done: 2 users, 1 workspace, 1 pending invitation")
}
