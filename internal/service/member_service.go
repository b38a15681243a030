package service

import (
	"context"

	"github.com/docsphere/docsphere-backend/internal/repository"
)

type MemberService interface {
	ListMembers(ctx context.Context, actorID, workspaceID string) ([]*repository.WorkspaceMember, error)
	UpdateMemberRole(ctx context.Context, actorID, workspaceID, userID string, role repository.Role, permissions *repository.PermissionSet) error
	RemoveMember(ctx context.Context, actorID, workspaceID, userID string) error
}

type memberService struct {
	workspaceRepo repository.WorkspaceRepository
	userRepo      repository.UserRepository
	guard         GuardService
	perms         PermissionService
}

func NewMemberService(
	workspaceRepo repository.WorkspaceRepository,
	userRepo repository.UserRepository,
	guard GuardService,
	perms PermissionService,
) MemberService {
	return &memberService{
		workspaceRepo: workspaceRepo,
		userRepo:      userRepo,
		guard:         guard,
		perms:         perms,
	}
}

func (s *memberService) ListMembers(ctx context.Context, actorID, workspaceID string) ([]*repository.WorkspaceMember, error) {
	decision, err := s.guard.Evaluate(ctx, GuardContext{
		UserID:              actorID,
		WorkspaceID:         workspaceID,
		RequiredPermissions: []string{"view"},
	})
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, &DeniedError{Decision: decision}
	}
	return s.workspaceRepo.FindMembers(ctx, workspaceID)
}

// UpdateMemberRole changes a member's role and, when permissions is non-nil,
// stores a custom permission set that overrides the role defaults. The store
// persists the override as-is; an editor with can_invite is a legal grant.
func (s *memberService) UpdateMemberRole(ctx context.Context, actorID, workspaceID, userID string, role repository.Role, permissions *repository.PermissionSet) error {
	if !repository.ValidRole(role) {
		return ErrInvalidRole
	}

	decision, err := s.guard.Evaluate(ctx, GuardContext{
		UserID:      actorID,
		WorkspaceID: workspaceID,
		MinimumRole: repository.RoleAdmin,
	})
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return &DeniedError{Decision: decision}
	}

	workspace, err := s.workspaceRepo.FindByID(ctx, workspaceID)
	if err != nil {
		return err
	}
	if workspace == nil {
		return ErrNotFound
	}
	if workspace.OwnerID == userID {
		// The owner has no membership row; ownership changes are a separate
		// transfer operation.
		return ErrInvalidInput
	}

	member, err := s.workspaceRepo.FindMember(ctx, workspaceID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrNotFound
	}

	if err := s.workspaceRepo.UpdateMemberRole(ctx, workspaceID, userID, role, permissions); err != nil {
		return err
	}
	s.perms.InvalidateAccess(ctx, workspaceID, userID)
	return nil
}

// RemoveMember removes a membership. Admins may remove anyone below the
// owner; any member may remove themselves (leave).
func (s *memberService) RemoveMember(ctx context.Context, actorID, workspaceID, userID string) error {
	workspace, err := s.workspaceRepo.FindByID(ctx, workspaceID)
	if err != nil {
		return err
	}
	if workspace == nil {
		return ErrNotFound
	}
	if workspace.OwnerID == userID {
		return ErrInvalidInput
	}

	if actorID != userID {
		decision, err := s.guard.Evaluate(ctx, GuardContext{
			UserID:      actorID,
			WorkspaceID: workspaceID,
			MinimumRole: repository.RoleAdmin,
		})
		if err != nil {
			return err
		}
		if !decision.Allowed {
			return &DeniedError{Decision: decision}
		}
	}

	member, err := s.workspaceRepo.FindMember(ctx, workspaceID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrNotFound
	}

	if err := s.workspaceRepo.RemoveMember(ctx, workspaceID, userID); err != nil {
		return err
	}
	s.perms.InvalidateAccess(ctx, workspaceID, userID)
	return nil
}
