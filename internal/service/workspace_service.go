package service

import (
	"context"
	"strings"

	"github.com/docsphere/docsphere-backend/internal/repository"
)

type WorkspaceService interface {
	Create(ctx context.Context, ownerID, name string, description, icon, color *string, isPublic bool) (*repository.Workspace, error)
	Get(ctx context.Context, userID, id string) (*repository.Workspace, error)
	List(ctx context.Context, userID string) ([]*repository.Workspace, error)
	Update(ctx context.Context, userID, id string, name, description, icon, color *string, isPublic *bool) (*repository.Workspace, error)
	Delete(ctx context.Context, userID, id string) error
}

type workspaceService struct {
	workspaceRepo repository.WorkspaceRepository
	guard         GuardService
}

func NewWorkspaceService(workspaceRepo repository.WorkspaceRepository, guard GuardService) WorkspaceService {
	return &workspaceService{workspaceRepo: workspaceRepo, guard: guard}
}

// Create makes the caller the workspace owner. Ownership is implicit: the
// owner never appears in the member list and always passes every check.
func (s *workspaceService) Create(ctx context.Context, ownerID, name string, description, icon, color *string, isPublic bool) (*repository.Workspace, error) {
	if strings.TrimSpace(name) == "" || ownerID == "" {
		return nil, ErrInvalidInput
	}
	workspace := &repository.Workspace{
		Name:        strings.TrimSpace(name),
		Description: description,
		Icon:        icon,
		Color:       color,
		OwnerID:     ownerID,
		IsPublic:    isPublic,
	}
	if err := s.workspaceRepo.Create(ctx, workspace); err != nil {
		return nil, err
	}
	return workspace, nil
}

// Get requires view permission. Public visibility of workspace metadata is a
// separate concern from action authorization; a non-member is denied even
// when the workspace is public.
func (s *workspaceService) Get(ctx context.Context, userID, id string) (*repository.Workspace, error) {
	decision, err := s.guard.Evaluate(ctx, GuardContext{
		UserID:              userID,
		WorkspaceID:         id,
		RequiredPermissions: []string{"view"},
	})
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, &DeniedError{Decision: decision}
	}

	workspace, err := s.workspaceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if workspace == nil {
		return nil, ErrNotFound
	}
	return workspace, nil
}

func (s *workspaceService) List(ctx context.Context, userID string) ([]*repository.Workspace, error) {
	return s.workspaceRepo.FindByUserID(ctx, userID)
}

func (s *workspaceService) Update(ctx context.Context, userID, id string, name, description, icon, color *string, isPublic *bool) (*repository.Workspace, error) {
	decision, err := s.guard.Evaluate(ctx, GuardContext{
		UserID:      userID,
		WorkspaceID: id,
		MinimumRole: repository.RoleAdmin,
	})
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, &DeniedError{Decision: decision}
	}

	workspace, err := s.workspaceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if workspace == nil {
		return nil, ErrNotFound
	}

	if name != nil {
		workspace.Name = strings.TrimSpace(*name)
	}
	if description != nil {
		workspace.Description = description
	}
	if icon != nil {
		workspace.Icon = icon
	}
	if color != nil {
		workspace.Color = color
	}
	if isPublic != nil {
		workspace.IsPublic = *isPublic
	}

	if err := s.workspaceRepo.Update(ctx, workspace); err != nil {
		return nil, err
	}
	return workspace, nil
}

func (s *workspaceService) Delete(ctx context.Context, userID, id string) error {
	decision, err := s.guard.Evaluate(ctx, GuardContext{
		UserID:           userID,
		WorkspaceID:      id,
		RequireOwnership: true,
	})
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return &DeniedError{Decision: decision}
	}
	return s.workspaceRepo.Delete(ctx, id)
}
