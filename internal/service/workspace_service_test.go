package service

import (
	"context"
	"testing"

	"github.com/docsphere/docsphere-backend/internal/repository"
	"github.com/stretchr/testify/require"
)

func newWorkspaceService(t *testing.T) (WorkspaceService, *fakeWorkspaceRepo) {
	t.Helper()
	wsRepo := newFakeWorkspaceRepo()
	guard := NewGuardService(NewPermissionService(wsRepo, nil))
	return NewWorkspaceService(wsRepo, guard), wsRepo
}

func TestWorkspaceCreate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, wsRepo := newWorkspaceService(t)

	ws, err := svc.Create(ctx, "owner-1", "  Docs  ", nil, nil, nil, false)
	require.NoError(t, err)
	require.Equal(t, "Docs", ws.Name)
	require.Equal(t, "owner-1", ws.OwnerID)

	members, err := wsRepo.FindMembers(ctx, ws.ID)
	require.NoError(t, err)
	require.Empty(t, members, "the owner holds no membership row")

	_, err = svc.Create(ctx, "owner-1", "   ", nil, nil, nil, false)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, "", "Docs", nil, nil, nil, false)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestWorkspaceGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, wsRepo := newWorkspaceService(t)

	ws, err := svc.Create(ctx, "owner-1", "Docs", nil, nil, nil, true)
	require.NoError(t, err)
	_, err = wsRepo.AddMember(ctx, &repository.WorkspaceMember{
		WorkspaceID: ws.ID,
		UserID:      "viewer-1",
		Role:        repository.RoleViewer,
	})
	require.NoError(t, err)

	got, err := svc.Get(ctx, "owner-1", ws.ID)
	require.NoError(t, err)
	require.Equal(t, ws.ID, got.ID)

	_, err = svc.Get(ctx, "viewer-1", ws.ID)
	require.NoError(t, err)

	// Public metadata visibility does not bypass membership checks.
	_, err = svc.Get(ctx, "stranger", ws.ID)
	denied, ok := AsDenied(err)
	require.True(t, ok)
	require.Equal(t, DenyNotAMember, denied.Decision.Code)
}

func TestWorkspaceUpdate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, wsRepo := newWorkspaceService(t)

	ws, err := svc.Create(ctx, "owner-1", "Docs", nil, nil, nil, false)
	require.NoError(t, err)
	_, err = wsRepo.AddMember(ctx, &repository.WorkspaceMember{
		WorkspaceID: ws.ID,
		UserID:      "editor-1",
		Role:        repository.RoleEditor,
	})
	require.NoError(t, err)

	name := "Docs v2"
	public := true
	updated, err := svc.Update(ctx, "owner-1", ws.ID, &name, nil, nil, nil, &public)
	require.NoError(t, err)
	require.Equal(t, "Docs v2", updated.Name)
	require.True(t, updated.IsPublic)

	// Partial update leaves other fields alone.
	desc := "team docs"
	updated, err = svc.Update(ctx, "owner-1", ws.ID, nil, &desc, nil, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "Docs v2", updated.Name)
	require.Equal(t, "team docs", *updated.Description)
	require.True(t, updated.IsPublic)

	_, err = svc.Update(ctx, "editor-1", ws.ID, &name, nil, nil, nil, nil)
	denied, ok := AsDenied(err)
	require.True(t, ok)
	require.Equal(t, DenyInsufficientRole, denied.Decision.Code)
}

func TestWorkspaceDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, wsRepo := newWorkspaceService(t)

	ws, err := svc.Create(ctx, "owner-1", "Docs", nil, nil, nil, false)
	require.NoError(t, err)
	_, err = wsRepo.AddMember(ctx, &repository.WorkspaceMember{
		WorkspaceID: ws.ID,
		UserID:      "admin-1",
		Role:        repository.RoleAdmin,
	})
	require.NoError(t, err)

	// Deletion is owner-only; even an admin is denied.
	err = svc.Delete(ctx, "admin-1", ws.ID)
	denied, ok := AsDenied(err)
	require.True(t, ok)
	require.Equal(t, DenyOwnershipRequired, denied.Decision.Code)

	require.NoError(t, svc.Delete(ctx, "owner-1", ws.ID))

	got, err := wsRepo.FindByID(ctx, ws.ID)
	require.NoError(t, err)
	require.Nil(t, got)
}
