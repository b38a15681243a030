package service

import (
	"context"
	"testing"

	"github.com/docsphere/docsphere-backend/internal/repository"
	"github.com/stretchr/testify/require"
)

func ownerAccess() ResolvedAccess {
	return ResolvedAccess{
		Role:        repository.RoleOwner,
		Permissions: DefaultPermissions(repository.RoleOwner),
		IsOwner:     true,
	}
}

func memberAccess(role repository.Role) ResolvedAccess {
	return ResolvedAccess{Role: role, Permissions: DefaultPermissions(role)}
}

func TestEvaluateAccessMembershipGate(t *testing.T) {
	t.Parallel()

	// A zero role fails before any other requirement is looked at.
	decision := evaluateAccess(ResolvedAccess{}, GuardContext{
		RequireOwnership:    true,
		RequiredRole:        repository.RoleAdmin,
		RequiredPermissions: []string{"view"},
	})
	require.False(t, decision.Allowed)
	require.Equal(t, DenyNotAMember, decision.Code)

	decision = evaluateAccess(memberAccess(repository.RoleViewer), GuardContext{})
	require.True(t, decision.Allowed, "an empty requirement set admits any member")
	require.Empty(t, decision.Code)
}

func TestEvaluateAccessOwnership(t *testing.T) {
	t.Parallel()

	decision := evaluateAccess(ownerAccess(), GuardContext{RequireOwnership: true})
	require.True(t, decision.Allowed)

	decision = evaluateAccess(memberAccess(repository.RoleAdmin), GuardContext{RequireOwnership: true})
	require.False(t, decision.Allowed)
	require.Equal(t, DenyOwnershipRequired, decision.Code)
}

func TestEvaluateAccessExactRole(t *testing.T) {
	t.Parallel()

	decision := evaluateAccess(memberAccess(repository.RoleEditor), GuardContext{RequiredRole: repository.RoleEditor})
	require.True(t, decision.Allowed)

	// Exact match, not rank comparison: admin fails an editor requirement.
	decision = evaluateAccess(memberAccess(repository.RoleAdmin), GuardContext{RequiredRole: repository.RoleEditor})
	require.False(t, decision.Allowed)
	require.Equal(t, DenyRoleMismatch, decision.Code)
}

func TestEvaluateAccessAllowedRoles(t *testing.T) {
	t.Parallel()

	allowed := []repository.Role{repository.RoleAdmin, repository.RoleEditor}

	decision := evaluateAccess(memberAccess(repository.RoleEditor), GuardContext{AllowedRoles: allowed})
	require.True(t, decision.Allowed)

	decision = evaluateAccess(memberAccess(repository.RoleViewer), GuardContext{AllowedRoles: allowed})
	require.False(t, decision.Allowed)
	require.Equal(t, DenyRoleNotPermitted, decision.Code)
}

func TestEvaluateAccessMinimumRole(t *testing.T) {
	t.Parallel()

	decision := evaluateAccess(memberAccess(repository.RoleAdmin), GuardContext{MinimumRole: repository.RoleEditor})
	require.True(t, decision.Allowed)

	decision = evaluateAccess(memberAccess(repository.RoleViewer), GuardContext{MinimumRole: repository.RoleEditor})
	require.False(t, decision.Allowed)
	require.Equal(t, DenyInsufficientRole, decision.Code)
}

func TestEvaluateAccessPermissionMatchModes(t *testing.T) {
	t.Parallel()

	editor := memberAccess(repository.RoleEditor) // view, edit, add

	t.Run("all mode requires every permission", func(t *testing.T) {
		t.Parallel()
		decision := evaluateAccess(editor, GuardContext{
			RequiredPermissions: []string{"view", "edit"},
		})
		require.True(t, decision.Allowed)

		decision = evaluateAccess(editor, GuardContext{
			RequiredPermissions: []string{"view", "delete"},
		})
		require.False(t, decision.Allowed)
		require.Equal(t, DenyPermission, decision.Code)
	})

	t.Run("any mode requires at least one", func(t *testing.T) {
		t.Parallel()
		decision := evaluateAccess(editor, GuardContext{
			RequiredPermissions: []string{"delete", "edit"},
			MatchMode:           MatchAny,
		})
		require.True(t, decision.Allowed)

		decision = evaluateAccess(editor, GuardContext{
			RequiredPermissions: []string{"delete", "invite"},
			MatchMode:           MatchAny,
		})
		require.False(t, decision.Allowed)
		require.Equal(t, DenyPermission, decision.Code)
	})

	t.Run("unknown action never grants", func(t *testing.T) {
		t.Parallel()
		decision := evaluateAccess(editor, GuardContext{
			RequiredPermissions: []string{"teleport"},
			MatchMode:           MatchAny,
		})
		require.False(t, decision.Allowed)
	})
}

func TestEvaluateAccessDenialOrder(t *testing.T) {
	t.Parallel()

	// Ownership is checked before role and permission requirements, so a
	// combined context reports the ownership failure first.
	decision := evaluateAccess(memberAccess(repository.RoleViewer), GuardContext{
		RequireOwnership:    true,
		MinimumRole:         repository.RoleAdmin,
		RequiredPermissions: []string{"delete"},
	})
	require.False(t, decision.Allowed)
	require.Equal(t, DenyOwnershipRequired, decision.Code)

	decision = evaluateAccess(memberAccess(repository.RoleViewer), GuardContext{
		MinimumRole:         repository.RoleAdmin,
		RequiredPermissions: []string{"delete"},
	})
	require.False(t, decision.Allowed)
	require.Equal(t, DenyInsufficientRole, decision.Code)
}

func TestGuardServiceEvaluate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	wsRepo := newFakeWorkspaceRepo()
	ws := &repository.Workspace{Name: "Docs", OwnerID: "owner-1", IsPublic: true}
	require.NoError(t, wsRepo.Create(ctx, ws))

	guard := NewGuardService(NewPermissionService(wsRepo, nil))

	decision, err := guard.Evaluate(ctx, GuardContext{
		UserID:           "owner-1",
		WorkspaceID:      ws.ID,
		RequireOwnership: true,
	})
	require.NoError(t, err)
	require.True(t, decision.Allowed)

	// Public visibility does not admit non-members.
	decision, err = guard.Evaluate(ctx, GuardContext{
		UserID:              "stranger",
		WorkspaceID:         ws.ID,
		RequiredPermissions: []string{"view"},
	})
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, DenyNotAMember, decision.Code)

	_, err = guard.Evaluate(ctx, GuardContext{UserID: "owner-1", WorkspaceID: "missing"})
	require.ErrorIs(t, err, ErrNotFound)
}
