package service

import (
	"context"
	"testing"

	"github.com/docsphere/docsphere-backend/internal/repository"
	"github.com/stretchr/testify/require"
)

type memberFixture struct {
	svc      MemberService
	wsRepo   *fakeWorkspaceRepo
	userRepo *fakeUserRepo
	cache    *fakeCache

	ws    *repository.Workspace
	owner *repository.User
}

func newMemberFixture(t *testing.T) *memberFixture {
	t.Helper()
	ctx := context.Background()

	f := &memberFixture{
		wsRepo:   newFakeWorkspaceRepo(),
		userRepo: newFakeUserRepo(),
		cache:    newFakeCache(),
	}

	f.owner = &repository.User{Email: "owner@example.com", Name: "Owner"}
	require.NoError(t, f.userRepo.Create(ctx, f.owner))

	f.ws = &repository.Workspace{Name: "Docs", OwnerID: f.owner.ID}
	require.NoError(t, f.wsRepo.Create(ctx, f.ws))

	perms := NewPermissionService(f.wsRepo, f.cache)
	guard := NewGuardService(perms)
	f.svc = NewMemberService(f.wsRepo, f.userRepo, guard, perms)
	return f
}

func (f *memberFixture) addMember(t *testing.T, email string, role repository.Role) *repository.User {
	t.Helper()
	ctx := context.Background()
	user := &repository.User{Email: email, Name: email}
	require.NoError(t, f.userRepo.Create(ctx, user))
	_, err := f.wsRepo.AddMember(ctx, &repository.WorkspaceMember{
		WorkspaceID: f.ws.ID,
		UserID:      user.ID,
		Role:        role,
	})
	require.NoError(t, err)
	return user
}

func TestListMembers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newMemberFixture(t)
	viewer := f.addMember(t, "viewer@example.com", repository.RoleViewer)
	f.addMember(t, "editor@example.com", repository.RoleEditor)

	members, err := f.svc.ListMembers(ctx, f.owner.ID, f.ws.ID)
	require.NoError(t, err)
	require.Len(t, members, 2, "the owner is not in the member list")

	// Any member with view permission can list.
	members, err = f.svc.ListMembers(ctx, viewer.ID, f.ws.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)

	_, err = f.svc.ListMembers(ctx, "stranger", f.ws.ID)
	denied, ok := AsDenied(err)
	require.True(t, ok)
	require.Equal(t, DenyNotAMember, denied.Decision.Code)
}

func TestUpdateMemberRole(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("admin promotes a member", func(t *testing.T) {
		t.Parallel()
		f := newMemberFixture(t)
		admin := f.addMember(t, "admin@example.com", repository.RoleAdmin)
		target := f.addMember(t, "target@example.com", repository.RoleViewer)

		require.NoError(t, f.svc.UpdateMemberRole(ctx, admin.ID, f.ws.ID, target.ID, repository.RoleEditor, nil))

		member, err := f.wsRepo.FindMember(ctx, f.ws.ID, target.ID)
		require.NoError(t, err)
		require.Equal(t, repository.RoleEditor, member.Role)
		require.Nil(t, member.Permissions)
	})

	t.Run("custom permission override is stored as given", func(t *testing.T) {
		t.Parallel()
		f := newMemberFixture(t)
		target := f.addMember(t, "target@example.com", repository.RoleViewer)

		custom := &repository.PermissionSet{CanView: true, CanInvite: true}
		require.NoError(t, f.svc.UpdateMemberRole(ctx, f.owner.ID, f.ws.ID, target.ID, repository.RoleViewer, custom))

		member, err := f.wsRepo.FindMember(ctx, f.ws.ID, target.ID)
		require.NoError(t, err)
		require.NotNil(t, member.Permissions)
		require.True(t, member.Permissions.CanInvite)
	})

	t.Run("role change invalidates cached access", func(t *testing.T) {
		t.Parallel()
		f := newMemberFixture(t)
		target := f.addMember(t, "target@example.com", repository.RoleViewer)

		perms := NewPermissionService(f.wsRepo, f.cache)
		_, err := perms.Resolve(ctx, f.ws.ID, target.ID)
		require.NoError(t, err)

		require.NoError(t, f.svc.UpdateMemberRole(ctx, f.owner.ID, f.ws.ID, target.ID, repository.RoleAdmin, nil))

		fresh, err := perms.Resolve(ctx, f.ws.ID, target.ID)
		require.NoError(t, err)
		require.Equal(t, repository.RoleAdmin, fresh.Role)
	})

	t.Run("editor may not change roles", func(t *testing.T) {
		t.Parallel()
		f := newMemberFixture(t)
		editor := f.addMember(t, "editor@example.com", repository.RoleEditor)
		target := f.addMember(t, "target@example.com", repository.RoleViewer)

		err := f.svc.UpdateMemberRole(ctx, editor.ID, f.ws.ID, target.ID, repository.RoleAdmin, nil)
		denied, ok := AsDenied(err)
		require.True(t, ok)
		require.Equal(t, DenyInsufficientRole, denied.Decision.Code)
	})

	t.Run("owner role cannot be assigned", func(t *testing.T) {
		t.Parallel()
		f := newMemberFixture(t)
		target := f.addMember(t, "target@example.com", repository.RoleViewer)

		err := f.svc.UpdateMemberRole(ctx, f.owner.ID, f.ws.ID, target.ID, repository.RoleOwner, nil)
		require.ErrorIs(t, err, ErrInvalidRole)
	})

	t.Run("the owner is not a member target", func(t *testing.T) {
		t.Parallel()
		f := newMemberFixture(t)

		err := f.svc.UpdateMemberRole(ctx, f.owner.ID, f.ws.ID, f.owner.ID, repository.RoleAdmin, nil)
		require.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestRemoveMember(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("admin removes a member", func(t *testing.T) {
		t.Parallel()
		f := newMemberFixture(t)
		admin := f.addMember(t, "admin@example.com", repository.RoleAdmin)
		target := f.addMember(t, "target@example.com", repository.RoleViewer)

		require.NoError(t, f.svc.RemoveMember(ctx, admin.ID, f.ws.ID, target.ID))

		member, err := f.wsRepo.FindMember(ctx, f.ws.ID, target.ID)
		require.NoError(t, err)
		require.Nil(t, member)
	})

	t.Run("a member may leave on their own", func(t *testing.T) {
		t.Parallel()
		f := newMemberFixture(t)
		viewer := f.addMember(t, "viewer@example.com", repository.RoleViewer)

		require.NoError(t, f.svc.RemoveMember(ctx, viewer.ID, f.ws.ID, viewer.ID))

		member, err := f.wsRepo.FindMember(ctx, f.ws.ID, viewer.ID)
		require.NoError(t, err)
		require.Nil(t, member)
	})

	t.Run("a viewer may not remove others", func(t *testing.T) {
		t.Parallel()
		f := newMemberFixture(t)
		viewer := f.addMember(t, "viewer@example.com", repository.RoleViewer)
		target := f.addMember(t, "target@example.com", repository.RoleEditor)

		err := f.svc.RemoveMember(ctx, viewer.ID, f.ws.ID, target.ID)
		_, ok := AsDenied(err)
		require.True(t, ok)
	})

	t.Run("the owner cannot be removed", func(t *testing.T) {
		t.Parallel()
		f := newMemberFixture(t)
		admin := f.addMember(t, "admin@example.com", repository.RoleAdmin)

		err := f.svc.RemoveMember(ctx, admin.ID, f.ws.ID, f.owner.ID)
		require.ErrorIs(t, err, ErrInvalidInput)
	})
}
