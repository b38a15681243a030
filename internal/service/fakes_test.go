package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/docsphere/docsphere-backend/internal/repository"
)

// In-memory repository fakes. They mirror the Postgres semantics the services
// lean on: the partial unique index on live pending invitations, CAS status
// transitions, and idempotent member inserts.

type fakeWorkspaceRepo struct {
	mu         sync.Mutex
	seq        int
	workspaces map[string]*repository.Workspace
	members    map[string]map[string]*repository.WorkspaceMember
}

func newFakeWorkspaceRepo() *fakeWorkspaceRepo {
	return &fakeWorkspaceRepo{
		workspaces: make(map[string]*repository.Workspace),
		members:    make(map[string]map[string]*repository.WorkspaceMember),
	}
}

func (f *fakeWorkspaceRepo) nextID() string {
	f.seq++
	return fmt.Sprintf("ws-%d", f.seq)
}

func (f *fakeWorkspaceRepo) Create(ctx context.Context, workspace *repository.Workspace) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if workspace.ID == "" {
		workspace.ID = f.nextID()
	}
	workspace.CreatedAt = time.Now()
	workspace.UpdatedAt = workspace.CreatedAt
	f.workspaces[workspace.ID] = workspace
	return nil
}

func (f *fakeWorkspaceRepo) FindByID(ctx context.Context, id string) (*repository.Workspace, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.workspaces[id], nil
}

func (f *fakeWorkspaceRepo) FindByUserID(ctx context.Context, userID string) ([]*repository.Workspace, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*repository.Workspace
	for _, ws := range f.workspaces {
		if ws.OwnerID == userID {
			out = append(out, ws)
			continue
		}
		if _, ok := f.members[ws.ID][userID]; ok {
			out = append(out, ws)
		}
	}
	return out, nil
}

func (f *fakeWorkspaceRepo) Update(ctx context.Context, workspace *repository.Workspace) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	workspace.UpdatedAt = time.Now()
	f.workspaces[workspace.ID] = workspace
	return nil
}

func (f *fakeWorkspaceRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.workspaces, id)
	delete(f.members, id)
	return nil
}

func (f *fakeWorkspaceRepo) AddMember(ctx context.Context, member *repository.WorkspaceMember) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.members[member.WorkspaceID] == nil {
		f.members[member.WorkspaceID] = make(map[string]*repository.WorkspaceMember)
	}
	if _, exists := f.members[member.WorkspaceID][member.UserID]; exists {
		return false, nil
	}
	if member.ID == "" {
		member.ID = fmt.Sprintf("mem-%s-%s", member.WorkspaceID, member.UserID)
	}
	member.JoinedAt = time.Now()
	f.members[member.WorkspaceID][member.UserID] = member
	return true, nil
}

func (f *fakeWorkspaceRepo) FindMembers(ctx context.Context, workspaceID string) ([]*repository.WorkspaceMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*repository.WorkspaceMember
	for _, m := range f.members[workspaceID] {
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeWorkspaceRepo) FindMember(ctx context.Context, workspaceID, userID string) (*repository.WorkspaceMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[workspaceID][userID], nil
}

func (f *fakeWorkspaceRepo) UpdateMemberRole(ctx context.Context, workspaceID, userID string, role repository.Role, permissions *repository.PermissionSet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[workspaceID][userID]
	if !ok {
		return nil
	}
	m.Role = role
	m.Permissions = permissions
	return nil
}

func (f *fakeWorkspaceRepo) RemoveMember(ctx context.Context, workspaceID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.members[workspaceID], userID)
	return nil
}

type fakeInvitationRepo struct {
	mu          sync.Mutex
	seq         int
	invitations map[string]*repository.Invitation
}

func newFakeInvitationRepo() *fakeInvitationRepo {
	return &fakeInvitationRepo{invitations: make(map[string]*repository.Invitation)}
}

func (f *fakeInvitationRepo) Create(ctx context.Context, invitation *repository.Invitation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invitations {
		if inv.WorkspaceID == invitation.WorkspaceID &&
			inv.Email == invitation.Email &&
			inv.Status == repository.InvitationStatusPending {
			return repository.ErrDuplicatePending
		}
	}
	f.seq++
	invitation.ID = fmt.Sprintf("inv-%d", f.seq)
	invitation.CreatedAt = time.Now()
	invitation.UpdatedAt = invitation.CreatedAt
	cp := *invitation
	f.invitations[invitation.ID] = &cp
	return nil
}

func (f *fakeInvitationRepo) FindByID(ctx context.Context, id string) (*repository.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invitations[id]
	if !ok {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeInvitationRepo) FindByToken(ctx context.Context, token string) (*repository.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invitations {
		if inv.Token == token {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeInvitationRepo) FindPendingByEmail(ctx context.Context, email string) ([]*repository.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*repository.Invitation
	for _, inv := range f.invitations {
		if inv.Email == email && inv.Status == repository.InvitationStatusPending && time.Now().Before(inv.ExpiresAt) {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeInvitationRepo) FindByWorkspace(ctx context.Context, workspaceID string, limit, offset int) ([]*repository.Invitation, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []*repository.Invitation
	for _, inv := range f.invitations {
		if inv.WorkspaceID == workspaceID {
			cp := *inv
			all = append(all, &cp)
		}
	}
	total := len(all)
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (f *fakeInvitationRepo) CASStatus(ctx context.Context, id string, expected, next repository.InvitationStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invitations[id]
	if !ok || inv.Status != expected {
		return false, nil
	}
	inv.Status = next
	inv.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakeInvitationRepo) MarkAccepted(ctx context.Context, id, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invitations[id]
	if !ok || inv.Status != repository.InvitationStatusPending {
		return false, nil
	}
	now := time.Now()
	inv.Status = repository.InvitationStatusAccepted
	inv.AcceptedAt = &now
	inv.AcceptedBy = &userID
	inv.UpdatedAt = now
	return true, nil
}

func (f *fakeInvitationRepo) SweepExpired(ctx context.Context, workspaceID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, inv := range f.invitations {
		if workspaceID != "" && inv.WorkspaceID != workspaceID {
			continue
		}
		if inv.Status == repository.InvitationStatusPending && time.Now().After(inv.ExpiresAt) {
			inv.Status = repository.InvitationStatusExpired
			count++
		}
	}
	return count, nil
}

// status reads the stored status directly, bypassing the copy semantics of
// the find methods.
func (f *fakeInvitationRepo) status(id string) repository.InvitationStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.invitations[id].Status
}

type fakeUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*repository.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*repository.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *repository.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == "" {
		f.seq++
		user.ID = fmt.Sprintf("user-%d", f.seq)
	}
	user.CreatedAt = time.Now()
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*repository.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id], nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*repository.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if normalizeEmail(u.Email) == normalizeEmail(email) {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *repository.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) UpdateLastActive(ctx context.Context, id string) error { return nil }

func (f *fakeUserRepo) SaveRefreshToken(ctx context.Context, token *repository.RefreshToken) error {
	return nil
}

func (f *fakeUserRepo) FindRefreshToken(ctx context.Context, token string) (*repository.RefreshToken, error) {
	return nil, nil
}

func (f *fakeUserRepo) DeleteRefreshToken(ctx context.Context, token string) error { return nil }

type fakeActivityRepo struct {
	mu      sync.Mutex
	entries []*repository.InvitationActivity
}

func (f *fakeActivityRepo) Log(ctx context.Context, activity *repository.InvitationActivity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *activity
	cp.ID = fmt.Sprintf("act-%d", len(f.entries)+1)
	cp.CreatedAt = time.Now()
	f.entries = append(f.entries, &cp)
	return nil
}

func (f *fakeActivityRepo) FindByInvitation(ctx context.Context, invitationID string) ([]*repository.InvitationActivity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*repository.InvitationActivity
	for _, a := range f.entries {
		if a.InvitationID == invitationID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeActivityRepo) actions(invitationID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, a := range f.entries {
		if a.InvitationID == invitationID {
			out = append(out, a.Action)
		}
	}
	return out
}

// fakeCache is a map-backed PermissionCache with hit counting.
type fakeCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	hits    int
	deletes int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (f *fakeCache) GetCache(ctx context.Context, key string, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.data[key]
	if !ok {
		return fmt.Errorf("cache miss: %s", key)
	}
	f.hits++
	return json.Unmarshal(raw, dest)
}

func (f *fakeCache) SetCache(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.data[key] = raw
	return nil
}

func (f *fakeCache) DeleteCache(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	f.deletes++
	return nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeNotifier) SendInvitation(workspaceName, email, invitedBy, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, email)
	return nil
}
