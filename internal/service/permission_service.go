package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/docsphere/docsphere-backend/internal/repository"
)

// ============================================
// Role Catalog
// ============================================

// roleRank returns numeric level for role comparison (higher = more
// privileged). Unknown roles rank below viewer.
func roleRank(role repository.Role) int {
	switch role {
	case repository.RoleOwner:
		return 4
	case repository.RoleAdmin:
		return 3
	case repository.RoleEditor:
		return 2
	case repository.RoleViewer:
		return 1
	default:
		return 0
	}
}

// HasMinimumRole checks if role has at least the minimum required rank.
func HasMinimumRole(role, minimum repository.Role) bool {
	return roleRank(role) >= roleRank(minimum)
}

// DefaultPermissions returns the default permission set for a role.
func DefaultPermissions(role repository.Role) repository.PermissionSet {
	switch role {
	case repository.RoleOwner:
		return repository.PermissionSet{CanView: true, CanEdit: true, CanAdd: true, CanDelete: true, CanInvite: true}
	case repository.RoleAdmin:
		return repository.PermissionSet{CanView: true, CanEdit: true, CanAdd: true, CanDelete: true, CanInvite: true}
	case repository.RoleEditor:
		return repository.PermissionSet{CanView: true, CanEdit: true, CanAdd: true}
	case repository.RoleViewer:
		return repository.PermissionSet{CanView: true}
	default:
		return repository.PermissionSet{}
	}
}

// ============================================
// Action aliases
// ============================================

// actionAliases maps caller-supplied action names onto canonical permission
// keys. The translation happens once, here, so nothing downstream ever
// inspects permission shapes at runtime.
var actionAliases = map[string]string{
	"can_view":   "can_view",
	"can_edit":   "can_edit",
	"can_add":    "can_add",
	"can_delete": "can_delete",
	"can_invite": "can_invite",
	"read":       "can_view",
	"view":       "can_view",
	"write":      "can_edit",
	"edit":       "can_edit",
	"add":        "can_add",
	"create":     "can_add",
	"delete":     "can_delete",
	"remove":     "can_delete",
	"invite":     "can_invite",
	"manage":     "can_invite",
}

// permissionFor resolves an action name against a permission set. Unknown
// actions resolve to false, never an error.
func permissionFor(set repository.PermissionSet, action string) bool {
	key, ok := actionAliases[strings.ToLower(strings.TrimSpace(action))]
	if !ok {
		return false
	}
	switch key {
	case "can_view":
		return set.CanView
	case "can_edit":
		return set.CanEdit
	case "can_add":
		return set.CanAdd
	case "can_delete":
		return set.CanDelete
	case "can_invite":
		return set.CanInvite
	default:
		return false
	}
}

// ============================================
// Permission Resolution
// ============================================

// ResolvedAccess is the effective access a user holds in a workspace.
// A zero Role means no access at all.
type ResolvedAccess struct {
	Role        repository.Role          `json:"role"`
	Permissions repository.PermissionSet `json:"permissions"`
	IsOwner     bool                     `json:"is_owner"`
}

// resolveAccess computes access from ownership and membership data alone.
// Order matters: the owner check is unconditional and short-circuits
// everything else, so an owner can never be locked out.
func resolveAccess(workspace *repository.Workspace, member *repository.WorkspaceMember, userID string) ResolvedAccess {
	if userID != "" && userID == workspace.OwnerID {
		return ResolvedAccess{
			Role:        repository.RoleOwner,
			Permissions: DefaultPermissions(repository.RoleOwner),
			IsOwner:     true,
		}
	}
	if member == nil {
		return ResolvedAccess{}
	}
	perms := DefaultPermissions(member.Role)
	if member.Permissions != nil {
		// Explicit grant wins over role defaults.
		perms = *member.Permissions
	}
	return ResolvedAccess{Role: member.Role, Permissions: perms}
}

// PermissionCache is a read-through cache for resolved access snapshots.
// Implementations may return stale data; permission checks tolerate a
// slightly stale snapshot.
type PermissionCache interface {
	GetCache(ctx context.Context, key string, dest interface{}) error
	SetCache(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DeleteCache(ctx context.Context, key string) error
}

// PermissionService resolves effective workspace permissions for users.
type PermissionService interface {
	Resolve(ctx context.Context, workspaceID, userID string) (ResolvedAccess, error)
	Can(ctx context.Context, userID, workspaceID, action string) bool
	RoleOf(ctx context.Context, userID, workspaceID string) (repository.Role, error)
	HasMinimumRole(ctx context.Context, userID, workspaceID string, minimum repository.Role) bool
	InvalidateAccess(ctx context.Context, workspaceID, userID string)
}

type permissionService struct {
	workspaceRepo repository.WorkspaceRepository
	cache         PermissionCache
	cacheTTL      time.Duration
}

func NewPermissionService(workspaceRepo repository.WorkspaceRepository, cache PermissionCache) PermissionService {
	return &permissionService{
		workspaceRepo: workspaceRepo,
		cache:         cache,
		cacheTTL:      30 * time.Second,
	}
}

func accessCacheKey(workspaceID, userID string) string {
	return fmt.Sprintf("access:%s:%s", workspaceID, userID)
}

func (s *permissionService) Resolve(ctx context.Context, workspaceID, userID string) (ResolvedAccess, error) {
	if s.cache != nil {
		var cached ResolvedAccess
		if err := s.cache.GetCache(ctx, accessCacheKey(workspaceID, userID), &cached); err == nil {
			return cached, nil
		}
	}

	workspace, err := s.workspaceRepo.FindByID(ctx, workspaceID)
	if err != nil {
		return ResolvedAccess{}, err
	}
	if workspace == nil {
		return ResolvedAccess{}, ErrNotFound
	}

	var member *repository.WorkspaceMember
	if userID != workspace.OwnerID {
		member, err = s.workspaceRepo.FindMember(ctx, workspaceID, userID)
		if err != nil {
			return ResolvedAccess{}, err
		}
	}

	access := resolveAccess(workspace, member, userID)

	if s.cache != nil {
		if err := s.cache.SetCache(ctx, accessCacheKey(workspaceID, userID), access, s.cacheTTL); err != nil {
			log.Printf("[Permission] cache write failed: %v", err)
		}
	}
	return access, nil
}

func (s *permissionService) Can(ctx context.Context, userID, workspaceID, action string) bool {
	access, err := s.Resolve(ctx, workspaceID, userID)
	if err != nil {
		return false
	}
	return permissionFor(access.Permissions, action)
}

func (s *permissionService) RoleOf(ctx context.Context, userID, workspaceID string) (repository.Role, error) {
	access, err := s.Resolve(ctx, workspaceID, userID)
	if err != nil {
		return "", err
	}
	return access.Role, nil
}

func (s *permissionService) HasMinimumRole(ctx context.Context, userID, workspaceID string, minimum repository.Role) bool {
	access, err := s.Resolve(ctx, workspaceID, userID)
	if err != nil || access.Role == "" {
		return false
	}
	return HasMinimumRole(access.Role, minimum)
}

func (s *permissionService) InvalidateAccess(ctx context.Context, workspaceID, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteCache(ctx, accessCacheKey(workspaceID, userID)); err != nil {
		log.Printf("[Permission] cache invalidation failed: %v", err)
	}
}
