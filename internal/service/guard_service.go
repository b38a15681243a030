package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/docsphere/docsphere-backend/internal/repository"
)

// ============================================
// Authorization Guard
// ============================================

type MatchMode string

const (
	MatchAll MatchMode = "all"
	MatchAny MatchMode = "any"
)

// Denial codes. Handlers and callers switch on these for UI messaging.
const (
	DenyNotAMember        = "not_a_member"
	DenyOwnershipRequired = "ownership_required"
	DenyRoleMismatch      = "role_mismatch"
	DenyRoleNotPermitted  = "role_not_permitted"
	DenyInsufficientRole  = "insufficient_role"
	DenyPermission        = "permission_denied"
)

// GuardContext describes a single authorization requirement. Any combination
// of fields may be set; zero values are ignored.
type GuardContext struct {
	UserID      string
	WorkspaceID string

	RequiredRole        repository.Role
	AllowedRoles        []repository.Role
	RequiredPermissions []string
	MatchMode           MatchMode // defaults to MatchAll
	RequireOwnership    bool
	MinimumRole         repository.Role
}

// Decision is the outcome of a guard evaluation. Denials are values, not
// errors; callers need the reason for UI messaging, not a stack unwind.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Code    string `json:"code,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(code, reason string) Decision {
	return Decision{Allowed: false, Code: code, Reason: reason}
}

// DeniedError wraps a Decision when a service operation refuses to proceed.
type DeniedError struct {
	Decision Decision
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("access denied: %s", e.Decision.Reason)
}

// AsDenied extracts a DeniedError from an error chain.
func AsDenied(err error) (*DeniedError, bool) {
	var denied *DeniedError
	if errors.As(err, &denied) {
		return denied, true
	}
	return nil, false
}

// GuardService evaluates authorization requirements against resolved access.
type GuardService interface {
	Evaluate(ctx context.Context, gc GuardContext) (Decision, error)
}

type guardService struct {
	perms PermissionService
}

func NewGuardService(perms PermissionService) GuardService {
	return &guardService{perms: perms}
}

// Evaluate resolves the caller's access and checks it against gc. The only
// error cases are infrastructure failures or an unknown workspace; every
// authorization outcome is a Decision.
func (s *guardService) Evaluate(ctx context.Context, gc GuardContext) (Decision, error) {
	access, err := s.perms.Resolve(ctx, gc.WorkspaceID, gc.UserID)
	if err != nil {
		return Decision{}, err
	}
	return evaluateAccess(access, gc), nil
}

// evaluateAccess applies the checks in a fixed short-circuit order so the
// first failing check determines the denial reason.
func evaluateAccess(access ResolvedAccess, gc GuardContext) Decision {
	if access.Role == "" {
		return deny(DenyNotAMember, "not a member of this workspace")
	}

	if gc.RequireOwnership && !access.IsOwner && access.Role != repository.RoleOwner {
		return deny(DenyOwnershipRequired, "workspace ownership required")
	}

	if gc.RequiredRole != "" && access.Role != gc.RequiredRole {
		return deny(DenyRoleMismatch, fmt.Sprintf("role %q required", gc.RequiredRole))
	}

	if len(gc.AllowedRoles) > 0 {
		permitted := false
		for _, role := range gc.AllowedRoles {
			if access.Role == role {
				permitted = true
				break
			}
		}
		if !permitted {
			return deny(DenyRoleNotPermitted, fmt.Sprintf("role %q is not permitted", access.Role))
		}
	}

	if gc.MinimumRole != "" && !HasMinimumRole(access.Role, gc.MinimumRole) {
		return deny(DenyInsufficientRole, fmt.Sprintf("at least role %q required", gc.MinimumRole))
	}

	if len(gc.RequiredPermissions) > 0 {
		mode := gc.MatchMode
		if mode == "" {
			mode = MatchAll
		}
		granted := 0
		for _, action := range gc.RequiredPermissions {
			if permissionFor(access.Permissions, action) {
				granted++
			}
		}
		switch mode {
		case MatchAny:
			if granted == 0 {
				return deny(DenyPermission, "none of the required permissions are granted")
			}
		default:
			if granted < len(gc.RequiredPermissions) {
				return deny(DenyPermission, "missing required permissions")
			}
		}
	}

	return allow()
}
