package models

import "time"

// ============================================
// Member Management Models
// ============================================

type UpdateMemberRoleRequest struct {
	Role        string           `json:"role" binding:"required,oneof=viewer editor admin"`
	Permissions *PermissionsBody `json:"permissions,omitempty"`
}

// PermissionsBody carries a per-member permission override. When omitted the
// member falls back to the defaults of their role.
type PermissionsBody struct {
	CanView   bool `json:"can_view"`
	CanEdit   bool `json:"can_edit"`
	CanAdd    bool `json:"can_add"`
	CanDelete bool `json:"can_delete"`
	CanInvite bool `json:"can_invite"`
}

type MemberResponse struct {
	ID          string           `json:"id"`
	WorkspaceID string           `json:"workspaceId"`
	UserID      string           `json:"userId"`
	Role        string           `json:"role"`
	Permissions *PermissionsBody `json:"permissions,omitempty"`
	JoinedAt    time.Time        `json:"joinedAt"`
	User        *UserInfo        `json:"user,omitempty"`
}

type UserInfo struct {
	ID     string  `json:"id"`
	Email  string  `json:"email"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar,omitempty"`
}
