package repository

import (
	"errors"
	"time"
)

// ============================================
// Models / Entities
// ============================================

type User struct {
	ID           string
	Email        string
	Password     string
	Name         string
	Avatar       *string
	LastActiveAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type RefreshToken struct {
	ID        string
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Role is a workspace role, totally ordered by privilege:
// viewer < editor < admin < owner.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

// PermissionSet is the canonical capability record. Every action in the
// system is ultimately gated by one of these five booleans. A membership may
// carry a custom set that overrides its role's defaults.
type PermissionSet struct {
	CanView   bool `json:"can_view"`
	CanEdit   bool `json:"can_edit"`
	CanAdd    bool `json:"can_add"`
	CanDelete bool `json:"can_delete"`
	CanInvite bool `json:"can_invite"`
}

type Workspace struct {
	ID          string
	Name        string
	Description *string
	Icon        *string
	Color       *string
	OwnerID     string
	IsPublic    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// WorkspaceMember binds a non-owner user to a workspace. The owner is never
// stored as a member; ownership lives on the workspace row.
// Permissions is nil when the membership uses its role's defaults.
type WorkspaceMember struct {
	ID          string
	WorkspaceID string
	UserID      string
	Role        Role
	Permissions *PermissionSet
	JoinedAt    time.Time
	User        *User
}

// InvitationStatus represents current state of invitation.
// pending is the only non-terminal state.
type InvitationStatus string

const (
	InvitationStatusPending   InvitationStatus = "pending"
	InvitationStatusAccepted  InvitationStatus = "accepted"
	InvitationStatusRejected  InvitationStatus = "rejected"
	InvitationStatusExpired   InvitationStatus = "expired"
	InvitationStatusCancelled InvitationStatus = "cancelled"
)

// Invitation is a time-boxed, single-use token offering a prospective member
// a specific role in a specific workspace.
type Invitation struct {
	ID            string
	WorkspaceID   string
	Email         string
	Token         string
	Role          Role
	Message       *string
	InvitedByID   string
	InvitedByName string
	Status        InvitationStatus
	ExpiresAt     time.Time
	AcceptedAt    *time.Time
	AcceptedBy    *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// InvitationActivity logs invitation lifecycle events. Writes are best-effort.
type InvitationActivity struct {
	ID           string    `db:"id"`
	InvitationID string    `db:"invitation_id"`
	Action       string    `db:"action"` // created, accepted, rejected, cancelled, resent, expired
	ActorID      *string   `db:"actor_id"`
	ActorType    string    `db:"actor_type"` // user, system
	Details      *string   `db:"details"`
	CreatedAt    time.Time `db:"created_at"`
}

// ============================================
// Helpers
// ============================================

// ErrDuplicatePending is returned when a live pending invitation already
// exists for the same (workspace, email) pair. Enforced by a partial unique
// index so the check and the insert share one transactional boundary.
var ErrDuplicatePending = errors.New("pending invitation already exists for this email")

func (i *Invitation) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

func (i *Invitation) IsTerminal() bool {
	return i.Status != InvitationStatusPending
}

func (i *Invitation) CanAccept() bool {
	return i.Status == InvitationStatusPending && !i.IsExpired()
}

// ValidRole reports whether r is an assignable invitation role. Ownership is
// never granted by invitation.
func ValidRole(r Role) bool {
	switch r {
	case RoleViewer, RoleEditor, RoleAdmin:
		return true
	default:
		return false
	}
}
