package handlers

import (
	"errors"
	"net/http"

	"github.com/docsphere/docsphere-backend/internal/models"
	"github.com/docsphere/docsphere-backend/internal/repository"
	"github.com/docsphere/docsphere-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	Auth       *AuthHandler
	User       *UserHandler
	Workspace  *WorkspaceHandler
	Member     *MemberHandler
	Invitation *InvitationHandler
}

// NewHandlers creates all handlers
func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Auth:       &AuthHandler{authService: services.Auth},
		User:       &UserHandler{userService: services.User},
		Workspace:  &WorkspaceHandler{workspaceService: services.Workspace, permissionService: services.Permission},
		Member:     &MemberHandler{memberService: services.Member},
		Invitation: &InvitationHandler{invitationService: services.Invitation},
	}
}

// respondServiceError translates service errors into HTTP responses. Guard
// denials carry a machine-readable code so clients can distinguish "not a
// member" from "insufficient role" without parsing prose.
func respondServiceError(c *gin.Context, err error) {
	if denied, ok := service.AsDenied(err); ok {
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Error: denied.Decision.Reason,
			Code:  denied.Decision.Code,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Already a member"})
	case errors.Is(err, service.ErrDuplicateInvitation):
		c.JSON(http.StatusConflict, gin.H{"error": "A pending invitation already exists for this email"})
	case errors.Is(err, service.ErrAlreadyTerminal):
		c.JSON(http.StatusConflict, gin.H{"error": "Invitation has already been finalized"})
	case errors.Is(err, service.ErrExpired):
		c.JSON(http.StatusGone, gin.H{"error": "Invitation has expired"})
	case errors.Is(err, service.ErrEmailMismatch):
		c.JSON(http.StatusForbidden, gin.H{"error": "Invitation was issued to a different email"})
	case errors.Is(err, service.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// ============================================
// Response Mappers
// ============================================

func toUserResponse(u *repository.User) models.UserResponse {
	return models.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
	}
}

func toWorkspaceResponse(w *repository.Workspace) models.WorkspaceResponse {
	return models.WorkspaceResponse{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Icon:        w.Icon,
		Color:       w.Color,
		OwnerID:     w.OwnerID,
		IsPublic:    w.IsPublic,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func toMemberResponse(m *repository.WorkspaceMember) models.MemberResponse {
	resp := models.MemberResponse{
		ID:          m.ID,
		WorkspaceID: m.WorkspaceID,
		UserID:      m.UserID,
		Role:        string(m.Role),
		JoinedAt:    m.JoinedAt,
	}
	if m.Permissions != nil {
		resp.Permissions = &models.PermissionsBody{
			CanView:   m.Permissions.CanView,
			CanEdit:   m.Permissions.CanEdit,
			CanAdd:    m.Permissions.CanAdd,
			CanDelete: m.Permissions.CanDelete,
			CanInvite: m.Permissions.CanInvite,
		}
	}
	if m.User != nil {
		resp.User = &models.UserInfo{
			ID:     m.User.ID,
			Email:  m.User.Email,
			Name:   m.User.Name,
			Avatar: m.User.Avatar,
		}
	}
	return resp
}

func toInvitationResponse(inv *repository.Invitation) models.InvitationResponse {
	return models.InvitationResponse{
		ID:            inv.ID,
		WorkspaceID:   inv.WorkspaceID,
		Email:         inv.Email,
		Role:          string(inv.Role),
		Message:       inv.Message,
		Status:        string(inv.Status),
		InvitedBy:     inv.InvitedByID,
		InvitedByName: inv.InvitedByName,
		ExpiresAt:     inv.ExpiresAt,
		AcceptedAt:    inv.AcceptedAt,
		CreatedAt:     inv.CreatedAt,
	}
}

func toActivityResponse(a *repository.InvitationActivity) models.InvitationActivityResponse {
	return models.InvitationActivityResponse{
		ID:           a.ID,
		InvitationID: a.InvitationID,
		Action:       a.Action,
		ActorID:      a.ActorID,
		ActorType:    a.ActorType,
		CreatedAt:    a.CreatedAt,
	}
}

func toAccessResponse(access service.ResolvedAccess) models.AccessResponse {
	return models.AccessResponse{
		Role:    string(access.Role),
		IsOwner: access.IsOwner,
		Permissions: map[string]bool{
			"can_view":   access.Permissions.CanView,
			"can_edit":   access.Permissions.CanEdit,
			"can_add":    access.Permissions.CanAdd,
			"can_delete": access.Permissions.CanDelete,
			"can_invite": access.Permissions.CanInvite,
		},
	}
}
