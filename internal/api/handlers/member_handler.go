package handlers

import (
	"net/http"

	"github.com/docsphere/docsphere-backend/internal/api/middleware"
	"github.com/docsphere/docsphere-backend/internal/models"
	"github.com/docsphere/docsphere-backend/internal/repository"
	"github.com/docsphere/docsphere-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ============================================
// Member Handler
// ============================================

type MemberHandler struct {
	memberService service.MemberService
}

func (h *MemberHandler) List(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	workspaceID := c.Param("id")

	members, err := h.memberService.ListMembers(c.Request.Context(), userID, workspaceID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response := make([]models.MemberResponse, len(members))
	for i, m := range members {
		response[i] = toMemberResponse(m)
	}

	c.JSON(http.StatusOK, response)
}

func (h *MemberHandler) UpdateRole(c *gin.Context) {
	actorID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	workspaceID := c.Param("id")
	memberUserID := c.Param("userId")

	var req models.UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var perms *repository.PermissionSet
	if req.Permissions != nil {
		perms = &repository.PermissionSet{
			CanView:   req.Permissions.CanView,
			CanEdit:   req.Permissions.CanEdit,
			CanAdd:    req.Permissions.CanAdd,
			CanDelete: req.Permissions.CanDelete,
			CanInvite: req.Permissions.CanInvite,
		}
	}

	err := h.memberService.UpdateMemberRole(c.Request.Context(), actorID, workspaceID, memberUserID, repository.Role(req.Role), perms)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *MemberHandler) Remove(c *gin.Context) {
	actorID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	workspaceID := c.Param("id")
	memberUserID := c.Param("userId")

	if err := h.memberService.RemoveMember(c.Request.Context(), actorID, workspaceID, memberUserID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
