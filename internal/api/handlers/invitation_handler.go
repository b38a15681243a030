package handlers

import (
	"net/http"
	"strconv"

	"github.com/docsphere/docsphere-backend/internal/api/middleware"
	"github.com/docsphere/docsphere-backend/internal/models"
	"github.com/docsphere/docsphere-backend/internal/repository"
	"github.com/docsphere/docsphere-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ============================================
// Invitation Handler
// ============================================

type InvitationHandler struct {
	invitationService service.InvitationService
}

// Create issues a workspace invitation. One live pending invitation per
// workspace and email pair; duplicates come back as 409.
func (h *InvitationHandler) Create(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	workspaceID := c.Param("id")

	var req models.CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inv, err := h.invitationService.Create(c.Request.Context(), workspaceID, req.Email, repository.Role(req.Role), userID, req.Message)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toInvitationResponse(inv))
}

func (h *InvitationHandler) ListByWorkspace(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	workspaceID := c.Param("id")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("perPage", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	invitations, total, err := h.invitationService.ListByWorkspace(c.Request.Context(), userID, workspaceID, perPage, (page-1)*perPage)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response := make([]models.InvitationResponse, len(invitations))
	for i, inv := range invitations {
		response[i] = toInvitationResponse(inv)
	}

	c.JSON(http.StatusOK, models.NewPaginatedResponse(response, total, page, perPage))
}

// GetByToken is public: the invitee follows the emailed link before they have
// an account. Expiry is evaluated on read, so a stale pending row comes back
// already flipped to expired.
func (h *InvitationHandler) GetByToken(c *gin.Context) {
	token := c.Param("token")

	inv, err := h.invitationService.GetByToken(c.Request.Context(), token)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toInvitationResponse(inv))
}

func (h *InvitationHandler) Accept(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	email := middleware.GetUserEmail(c)
	token := c.Param("token")

	result, err := h.invitationService.Accept(c.Request.Context(), token, email, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.AcceptInvitationResponse{
		WorkspaceID:   result.WorkspaceID,
		AlreadyMember: result.AlreadyMember,
	})
}

func (h *InvitationHandler) Reject(c *gin.Context) {
	token := c.Param("token")

	if err := h.invitationService.Reject(c.Request.Context(), token); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *InvitationHandler) Cancel(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	invitationID := c.Param("invitationId")

	if err := h.invitationService.Cancel(c.Request.Context(), invitationID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

func (h *InvitationHandler) Resend(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	invitationID := c.Param("invitationId")

	inv, err := h.invitationService.Resend(c.Request.Context(), invitationID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toInvitationResponse(inv))
}

// MyInvitations lists pending invitations addressed to the caller's email.
func (h *InvitationHandler) MyInvitations(c *gin.Context) {
	if _, ok := middleware.RequireUserID(c); !ok {
		return
	}
	email := middleware.GetUserEmail(c)
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is missing email claim"})
		return
	}

	invitations, err := h.invitationService.MyInvitations(c.Request.Context(), email)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response := make([]models.InvitationResponse, len(invitations))
	for i, inv := range invitations {
		response[i] = toInvitationResponse(inv)
	}

	c.JSON(http.StatusOK, response)
}

func (h *InvitationHandler) Activity(c *gin.Context) {
	if _, ok := middleware.RequireUserID(c); !ok {
		return
	}
	invitationID := c.Param("invitationId")

	activities, err := h.invitationService.Activity(c.Request.Context(), invitationID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response := make([]models.InvitationActivityResponse, len(activities))
	for i, a := range activities {
		response[i] = toActivityResponse(a)
	}

	c.JSON(http.StatusOK, response)
}
