package models

import "time"

// ============================================
// Invitation DTOs
// ============================================

type CreateInvitationRequest struct {
	Email   string  `json:"email" binding:"required,email"`
	Role    string  `json:"role" binding:"required,oneof=viewer editor admin"`
	Message *string `json:"message"`
}

type InvitationResponse struct {
	ID            string     `json:"id"`
	WorkspaceID   string     `json:"workspaceId"`
	WorkspaceName string     `json:"workspaceName,omitempty"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	Message       *string    `json:"message,omitempty"`
	Status        string     `json:"status"`
	InvitedBy     string     `json:"invitedBy"`
	InvitedByName string     `json:"invitedByName,omitempty"`
	ExpiresAt     time.Time  `json:"expiresAt"`
	AcceptedAt    *time.Time `json:"acceptedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type AcceptInvitationResponse struct {
	WorkspaceID   string `json:"workspaceId"`
	AlreadyMember bool   `json:"alreadyMember"`
}

type InvitationActivityResponse struct {
	ID           string    `json:"id"`
	InvitationID string    `json:"invitationId"`
	Action       string    `json:"action"`
	ActorID      *string   `json:"actorId,omitempty"`
	ActorType    string    `json:"actorType"`
	CreatedAt    time.Time `json:"createdAt"`
}
